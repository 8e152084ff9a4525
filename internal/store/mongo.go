package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/todo-api/internal/common"
	"github.com/ayush/todo-api/internal/models"
)

// MongoTodoStore handles todo list CRUD in MongoDB. Every query is scoped by
// the owning user id.
type MongoTodoStore struct {
	col *mongo.Collection
}

func NewMongoTodoStore(db *mongo.Database) *MongoTodoStore {
	return &MongoTodoStore{col: db.Collection("todos")}
}

// EnsureIndexes indexes todos by owner for the list query.
func (s *MongoTodoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongo ensure todo indexes: %w", err)
	}
	return nil
}

func (s *MongoTodoStore) Insert(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	if todo.Tasks == nil {
		todo.Tasks = []models.Task{}
	}
	res, err := s.col.InsertOne(ctx, todo)
	if err != nil {
		return nil, fmt.Errorf("mongo insert todo: %w", err)
	}
	todo.ID = res.InsertedID.(primitive.ObjectID)
	return todo, nil
}

func (s *MongoTodoStore) ListByUser(ctx context.Context, userID string) ([]models.Todo, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.col.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list todos: %w", err)
	}
	defer cur.Close(ctx)

	var todos []models.Todo
	if err := cur.All(ctx, &todos); err != nil {
		return nil, fmt.Errorf("mongo list todos: %w", err)
	}
	return todos, nil
}

func (s *MongoTodoStore) GetByID(ctx context.Context, userID, id string) (*models.Todo, error) {
	filter, err := todoFilter(userID, id)
	if err != nil {
		return nil, err
	}
	var todo models.Todo
	if err := s.col.FindOne(ctx, filter).Decode(&todo); err != nil {
		return nil, notFoundOr(err, "mongo get todo")
	}
	return &todo, nil
}

func (s *MongoTodoStore) Rename(ctx context.Context, userID, id, name string, now time.Time) (*models.Todo, error) {
	filter, err := todoFilter(userID, id)
	if err != nil {
		return nil, err
	}
	return s.updateOne(ctx, filter, bson.M{"$set": bson.M{"name": name, "updatedAt": now}}, "mongo rename todo")
}

func (s *MongoTodoStore) AddTask(ctx context.Context, userID, id string, task models.Task, now time.Time) (*models.Todo, error) {
	filter, err := todoFilter(userID, id)
	if err != nil {
		return nil, err
	}
	update := bson.M{
		"$push": bson.M{"tasks": task},
		"$set":  bson.M{"updatedAt": now},
	}
	return s.updateOne(ctx, filter, update, "mongo add task")
}

func (s *MongoTodoStore) UpdateTask(ctx context.Context, userID, id, taskID string, req models.UpdateTaskRequest, now time.Time) (*models.Todo, error) {
	filter, err := taskFilter(userID, id, taskID)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": now, "tasks.$.updatedAt": now}
	if req.Description != nil {
		set["tasks.$.description"] = *req.Description
	}
	if req.Done != nil {
		set["tasks.$.done"] = *req.Done
	}

	todo, err := s.updateOne(ctx, filter, bson.M{"$set": set}, "mongo update task")
	if errors.Is(err, common.ErrNotFound) {
		return nil, s.missingTask(ctx, userID, id)
	}
	return todo, err
}

func (s *MongoTodoStore) DeleteTask(ctx context.Context, userID, id, taskID string, now time.Time) (*models.Todo, error) {
	filter, err := taskFilter(userID, id, taskID)
	if err != nil {
		return nil, err
	}
	taskOID := filter["tasks._id"]
	update := bson.M{
		"$pull": bson.M{"tasks": bson.M{"_id": taskOID}},
		"$set":  bson.M{"updatedAt": now},
	}

	todo, err := s.updateOne(ctx, filter, update, "mongo delete task")
	if errors.Is(err, common.ErrNotFound) {
		return nil, s.missingTask(ctx, userID, id)
	}
	return todo, err
}

func (s *MongoTodoStore) Delete(ctx context.Context, userID, id string) error {
	filter, err := todoFilter(userID, id)
	if err != nil {
		return err
	}
	res, err := s.col.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("mongo delete todo: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (s *MongoTodoStore) updateOne(ctx context.Context, filter, update bson.M, op string) (*models.Todo, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var todo models.Todo
	if err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&todo); err != nil {
		return nil, notFoundOr(err, op)
	}
	return &todo, nil
}

// missingTask tells a missing todo apart from a missing task after a
// task-scoped update matched nothing.
func (s *MongoTodoStore) missingTask(ctx context.Context, userID, id string) error {
	filter, err := todoFilter(userID, id)
	if err != nil {
		return err
	}
	n, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return fmt.Errorf("mongo count todos: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return common.ErrTaskNotFound
}

func todoFilter(userID, id string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrNotFound
	}
	return bson.M{"_id": oid, "userId": userID}, nil
}

func taskFilter(userID, id, taskID string) (bson.M, error) {
	filter, err := todoFilter(userID, id)
	if err != nil {
		return nil, err
	}
	taskOID, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, common.ErrTaskNotFound
	}
	filter["tasks._id"] = taskOID
	return filter, nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return common.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
