package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/ayush/todo-api/internal/common"
	"github.com/ayush/todo-api/internal/models"
)

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func TestMongoAccountStore(t *testing.T) {
	mt := newMock(t)

	mt.Run("find by username", func(mt *mtest.T) {
		s := NewMongoAccountStore(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "db.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "username", Value: "alice"},
			{Key: "email", Value: "alice@example.com"},
			{Key: "password", Value: "$2a$hash"},
			{Key: "verified", Value: true},
		}))

		acc, err := s.FindByUsername(context.Background(), "alice")
		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), acc.ID)
		assert.Equal(mt, "$2a$hash", acc.PasswordHash)
		assert.True(mt, acc.Verified)
		assert.Nil(mt, acc.VerificationToken)
	})

	mt.Run("not found", func(mt *mtest.T) {
		s := NewMongoAccountStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.users", mtest.FirstBatch))

		_, err := s.FindByEmail(context.Background(), "ghost@example.com")
		assert.ErrorIs(mt, err, common.ErrNotFound)
	})

	mt.Run("invalid id is not found", func(mt *mtest.T) {
		s := NewMongoAccountStore(mt.DB)

		_, err := s.FindByID(context.Background(), "nope")
		assert.ErrorIs(mt, err, common.ErrNotFound)
	})

	mt.Run("create", func(mt *mtest.T) {
		s := NewMongoAccountStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		acc, err := s.Create(context.Background(), models.NewAccount{
			Username:                "alice",
			Email:                   "alice@example.com",
			VerificationToken:       "tok",
			VerificationTokenExpiry: time.Now().Add(time.Hour),
		})
		require.NoError(mt, err)
		assert.NotEmpty(mt, acc.ID)
		assert.False(mt, acc.Verified)
		require.NotNil(mt, acc.VerificationToken)
		assert.Equal(mt, "tok", *acc.VerificationToken)
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		s := NewMongoAccountStore(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		_, err := s.Create(context.Background(), models.NewAccount{Username: "alice"})
		assert.ErrorIs(mt, err, common.ErrDuplicateKey)
	})

	mt.Run("save returns updated document", func(mt *mtest.T) {
		s := NewMongoAccountStore(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "username", Value: "alice"},
			{Key: "verified", Value: true},
		}}))

		acc, err := s.Save(context.Background(), &models.Account{ID: id.Hex(), Username: "alice", Verified: true})
		require.NoError(mt, err)
		assert.True(mt, acc.Verified)
		assert.Nil(mt, acc.VerificationToken)
	})
}

func TestMongoTodoStore(t *testing.T) {
	mt := newMock(t)

	mt.Run("insert defaults tasks", func(mt *mtest.T) {
		s := NewMongoTodoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		todo, err := s.Insert(context.Background(), &models.Todo{UserID: "u1", Name: "groceries"})
		require.NoError(mt, err)
		assert.False(mt, todo.ID.IsZero())
		assert.NotNil(mt, todo.Tasks)
	})

	mt.Run("list", func(mt *mtest.T) {
		s := NewMongoTodoStore(mt.DB)
		first := mtest.CreateCursorResponse(1, "db.todos", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "userId", Value: "u1"},
			{Key: "name", Value: "a"},
		})
		end := mtest.CreateCursorResponse(0, "db.todos", mtest.NextBatch)
		mt.AddMockResponses(first, end)

		todos, err := s.ListByUser(context.Background(), "u1")
		require.NoError(mt, err)
		require.Len(mt, todos, 1)
		assert.Equal(mt, "a", todos[0].Name)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		s := NewMongoTodoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.todos", mtest.FirstBatch))

		_, err := s.GetByID(context.Background(), "u1", primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, common.ErrNotFound)
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		s := NewMongoTodoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := s.Delete(context.Background(), "u1", primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, common.ErrNotFound)
	})

	mt.Run("delete task on existing todo with missing task", func(mt *mtest.T) {
		s := NewMongoTodoStore(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, "db.todos", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}),
		)

		_, err := s.DeleteTask(context.Background(), "u1", primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex(), time.Now())
		assert.ErrorIs(mt, err, common.ErrTaskNotFound)
	})

	mt.Run("invalid task id", func(mt *mtest.T) {
		s := NewMongoTodoStore(mt.DB)

		_, err := s.UpdateTask(context.Background(), "u1", primitive.NewObjectID().Hex(), "bad", models.UpdateTaskRequest{}, time.Now())
		assert.ErrorIs(mt, err, common.ErrTaskNotFound)
	})
}
