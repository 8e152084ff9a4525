package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task is a single entry inside a todo list.
type Task struct {
	ID          primitive.ObjectID `json:"_id"         bson:"_id"`
	Description string             `json:"description" bson:"description"`
	Done        bool               `json:"done"        bson:"done"`
	CreatedAt   time.Time          `json:"createdAt"   bson:"createdAt"`
	UpdatedAt   *time.Time         `json:"updatedAt"   bson:"updatedAt,omitempty"`
}

// Todo is a named todo list owned by one account, stored in MongoDB.
type Todo struct {
	ID        primitive.ObjectID `json:"_id"       bson:"_id,omitempty"`
	UserID    string             `json:"userId"    bson:"userId"`
	Name      string             `json:"name"      bson:"name"`
	Tasks     []Task             `json:"tasks"     bson:"tasks"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt *time.Time         `json:"updatedAt" bson:"updatedAt,omitempty"`
}

// TodoNameRequest is the JSON body for createTodo and updateTodoName.
type TodoNameRequest struct {
	Name string `json:"name"`
}

// CreateTaskRequest is the JSON body for createTask.
type CreateTaskRequest struct {
	Description string `json:"description"`
}

// UpdateTaskRequest is the JSON body for updateTask. Nil fields are left unchanged.
type UpdateTaskRequest struct {
	Description *string `json:"description"`
	Done        *bool   `json:"done"`
}
