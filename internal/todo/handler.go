package todo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/todo-api/internal/common"
	"github.com/ayush/todo-api/internal/middleware"
	"github.com/ayush/todo-api/internal/models"
	"github.com/ayush/todo-api/internal/render"
)

const (
	nameMax        = 100
	descriptionMax = 500
)

// TodoStore defines the interface for todo persistence. All methods are
// scoped by the owning user id and return common.ErrNotFound for a missing
// todo, common.ErrTaskNotFound for a missing task.
type TodoStore interface {
	Insert(ctx context.Context, todo *models.Todo) (*models.Todo, error)
	ListByUser(ctx context.Context, userID string) ([]models.Todo, error)
	GetByID(ctx context.Context, userID, id string) (*models.Todo, error)
	Rename(ctx context.Context, userID, id, name string, now time.Time) (*models.Todo, error)
	AddTask(ctx context.Context, userID, id string, task models.Task, now time.Time) (*models.Todo, error)
	UpdateTask(ctx context.Context, userID, id, taskID string, req models.UpdateTaskRequest, now time.Time) (*models.Todo, error)
	DeleteTask(ctx context.Context, userID, id, taskID string, now time.Time) (*models.Todo, error)
	Delete(ctx context.Context, userID, id string) error
}

// Handler holds todo HTTP handlers.
type Handler struct {
	store   TodoStore
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewHandler(store TodoStore, log *slog.Logger, timeout time.Duration) *Handler {
	return &Handler{store: store, log: log, timeout: timeout, now: time.Now}
}

// Routes mounts the todo endpoints. Callers are expected to guard r with
// authentication.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/getTodos", h.List)
	r.Get("/getTodo/{todoId}", h.Get)
	r.Post("/createTodo", h.Create)
	r.Patch("/updateTodoName/{todoId}", h.Rename)
	r.Patch("/{todoId}/createTask", h.CreateTask)
	r.Patch("/{todoId}/updateTask/{taskId}", h.UpdateTask)
	r.Patch("/{todoId}/deleteTask/{taskId}", h.DeleteTask)
	r.Delete("/deleteTodo/{todoId}", h.Delete)
}

// List returns every todo of the current user, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "todo.Handler.List"

	log := h.log.With(slog.String("op", op))

	userID, ok := currentUser(w, r, log)
	if !ok {
		return
	}

	ctx, cancel := h.bound(r.Context())
	defer cancel()

	todos, err := h.store.ListByUser(ctx, userID)
	if err != nil {
		render.Error(w, log, err)
		return
	}
	if todos == nil {
		todos = []models.Todo{}
	}

	render.JSON(w, http.StatusOK, "All ToDos retrieved successfully.", todos)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "todo.Handler.Get"

	log := h.log.With(slog.String("op", op))

	userID, ok := currentUser(w, r, log)
	if !ok {
		return
	}
	todoID, ok := objectIDParam(w, r, log, "todoId")
	if !ok {
		return
	}

	ctx, cancel := h.bound(r.Context())
	defer cancel()

	todo, err := h.store.GetByID(ctx, userID, todoID)
	if err != nil {
		render.Error(w, log, notFound(err))
		return
	}

	render.JSON(w, http.StatusOK, "Todo retrieved successfully.", todo)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "todo.Handler.Create"

	log := h.log.With(slog.String("op", op))

	userID, ok := currentUser(w, r, log)
	if !ok {
		return
	}

	var req models.TodoNameRequest
	if err := render.Decode(w, r, &req); err != nil {
		render.Error(w, log, err)
		return
	}
	name, err := checkText("name", req.Name, nameMax)
	if err != nil {
		render.Error(w, log, err)
		return
	}

	ctx, cancel := h.bound(r.Context())
	defer cancel()

	todo, err := h.store.Insert(ctx, &models.Todo{
		UserID:    userID,
		Name:      name,
		Tasks:     []models.Task{},
		CreatedAt: h.now().UTC(),
	})
	if err != nil {
		render.Error(w, log, err)
		return
	}

	log.Debug("todo created", slog.String("todo_id", todo.ID.Hex()))

	render.JSON(w, http.StatusCreated, "Todo created successfully.", todo)
}

func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	const op = "todo.Handler.Rename"

	log := h.log.With(slog.String("op", op))

	userID, ok := currentUser(w, r, log)
	if !ok {
		return
	}
	todoID, ok := objectIDParam(w, r, log, "todoId")
	if !ok {
		return
	}

	var req models.TodoNameRequest
	if err := render.Decode(w, r, &req); err != nil {
		render.Error(w, log, err)
		return
	}
	name, err := checkText("name", req.Name, nameMax)
	if err != nil {
		render.Error(w, log, err)
		return
	}

	ctx, cancel := h.bound(r.Context())
	defer cancel()

	todo, err := h.store.Rename(ctx, userID, todoID, name, h.now().UTC())
	if err != nil {
		render.Error(w, log, notFound(err))
		return
	}

	render.JSON(w, http.StatusOK, "Todo name updated successfully.", todo)
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	const op = "todo.Handler.CreateTask"

	log := h.log.With(slog.String("op", op))

	userID, ok := currentUser(w, r, log)
	if !ok {
		return
	}
	todoID, ok := objectIDParam(w, r, log, "todoId")
	if !ok {
		return
	}

	var req models.CreateTaskRequest
	if err := render.Decode(w, r, &req); err != nil {
		render.Error(w, log, err)
		return
	}
	description, err := checkText("description", req.Description, descriptionMax)
	if err != nil {
		render.Error(w, log, err)
		return
	}

	ctx, cancel := h.bound(r.Context())
	defer cancel()

	now := h.now().UTC()
	todo, err := h.store.AddTask(ctx, userID, todoID, models.Task{
		ID:          primitive.NewObjectID(),
		Description: description,
		CreatedAt:   now,
	}, now)
	if err != nil {
		render.Error(w, log, notFound(err))
		return
	}

	render.JSON(w, http.StatusCreated, "Task created successfully.", todo)
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	const op = "todo.Handler.UpdateTask"

	log := h.log.With(slog.String("op", op))

	userID, ok := currentUser(w, r, log)
	if !ok {
		return
	}
	todoID, ok := objectIDParam(w, r, log, "todoId")
	if !ok {
		return
	}
	taskID, ok := objectIDParam(w, r, log, "taskId")
	if !ok {
		return
	}

	var req models.UpdateTaskRequest
	if err := render.Decode(w, r, &req); err != nil {
		render.Error(w, log, err)
		return
	}
	if req.Description == nil && req.Done == nil {
		render.Error(w, log, common.NewValidationError(`"value" must contain at least one of [description, done]`))
		return
	}
	if req.Description != nil {
		description, err := checkText("description", *req.Description, descriptionMax)
		if err != nil {
			render.Error(w, log, err)
			return
		}
		req.Description = &description
	}

	ctx, cancel := h.bound(r.Context())
	defer cancel()

	todo, err := h.store.UpdateTask(ctx, userID, todoID, taskID, req, h.now().UTC())
	if err != nil {
		render.Error(w, log, notFound(err))
		return
	}

	render.JSON(w, http.StatusOK, "Task updated successfully.", todo)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	const op = "todo.Handler.DeleteTask"

	log := h.log.With(slog.String("op", op))

	userID, ok := currentUser(w, r, log)
	if !ok {
		return
	}
	todoID, ok := objectIDParam(w, r, log, "todoId")
	if !ok {
		return
	}
	taskID, ok := objectIDParam(w, r, log, "taskId")
	if !ok {
		return
	}

	ctx, cancel := h.bound(r.Context())
	defer cancel()

	todo, err := h.store.DeleteTask(ctx, userID, todoID, taskID, h.now().UTC())
	if err != nil {
		render.Error(w, log, notFound(err))
		return
	}

	render.JSON(w, http.StatusOK, "Task deleted successfully.", todo)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "todo.Handler.Delete"

	log := h.log.With(slog.String("op", op))

	userID, ok := currentUser(w, r, log)
	if !ok {
		return
	}
	todoID, ok := objectIDParam(w, r, log, "todoId")
	if !ok {
		return
	}

	ctx, cancel := h.bound(r.Context())
	defer cancel()

	if err := h.store.Delete(ctx, userID, todoID); err != nil {
		render.Error(w, log, notFound(err))
		return
	}

	render.JSON(w, http.StatusOK, "Todo deleted successfully.", nil)
}

func (h *Handler) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}

func currentUser(w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		render.Error(w, log, common.WithMessage(common.ErrUnauthorized, "Please login first to access our app"))
		return "", false
	}
	return user.ID, true
}

func objectIDParam(w http.ResponseWriter, r *http.Request, log *slog.Logger, name string) (string, bool) {
	id := chi.URLParam(r, name)
	if !primitive.IsValidObjectID(id) {
		render.Error(w, log, common.NewValidationError(name+" parameter must be a valid ObjectId."))
		return "", false
	}
	return id, true
}

// notFound attaches the caller-facing message to store lookup misses.
func notFound(err error) error {
	switch {
	case errors.Is(err, common.ErrTaskNotFound):
		return common.WithMessage(common.ErrNotFound, "Task not found.")
	case errors.Is(err, common.ErrNotFound):
		return common.WithMessage(common.ErrNotFound, "Todo not found.")
	default:
		return err
	}
}

func checkText(field, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", common.NewValidationError(fmt.Sprintf("%q is required", field))
	}
	if len([]rune(value)) > max {
		return "", common.NewValidationError(fmt.Sprintf("%q length must be less than or equal to %d characters long", field, max))
	}
	return value, nil
}
