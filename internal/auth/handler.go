package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/todo-api/internal/common"
	"github.com/ayush/todo-api/internal/middleware"
	"github.com/ayush/todo-api/internal/models"
	"github.com/ayush/todo-api/internal/render"
)

// Flow is the part of Service the HTTP layer needs.
type Flow interface {
	Signup(ctx context.Context, req models.SignupRequest) (string, error)
	Login(ctx context.Context, req models.LoginRequest) (string, error)
	VerifyAccount(ctx context.Context, token string) error
	ResendVerificationEmail(ctx context.Context, email string) error
	Me(ctx context.Context, id string) (*models.Account, error)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	flow Flow
	log  *slog.Logger
}

func NewHandler(flow Flow, log *slog.Logger) *Handler {
	return &Handler{flow: flow, log: log}
}

// Routes mounts the auth endpoints. anonymous guards signup and login,
// authenticated guards /me.
func (h *Handler) Routes(r chi.Router, anonymous, authenticated func(http.Handler) http.Handler) {
	r.With(anonymous).Post("/signup", h.Signup)
	r.With(anonymous).Post("/login", h.Login)
	r.Patch("/resendVerificationEmail", h.ResendVerificationEmail)
	r.Patch("/verifyAccount/{verificationToken}", h.VerifyAccount)
	r.With(authenticated).Get("/me", h.Me)
}

// Signup registers a new account.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	const op = "auth.Handler.Signup"

	log := h.log.With(slog.String("op", op))

	var req models.SignupRequest
	if err := render.Decode(w, r, &req); err != nil {
		render.Error(w, log, err)
		return
	}

	username, err := h.flow.Signup(r.Context(), req)
	if err != nil {
		render.Error(w, log, err)
		return
	}

	log.Info("account registered", slog.String("username", username))

	render.JSON(w, http.StatusCreated,
		fmt.Sprintf("Welcome, %s, your registration was successful! enjoy our app! :))", username), nil)
}

// Login authenticates an account and returns a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "auth.Handler.Login"

	log := h.log.With(slog.String("op", op))

	var req models.LoginRequest
	if err := render.Decode(w, r, &req); err != nil {
		render.Error(w, log, err)
		return
	}
	req.ClientIP = clientIP(r)

	token, err := h.flow.Login(r.Context(), req)
	if err != nil {
		render.Error(w, log, err)
		return
	}

	render.JSON(w, http.StatusOK, "Welcome", token)
}

// VerifyAccount consumes the verification token from the path.
func (h *Handler) VerifyAccount(w http.ResponseWriter, r *http.Request) {
	const op = "auth.Handler.VerifyAccount"

	log := h.log.With(slog.String("op", op))

	if err := h.flow.VerifyAccount(r.Context(), chi.URLParam(r, "verificationToken")); err != nil {
		render.Error(w, log, err)
		return
	}

	render.JSON(w, http.StatusOK, "Account verification successful! You can now login.", nil)
}

// ResendVerificationEmail issues a fresh verification token.
func (h *Handler) ResendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	const op = "auth.Handler.ResendVerificationEmail"

	log := h.log.With(slog.String("op", op))

	var req models.ResendVerificationRequest
	if err := render.Decode(w, r, &req); err != nil {
		render.Error(w, log, err)
		return
	}

	if err := h.flow.ResendVerificationEmail(r.Context(), req.Email); err != nil {
		render.Error(w, log, err)
		return
	}

	render.JSON(w, http.StatusOK, "A new verification email has been sent to your inbox.", nil)
}

// Me returns the stored account behind the bearer token.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	const op = "auth.Handler.Me"

	log := h.log.With(slog.String("op", op))

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		render.Error(w, log, common.ErrUnauthorized)
		return
	}

	acc, err := h.flow.Me(r.Context(), user.ID)
	if err != nil {
		render.Error(w, log, err)
		return
	}

	render.JSON(w, http.StatusOK, "User retrieved successfully.", acc)
}

// clientIP returns the host part of RemoteAddr, which chi's RealIP has
// already resolved from proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
