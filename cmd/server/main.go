package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/todo-api/internal/auth"
	"github.com/ayush/todo-api/internal/config"
	"github.com/ayush/todo-api/internal/limiter"
	"github.com/ayush/todo-api/internal/logging"
	"github.com/ayush/todo-api/internal/mail"
	"github.com/ayush/todo-api/internal/middleware"
	"github.com/ayush/todo-api/internal/render"
	"github.com/ayush/todo-api/internal/store"
	"github.com/ayush/todo-api/internal/todo"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)
	log := logging.New(cfg.Env, os.Stdout)
	log.Info("starting todo api", slog.String("env", cfg.Env), slog.String("account_store", cfg.AccountStore))

	ctx := context.Background()

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI).SetTimeout(cfg.StoreTimeout))
	if err != nil {
		fatal(log, "mongo connect", err)
	}
	defer mongoClient.Disconnect(ctx)
	mongoDB := mongoClient.Database(cfg.Mongo.Database)

	todoStore := store.NewMongoTodoStore(mongoDB)
	if err := todoStore.EnsureIndexes(ctx); err != nil {
		fatal(log, "mongo todo indexes", err)
	}

	// ── Account store ────────────────────────────────────────
	var accounts auth.AccountStore
	switch cfg.AccountStore {
	case config.StorePostgres:
		pgPool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			fatal(log, "postgres connect", err)
		}
		defer pgPool.Close()

		pgStore := store.NewPostgresAccountStore(pgPool)
		if err := pgStore.Migrate(ctx); err != nil {
			fatal(log, "postgres migrate", err)
		}
		accounts = pgStore
	default:
		mongoAccounts := store.NewMongoAccountStore(mongoDB)
		if err := mongoAccounts.EnsureIndexes(ctx); err != nil {
			fatal(log, "mongo account indexes", err)
		}
		accounts = mongoAccounts
	}

	// ── Redis (rate limiting) ────────────────────────────────
	var resendLimiter, loginLimiter auth.Limiter
	if cfg.Redis.Addr != "" {
		rdb, err := store.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			fatal(log, "redis connect", err)
		}
		defer rdb.Close()

		resendLimiter = limiter.NewFixedWindow(rdb, "ratelimit:resend", cfg.ResendLimit, cfg.ResendWindow)
		loginLimiter = limiter.NewFixedWindow(rdb, "ratelimit:login", cfg.LoginLimit, cfg.LoginWindow)
	} else {
		log.Warn("redis address not set, rate limiting disabled")
	}

	// ── Mail ─────────────────────────────────────────────────
	mailer, err := newMailer(ctx, cfg, log)
	if err != nil {
		fatal(log, "mailer", err)
	}

	// ── Auth ─────────────────────────────────────────────────
	tokens := auth.NewTokenManager([]byte(cfg.Auth.Secret), cfg.TokenTTL)
	authService := auth.NewService(auth.Deps{
		Accounts:      accounts,
		Hasher:        auth.NewBcryptHasher(cfg.BcryptCost),
		Tokens:        tokens,
		Verification:  auth.NewVerificationTokens(cfg.VerificationTTL),
		Mailer:        mailer,
		ResendLimiter: resendLimiter,
		LoginLimiter:  loginLimiter,
	}, cfg.FrontendURI, cfg.StoreTimeout)

	// ── Handlers ─────────────────────────────────────────────
	authHandler := auth.NewHandler(authService, log)
	todoHandler := todo.NewHandler(todoStore, log, cfg.StoreTimeout)

	requireAuth := middleware.RequireAuth(tokens, log)
	requireAnonymous := middleware.RequireAnonymous(tokens, log)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, http.StatusOK, "ok", nil)
	})

	r.Route("/api/auth", func(r chi.Router) {
		authHandler.Routes(r, requireAnonymous, requireAuth)
	})

	r.Route("/api/todo", func(r chi.Router) {
		r.Use(requireAuth)
		todoHandler.Routes(r)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, http.StatusNotFound, "Not Found", nil)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      r,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("listening", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Error("shutdown", logging.Err(err))
	}
}

func newMailer(ctx context.Context, cfg *config.Config, log *slog.Logger) (auth.Mailer, error) {
	switch cfg.Mail.Driver {
	case config.MailSMTP:
		return mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.Mail.Sender)
	case config.MailOutbox:
		objects, err := store.NewMinioStore(ctx, cfg.Minio.Endpoint, cfg.Minio.AccessKey,
			cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL)
		if err != nil {
			return nil, err
		}
		return mail.NewOutboxMailer(objects, cfg.Mail.Sender), nil
	default:
		return mail.NewLogMailer(log), nil
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, logging.Err(err))
	os.Exit(1)
}
