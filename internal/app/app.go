// Package app assembles the HTTP server from configuration: storage, the auth
// and meal modules, and the shared middleware chain.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/EmpoweredVote/meal-tracker/internal/auth"
	"github.com/EmpoweredVote/meal-tracker/internal/config"
	"github.com/EmpoweredVote/meal-tracker/internal/db"
	"github.com/EmpoweredVote/meal-tracker/internal/meal"
	"github.com/EmpoweredVote/meal-tracker/internal/middleware"
	"github.com/EmpoweredVote/meal-tracker/internal/utils"
	"github.com/EmpoweredVote/meal-tracker/internal/validation"
)

type App struct {
	cfg    *config.Config
	log    *zap.Logger
	db     *gorm.DB
	Auth   *auth.Module
	Meals  *meal.Service
	Router http.Handler
}

// New opens storage (running migrations for postgres) and builds the router.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	var (
		users auth.UserStore
		meals meal.Store
	)
	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn("using in-memory storage; data is lost on restart")
		us, ms := auth.NewMemoryUserStore(), meal.NewMemoryStore()
		us.OnDelete = ms.DeleteUser
		users, meals = us, ms
	default:
		d, err := db.Connect(cfg, log)
		if err != nil {
			return nil, err
		}
		a.db = d
		if err := db.EnsureSchema(d, cfg.DBSchema); err != nil {
			a.Close()
			return nil, err
		}
		if err := db.Migrate(ctx, d); err != nil {
			a.Close()
			return nil, err
		}
		users, meals = auth.NewGormUserStore(d), meal.NewGormStore(d)
	}

	val := validation.New(validation.Rules{
		MinPasswordLength: cfg.PasswordMinLength,
		PasswordSymbols:   cfg.PasswordSymbols,
	})

	a.Auth = auth.Init(cfg, users, val, log)
	a.Meals = meal.NewService(meals, log.Named("meal"))

	var ping func(context.Context) error
	if a.db != nil {
		ping = func(ctx context.Context) error { return db.Ping(ctx, a.db) }
	}

	a.Router = NewRouter(Deps{
		Log:         log,
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
		Auth:        a.Auth.Routes(),
		Meal:        meal.SetupRoutes(meal.NewHandler(a.Meals, val, log.Named("meal")), a.Auth.Tokens),
		Ping:        ping,
	})
	return a, nil
}

// Deps are the pieces NewRouter mounts.
type Deps struct {
	Log         *zap.Logger
	CORSOrigins []string
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers.
	TrustProxy bool
	Auth        http.Handler
	Meal        http.Handler
	// Ping reports storage health; nil means always healthy.
	Ping func(context.Context) error
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	if d.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(middleware.CORSMiddleware(d.CORSOrigins))

	r.Get("/", RootHandler)
	r.Get("/healthz", healthHandler(d.Ping))

	r.Mount("/api/v1/auth", d.Auth)
	r.Mount("/api/v1/meal", d.Meal)
	return r
}

func RootHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "meal tracker API",
		"status":  "running",
	})
}

func healthHandler(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(a.log.Named("http")),
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *App) Close() {
	if a.db == nil {
		return
	}
	if err := db.Close(a.db); err != nil {
		a.log.Warn("close database", zap.Error(err))
	}
}
