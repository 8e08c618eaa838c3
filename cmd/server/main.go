package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"

	"github.com/tendant/simple-model/pkg/rest"
	"github.com/tendant/simple-model/pkg/simplemodel"
	"github.com/tendant/simple-model/pkg/simplemodel/config"
)

// Note is the demo model served by this binary.
type Note struct {
	simplemodel.Model
	Title string `json:"title" form:"title"`
	Body  string `json:"body" form:"body"`
}

func (Note) EntityName() string { return "notes" }

func (n *Note) WillCreate(ctx context.Context) error {
	if strings.TrimSpace(n.Title) == "" {
		return errors.New("title is required")
	}
	return nil
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := cfg.BuildDatabase(
		simplemodel.WithHooks(simplemodel.LoggingHooks(func(format string, args ...any) {
			logger.Info(fmt.Sprintf(format, args...))
		})),
	)
	if err != nil {
		logger.Error("failed to build database", "error", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: routes(db),
	}

	go func() {
		logger.Info("server starting",
			"port", port,
			"environment", cfg.Environment,
			"database_type", cfg.DatabaseType)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server exiting")
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func routes(db *simplemodel.Database) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]string{"status": "ok"})
	})

	notes := rest.NewResource[Note](db)

	r.Route("/api/v1", func(r chi.Router) {
		// JWT auth is enabled when a secret is configured.
		if secret := os.Getenv("JWT_SECRET"); secret != "" {
			tokenAuth := jwtauth.New("HS256", []byte(secret), nil)
			r.Use(jwtauth.Verifier(tokenAuth))
			r.Use(jwtauth.Authenticator)
		}

		r.Mount("/notes", notes.Routes())
	})

	return r
}
