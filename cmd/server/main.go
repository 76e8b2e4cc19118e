package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"

	"github.com/liamcoop/schedules/dataset"
	"github.com/liamcoop/schedules/internal/logger"
	"github.com/liamcoop/schedules/schedule"
)

// Server exposes the schedule check endpoint and the management API over a
// dataset manager.
type Server struct {
	manager *dataset.Manager
	router  *chi.Mux
}

func NewServer(manager *dataset.Manager) *Server {
	s := &Server{manager: manager}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/v1/health", s.handleHealth)
	r.Get("/api/v1/metrics", s.handleMetrics)

	// Open/closed check
	r.Get("/api/v1/check-schedule", s.handleCheckGet)
	r.Post("/api/v1/check-schedule", s.handleCheckPost)

	// Full dataset for list views
	r.Get("/api/v1/data", s.handleGetData)

	// Schedule management
	r.Route("/api/v1/schedules", func(r chi.Router) {
		r.Post("/", s.handleCreateSchedule)

		r.Route("/{scheduleId}", func(r chi.Router) {
			r.Get("/", s.handleGetSchedule)
			r.Put("/", s.handleUpdateSchedule)
			r.Delete("/", s.handleDeleteSchedule)
		})
	})

	// Rule management
	r.Route("/api/v1/rules", func(r chi.Router) {
		r.Post("/", s.handleCreateRule)

		r.Route("/{ruleId}", func(r chi.Router) {
			r.Get("/", s.handleGetRule)
			r.Put("/", s.handleUpdateRule)
			r.Delete("/", s.handleDeleteRule)
		})
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// openStore picks the backing store from the environment: a database when
// DATABASE_URL is set, a read-only JSON document when SCHEDULE_DATA_FILE is
// set, otherwise an empty in-memory store populated via the management API.
func openStore() (schedule.Store, func(), error) {
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		db, err := sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("using postgres store")
		return schedule.NewPostgresStore(db), func() { db.Close() }, nil
	}

	if path := os.Getenv("SCHEDULE_DATA_FILE"); path != "" {
		logger.Info("using file store", "path", path)
		return schedule.NewFileStore(path), func() {}, nil
	}

	logger.Info("using in-memory store")
	return schedule.NewInMemoryStore(), func() {}, nil
}

func main() {
	store, closeStore, err := openStore()
	if err != nil {
		logger.Fatal("failed to open store", "error", err)
	}
	defer closeStore()

	manager, err := dataset.NewManager(store)
	if err != nil {
		logger.Fatal("failed to load schedule data", "error", err)
	}

	server := NewServer(manager)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		logger.Info("server starting", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := logger.Shutdown(ctx); err != nil {
		logger.Error("logger shutdown error", "error", err)
	}
}
