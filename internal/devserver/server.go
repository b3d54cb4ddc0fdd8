// Package devserver is an in-memory implementation of the habits backend
// API, used for local development and end-to-end tests.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vidalevel/habits/internal/logger"
	"github.com/vidalevel/habits/pkg/versioninfo"
)

type Config struct {
	Addr      string
	JWTSecret string
	// RequestLog enables chi's per-request access log.
	RequestLog bool
}

type Server struct {
	cfg    Config
	store  *memStore
	secret []byte
	now    func() time.Time
}

func New(cfg Config) *Server {
	return &Server{
		cfg:    cfg,
		store:  newMemStore(),
		secret: []byte(cfg.JWTSecret),
		now:    time.Now,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	_ = writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	if s.cfg.RequestLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Get("/version", s.getVersionInfo)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/login", s.login)
	r.Post("/users", s.register)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/users", s.listUsers)
		r.Get("/users/{user_id}", s.getUser)
		r.Put("/users/{user_id}", s.updateUser)

		r.Route("/habits", func(r chi.Router) {
			r.Get("/", s.listHabits)
			r.Post("/", s.createHabit)
			r.Put("/{habit_id}", s.updateHabit)
			r.Delete("/{habit_id}", s.deleteHabit)
		})
		r.Post("/completions", s.completeHabit)
		r.Get("/stats/me", s.getMyStats)

		r.Post("/friend-request", s.sendFriendRequest)
		r.Get("/friend-request/pending", s.pendingFriendRequests)
		r.Put("/friend-request/{request_id}/{action}", s.respondFriendRequest)
		r.Get("/ranking", s.ranking)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Development server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down development server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) getVersionInfo(w http.ResponseWriter, _ *http.Request) {
	info := versioninfo.VersionInfo{
		Version:   versioninfo.Version,
		BuildDate: versioninfo.BuildDate,
	}
	if err := writeJSON(w, http.StatusOK, info); err != nil {
		logger.Error("Failed to serialize version info response", "error", err)
	}
}
