package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-email-bot/internal/usecase"
)

// Server exposes health, metrics and a small admin API over HTTP.
type Server struct {
	statsUC     usecase.StatsUseCase
	blocklistUC usecase.BlocklistUseCase
	groupUC     usecase.GroupUseCase
	apiKey      string
	log         *zerolog.Logger

	http *http.Server
}

func NewServer(
	statsUC usecase.StatsUseCase,
	blocklistUC usecase.BlocklistUseCase,
	groupUC usecase.GroupUseCase,
	port int,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	s := &Server{
		statsUC:     statsUC,
		blocklistUC: blocklistUC,
		groupUC:     groupUC,
		apiKey:      apiKey,
		log:         logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/stats", statsHandler(s.statsUC))
		r.Get("/blocklist", blocklistListHandler(s.blocklistUC))
		r.Post("/blocklist", blocklistAddHandler(s.blocklistUC))
		r.Delete("/blocklist/{email}", blocklistDeleteHandler(s.blocklistUC))
		r.Get("/groups", groupsListHandler(s.groupUC))
		r.Post("/groups", groupsUpsertHandler(s.groupUC))
		r.Delete("/groups/{code}", groupsDeleteHandler(s.groupUC))
		r.Put("/groups/{code}/template", templatePutHandler(s.groupUC))
		r.Get("/groups/{code}/template", templateGetHandler(s.groupUC))
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("admin server listening")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// authMiddleware provides simple Bearer token authentication for the admin API.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("admin API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			http.Error(w, "Unauthorized: Malformed token", http.StatusUnauthorized)
			return
		}

		if tokenParts[1] != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
