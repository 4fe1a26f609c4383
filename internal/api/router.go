// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wingedpig/ideaforge/internal/api/handlers"
	"github.com/wingedpig/ideaforge/internal/api/middleware"
	"github.com/wingedpig/ideaforge/internal/api/version"
	"github.com/wingedpig/ideaforge/internal/events"
	"github.com/wingedpig/ideaforge/internal/gateway"
)

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Host    string
	Port    int
	TLSCert string // Path to TLS certificate file
	TLSKey  string // Path to TLS private key file
}

// Dependencies holds all dependencies for API handlers.
type Dependencies struct {
	Workspaces handlers.Workspaces
	Assistant  handlers.Assistant
	EventBus   events.Bus

	// FunctionProvider answers POST /functions/chat-completion. The route
	// is not mounted when nil.
	FunctionProvider gateway.Provider
	DefaultModel     string

	// Metrics serves GET /metrics when set.
	Metrics handlers.MetricsCollector

	Logger  *zap.Logger
	Version string // Application version string
}

// NewRouter creates a new API router.
func NewRouter(deps Dependencies) *mux.Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := mux.NewRouter()

	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS)
	r.Use(version.Middleware)

	// Middleware only runs on matched routes; match every preflight so CORS
	// can answer it.
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": deps.Version})
	}).Methods("GET")

	sessionHandler := handlers.NewSessionHandler(deps.Workspaces)
	api.HandleFunc("/presets", sessionHandler.Presets).Methods("GET")

	// Routes scoped to the calling user
	user := api.NewRoute().Subrouter()
	user.Use(middleware.RequireUser)

	user.HandleFunc("/sessions", sessionHandler.Create).Methods("POST")
	user.HandleFunc("/sessions", sessionHandler.List).Methods("GET")
	user.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods("GET")
	user.HandleFunc("/sessions/{id}/history", sessionHandler.History).Methods("GET")
	user.HandleFunc("/sessions/{id}/schema", sessionHandler.ConfirmSchema).Methods("POST")
	user.HandleFunc("/sessions/{id}/ideas", sessionHandler.GenerateIdeas).Methods("POST")
	user.HandleFunc("/sessions/{id}/rankings/{index}", sessionHandler.Rate).Methods("PUT")
	user.HandleFunc("/sessions/{id}/rankings", sessionHandler.SubmitRankings).Methods("POST")
	user.HandleFunc("/sessions/{id}/refine", sessionHandler.Refine).Methods("POST")
	user.HandleFunc("/sessions/{id}/canvas", sessionHandler.Canvas).Methods("GET")
	user.HandleFunc("/sessions/{id}/canvas/panels/{panel}/move", sessionHandler.Move).Methods("POST")
	user.HandleFunc("/sessions/{id}/canvas/scale", sessionHandler.Scale).Methods("PUT")

	if deps.Assistant != nil {
		chatHandler := handlers.NewChatHandler(deps.Assistant)
		user.HandleFunc("/chat", chatHandler.Send).Methods("POST")
		user.HandleFunc("/chat/history", chatHandler.History).Methods("GET")
	}

	if deps.FunctionProvider != nil {
		fnHandler := handlers.NewFunctionHandler(deps.FunctionProvider, deps.DefaultModel, logger)
		api.HandleFunc("/functions/chat-completion", fnHandler.ChatCompletion).Methods("POST")
	}

	if deps.Metrics != nil {
		metricsHandler := handlers.NewMetricsHandler(deps.Metrics)
		api.HandleFunc("/metrics", metricsHandler.List).Methods("GET")
	}

	if deps.EventBus != nil {
		eventHandler := handlers.NewEventHandler(deps.EventBus)
		api.HandleFunc("/events", eventHandler.History).Methods("GET")
		api.HandleFunc("/events/ws", eventHandler.WebSocket).Methods("GET")
	}

	return r
}

// Server represents the API server.
type Server struct {
	router *mux.Router
	cfg    ServerConfig
	server *http.Server
	logger *zap.Logger
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		router: NewRouter(deps),
		cfg:    cfg,
		logger: logger.Named("api"),
	}
}

// Router returns the underlying router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ListenAndServe starts the server. It uses HTTPS when both tls_cert and
// tls_key are configured. It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	files, err := ResolveTLS(s.cfg.TLSCert, s.cfg.TLSKey)
	if err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	if files != nil {
		s.logger.Info("API server listening", zap.String("url", "https://"+addr))
		err = s.server.ListenAndServeTLS(files.Cert, files.Key)
	} else {
		s.logger.Info("API server listening", zap.String("url", "http://"+addr))
		err = s.server.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.logger.Info("shutting down API server")

	shutdownCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	return s.server.Shutdown(shutdownCtx)
}
