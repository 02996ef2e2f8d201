/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/tomoncle/sales-performance/config"
	"github.com/tomoncle/sales-performance/database"
)

const (
	WelcomeMessage         = "Welcome to Sales Performance API"
	defaultShutdownTimeout = 10 * time.Second
)

// Server is the HTTP application: middleware, the root endpoint, the health
// router and any routers passed with WithRouters.
type Server struct {
	config       config.ServerConfig
	engine       database.Engine
	provider     *database.Provider
	router       *chi.Mux
	routers      []Router
	errorHandler ErrorHandler
}

type Option func(*Server)

// WithErrorHandler replaces DefaultErrorHandler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(s *Server) {
		if h != nil {
			s.errorHandler = h
		}
	}
}

// WithRouters mounts additional routers.
func WithRouters(routers ...Router) Option {
	return func(s *Server) {
		s.routers = append(s.routers, routers...)
	}
}

// NewServer creates a new web server. engine may be nil, in which case the
// health router is not mounted; provider may be nil, in which case requests
// carry no session.
func NewServer(cfg config.ServerConfig, engine database.Engine, provider *database.Provider, opts ...Option) *Server {
	s := &Server{
		config:       cfg,
		engine:       engine,
		provider:     provider,
		router:       chi.NewRouter(),
		errorHandler: DefaultErrorHandler,
	}
	for _, opt := range opts {
		opt(s)
	}
	if engine != nil {
		s.routers = append([]Router{NewHealthRouter(engine)}, s.routers...)
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger)
	r.Use(chimiddleware.Recoverer)
	// CORS sits before the session so preflight requests never open one
	r.Use(CORS())
	if s.config.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(s.config.RequestTimeout))
	}
	r.Use(Session(s.provider))

	r.Get("/", s.Handle(s.root))

	for _, rt := range s.routers {
		rt := rt
		r.Route(rt.Pattern(), func(r chi.Router) {
			rt.Routes(r, s.Handle)
		})
	}
}

// Handle adapts h, sending any returned error to the server's ErrorHandler.
func (s *Server) Handle(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.errorHandler(w, r, err)
		}
	}
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]string{"message": WelcomeMessage})
	return nil
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	addr := s.config.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		logger().WithField("addr", ln.Addr().String()).Info("Starting HTTP server")
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger().Info("Shutting down HTTP server")
		shutdownTimeout := s.config.ShutdownTimeout
		if shutdownTimeout <= 0 {
			shutdownTimeout = defaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}
