// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rangkai-protocol/rangkai-gov/governance"
)

const (
	DefaultListenAddress = ":8080"
	// SignerHeader carries the caller identity established by the auth layer
	// in front of this service
	SignerHeader    = "X-Signer-ID"
	RequestIDHeader = "X-Request-ID"
)

type Config struct {
	ListenAddress string
}

// Server is the governance REST API
type Server struct {
	gov        *governance.Governance
	logger     *slog.Logger
	httpServer *http.Server
	config     Config
	mu         sync.Mutex
}

func New(cfg Config, gov *governance.Governance, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	return &Server{
		config: cfg,
		gov:    gov,
		logger: logger.With("component", "api"),
	}
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/governance", func(gov chi.Router) {
			gov.Get("/signers", s.handleListSigners)
			gov.Get("/signers/{signer_id}", s.handleGetSigner)
			gov.Get("/quorum", s.handleQuorum)
			gov.Get("/proposals", s.handleListProposals)
			gov.Post("/proposals", s.handleCreateProposal)
			gov.Post("/proposals/expire", s.handleExpireProposals)
			gov.Get("/proposals/{proposal_id}", s.handleGetProposal)
			gov.Post("/proposals/{proposal_id}/votes", s.handleSubmitVote)
			gov.Post("/proposals/{proposal_id}/execute", s.handleExecuteProposal)
			gov.Get("/proposals/{proposal_id}/executions", s.handleListExecutions)
		})
		api.Route("/protocol", func(protocol chi.Router) {
			protocol.Get("/parameters", s.handleListParameters)
			protocol.Get("/parameters/{name}", s.handleGetParameter)
			protocol.Get("/status", s.handleProtocolStatus)
		})
		api.Get("/treasury/movements", s.handleTreasuryMovements)
	})
	return r
}

// Start binds the listener and serves in the background until Stop is
// called or ctx is done
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	s.httpServer = server
	s.mu.Unlock()

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		s.mu.Lock()
		s.httpServer = nil
		s.mu.Unlock()
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	s.logger.Info("API listener started", "address", ln.Addr().String())

	go func() {
		<-ctx.Done()
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			30*time.Second,
		)
		defer cancel()
		//nolint:contextcheck
		if err := s.Stop(shutdownCtx); err != nil {
			s.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Debug("shutting down API server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown API server: %w", err)
	}
	return nil
}
