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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rangkai-protocol/rangkai-gov/api"
	"github.com/rangkai-protocol/rangkai-gov/internal/config"
)

func Run(cfg *config.Config, logger *slog.Logger) error {
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()
	return run(signalCtx, cfg, logger, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

func run(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
	promGatherer prometheus.Gatherer,
) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")

	// Parse shutdown timeout
	shutdownTimeout := 30 * time.Second // Default timeout
	if cfg.ShutdownTimeout != "" {
		var err error
		shutdownTimeout, err = time.ParseDuration(cfg.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("invalid shutdown timeout: %w", err)
		}
	}
	sweepInterval, err := cfg.SweepInterval()
	if err != nil {
		return err
	}

	n, err := Open(ctx, cfg, logger, promRegistry)
	if err != nil {
		return err
	}
	shutdown := func() error {
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		//nolint:contextcheck
		return n.Shutdown(shutdownCtx)
	}

	// Configure tracing
	if cfg.TracingEnabled {
		tracingShutdown, err := setupTracing(ctx, cfg)
		if err != nil {
			return errors.Join(err, shutdown())
		}
		n.onClose(tracingShutdown)
	}

	if sweepInterval > 0 {
		if err := n.StartExpirySweeper(sweepInterval); err != nil {
			return errors.Join(err, shutdown())
		}
	}

	errChan := make(chan error, 2)

	// Governance API listener
	apiServer := api.New(
		api.Config{
			ListenAddress: fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.ApiPort),
		},
		n.Governance(),
		logger,
	)
	if err := apiServer.Start(ctx); err != nil {
		return errors.Join(err, shutdown())
	}
	n.onClose(apiServer.Stop)

	// Metrics listener, disabled with a zero port
	if cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle(
			"/metrics",
			promhttp.HandlerFor(promGatherer, promhttp.HandlerOpts{}),
		)
		metricsServer := &http.Server{
			Addr: fmt.Sprintf(
				"%s:%d",
				cfg.BindAddr,
				cfg.MetricsPort,
			),
			Handler:           mux,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		logger.Info(
			"serving prometheus metrics on "+metricsServer.Addr,
			"component",
			"node",
		)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("metrics listener: %w", err)
			}
		}()
		n.onClose(metricsServer.Shutdown)
	}

	// Wait for signal or error
	select {
	case <-ctx.Done():
		logger.Info("signal received, initiating graceful shutdown")
		if err := shutdown(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
			return err
		}
		logger.Info("shutdown complete")
		return nil
	case err := <-errChan:
		logger.Error("node error", "error", err)
		if stopErr := shutdown(); stopErr != nil {
			logger.Error(
				"shutdown errors occurred during error cleanup",
				"error",
				stopErr,
			)
		}
		return err
	}
}
