// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pulse assembles the AleutianPulse service: storage, the analysis
// pipeline, HTTP routing, scheduled digests and observability.
//
// # Usage
//
//	cfg, err := config.Load(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc, err := pulse.New(ctx, cfg, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run(ctx))
//
// The CLI's analyze, digest and mcp commands use OpenCore instead, which
// builds the same store and pipeline without the HTTP server.
package pulse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianPulse/pkg/extensions"
	"github.com/AleutianAI/AleutianPulse/services/analysis"
	"github.com/AleutianAI/AleutianPulse/services/llm"
	"github.com/AleutianAI/AleutianPulse/services/pulse/auth"
	"github.com/AleutianAI/AleutianPulse/services/pulse/config"
	"github.com/AleutianAI/AleutianPulse/services/pulse/digest"
	"github.com/AleutianAI/AleutianPulse/services/pulse/middleware"
	"github.com/AleutianAI/AleutianPulse/services/pulse/observability"
	"github.com/AleutianAI/AleutianPulse/services/pulse/reports"
	"github.com/AleutianAI/AleutianPulse/services/pulse/routes"
	"github.com/AleutianAI/AleutianPulse/services/pulse/store"
	"github.com/AleutianAI/AleutianPulse/services/risk"
	"github.com/AleutianAI/AleutianPulse/services/summarizer"
)

// NewPipeline builds the evaluator and, when an LLM backend is
// configured, the summarizer behind it.
//
// A disabled backend is not an error: the pipeline then produces findings
// and health only, and CanSummarize reports false.
func NewPipeline(cfg *config.Config) (*analysis.Pipeline, error) {
	evaluator := risk.NewEvaluator(cfg.Risk.EvaluatorConfig())

	var sum analysis.Summarizer
	if cfg.LLM.SummariesEnabled() {
		client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.Summarizer.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
		}
		s, err := summarizer.New(client, cfg.Summarizer)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize summarizer: %w", err)
		}
		sum = s
	} else {
		slog.Warn("LLM provider not configured, summaries disabled", "provider", cfg.LLM.Provider)
	}

	return analysis.NewPipeline(evaluator, sum, analysis.WithRetryPolicy(cfg.Retry)), nil
}

// Core is the storage and analysis layer shared by every entry point.
type Core struct {
	Store    *store.Store
	Auth     *auth.Service
	Runner   *reports.Runner
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
}

// OpenCore opens and initializes the database and builds the pipeline.
// The caller owns the returned Core and must Close it.
func OpenCore(ctx context.Context, cfg *config.Config) (*Core, error) {
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Init(ctx); err != nil {
		st.Close()
		return nil, err
	}

	pipeline, err := NewPipeline(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	return &Core{
		Store:    st,
		Auth:     auth.NewService(st, cfg.Auth.TokenTTL, cfg.Auth.BcryptCost),
		Runner:   reports.NewRunner(st, pipeline, metrics),
		Registry: reg,
		Metrics:  metrics,
	}, nil
}

// Close releases the database.
func (c *Core) Close() error {
	return c.Store.Close()
}

// Service is the HTTP service plus its background scheduler.
type Service struct {
	cfg       *config.Config
	opts      extensions.ServiceOptions
	core      *Core
	router    *gin.Engine
	scheduler *digest.Scheduler
	telemetry func(context.Context) error
}

// New builds the service.
//
// # Description
//
// New initializes, in order:
//  1. The core (store, auth, pipeline, Prometheus registry)
//  2. OpenTelemetry tracing and metric exporters
//  3. The digest scheduler (validated, not started)
//  4. The gin router with every route registered
//
// If opts is nil the service authenticates with its own session tokens,
// authorizes by project ownership and writes audit events to slog.
//
// # Outputs
//
//   - *Service: Ready to Run.
//   - error: Non-nil if any component fails to initialize. Components
//     created before the failure are released.
func New(ctx context.Context, cfg *config.Config, opts *extensions.ServiceOptions) (*Service, error) {
	core, err := OpenCore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &Service{cfg: cfg, core: core}

	if opts != nil {
		s.opts = *opts
	} else {
		s.opts = extensions.DefaultOptions().
			WithAuth(core.Auth).
			WithAuthz(auth.NewProjectAuthz(core.Store)).
			WithAudit(extensions.NewSlogAuditLogger(slog.Default()))
	}

	s.telemetry, err = observability.Init(ctx, cfg.Tracing, core.Registry)
	if err != nil {
		s.cleanup(ctx)
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	s.scheduler, err = digest.New(cfg.Digest, core.Store, core.Runner, core.Store)
	if err != nil {
		s.cleanup(ctx)
		return nil, err
	}

	s.initRouter()
	return s, nil
}

func (s *Service) initRouter() {
	gin.SetMode(s.cfg.Server.Mode)
	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(otelgin.Middleware(s.cfg.Tracing.ServiceName))
	s.router.Use(middleware.RequestLogger())

	var limiter *middleware.RateLimiter
	if s.cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(s.cfg.RateLimit.RequestsPerSecond, s.cfg.RateLimit.Burst)
	}

	routes.SetupRoutes(s.router, routes.Dependencies{
		Store:       s.core.Store,
		Auth:        s.core.Auth,
		Runner:      s.core.Runner,
		Gatherer:    s.core.Registry,
		RateLimiter: limiter,
		CORSOrigins: s.cfg.Server.CORSOrigins,
	}, s.opts)
}

// Router returns the configured gin engine.
func (s *Service) Router() *gin.Engine { return s.router }

// Core returns the storage and analysis layer.
func (s *Service) Core() *Core { return s.core }

// Run serves HTTP and runs the scheduler until ctx is cancelled or the
// server fails, then shuts both down within Server.ShutdownTimeout.
// Resources are released on return.
func (s *Service) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port)),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting pulse server", "addr", srv.Addr, "summaries", s.core.Runner.Pipeline().CanSummarize())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if _, err := s.scheduler.Start(gctx); err != nil {
			srv.Close()
			return err
		}
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		slog.Info("Shutting down pulse server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("HTTP shutdown error", "error", err)
		}
		return s.scheduler.Stop(shutdownCtx)
	})

	err := g.Wait()

	cleanupCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	s.cleanup(cleanupCtx)
	return err
}

func (s *Service) cleanup(ctx context.Context) {
	if s.telemetry != nil {
		if err := s.telemetry(ctx); err != nil {
			slog.Warn("Telemetry shutdown error", "error", err)
		}
	}
	if err := s.core.Close(); err != nil {
		slog.Warn("Database close error", "error", err)
	}
}
