// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package digest runs scheduled background jobs: the per-project risk
// digest and the expired-session sweep.
//
// # Description
//
// Schedules are six-field cron expressions with a leading seconds field,
// parsed by robfig/cron. A job that is still running when its next tick
// fires is skipped rather than stacked.
//
// # Thread Safety
//
// Scheduler is safe for concurrent use. RunDigest may be called directly
// (the CLI does) while the cron loop is running.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/AleutianAI/AleutianPulse/services/pulse/config"
	"github.com/AleutianAI/AleutianPulse/services/pulse/reports"
	"github.com/AleutianAI/AleutianPulse/services/pulse/store"
	"github.com/AleutianAI/AleutianPulse/services/risk"
	"github.com/AleutianAI/AleutianPulse/services/summarizer"
)

// jobTimeout bounds one digest or sweep run.
const jobTimeout = 30 * time.Minute

var parser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateSchedule reports whether expr is a valid six-field schedule.
func ValidateSchedule(expr string) error {
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return nil
}

// ProjectLister lists every project.
type ProjectLister interface {
	ListAllProjects(ctx context.Context) ([]*store.Project, error)
}

// ProjectAnalyzer analyzes and persists one project.
type ProjectAnalyzer interface {
	AnalyzeProject(ctx context.Context, projectID string, origin store.Origin, summarize bool) (*reports.Result, error)
}

// SessionSweeper deletes expired sessions.
type SessionSweeper interface {
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// Result summarizes one digest run.
type Result struct {
	Projects  int           `json:"projects"`
	Saved     int           `json:"saved"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
	StartedAt time.Time     `json:"started_at"`
}

// Scheduler owns the cron loop.
type Scheduler struct {
	cfg      config.DigestConfig
	projects ProjectLister
	analyzer ProjectAnalyzer
	sessions SessionSweeper

	mu      sync.Mutex
	cron    *cron.Cron
	last    *Result
	running bool
}

// New creates a Scheduler. sessions may be nil to disable the sweep.
//
// Schedules are validated here so a typo fails at startup, not at the
// first tick.
func New(cfg config.DigestConfig, projects ProjectLister, analyzer ProjectAnalyzer, sessions SessionSweeper) (*Scheduler, error) {
	if cfg.Enabled {
		if err := ValidateSchedule(cfg.Schedule); err != nil {
			return nil, fmt.Errorf("digest: %w", err)
		}
	}
	if sessions != nil && cfg.SessionSweepSchedule != "" {
		if err := ValidateSchedule(cfg.SessionSweepSchedule); err != nil {
			return nil, fmt.Errorf("session sweep: %w", err)
		}
	}
	return &Scheduler{cfg: cfg, projects: projects, analyzer: analyzer, sessions: sessions}, nil
}

// Start registers the jobs and starts the cron loop. It returns the
// number of jobs registered; zero means nothing was started.
func (s *Scheduler) Start(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return 0, errors.New("scheduler already running")
	}

	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	jobs := 0
	if s.cfg.Enabled {
		if _, err := c.AddFunc(s.cfg.Schedule, func() { s.digestTick(ctx) }); err != nil {
			return 0, fmt.Errorf("register digest job: %w", err)
		}
		jobs++
	}
	if s.sessions != nil && s.cfg.SessionSweepSchedule != "" {
		if _, err := c.AddFunc(s.cfg.SessionSweepSchedule, func() { s.sweepTick(ctx) }); err != nil {
			return 0, fmt.Errorf("register session sweep: %w", err)
		}
		jobs++
	}
	if jobs == 0 {
		return 0, nil
	}

	c.Start()
	s.cron = c
	s.running = true
	slog.Info("Scheduler started",
		"digest_enabled", s.cfg.Enabled,
		"digest_schedule", s.cfg.Schedule,
		"session_sweep_schedule", s.cfg.SessionSweepSchedule,
		"jobs", jobs)
	return jobs, nil
}

// Stop stops the cron loop and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.running = false
	s.mu.Unlock()

	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		slog.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// LastResult returns the most recent digest result, or nil.
func (s *Scheduler) LastResult() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	r := *s.last
	return &r
}

func (s *Scheduler) digestTick(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, jobTimeout)
	defer cancel()
	if _, err := s.RunDigest(ctx); err != nil {
		slog.Error("Digest run failed", "error", err)
	}
}

func (s *Scheduler) sweepTick(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, jobTimeout)
	defer cancel()
	n, err := s.sessions.DeleteExpiredSessions(ctx)
	if err != nil {
		slog.Error("Session sweep failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("Expired sessions removed", "count", n)
	}
}

// RunDigest analyzes every project once.
//
// # Description
//
// Projects are processed sequentially so one digest never holds more
// than one LLM call in flight. A project that fails validation or
// summarization is counted and logged; the run continues with the next
// project. Only a failure to list projects aborts the run.
//
// # Outputs
//
//   - *Result: Counts for the run.
//   - error: Non-nil only if projects could not be listed or ctx ended.
func (s *Scheduler) RunDigest(ctx context.Context) (*Result, error) {
	start := time.Now()
	projects, err := s.projects.ListAllProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	res := &Result{Projects: len(projects), StartedAt: start.UTC()}
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		out, err := s.analyzer.AnalyzeProject(ctx, p.ID, store.OriginDigest, s.cfg.Summarize)
		switch {
		case err == nil && out.Saved != nil:
			res.Saved++
		case err == nil:
			res.Skipped++
		default:
			res.Failed++
			logProjectFailure(p.ID, err)
		}
	}
	res.Duration = time.Since(start)

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()

	slog.Info("Digest completed",
		"projects", res.Projects,
		"saved", res.Saved,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"duration", res.Duration)
	return res, nil
}

func logProjectFailure(projectID string, err error) {
	attrs := []any{"project_id", projectID, "error", err}
	if se, ok := summarizer.AsSummarizationError(err); ok {
		attrs = append(attrs, "kind", se.Kind, "retryable", se.Retryable(), "canceled", se.Canceled())
	} else if risk.IsValidationError(err) {
		attrs = append(attrs, "kind", "validation")
	}
	slog.Warn("Digest skipped project", attrs...)
}
