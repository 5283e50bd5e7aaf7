// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package digest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianPulse/services/analysis"
	"github.com/AleutianAI/AleutianPulse/services/pulse/config"
	"github.com/AleutianAI/AleutianPulse/services/pulse/reports"
	"github.com/AleutianAI/AleutianPulse/services/pulse/store"
	"github.com/AleutianAI/AleutianPulse/services/summarizer"
)

type fakeProjects struct {
	projects []*store.Project
	err      error
}

func (f *fakeProjects) ListAllProjects(context.Context) ([]*store.Project, error) {
	return f.projects, f.err
}

type fakeAnalyzer struct {
	mu      sync.Mutex
	calls   []string
	origins []store.Origin
	results map[string]*reports.Result
	errs    map[string]error
}

func (f *fakeAnalyzer) AnalyzeProject(_ context.Context, projectID string, origin store.Origin, _ bool) (*reports.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, projectID)
	f.origins = append(f.origins, origin)
	if err := f.errs[projectID]; err != nil {
		return &reports.Result{Report: &analysis.Report{}}, err
	}
	if r, ok := f.results[projectID]; ok {
		return r, nil
	}
	return &reports.Result{Report: &analysis.Report{}}, nil
}

type fakeSweeper struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeSweeper) DeleteExpiredSessions(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return 1, nil
}

func (f *fakeSweeper) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func projects(ids ...string) []*store.Project {
	out := make([]*store.Project, len(ids))
	for i, id := range ids {
		out[i] = &store.Project{ID: id}
	}
	return out
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("0 0 8 * * *"))
	assert.NoError(t, ValidateSchedule("@every 1h"))
	assert.Error(t, ValidateSchedule("0 8 * * *"), "five fields lack seconds")
	assert.Error(t, ValidateSchedule("whenever"))
}

func TestNew_RejectsBadSchedules(t *testing.T) {
	_, err := New(config.DigestConfig{Enabled: true, Schedule: "nope"}, &fakeProjects{}, &fakeAnalyzer{}, nil)
	assert.Error(t, err)

	_, err = New(config.DigestConfig{SessionSweepSchedule: "nope"}, &fakeProjects{}, &fakeAnalyzer{}, &fakeSweeper{})
	assert.Error(t, err)

	// Disabled digest with a bad schedule is not checked.
	_, err = New(config.DigestConfig{Enabled: false, Schedule: "nope"}, &fakeProjects{}, &fakeAnalyzer{}, nil)
	assert.NoError(t, err)
}

func TestRunDigest_CountsOutcomes(t *testing.T) {
	an := &fakeAnalyzer{
		results: map[string]*reports.Result{
			"p1": {Report: &analysis.Report{}, Saved: &store.Summary{ID: "s1"}},
		},
		errs: map[string]error{
			"p3": &summarizer.SummarizationError{Kind: summarizer.KindRateLimited, FindingCount: 2},
		},
	}
	s, err := New(config.DigestConfig{Summarize: true}, &fakeProjects{projects: projects("p1", "p2", "p3")}, an, nil)
	require.NoError(t, err)

	res, err := s.RunDigest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Projects)
	assert.Equal(t, 1, res.Saved)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Failed)

	assert.Equal(t, []string{"p1", "p2", "p3"}, an.calls)
	for _, o := range an.origins {
		assert.Equal(t, store.OriginDigest, o)
	}
	assert.Equal(t, res, s.LastResult())
}

func TestRunDigest_ListFailureAborts(t *testing.T) {
	s, err := New(config.DigestConfig{}, &fakeProjects{err: errors.New("db down")}, &fakeAnalyzer{}, nil)
	require.NoError(t, err)

	_, err = s.RunDigest(context.Background())
	assert.Error(t, err)
	assert.Nil(t, s.LastResult())
}

func TestRunDigest_StopsOnCancelledContext(t *testing.T) {
	an := &fakeAnalyzer{}
	s, err := New(config.DigestConfig{}, &fakeProjects{projects: projects("p1", "p2")}, an, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.RunDigest(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, an.calls)
}

func TestStart_NoJobs(t *testing.T) {
	s, err := New(config.DigestConfig{}, &fakeProjects{}, &fakeAnalyzer{}, nil)
	require.NoError(t, err)

	n, err := s.Start(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, s.Stop(context.Background()))
}

func TestStart_RunsSweepOnSchedule(t *testing.T) {
	sweeper := &fakeSweeper{}
	s, err := New(config.DigestConfig{SessionSweepSchedule: "@every 1s"}, &fakeProjects{}, &fakeAnalyzer{}, sweeper)
	require.NoError(t, err)

	n, err := s.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Start(context.Background())
	assert.Error(t, err, "second Start must fail")

	assert.Eventually(t, func() bool { return sweeper.count() > 0 }, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
