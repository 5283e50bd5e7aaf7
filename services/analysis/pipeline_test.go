// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianPulse/services/risk"
	"github.com/AleutianAI/AleutianPulse/services/summarizer"
)

// scriptedSummarizer returns errs in order, then succeeds.
type scriptedSummarizer struct {
	mu    sync.Mutex
	errs  []error
	calls int
	seen  [][]risk.Finding
}

func (s *scriptedSummarizer) Summarize(_ context.Context, findings []risk.Finding) (*summarizer.RiskSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.seen = append(s.seen, findings)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	return &summarizer.RiskSummary{Text: "summary", SourceFindingCount: len(findings)}, nil
}

func fastRetry(attempts int) Option {
	return WithRetryPolicy(RetryPolicy{MaxAttempts: attempts, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond})
}

func signals() ([]risk.TaskSignal, []risk.MessageSignal) {
	tasks := []risk.TaskSignal{
		{TaskID: "T1", Title: "Vendor contract", Status: risk.TaskStatusBlocked, LastActivityDays: 5, Source: risk.SourceJira},
		{TaskID: "T2", Title: "Docs", Status: risk.TaskStatusDone, LastActivityDays: 0, Source: risk.SourceNotion},
	}
	messages := []risk.MessageSignal{
		{MessageID: "M1", Text: "We are waiting on legal sign-off", Timestamp: time.Now(), Source: risk.SourceSlack},
	}
	return tasks, messages
}

func sumErr(kind summarizer.ErrorKind) error {
	return &summarizer.SummarizationError{Kind: kind, FindingCount: 3, Err: errors.New(string(kind))}
}

func TestRun_Success(t *testing.T) {
	s := &scriptedSummarizer{}
	fixed := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	p := NewPipeline(nil, s, WithClock(func() time.Time { return fixed }))

	tasks, messages := signals()
	report, err := p.Run(context.Background(), tasks, messages, true)
	require.NoError(t, err)

	require.Len(t, report.Findings, 3)
	assert.Equal(t, risk.KindBlockedTask, report.Findings[0].Kind)
	assert.Equal(t, risk.KindStaleTask, report.Findings[1].Kind)
	assert.Equal(t, risk.KindDependencyMention, report.Findings[2].Kind)

	require.NotNil(t, report.Summary)
	assert.Equal(t, 3, report.Summary.SourceFindingCount)
	assert.Equal(t, 1, report.Attempts)
	assert.Equal(t, 65, report.Health.Score)
	assert.Equal(t, risk.RuleSetVersion, report.RuleSetVersion)
	assert.Equal(t, fixed, report.GeneratedAt)
}

func TestRun_NoSummarize(t *testing.T) {
	s := &scriptedSummarizer{}
	p := NewPipeline(nil, s)

	tasks, messages := signals()
	report, err := p.Run(context.Background(), tasks, messages, false)
	require.NoError(t, err)
	assert.Nil(t, report.Summary)
	assert.Equal(t, 0, s.calls)

	report, err = NewPipeline(nil, nil).Run(context.Background(), tasks, messages, true)
	require.NoError(t, err)
	assert.Nil(t, report.Summary)
}

func TestRun_ValidationError(t *testing.T) {
	s := &scriptedSummarizer{}
	p := NewPipeline(nil, s)

	report, err := p.Run(context.Background(), []risk.TaskSignal{{TaskID: "T1"}}, nil, true)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, risk.IsValidationError(err))
	assert.Equal(t, 0, s.calls)
}

func TestRun_RetriesRetryableKinds(t *testing.T) {
	for _, kind := range []summarizer.ErrorKind{summarizer.KindRateLimited, summarizer.KindTimeout, summarizer.KindUnavailable} {
		t.Run(string(kind), func(t *testing.T) {
			s := &scriptedSummarizer{errs: []error{sumErr(kind), sumErr(kind)}}
			p := NewPipeline(nil, s, fastRetry(3))

			tasks, messages := signals()
			report, err := p.Run(context.Background(), tasks, messages, true)
			require.NoError(t, err)
			assert.Equal(t, 3, report.Attempts)
			assert.Equal(t, 3, s.calls)
			require.NotNil(t, report.Summary)

			// Every attempt sees the identical finding sequence.
			assert.Equal(t, s.seen[0], s.seen[2])
		})
	}
}

func TestRun_DoesNotRetryPermanentKinds(t *testing.T) {
	for _, kind := range []summarizer.ErrorKind{summarizer.KindAuthenticationFailed, summarizer.KindMalformedResponse} {
		t.Run(string(kind), func(t *testing.T) {
			s := &scriptedSummarizer{errs: []error{sumErr(kind)}}
			p := NewPipeline(nil, s, fastRetry(5))

			tasks, messages := signals()
			report, err := p.Run(context.Background(), tasks, messages, true)
			require.Error(t, err)
			assert.Equal(t, 1, s.calls)

			se, ok := summarizer.AsSummarizationError(err)
			require.True(t, ok)
			assert.Equal(t, kind, se.Kind)

			require.NotNil(t, report)
			assert.Len(t, report.Findings, 3)
			assert.Nil(t, report.Summary)
			assert.Equal(t, 1, report.Attempts)
		})
	}
}

func TestRun_ExhaustsAttempts(t *testing.T) {
	errs := []error{
		sumErr(summarizer.KindRateLimited),
		sumErr(summarizer.KindRateLimited),
		sumErr(summarizer.KindRateLimited),
	}
	s := &scriptedSummarizer{errs: errs}
	p := NewPipeline(nil, s, fastRetry(2))

	tasks, messages := signals()
	report, err := p.Run(context.Background(), tasks, messages, true)
	require.Error(t, err)
	assert.Equal(t, 2, s.calls)
	assert.Equal(t, 2, report.Attempts)

	se, ok := summarizer.AsSummarizationError(err)
	require.True(t, ok)
	assert.Equal(t, summarizer.KindRateLimited, se.Kind)
}

func TestRun_EmptySignalsUseFastPath(t *testing.T) {
	client := &countingLLM{}
	sum, err := summarizer.New(client, summarizer.DefaultConfig())
	require.NoError(t, err)

	report, err := NewPipeline(nil, sum).Run(context.Background(), nil, nil, true)
	require.NoError(t, err)
	assert.Empty(t, report.Findings)
	assert.Equal(t, summarizer.NoRisksText, report.Summary.Text)
	assert.Equal(t, 0, report.Summary.SourceFindingCount)
	assert.Equal(t, 0, client.calls)
	assert.Equal(t, risk.HealthOnTrack, report.Health.Status)
}

func TestNewPipeline_ClampsAttempts(t *testing.T) {
	p := NewPipeline(nil, nil, WithRetryPolicy(RetryPolicy{MaxAttempts: 0}))
	assert.Equal(t, 1, p.retry.MaxAttempts)
	assert.False(t, p.CanSummarize())
	assert.NotNil(t, p.Evaluator())
}
