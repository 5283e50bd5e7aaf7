// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianPulse/services/llm"
	"github.com/AleutianAI/AleutianPulse/services/risk"
)

// fakeClient records every call and replies with a canned result.
type fakeClient struct {
	mu       sync.Mutex
	calls    int
	messages [][]llm.Message
	params   []llm.GenerationParams
	reply    string
	err      error
	block    bool
}

func (f *fakeClient) Chat(ctx context.Context, messages []llm.Message, params llm.GenerationParams) (string, error) {
	f.mu.Lock()
	f.calls++
	f.messages = append(f.messages, messages)
	f.params = append(f.params, params)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func sampleFindings(n int) []risk.Finding {
	out := make([]risk.Finding, n)
	for i := range out {
		id := fmt.Sprintf("T%d", i+1)
		out[i] = risk.Finding{Kind: risk.KindBlockedTask, SubjectID: id, Description: "Task " + id + " is blocked"}
	}
	return out
}

func TestSummarize_EmptyFastPath(t *testing.T) {
	client := &fakeClient{reply: "should not be used"}
	s, err := New(client, DefaultConfig())
	require.NoError(t, err)

	for _, in := range [][]risk.Finding{nil, {}} {
		got, err := s.Summarize(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, &RiskSummary{Text: "No major project risks detected.", SourceFindingCount: 0}, got)
	}
	assert.Equal(t, 0, client.callCount())
}

func TestSummarize_SingleUserMessage(t *testing.T) {
	client := &fakeClient{reply: "  Two tasks are blocked.\n"}
	s, err := New(client, DefaultConfig())
	require.NoError(t, err)

	got, err := s.Summarize(context.Background(), sampleFindings(2))
	require.NoError(t, err)
	assert.Equal(t, "Two tasks are blocked.", got.Text)
	assert.Equal(t, 2, got.SourceFindingCount)
	assert.False(t, got.Truncated)
	assert.Equal(t, DefaultModel, got.Model)

	require.Equal(t, 1, client.callCount())
	require.Len(t, client.messages[0], 1)
	assert.Equal(t, llm.RoleUser, client.messages[0][0].Role)
	assert.Contains(t, client.messages[0][0].Content, "- Task T1 is blocked\n- Task T2 is blocked\n")

	params := client.params[0]
	assert.Equal(t, DefaultModel, params.Model)
	require.NotNil(t, params.Temperature)
	assert.Equal(t, float32(0), *params.Temperature)
	assert.Nil(t, params.MaxTokens)
}

func TestSummarize_Truncation(t *testing.T) {
	client := &fakeClient{reply: "summary"}
	cfg := DefaultConfig()
	cfg.MaxInputFindings = 2
	s, err := New(client, cfg)
	require.NoError(t, err)

	got, err := s.Summarize(context.Background(), sampleFindings(5))
	require.NoError(t, err)
	assert.Equal(t, 2, got.SourceFindingCount)
	assert.True(t, got.Truncated)

	prompt := client.messages[0][0].Content
	assert.Contains(t, prompt, "Task T1 is blocked")
	assert.Contains(t, prompt, "Task T2 is blocked")
	for _, id := range []string{"T3", "T4", "T5"} {
		assert.NotContains(t, prompt, "Task "+id+" ")
	}
	assert.Contains(t, prompt, "truncated to the first 2 of 5 risks")
}

func TestSummarize_Timeout(t *testing.T) {
	client := &fakeClient{block: true}
	cfg := DefaultConfig()
	cfg.Timeout = 20 * time.Millisecond
	s, err := New(client, cfg)
	require.NoError(t, err)

	start := time.Now()
	got, err := s.Summarize(context.Background(), sampleFindings(1))
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Less(t, time.Since(start), 2*time.Second)

	se, ok := AsSummarizationError(err)
	require.True(t, ok)
	assert.Equal(t, KindTimeout, se.Kind)
	assert.Equal(t, 1, se.FindingCount)
	assert.True(t, se.Retryable())
	assert.False(t, se.Canceled())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSummarize_CallerCancellation(t *testing.T) {
	client := &fakeClient{block: true}
	s, err := New(client, DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err = s.Summarize(ctx, sampleFindings(1))
	se, ok := AsSummarizationError(err)
	require.True(t, ok)
	assert.Equal(t, KindTimeout, se.Kind)
	assert.True(t, se.Canceled())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarize_CancelledClientIgnoringContext(t *testing.T) {
	client := &fakeClient{err: errors.New("connection reset")}
	s, err := New(client, DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Summarize(ctx, sampleFindings(2))
	se, ok := AsSummarizationError(err)
	require.True(t, ok)
	assert.Equal(t, KindTimeout, se.Kind)
	assert.True(t, se.Canceled())
	assert.Contains(t, err.Error(), "context canceled")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestSummarize_ErrorKinds(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		err       error
		want      ErrorKind
		retryable bool
	}{
		{"auth", "", &llm.Error{Kind: llm.KindAuthentication, StatusCode: 401, Err: errors.New("bad key")}, KindAuthenticationFailed, false},
		{"rate limited", "", &llm.Error{Kind: llm.KindRateLimited, StatusCode: 429, Err: errors.New("slow")}, KindRateLimited, true},
		{"malformed", "", &llm.Error{Kind: llm.KindMalformedResponse, Err: errors.New("bad json")}, KindMalformedResponse, false},
		{"unavailable", "", &llm.Error{Kind: llm.KindUnavailable, StatusCode: 503, Err: errors.New("down")}, KindUnavailable, true},
		{"unclassified", "", errors.New("connection refused"), KindUnavailable, true},
		{"blank reply", "   \n", nil, KindMalformedResponse, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{reply: tt.reply, err: tt.err}
			cfg := DefaultConfig()
			cfg.MaxInputFindings = 3
			s, err := New(client, cfg)
			require.NoError(t, err)

			got, err := s.Summarize(context.Background(), sampleFindings(4))
			require.Error(t, err)
			assert.Nil(t, got, "must not fall back to canned text")

			se, ok := AsSummarizationError(err)
			require.True(t, ok)
			assert.Equal(t, tt.want, se.Kind)
			assert.Equal(t, tt.retryable, se.Retryable())
			assert.Equal(t, 3, se.FindingCount)
			assert.True(t, se.Truncated)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestSummarize_ConfigOverrides(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	s, err := New(client, Config{Model: "gpt-4", Temperature: 0.2, MaxTokens: 300})
	require.NoError(t, err)

	_, err = s.Summarize(context.Background(), sampleFindings(1))
	require.NoError(t, err)

	p := client.params[0]
	assert.Equal(t, "gpt-4", p.Model)
	assert.InDelta(t, 0.2, *p.Temperature, 1e-6)
	require.NotNil(t, p.MaxTokens)
	assert.Equal(t, 300, *p.MaxTokens)
	assert.Equal(t, DefaultTimeout, s.Config().Timeout)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, DefaultConfig())
	assert.Error(t, err)

	_, err = New(&fakeClient{}, Config{Style: "poem"})
	assert.Error(t, err)

	_, err = New(&fakeClient{}, Config{Temperature: 3})
	assert.Error(t, err)
}

func TestSummarizationError_Message(t *testing.T) {
	e := &SummarizationError{Kind: KindRateLimited, FindingCount: 3, Err: errors.New("429")}
	assert.Equal(t, "summarize 3 findings: rate_limited: 429", e.Error())
	assert.True(t, strings.HasPrefix(fmt.Sprintf("wrap: %v", e), "wrap: summarize"))
}
