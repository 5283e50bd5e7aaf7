// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianPulse/pkg/extensions"
	"github.com/AleutianAI/AleutianPulse/services/analysis"
	"github.com/AleutianAI/AleutianPulse/services/pulse/auth"
	"github.com/AleutianAI/AleutianPulse/services/pulse/middleware"
	"github.com/AleutianAI/AleutianPulse/services/pulse/reports"
	"github.com/AleutianAI/AleutianPulse/services/pulse/store"
	"github.com/AleutianAI/AleutianPulse/services/risk"
	"github.com/AleutianAI/AleutianPulse/services/summarizer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingAudit struct {
	mu     sync.Mutex
	events []extensions.AuditEvent
}

func (r *recordingAudit) Log(_ context.Context, e extensions.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

type stubSummarizer struct{ err error }

func (s *stubSummarizer) Summarize(_ context.Context, findings []risk.Finding) (*summarizer.RiskSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &summarizer.RiskSummary{Text: "One blocker.", SourceFindingCount: len(findings)}, nil
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("disk I/O error") }

func newStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Init(context.Background()))
	return st
}

func newRunner(st *store.Store, s analysis.Summarizer) *reports.Runner {
	return reports.NewRunner(st, analysis.NewPipeline(nil, s, analysis.WithRetryPolicy(analysis.RetryPolicy{MaxAttempts: 1})), nil)
}

// asUser injects an authenticated identity without a token.
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetAuthInfo(c, &extensions.AuthInfo{UserID: userID})
		c.Next()
	}
}

func serve(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var blockedTask = map[string]any{
	"task_id": "T1", "title": "API", "status": "blocked", "last_activity_days": 0, "source": "jira",
}

func TestHandleAnalyze_ValidationError(t *testing.T) {
	r := gin.New()
	r.POST("/analyze", HandleAnalyze(newRunner(newStore(t), nil)))

	w := serve(r, http.MethodPost, "/analyze", map[string]any{
		"tasks": []map[string]any{{"task_id": "T1", "title": "API", "status": "blocked", "source": "fax"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "details")
}

func TestHandleAnalyze_SummarizationFailure(t *testing.T) {
	tests := []struct {
		kind summarizer.ErrorKind
		code int
	}{
		{summarizer.KindRateLimited, http.StatusTooManyRequests},
		{summarizer.KindTimeout, http.StatusGatewayTimeout},
		{summarizer.KindAuthenticationFailed, http.StatusBadGateway},
		{summarizer.KindMalformedResponse, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			stub := &stubSummarizer{err: &summarizer.SummarizationError{Kind: tt.kind, FindingCount: 1, Err: errors.New("llm")}}
			r := gin.New()
			r.POST("/analyze", HandleAnalyze(newRunner(newStore(t), stub)))

			w := serve(r, http.MethodPost, "/analyze", map[string]any{"tasks": []any{blockedTask}})
			require.Equal(t, tt.code, w.Code)

			var resp struct {
				Kind     string         `json:"kind"`
				Findings []risk.Finding `json:"findings"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, string(tt.kind), resp.Kind)
			assert.Len(t, resp.Findings, 1, "findings survive a summarization failure")
		})
	}
}

func TestHandleAnalyze_SummaryOptOut(t *testing.T) {
	r := gin.New()
	r.POST("/analyze", HandleAnalyze(newRunner(newStore(t), &stubSummarizer{err: errors.New("must not be called")})))

	w := serve(r, http.MethodPost, "/analyze", map[string]any{"tasks": []any{blockedTask}, "summarize": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"summary"`)
}

func TestHandlePutSignals(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	u, err := st.CreateUser(ctx, "Ann", "ann@example.com", "hash")
	require.NoError(t, err)
	p := &store.Project{OwnerID: u.ID, Name: "Apollo"}
	require.NoError(t, st.CreateProject(ctx, p))

	audit := &recordingAudit{}
	v := risk.NewEvaluator(risk.DefaultConfig()).Validator()
	r := gin.New()
	r.PUT("/projects/:id/signals", asUser(u.ID), HandlePutSignals(st, v, audit))
	r.GET("/projects/:id/signals", asUser(u.ID), HandleGetSignals(st))
	r.DELETE("/projects/:id/signals", asUser(u.ID), HandleDeleteSignals(st, audit))

	bad := map[string]any{"tasks": []map[string]any{blockedTask, {"task_id": "", "title": "x", "status": "todo", "source": "jira"}}}
	w := serve(r, http.MethodPut, "/projects/"+p.ID+"/signals", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	tasks, err := st.ListTasks(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks, "a rejected batch stores nothing")
	assert.Empty(t, audit.events)

	w = serve(r, http.MethodPut, "/projects/"+p.ID+"/signals", map[string]any{"tasks": []any{blockedTask}})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, audit.events, 1)
	assert.Equal(t, extensions.EventSignalsIngest, audit.events[0].EventType)
	assert.Equal(t, p.ID, audit.events[0].ResourceID)

	w = serve(r, http.MethodGet, "/projects/"+p.ID+"/signals", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"task_id":"T1"`)

	w = serve(r, http.MethodGet, "/projects/"+p.ID+"/signals?since=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodDelete, "/projects/"+p.ID+"/signals", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	tasks, err = st.ListTasks(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	require.Len(t, audit.events, 2)
	assert.Equal(t, extensions.EventSignalsCleared, audit.events[1].EventType)
}

func TestHandleLogin_DeniedIsAudited(t *testing.T) {
	st := newStore(t)
	svc := auth.NewService(st, 0, 4)
	audit := &recordingAudit{}
	r := gin.New()
	r.POST("/register", HandleRegister(svc, audit))
	r.POST("/login", HandleLogin(svc, audit))

	w := serve(r, http.MethodPost, "/register", map[string]any{"name": "Ann", "email": "ann@example.com", "password": "long-enough"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = serve(r, http.MethodPost, "/register", map[string]any{"name": "Ann", "email": "ann@example.com", "password": "long-enough"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(r, http.MethodPost, "/login", map[string]any{"email": "ann@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	require.Len(t, audit.events, 2)
	assert.Equal(t, extensions.EventUserRegistered, audit.events[0].EventType)
	assert.Equal(t, extensions.EventLogin, audit.events[1].EventType)
	assert.Equal(t, extensions.OutcomeDenied, audit.events[1].Outcome)
}

func TestHandleRegister_MultibytePasswordOverByteLimit(t *testing.T) {
	r := gin.New()
	r.POST("/register", HandleRegister(auth.NewService(newStore(t), 0, 4), &recordingAudit{}))

	w := serve(r, http.MethodPost, "/register", map[string]any{
		"name": "Ann", "email": "ann@example.com", "password": strings.Repeat("ü", 72),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "72 bytes")
}

func TestHandleListSummaries_Limit(t *testing.T) {
	r := gin.New()
	r.GET("/projects/:id/summaries", HandleListSummaries(newStore(t)))

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/projects/p/summaries?limit=0", nil).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/projects/p/summaries?limit=abc", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/projects/p/summaries?limit=5", nil).Code)
}

func TestHandleHealth(t *testing.T) {
	r := gin.New()
	r.GET("/ok", HandleHealth(newStore(t), false))
	r.GET("/down", HandleHealth(downPinger{}, true))

	w := serve(r, http.MethodGet, "/ok", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rule_set_version":"`+risk.RuleSetVersion+`"`)
	assert.Contains(t, w.Body.String(), `"summaries":false`)

	w = serve(r, http.MethodGet, "/down", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
