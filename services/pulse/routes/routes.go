// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package routes registers the pulse HTTP API on a gin engine.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianPulse/pkg/extensions"
	"github.com/AleutianAI/AleutianPulse/services/pulse/auth"
	"github.com/AleutianAI/AleutianPulse/services/pulse/handlers"
	"github.com/AleutianAI/AleutianPulse/services/pulse/middleware"
	"github.com/AleutianAI/AleutianPulse/services/pulse/reports"
	"github.com/AleutianAI/AleutianPulse/services/pulse/store"
)

// Dependencies are the components the routes call into.
//
// Gatherer may be nil, in which case /metrics serves the default
// Prometheus registry. RateLimiter may be nil to disable rate limiting.
type Dependencies struct {
	Store       *store.Store
	Auth        *auth.Service
	Runner      *reports.Runner
	Gatherer    prometheus.Gatherer
	RateLimiter *middleware.RateLimiter
	CORSOrigins []string
}

// SetupRoutes registers every route.
//
// # Routes
//
//	GET    /health
//	GET    /metrics
//	POST   /v1/auth/register
//	POST   /v1/auth/login
//	POST   /v1/auth/logout                  (auth)
//	GET    /v1/me                           (auth)
//	POST   /v1/analyze                      (auth)
//	POST   /v1/projects                     (auth)
//	GET    /v1/projects                     (auth)
//	GET    /v1/projects/:id                 (auth, owner)
//	DELETE /v1/projects/:id                 (auth, owner)
//	PUT    /v1/projects/:id/signals         (auth, owner)
//	GET    /v1/projects/:id/signals         (auth, owner)
//	DELETE /v1/projects/:id/signals         (auth, owner)
//	POST   /v1/projects/:id/analyze         (auth, owner)
//	GET    /v1/projects/:id/summaries       (auth, owner)
//
// opts.AuthProvider authenticates /v1 routes other than register and
// login; opts.AuthzProvider guards the project routes.
func SetupRoutes(router *gin.Engine, deps Dependencies, opts extensions.ServiceOptions) {
	router.Use(middleware.CORS(deps.CORSOrigins))

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/health", handlers.HandleHealth(deps.Store, deps.Runner.Pipeline().CanSummarize()))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	var limit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if deps.RateLimiter != nil {
		limit = deps.RateLimiter.Middleware()
	}

	// API version 1 group
	v1 := router.Group("/v1")
	{
		public := v1.Group("/auth", limit)
		{
			public.POST("/register", handlers.HandleRegister(deps.Auth, opts.AuditLogger))
			public.POST("/login", handlers.HandleLogin(deps.Auth, opts.AuditLogger))
		}

		secured := v1.Group("", middleware.AuthMiddleware(opts.AuthProvider), limit)
		{
			secured.POST("/auth/logout", handlers.HandleLogout(deps.Auth, opts.AuditLogger))
			secured.GET("/me", handlers.HandleMe())
			secured.POST("/analyze", handlers.HandleAnalyze(deps.Runner))

			secured.POST("/projects", handlers.HandleCreateProject(deps.Store, opts.AuditLogger))
			secured.GET("/projects", handlers.HandleListProjects(deps.Store))

			project := secured.Group("/projects/:"+middleware.ProjectIDParam,
				middleware.RequireProjectAccess(opts.AuthzProvider))
			{
				project.GET("", handlers.HandleGetProject(deps.Store))
				project.DELETE("", handlers.HandleDeleteProject(deps.Store, opts.AuditLogger))
				project.PUT("/signals", handlers.HandlePutSignals(deps.Store, deps.Runner.Pipeline().Evaluator().Validator(), opts.AuditLogger))
				project.GET("/signals", handlers.HandleGetSignals(deps.Store))
				project.DELETE("/signals", handlers.HandleDeleteSignals(deps.Store, opts.AuditLogger))
				project.POST("/analyze", handlers.HandleAnalyzeProject(deps.Runner, opts.AuditLogger))
				project.GET("/summaries", handlers.HandleListSummaries(deps.Store))
			}
		}
	}
}
