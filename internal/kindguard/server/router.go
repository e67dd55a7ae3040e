// Copyright © 2025 kindguard authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//

package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yyup/kindguard/internal/kindguard/handler"
	"github.com/yyup/kindguard/internal/kindguard/pipeline"
	"github.com/yyup/kindguard/pkg/middleware"
	"github.com/yyup/kindguard/pkg/security/rbac"
)

// RegisterRoutes builds the HTTP routing table. Every authenticated route runs
// the full validation chain in a fixed order: authentication, CSRF, body
// sanitization, injection screening, escalation guarding, then role checks.
// Login only gets the input-hygiene stages since the caller has no token yet.
func RegisterRoutes(ctrl *handler.Controller, pipe *pipeline.Pipeline, metrics *pipeline.Metrics, sentryEnabled bool) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	if sentryEnabled {
		r.Use(middleware.SentryMiddleware(false))
	}
	r.Use(middleware.CORSMiddleware(pipe.AllowedOrigins()))

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))
	r.GET("/api/health", ctrl.Health)

	public := r.Group("/api/auth")
	{
		public.POST("/login", pipe.SanitizeBody(), pipe.ScreenInjection(), ctrl.Login)
	}

	api := r.Group("/api",
		pipe.Authenticate(),
		pipe.CSRFProtect(),
		pipe.SanitizeBody(),
		pipe.ScreenInjection(),
		pipe.GuardEscalation(),
	)
	{
		api.POST("/auth/logout", ctrl.Logout)
		api.GET("/csrf-token", ctrl.CSRFToken)
		api.PUT("/user/profile", ctrl.UpdateProfile)
		api.GET("/students", pipe.RequireRole(rbac.RoleParent), ctrl.ListStudents)
		api.DELETE("/students/:id", pipe.RequireNumericParam("id"), pipe.RequireRole(rbac.RoleAdmin), ctrl.DeleteStudent)
	}

	return r
}
