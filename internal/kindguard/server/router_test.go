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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yyup/kindguard/internal/kindguard/audit"
	"github.com/yyup/kindguard/internal/kindguard/handler"
	"github.com/yyup/kindguard/internal/kindguard/pipeline"
	"github.com/yyup/kindguard/internal/kindguard/store"
	"github.com/yyup/kindguard/pkg/security/csrf"
	"github.com/yyup/kindguard/pkg/security/token"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := token.NewCodec([]byte("0123456789abcdef0123456789abcdef"), "kindguard")
	require.NoError(t, err)
	guard, err := csrf.NewGuard(csrf.NewMemoryStore(), csrf.DefaultConfig())
	require.NoError(t, err)

	auditLogger := audit.NewLogger(zap.NewNop(), audit.DefaultConfig())
	metrics, err := pipeline.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	pipe := pipeline.New(codec, guard, auditLogger, metrics,
		pipeline.WithWhitelist("/api/health"),
		pipeline.WithAllowedOrigins("yyup.com", "yyup.cc"),
	)

	ctrl := handler.NewController(nil, nil, store.NewMemorySessionStore(time.Hour), codec, guard, pipe, auditLogger, time.Hour)
	return RegisterRoutes(ctrl, pipe, metrics, false)
}

func TestRegisterRoutes_Table(t *testing.T) {
	router := newTestRouter(t)

	registered := make(map[string]bool)
	for _, route := range router.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	want := []string{
		"GET /metrics",
		"GET /api/health",
		"POST /api/auth/login",
		"POST /api/auth/logout",
		"GET /api/csrf-token",
		"PUT /api/user/profile",
		"GET /api/students",
		"DELETE /api/students/:id",
	}
	for _, route := range want {
		assert.True(t, registered[route], "missing route %s", route)
	}
}

func TestRegisterRoutes_HealthBypassesAuthentication(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterRoutes_MetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterRoutes_ProtectedRouteRequiresToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/students", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "EMPTY_TOKEN", body["error"])
}
