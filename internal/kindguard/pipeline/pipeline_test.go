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

package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yyup/kindguard/internal/kindguard/audit"
	"github.com/yyup/kindguard/pkg/security/csrf"
	"github.com/yyup/kindguard/pkg/security/rbac"
	"github.com/yyup/kindguard/pkg/security/token"
)

var pipelineTestSecret = []byte("0123456789abcdef0123456789abcdef")

type testEnv struct {
	router *gin.Engine
	codec  *token.Codec
	guard  *csrf.Guard
	logs   *observer.ObservedLogs
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := token.NewCodec(pipelineTestSecret, "kindguard-test")
	require.NoError(t, err)
	guard, err := csrf.NewGuard(csrf.NewMemoryStore(), csrf.DefaultConfig())
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	auditLogger := audit.NewLogger(zap.New(core), audit.DefaultConfig())

	metrics, err := NewMetrics(nil)
	require.NoError(t, err)

	p := New(codec, guard, auditLogger, metrics,
		WithWhitelist("/api/health"),
		WithAllowedOrigins("yyup.com", "yyup.cc"),
	)

	router := gin.New()
	api := router.Group("/api",
		p.Authenticate(),
		p.CSRFProtect(),
		p.SanitizeBody(),
		p.ScreenInjection(),
		p.GuardEscalation(),
	)
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	api.PUT("/user/profile", func(c *gin.Context) {
		if !p.AuthorizeOwnership(c, rbac.RoleParent, UserID(c)) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "profile": SanitizedBody(c)})
	})
	api.GET("/students", p.RequireRole(rbac.RoleParent), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "students": []string{}})
	})
	api.DELETE("/students/:id", p.RequireNumericParam("id"), p.RequireRole(rbac.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	return &testEnv{router: router, codec: codec, guard: guard, logs: logs}
}

func (e *testEnv) bearer(t *testing.T, subjectID, role string) string {
	t.Helper()
	raw, err := e.codec.Issue(subjectID, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + raw
}

func (e *testEnv) csrfToken(t *testing.T, subjectID string) string {
	t.Helper()
	tok, err := e.guard.Issue(context.Background(), subjectID)
	require.NoError(t, err)
	return tok.Value
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestPipeline_MutationWithoutCSRFToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPut, "/api/user/profile",
		strings.NewReader(`{"nickname":"<script>alert(1)</script>"}`))
	req.Header.Set("Authorization", env.bearer(t, "42", "parent"))
	req.Header.Set("Content-Type", "application/json")

	rec := env.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, CodeCSRFMissing, body["error"])

	// Every string the audit trail recorded is free of raw markup.
	for _, entry := range env.logs.All() {
		for _, v := range entry.ContextMap() {
			if s, ok := v.(string); ok {
				assert.NotContains(t, s, "<script>")
			}
		}
	}
}

func TestPipeline_EscalationPayloadRejectedEvenForAdmin(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPut, "/api/user/profile",
		strings.NewReader(`{"nickname":"boss","role":"admin"}`))
	req.Header.Set("Authorization", env.bearer(t, "1", "admin"))
	req.Header.Set("X-CSRF-Token", env.csrfToken(t, "1"))
	req.Header.Set("Content-Type", "application/json")

	rec := env.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, CodePrivilegeEscalation, decodeEnvelope(t, rec)["error"])
}

func TestPipeline_InjectionShapedSearch(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/students?search="+
		"%27%20OR%201%3D1%20--", nil)
	req.Header.Set("Authorization", env.bearer(t, "42", "parent"))

	rec := env.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeEnvelope(t, rec)
	assert.Equal(t, CodeInvalidSearch, body["error"])

	// Which patterns matched stays server-side.
	assert.NotContains(t, rec.Body.String(), "quote-comment")
	assert.NotContains(t, rec.Body.String(), "tautology")

	found := false
	for _, entry := range env.logs.All() {
		if entry.ContextMap()["event_type"] == audit.EventInjectionDetected {
			found = true
			assert.NotEmpty(t, entry.ContextMap()["patterns"])
		}
	}
	assert.True(t, found, "expected an injection detection audit event")
}

func TestPipeline_SpoofedRoleHeaderIgnored(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/students/7", nil)
	req.Header.Set("Authorization", env.bearer(t, "42", "parent"))
	req.Header.Set("X-CSRF-Token", env.csrfToken(t, "42"))
	req.Header.Set("X-User-Role", "admin")

	rec := env.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, CodeAdminRequired, decodeEnvelope(t, rec)["error"])

	spoofLogged := false
	for _, entry := range env.logs.All() {
		if entry.ContextMap()["event_type"] == audit.EventHeaderSpoofing {
			spoofLogged = true
		}
	}
	assert.True(t, spoofLogged)
}

func TestPipeline_AdminDeleteSucceeds(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/students/7", nil)
	req.Header.Set("Authorization", env.bearer(t, "1", "admin"))
	req.Header.Set("X-CSRF-Token", env.csrfToken(t, "1"))

	rec := env.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPipeline_NonNumericID(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/students/seven", nil)
	req.Header.Set("Authorization", env.bearer(t, "1", "admin"))
	req.Header.Set("X-CSRF-Token", env.csrfToken(t, "1"))

	rec := env.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidID, decodeEnvelope(t, rec)["error"])
}

func TestPipeline_GetSkipsCSRF(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/students", nil)
	req.Header.Set("Authorization", env.bearer(t, "42", "parent"))

	rec := env.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPipeline_WhitelistedHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPipeline_TokenRejections(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		authHeader string
		wantCode   string
	}{
		{name: "no_header", authHeader: "", wantCode: CodeEmptyToken},
		{name: "wrong_scheme", authHeader: "Basic dXNlcg==", wantCode: CodeInvalidAuth},
		{name: "garbage_token", authHeader: "Bearer not.a.jwt", wantCode: CodeInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/students", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := env.do(req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.wantCode, decodeEnvelope(t, rec)["error"])
		})
	}
}

func TestPipeline_ForeignOriginRejected(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPut, "/api/user/profile",
		strings.NewReader(`{"nickname":"x"}`))
	req.Header.Set("Authorization", env.bearer(t, "42", "parent"))
	req.Header.Set("X-CSRF-Token", env.csrfToken(t, "42"))
	req.Header.Set("Origin", "https://attacker.example")
	req.Header.Set("Content-Type", "application/json")

	rec := env.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, CodeCSRFInvalid, decodeEnvelope(t, rec)["error"])
}

func TestPipeline_CleanMutationSucceedsWithEscapedBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPut, "/api/user/profile",
		strings.NewReader(`{"nickname":"<b>Star</b>"}`))
	req.Header.Set("Authorization", env.bearer(t, "42", "parent"))
	req.Header.Set("X-CSRF-Token", env.csrfToken(t, "42"))
	req.Header.Set("Origin", "https://k.yyup.com")
	req.Header.Set("Content-Type", "application/json")

	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeEnvelope(t, rec)
	profile := body["profile"].(map[string]interface{})
	assert.Equal(t, "&lt;b&gt;Star&lt;&#x2F;b&gt;", profile["nickname"])
}

func TestPipeline_DeepNestingRejected(t *testing.T) {
	env := newTestEnv(t)

	payload := `{"a":{"b":{"c":{"d":{"e":{"f":{"g":"deep"}}}}}}}`
	req := httptest.NewRequest(http.MethodPut, "/api/user/profile", strings.NewReader(payload))
	req.Header.Set("Authorization", env.bearer(t, "42", "parent"))
	req.Header.Set("X-CSRF-Token", env.csrfToken(t, "42"))
	req.Header.Set("Content-Type", "application/json")

	rec := env.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidParams, decodeEnvelope(t, rec)["error"])
}

func TestPipeline_UnsafeBodyKeyRejected(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPut, "/api/user/profile",
		strings.NewReader(`{"onclick=alert(1)":"x"}`))
	req.Header.Set("Authorization", env.bearer(t, "42", "parent"))
	req.Header.Set("X-CSRF-Token", env.csrfToken(t, "42"))
	req.Header.Set("Content-Type", "application/json")

	rec := env.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeXSSDetected, decodeEnvelope(t, rec)["error"])
}
