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
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yyup/kindguard/internal/kindguard/audit"
	"github.com/yyup/kindguard/pkg/security/csrf"
	"github.com/yyup/kindguard/pkg/security/rbac"
	"github.com/yyup/kindguard/pkg/security/sanitize"
	"github.com/yyup/kindguard/pkg/security/sqlguard"
	"github.com/yyup/kindguard/pkg/security/token"
)

// maxBodyBytes caps how much JSON the sanitizer will read.
const maxBodyBytes = 1 << 20

// spoofableHeaders carry identity claims the gateway once trusted. They are
// stripped unconditionally: identity comes from the verified token only.
var spoofableHeaders = []string{
	"X-User-Id",
	"X-User-Role",
	"X-Internal-Service",
}

// Pipeline wires the security stages around shared collaborators.
type Pipeline struct {
	codec          *token.Codec
	guard          *csrf.Guard
	audit          *audit.Logger
	metrics        *Metrics
	allowedOrigins []string
	whitelist      []string
}

// Option adjusts optional Pipeline behavior.
type Option func(*Pipeline)

// WithWhitelist sets paths that skip authentication entirely.
func WithWhitelist(paths ...string) Option {
	return func(p *Pipeline) { p.whitelist = paths }
}

// WithAllowedOrigins sets the referer/origin suffix allow-list for CSRF.
func WithAllowedOrigins(domains ...string) Option {
	return func(p *Pipeline) { p.allowedOrigins = domains }
}

// New builds a pipeline around the given collaborators.
func New(codec *token.Codec, guard *csrf.Guard, auditLogger *audit.Logger, metrics *Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		codec:   codec,
		guard:   guard,
		audit:   auditLogger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AllowedOrigins returns the domain allow-list shared with the CORS layer.
func (p *Pipeline) AllowedOrigins() []string {
	return p.allowedOrigins
}

// Authenticate verifies the bearer token and binds the principal to the
// request context. Identity headers from upstream proxies are stripped first;
// a request carrying them is recorded but not rejected, because load
// balancers commonly echo stale headers.
func (p *Pipeline) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, requestID)
		c.Header("X-Request-Id", requestID)

		p.stripSpoofableHeaders(c, requestID)

		if p.isWhitelisted(c.Request.URL.Path) {
			c.Next()
			return
		}

		raw, code := extractBearer(c.GetHeader("Authorization"))
		if code != "" {
			p.rejectAuth(c, code, requestID)
			return
		}

		claims, err := p.codec.Verify(raw)
		if err != nil {
			p.rejectAuth(c, authCodeFor(err), requestID)
			return
		}

		BindPrincipal(c, claims.SubjectID(), claims.Role)
		p.metrics.RecordDecision(StageAuthenticate, "allowed")
		c.Next()
	}
}

func (p *Pipeline) stripSpoofableHeaders(c *gin.Context, requestID string) {
	for _, h := range spoofableHeaders {
		if c.GetHeader(h) == "" {
			continue
		}
		c.Request.Header.Del(h)
		p.audit.Log(audit.NewEvent(audit.EventHeaderSpoofing, audit.SeverityMedium).
			WithRequest(requestID, c.ClientIP(), c.Request.Method, c.Request.URL.Path).
			WithOutcome(false, "stripped identity header "+h))
	}
}

func (p *Pipeline) isWhitelisted(path string) bool {
	for _, w := range p.whitelist {
		if path == w {
			return true
		}
	}
	return false
}

func (p *Pipeline) rejectAuth(c *gin.Context, code, requestID string) {
	p.metrics.RecordDecision(StageAuthenticate, code)
	p.audit.AuthFailure("", code, requestID, c.ClientIP(), c.Request.Method, c.Request.URL.Path)
	Reject(c, http.StatusUnauthorized, code, authMessageFor(code))
}

// extractBearer splits the Authorization header. An absent header is an
// absent token; anything other than exactly "Bearer <token>" is malformed.
func extractBearer(header string) (string, string) {
	if header == "" {
		return "", CodeEmptyToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", CodeInvalidAuth
	}
	return parts[1], ""
}

func authCodeFor(err error) string {
	switch {
	case errors.Is(err, token.ErrEmptyToken):
		return CodeEmptyToken
	case errors.Is(err, token.ErrTokenExpired):
		return CodeTokenExpired
	default:
		return CodeInvalidToken
	}
}

func authMessageFor(code string) string {
	switch code {
	case CodeEmptyToken:
		return "authentication token required"
	case CodeTokenExpired:
		return "authentication token expired"
	case CodeInvalidAuth:
		return "malformed authorization header"
	default:
		return "invalid authentication token"
	}
}

// CSRFProtect enforces the anti-forgery token on every mutating request.
// Safe methods pass through untouched.
func (p *Pipeline) CSRFProtect() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		role, _ := UserRole(c)

		origin := c.GetHeader("Origin")
		if origin == "" {
			origin = c.GetHeader("Referer")
		}
		if origin != "" && !csrf.IsValidReferer(origin, p.allowedOrigins) {
			p.rejectCSRF(c, string(role), CodeCSRFInvalid, "request origin not allowed")
			return
		}

		supplied := c.GetHeader("X-CSRF-Token")
		err := p.guard.Verify(c.Request.Context(), UserID(c), supplied)
		if err != nil {
			code, msg := csrfCodeFor(err)
			p.rejectCSRF(c, string(role), code, msg)
			return
		}

		p.metrics.RecordDecision(StageCSRF, "allowed")
		c.Next()
	}
}

func (p *Pipeline) rejectCSRF(c *gin.Context, role, code, message string) {
	p.metrics.RecordDecision(StageCSRF, code)
	p.audit.CSRFRejected(UserID(c), role, message, RequestID(c), c.ClientIP(), c.Request.Method, c.Request.URL.Path)
	Reject(c, http.StatusForbidden, code, message)
}

func csrfCodeFor(err error) (string, string) {
	switch {
	case errors.Is(err, csrf.ErrMissingToken):
		return CodeCSRFMissing, "csrf token required"
	case errors.Is(err, csrf.ErrTokenExpired):
		return CodeCSRFExpired, "csrf token expired"
	case errors.Is(err, csrf.ErrTokenReused):
		return CodeCSRFUsed, "csrf token already used"
	default:
		return CodeCSRFInvalid, "csrf token invalid"
	}
}

// SanitizeBody escapes every string in a JSON object body and stores the
// cleaned copy on the context. The raw body is restored for binding, but
// anything a handler echoes or persists must come from SanitizedBody.
func (p *Pipeline) SanitizeBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || !hasJSONBody(c) {
			c.Next()
			return
		}

		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
		if err != nil {
			RejectInternal(c)
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))

		if len(bytes.TrimSpace(raw)) == 0 {
			c.Next()
			return
		}

		var decoded interface{}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			p.metrics.RecordDecision(StageSanitize, CodeInvalidParams)
			Reject(c, http.StatusBadRequest, CodeInvalidParams, "request body is not valid JSON")
			return
		}

		cleaned, err := sanitize.SanitizeDeep(decoded, 0)
		if err != nil {
			code, msg := sanitizeCodeFor(err)
			p.metrics.RecordDecision(StageSanitize, code)
			if code == CodeXSSDetected {
				role, _ := UserRole(c)
				p.audit.Log(audit.NewEvent(audit.EventXSSDetected, audit.SeverityHigh).
					WithActor(UserID(c), string(role)).
					WithRequest(RequestID(c), c.ClientIP(), c.Request.Method, c.Request.URL.Path).
					WithOutcome(false, "unsafe object key in request body"))
			}
			Reject(c, http.StatusBadRequest, code, msg)
			return
		}

		if body, ok := cleaned.(map[string]interface{}); ok {
			c.Set(ctxKeySanitizedBody, body)
		}

		p.metrics.RecordDecision(StageSanitize, "allowed")
		c.Next()
	}
}

func hasJSONBody(c *gin.Context) bool {
	switch c.Request.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return false
	}
	return strings.Contains(c.ContentType(), "application/json") || c.ContentType() == ""
}

func sanitizeCodeFor(err error) (string, string) {
	if errors.Is(err, sanitize.ErrUnsafeKey) {
		return CodeXSSDetected, "request body rejected"
	}
	return CodeInvalidParams, "request body rejected"
}

// ScreenInjection checks every query parameter against the injection pattern
// table. The client only learns that the input was rejected; which patterns
// fired is recorded in the audit log and metrics, never echoed.
func (p *Pipeline) ScreenInjection() gin.HandlerFunc {
	return func(c *gin.Context) {
		for key, values := range c.Request.URL.Query() {
			for _, value := range values {
				verdict := sqlguard.Detect(value)
				if !verdict.Suspicious {
					continue
				}

				patterns := make([]string, len(verdict.MatchedPatterns))
				for i, id := range verdict.MatchedPatterns {
					patterns[i] = string(id)
				}
				role, _ := UserRole(c)
				p.audit.InjectionDetected(UserID(c), string(role), patterns, RequestID(c), c.ClientIP(), c.Request.Method, c.Request.URL.Path)
				p.metrics.RecordDetections(patterns)

				if key == "search" {
					p.metrics.RecordDecision(StageInjection, CodeInvalidSearch)
					Reject(c, http.StatusBadRequest, CodeInvalidSearch, "invalid search input")
				} else {
					p.metrics.RecordDecision(StageInjection, CodeInvalidParams)
					Reject(c, http.StatusBadRequest, CodeInvalidParams, "invalid request parameter")
				}
				return
			}
		}

		p.metrics.RecordDecision(StageInjection, "allowed")
		c.Next()
	}
}

// RequireNumericParam validates that a path parameter is an integer before it
// can reach a data layer.
func (p *Pipeline) RequireNumericParam(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sqlguard.IsNumericID(c.Param(name)) {
			p.metrics.RecordDecision(StageInjection, CodeInvalidID)
			Reject(c, http.StatusBadRequest, CodeInvalidID, "invalid id")
			return
		}
		c.Next()
	}
}

// GuardEscalation rejects mutating bodies that try to set role or admin
// fields. The rule binds administrators too: role changes have their own
// endpoint with its own audit trail.
func (p *Pipeline) GuardEscalation() gin.HandlerFunc {
	return func(c *gin.Context) {
		body := SanitizedBody(c)
		if body == nil {
			c.Next()
			return
		}

		if err := rbac.CheckRolePayload(body); err != nil {
			role, _ := UserRole(c)
			p.metrics.RecordDecision(StageAuthorize, CodePrivilegeEscalation)
			p.audit.PrivilegeEscalation(UserID(c), string(role), err.Error(), RequestID(c))
			Reject(c, http.StatusForbidden, CodePrivilegeEscalation, "role changes are not allowed here")
			return
		}
		c.Next()
	}
}

// RequireRole enforces the vertical access check.
func (p *Pipeline) RequireRole(required rbac.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := UserRole(c)
		if err != nil || !role.Satisfies(required) {
			code := CodePermissionDenied
			if required == rbac.RoleAdmin {
				code = CodeAdminRequired
			}
			p.metrics.RecordDecision(StageAuthorize, code)
			p.audit.AccessDenied(UserID(c), string(role), c.Request.URL.Path, "role below requirement", RequestID(c))
			Reject(c, http.StatusForbidden, code, "insufficient permissions")
			return
		}
		p.metrics.RecordDecision(StageAuthorize, "allowed")
		c.Next()
	}
}

// AuthorizeOwnership applies the horizontal check for a principal-scoped
// resource inside a handler. It writes the rejection itself and reports
// whether the handler may proceed.
func (p *Pipeline) AuthorizeOwnership(c *gin.Context, required rbac.Role, ownerID string) bool {
	role, err := UserRole(c)
	if err != nil {
		p.metrics.RecordDecision(StageAuthorize, CodePermissionDenied)
		Reject(c, http.StatusForbidden, CodePermissionDenied, "insufficient permissions")
		return false
	}
	if err := rbac.Authorize(role, UserID(c), required, ownerID); err != nil {
		p.metrics.RecordDecision(StageAuthorize, CodePermissionDenied)
		p.audit.AccessDenied(UserID(c), string(role), c.Request.URL.Path, err.Error(), RequestID(c))
		Reject(c, http.StatusForbidden, CodePermissionDenied, "insufficient permissions")
		return false
	}
	p.metrics.RecordDecision(StageAuthorize, "allowed")
	return true
}
