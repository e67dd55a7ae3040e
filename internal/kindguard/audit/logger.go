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

package audit

import (
	"go.uber.org/zap"

	"github.com/yyup/kindguard/pkg/security/sanitize"
)

// Config controls which events the logger keeps.
type Config struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	MinSeverity string `yaml:"min_severity" json:"min_severity"`
}

// DefaultConfig keeps everything from info up.
func DefaultConfig() Config {
	return Config{Enabled: true, MinSeverity: SeverityInfo}
}

var severityRank = map[string]int{
	SeverityInfo:     0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Logger writes security events through zap. It sanitizes every free-text
// field before emitting, so a crafted username or resource string cannot
// smuggle markup into downstream log viewers.
type Logger struct {
	zl  *zap.Logger
	cfg Config
}

// NewLogger wraps an existing zap logger.
func NewLogger(zl *zap.Logger, cfg Config) *Logger {
	if cfg.MinSeverity == "" {
		cfg.MinSeverity = SeverityInfo
	}
	return &Logger{zl: zl, cfg: cfg}
}

// Log emits one event if it passes the severity filter.
func (l *Logger) Log(event *Event) {
	if l == nil || l.zl == nil || !l.cfg.Enabled || event == nil {
		return
	}
	if severityRank[event.Severity] < severityRank[l.cfg.MinSeverity] {
		return
	}

	fields := []zap.Field{
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
		zap.Time("event_time", event.Timestamp),
		zap.String("severity", event.Severity),
		zap.Bool("granted", event.Granted),
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", clean(event.UserID)))
	}
	if event.Role != "" {
		fields = append(fields, zap.String("role", clean(event.Role)))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if event.ClientIP != "" {
		fields = append(fields, zap.String("client_ip", event.ClientIP))
	}
	if event.Method != "" {
		fields = append(fields, zap.String("method", event.Method))
	}
	if event.Path != "" {
		fields = append(fields, zap.String("path", clean(event.Path)))
	}
	if event.Resource != "" {
		fields = append(fields, zap.String("resource", clean(event.Resource)))
	}
	if len(event.Patterns) > 0 {
		fields = append(fields, zap.Strings("patterns", event.Patterns))
	}
	if event.Message != "" {
		fields = append(fields, zap.String("detail", clean(event.Message)))
	}
	if len(event.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", cleanMetadata(event.Metadata)))
	}

	l.zl.Info("security_event", fields...)
}

// clean escapes a value that may echo request content.
func clean(s string) string {
	return sanitize.Sanitize(s).Sanitized
}

// cleanMetadata sanitizes string leaves of a metadata map. Non-string values
// pass through; nested maps are rare and sanitized one level deep.
func cleanMetadata(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = clean(s)
			continue
		}
		out[k] = v
	}
	return out
}

// Convenience emitters for the pipeline's common decisions.

// AuthFailure records a rejected credential or token.
func (l *Logger) AuthFailure(userID, reason, requestID, clientIP, method, path string) {
	l.Log(NewEvent(EventAuthFailure, SeverityMedium).
		WithActor(userID, "").
		WithRequest(requestID, clientIP, method, path).
		WithOutcome(false, reason))
}

// AuthSuccess records a completed authentication.
func (l *Logger) AuthSuccess(userID, role, requestID, clientIP string) {
	l.Log(NewEvent(EventAuthSuccess, SeverityInfo).
		WithActor(userID, role).
		WithRequest(requestID, clientIP, "", "").
		WithOutcome(true, ""))
}

// CSRFRejected records a failed cross-site request forgery check.
func (l *Logger) CSRFRejected(userID, role, reason, requestID, clientIP, method, path string) {
	l.Log(NewEvent(EventCSRFRejected, SeverityHigh).
		WithActor(userID, role).
		WithRequest(requestID, clientIP, method, path).
		WithOutcome(false, reason))
}

// InjectionDetected records attack-shaped input with the patterns that fired.
func (l *Logger) InjectionDetected(userID, role string, patterns []string, requestID, clientIP, method, path string) {
	l.Log(NewEvent(EventInjectionDetected, SeverityCritical).
		WithActor(userID, role).
		WithRequest(requestID, clientIP, method, path).
		WithPatterns(patterns).
		WithOutcome(false, "input matched injection patterns"))
}

// AccessDenied records an authorization deny.
func (l *Logger) AccessDenied(userID, role, resource, reason, requestID string) {
	l.Log(NewEvent(EventAccessDenied, SeverityHigh).
		WithActor(userID, role).
		WithRequest(requestID, "", "", "").
		WithResource(resource).
		WithOutcome(false, reason))
}

// PrivilegeEscalation records a payload that tried to change role or admin
// status outside the administrative flow.
func (l *Logger) PrivilegeEscalation(userID, role, field, requestID string) {
	l.Log(NewEvent(EventPrivilegeEscalation, SeverityCritical).
		WithActor(userID, role).
		WithRequest(requestID, "", "", "").
		WithOutcome(false, "payload attempted to set "+field))
}
