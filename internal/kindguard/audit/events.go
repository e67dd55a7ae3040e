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

// Package audit records security decisions made by the request pipeline.
// Every attacker-controlled field is sanitized before it reaches a sink, so
// the log stream itself is never an injection vector.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Security event types emitted by the pipeline.
const (
	EventAuthSuccess         = "auth.success"
	EventAuthFailure         = "auth.failure"
	EventLogout              = "auth.logout"
	EventCSRFRejected        = "csrf.rejected"
	EventXSSDetected         = "xss.detected"
	EventInjectionDetected   = "injection.detected"
	EventAccessGranted       = "access.granted"
	EventAccessDenied        = "access.denied"
	EventPrivilegeEscalation = "privilege.escalation"
	EventHeaderSpoofing      = "header.spoofing"
)

// Severity levels, ordered.
const (
	SeverityInfo     = "info"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Event is one security decision. String fields that echo request content
// must already be sanitized by the time the event is built; the Logger
// re-sanitizes as a second line of defense.
type Event struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	Severity  string                 `json:"severity"`
	UserID    string                 `json:"user_id,omitempty"`
	Role      string                 `json:"role,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	ClientIP  string                 `json:"client_ip,omitempty"`
	Method    string                 `json:"method,omitempty"`
	Path      string                 `json:"path,omitempty"`
	Resource  string                 `json:"resource,omitempty"`
	Granted   bool                   `json:"granted"`
	Patterns  []string               `json:"patterns,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewEvent starts a builder for one decision.
func NewEvent(eventType, severity string) *Event {
	return &Event{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Severity:  severity,
	}
}

// WithActor attaches the authenticated principal, if any.
func (e *Event) WithActor(userID, role string) *Event {
	e.UserID = userID
	e.Role = role
	return e
}

// WithRequest attaches transport-level request facts.
func (e *Event) WithRequest(requestID, clientIP, method, path string) *Event {
	e.RequestID = requestID
	e.ClientIP = clientIP
	e.Method = method
	e.Path = path
	return e
}

// WithResource names the resource the decision was about.
func (e *Event) WithResource(resource string) *Event {
	e.Resource = resource
	return e
}

// WithOutcome records whether access was granted and why.
func (e *Event) WithOutcome(granted bool, message string) *Event {
	e.Granted = granted
	e.Message = message
	return e
}

// WithPatterns records which detection patterns matched.
func (e *Event) WithPatterns(patterns []string) *Event {
	e.Patterns = patterns
	return e
}

// AddMetadata attaches an extra key/value pair.
func (e *Event) AddMetadata(key string, value interface{}) *Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// IsDetection reports whether the event describes attack-shaped input rather
// than an ordinary deny.
func (e *Event) IsDetection() bool {
	return e.EventType == EventXSSDetected ||
		e.EventType == EventInjectionDetected ||
		e.EventType == EventPrivilegeEscalation ||
		e.EventType == EventHeaderSpoofing
}
