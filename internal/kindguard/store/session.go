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

package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrSessionNotFound indicates no live session matched the ID.
	ErrSessionNotFound = errors.New("store: session not found")
	// ErrSessionIDTooShort indicates a session ID below the minimum length.
	ErrSessionIDTooShort = errors.New("store: session id too short")
)

// MinSessionIDLength is the shortest acceptable session identifier. Short
// IDs are guessable; a session's absence from the store is its expiry.
const MinSessionIDLength = 20

// DefaultSessionMaxAge bounds how long a session stays valid when the
// configuration does not say otherwise.
const DefaultSessionMaxAge = 24 * time.Hour

// Session binds an authenticated user to a server-side record. A session
// past its store's max age is treated exactly like one that never existed.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSessionID returns a 40-hex-char random identifier.
func NewSessionID() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("store: generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// SessionStore is the server-side session registry.
type SessionStore interface {
	Save(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

// MemorySessionStore keeps sessions in process memory, for tests and
// single-node deployments. Sessions older than maxAge are treated as absent,
// mirroring the TTL the Redis store applies.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	maxAge   time.Duration
	now      func() time.Time
}

// NewMemorySessionStore returns an empty in-memory store. A non-positive
// maxAge falls back to DefaultSessionMaxAge.
func NewMemorySessionStore(maxAge time.Duration) *MemorySessionStore {
	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}
	return &MemorySessionStore{
		sessions: make(map[string]Session),
		maxAge:   maxAge,
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Save(_ context.Context, sess Session) error {
	if len(sess.ID) < MinSessionIDLength {
		return fmt.Errorf("%w: %d chars", ErrSessionIDTooShort, len(sess.ID))
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if s.now().Sub(sess.CreatedAt) > s.maxAge {
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
