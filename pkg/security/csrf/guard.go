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

// Package csrf implements per-session anti-forgery tokens. A token moves
// through the states Unissued -> Issued -> (Consumed | Expired); verification
// uses constant-time comparison and an injected store so the guard itself
// holds no global state.
package csrf

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingToken indicates that no token was supplied for a mutating request.
	ErrMissingToken = errors.New("csrf: missing token")
	// ErrTokenMismatch indicates the supplied value does not match the session's token.
	ErrTokenMismatch = errors.New("csrf: token mismatch")
	// ErrTokenExpired indicates the bound token outlived the configured TTL.
	ErrTokenExpired = errors.New("csrf: token expired")
	// ErrTokenReused indicates a single-use token was presented twice.
	ErrTokenReused = errors.New("csrf: token already used")
	// ErrInvalidReferer indicates the request origin is not on the allow-list.
	ErrInvalidReferer = errors.New("csrf: invalid referer")
)

// tokenAlphabet is the uniform alphabet for generated token values.
const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// TokenLength is the length of generated token values.
const TokenLength = 32

// Token is a session-bound anti-forgery token.
type Token struct {
	Value          string    `json:"value"`
	BoundSessionID string    `json:"bound_session_id"`
	IssuedAt       time.Time `json:"issued_at"`
	Used           bool      `json:"used"`
}

// Store persists the binding between a session and its current token.
// Implementations must make Put atomic per session key: the last issued
// token for a session is authoritative.
type Store interface {
	Put(ctx context.Context, sessionID string, tok Token) error
	Get(ctx context.Context, sessionID string) (Token, bool, error)
	MarkUsed(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
}

// Config controls token lifetime and the single-use mode.
type Config struct {
	// TTL is how long an issued token stays valid.
	TTL time.Duration
	// SingleUse invalidates a token on first successful verification.
	SingleUse bool
}

// DefaultConfig returns the session-lifetime-valid double-submit defaults.
func DefaultConfig() Config {
	return Config{TTL: 2 * time.Hour, SingleUse: false}
}

// Guard issues and verifies per-session anti-forgery tokens.
type Guard struct {
	store Store
	cfg   Config
	now   func() time.Time
}

// NewGuard creates a guard backed by the given store.
func NewGuard(store Store, cfg Config) (*Guard, error) {
	if store == nil {
		return nil, fmt.Errorf("csrf: store cannot be nil")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	return &Guard{store: store, cfg: cfg, now: time.Now}, nil
}

// Issue generates a fresh random token and binds it to the session,
// replacing any previously issued token for that session.
func (g *Guard) Issue(ctx context.Context, sessionID string) (Token, error) {
	if sessionID == "" {
		return Token{}, fmt.Errorf("csrf: session id cannot be empty")
	}

	value, err := randomValue(TokenLength)
	if err != nil {
		return Token{}, fmt.Errorf("csrf: generate token: %w", err)
	}

	tok := Token{
		Value:          value,
		BoundSessionID: sessionID,
		IssuedAt:       g.now(),
	}
	if err := g.store.Put(ctx, sessionID, tok); err != nil {
		return Token{}, fmt.Errorf("csrf: store token: %w", err)
	}
	return tok, nil
}

// Verify checks the supplied value against the session's bound token.
// On success in single-use mode the token is marked consumed.
func (g *Guard) Verify(ctx context.Context, sessionID, supplied string) error {
	if supplied == "" {
		return ErrMissingToken
	}

	tok, ok, err := g.store.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("csrf: load token: %w", err)
	}
	if !ok {
		return ErrTokenMismatch
	}
	if g.now().Sub(tok.IssuedAt) > g.cfg.TTL {
		return ErrTokenExpired
	}
	if g.cfg.SingleUse && tok.Used {
		return ErrTokenReused
	}
	if subtle.ConstantTimeCompare([]byte(tok.Value), []byte(supplied)) != 1 {
		return ErrTokenMismatch
	}

	if g.cfg.SingleUse {
		if err := g.store.MarkUsed(ctx, sessionID); err != nil {
			return fmt.Errorf("csrf: mark used: %w", err)
		}
	}
	return nil
}

// Invalidate removes the session's token, e.g. on logout.
func (g *Guard) Invalidate(ctx context.Context, sessionID string) error {
	return g.store.Delete(ctx, sessionID)
}

// DoubleSubmitCheck reports whether the cookie-held and request-supplied
// values are both present and exactly equal.
func DoubleSubmitCheck(cookieValue, requestValue string) bool {
	if cookieValue == "" || requestValue == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieValue), []byte(requestValue)) == 1
}

// randomValue draws n characters uniformly from tokenAlphabet using crypto/rand.
func randomValue(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	// 64-character alphabet, so masking to 6 bits keeps the draw uniform.
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = tokenAlphabet[b&0x3F]
	}
	return string(out), nil
}
