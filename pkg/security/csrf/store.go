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

package csrf

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store safe for concurrent use. Writes for a
// given session key happen under a single lock, so issuance is atomic per key.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]Token
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]Token)}
}

// Put binds a token to a session, replacing any previous binding.
func (s *MemoryStore) Put(_ context.Context, sessionID string, tok Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[sessionID] = tok
	return nil
}

// Get returns the token bound to the session, if any.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (Token, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tok, ok := s.tokens[sessionID]
	return tok, ok, nil
}

// MarkUsed flags the session's token as consumed.
func (s *MemoryStore) MarkUsed(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok, ok := s.tokens[sessionID]; ok {
		tok.Used = true
		s.tokens[sessionID] = tok
	}
	return nil
}

// Delete removes the session's token binding.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, sessionID)
	return nil
}
