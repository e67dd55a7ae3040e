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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps token bindings in Redis so multiple instances share one
// CSRF state. SET on a single key is atomic, which satisfies the
// last-issued-token-wins requirement without explicit locking.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore creates a Redis-backed token store. Entries expire after ttl
// plus a small grace so the guard, not Redis, decides expiry semantics.
func NewRedisStore(client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("csrf: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultConfig().TTL
	}
	return &RedisStore{client: client, ttl: ttl + time.Minute, prefix: "kindguard:csrf:"}, nil
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

// Put binds a token to a session, replacing any previous binding.
func (s *RedisStore) Put(ctx context.Context, sessionID string, tok Token) error {
	payload, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(sessionID), payload, s.ttl).Err()
}

// Get returns the token bound to the session, if any.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (Token, bool, error) {
	payload, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Token{}, false, nil
	}
	if err != nil {
		return Token{}, false, err
	}
	var tok Token
	if err := json.Unmarshal(payload, &tok); err != nil {
		return Token{}, false, err
	}
	return tok, true, nil
}

// MarkUsed flags the session's token as consumed.
func (s *RedisStore) MarkUsed(ctx context.Context, sessionID string) error {
	tok, ok, err := s.Get(ctx, sessionID)
	if err != nil || !ok {
		return err
	}
	tok.Used = true
	return s.Put(ctx, sessionID, tok)
}

// Delete removes the session's token binding.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}
