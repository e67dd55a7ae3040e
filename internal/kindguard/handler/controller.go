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

// Package handler implements the HTTP endpoints behind the security pipeline.
package handler

import (
	"time"

	"github.com/yyup/kindguard/internal/kindguard/audit"
	"github.com/yyup/kindguard/internal/kindguard/pipeline"
	"github.com/yyup/kindguard/internal/kindguard/repository"
	"github.com/yyup/kindguard/internal/kindguard/store"
	"github.com/yyup/kindguard/pkg/security/csrf"
	"github.com/yyup/kindguard/pkg/security/token"
)

// Controller bundles the collaborators every endpoint needs.
type Controller struct {
	users    repository.UserRepository
	students repository.StudentRepository
	sessions store.SessionStore
	codec    *token.Codec
	guard    *csrf.Guard
	pipe     *pipeline.Pipeline
	audit    *audit.Logger
	tokenTTL time.Duration
}

// NewController wires the endpoint dependencies.
func NewController(
	users repository.UserRepository,
	students repository.StudentRepository,
	sessions store.SessionStore,
	codec *token.Codec,
	guard *csrf.Guard,
	pipe *pipeline.Pipeline,
	auditLogger *audit.Logger,
	tokenTTL time.Duration,
) *Controller {
	return &Controller{
		users:    users,
		students: students,
		sessions: sessions,
		codec:    codec,
		guard:    guard,
		pipe:     pipe,
		audit:    auditLogger,
		tokenTTL: tokenTTL,
	}
}
