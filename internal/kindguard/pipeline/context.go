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
	"github.com/gin-gonic/gin"

	"github.com/yyup/kindguard/pkg/security/rbac"
)

// Keys the pipeline stages set on the gin context for stages and handlers
// downstream of them.
const (
	ctxKeyUserID        = "kindguard.user_id"
	ctxKeyUserRole      = "kindguard.user_role"
	ctxKeyRequestID     = "kindguard.request_id"
	ctxKeySanitizedBody = "kindguard.sanitized_body"
)

// UserID returns the authenticated subject ID, empty before authentication.
func UserID(c *gin.Context) string {
	return c.GetString(ctxKeyUserID)
}

// UserRole returns the authenticated role, or an error if authentication has
// not run or the stored role is outside the hierarchy.
func UserRole(c *gin.Context) (rbac.Role, error) {
	return rbac.ParseRole(c.GetString(ctxKeyUserRole))
}

// RequestID returns the per-request correlation ID.
func RequestID(c *gin.Context) string {
	return c.GetString(ctxKeyRequestID)
}

// SanitizedBody returns the escaped request body, nil if the request carried
// no JSON object body. Handlers must read this, never the raw body.
func SanitizedBody(c *gin.Context) map[string]interface{} {
	v, ok := c.Get(ctxKeySanitizedBody)
	if !ok {
		return nil
	}
	body, _ := v.(map[string]interface{})
	return body
}

// BindPrincipal attaches an authenticated principal to the request context.
// Only the authentication stage (or a test standing in for it) may call this.
func BindPrincipal(c *gin.Context, userID, role string) {
	c.Set(ctxKeyUserID, userID)
	c.Set(ctxKeyUserRole, role)
}
