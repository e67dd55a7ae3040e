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

// Package pipeline chains the security checks every API request passes
// through, in fixed order: token verification, CSRF, input sanitization,
// injection screening, then authorization. A request rejected at any stage
// never reaches the stages after it.
package pipeline

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Machine-readable rejection codes. Clients branch on these, so they are part
// of the API contract and never change.
const (
	// 401
	CodeEmptyToken   = "EMPTY_TOKEN"
	CodeInvalidToken = "INVALID_TOKEN"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeInvalidAuth  = "INVALID_AUTH"

	// 403
	CodePermissionDenied    = "PERMISSION_DENIED"
	CodeCSRFInvalid         = "CSRF_INVALID"
	CodeCSRFMissing         = "CSRF_MISSING"
	CodeCSRFExpired         = "CSRF_EXPIRED"
	CodeCSRFUsed            = "CSRF_USED"
	CodePrivilegeEscalation = "PRIVILEGE_ESCALATION"
	CodeAdminRequired       = "ADMIN_REQUIRED"

	// 400
	CodeInvalidParams = "INVALID_PARAMS"
	CodeInvalidID     = "INVALID_ID"
	CodeXSSDetected   = "XSS_DETECTED"
	CodeInvalidSearch = "INVALID_SEARCH"

	// 500
	CodeInternalError = "INTERNAL_ERROR"
)

// Reject writes the rejection envelope and stops the chain. The message is
// human-readable and deliberately generic; detection detail goes to the audit
// log only, never to the client.
func Reject(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
		"error":   code,
	})
}

// RejectInternal hides the cause of a server-side failure from the client.
func RejectInternal(c *gin.Context) {
	Reject(c, http.StatusInternalServerError, CodeInternalError, "internal server error")
}
