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

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yyup/kindguard/internal/kindguard/audit"
	"github.com/yyup/kindguard/internal/kindguard/model"
	"github.com/yyup/kindguard/internal/kindguard/pipeline"
)

// Logout drops the server-side session and the CSRF token bound to the
// principal. Logout always succeeds; there is nothing useful to tell an
// attacker about whether a session existed.
func (h *Controller) Logout(c *gin.Context) {
	userID := pipeline.UserID(c)

	if sessionID, err := c.Cookie("session_id"); err == nil && sessionID != "" {
		_ = h.sessions.Delete(c.Request.Context(), sessionID)
	}
	_ = h.guard.Invalidate(c.Request.Context(), userID)
	c.SetCookie("session_id", "", -1, "/", "", true, true)

	role, _ := pipeline.UserRole(c)
	h.audit.Log(audit.NewEvent(audit.EventLogout, audit.SeverityInfo).
		WithActor(userID, string(role)).
		WithRequest(pipeline.RequestID(c), c.ClientIP(), c.Request.Method, c.Request.URL.Path).
		WithOutcome(true, ""))

	c.JSON(http.StatusOK, model.LogoutResponse{Message: "logged out"})
}
