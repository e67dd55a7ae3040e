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
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yyup/kindguard/internal/kindguard/model"
	"github.com/yyup/kindguard/internal/kindguard/pipeline"
	"github.com/yyup/kindguard/internal/kindguard/repository"
	"github.com/yyup/kindguard/internal/kindguard/store"
)

// Login verifies credentials and issues an access token plus a server-side
// session. The failure response never distinguishes a missing account from a
// wrong password.
func (h *Controller) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		pipeline.Reject(c, http.StatusBadRequest, pipeline.CodeInvalidParams, "username and password required")
		return
	}

	user, err := h.users.GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			h.rejectLogin(c, req.Username)
			return
		}
		pipeline.RejectInternal(c)
		return
	}

	if !user.CheckPassword(req.Password) {
		h.rejectLogin(c, req.Username)
		return
	}

	subjectID := strconv.FormatInt(user.ID, 10)
	accessToken, err := h.codec.Issue(subjectID, user.Role, h.tokenTTL)
	if err != nil {
		pipeline.RejectInternal(c)
		return
	}

	sessionID, err := store.NewSessionID()
	if err != nil {
		pipeline.RejectInternal(c)
		return
	}
	if err := h.sessions.Save(c.Request.Context(), store.Session{
		ID:        sessionID,
		UserID:    subjectID,
		Role:      user.Role,
		CreatedAt: time.Now(),
	}); err != nil {
		pipeline.RejectInternal(c)
		return
	}
	c.SetCookie("session_id", sessionID, int(h.tokenTTL.Seconds()), "/", "", true, true)

	h.audit.AuthSuccess(subjectID, user.Role, pipeline.RequestID(c), c.ClientIP())
	c.JSON(http.StatusOK, model.LoginResponse{
		AccessToken: accessToken,
		Role:        user.Role,
		UserID:      user.ID,
	})
}

func (h *Controller) rejectLogin(c *gin.Context, username string) {
	h.audit.AuthFailure(username, "invalid credentials", pipeline.RequestID(c), c.ClientIP(), c.Request.Method, c.Request.URL.Path)
	pipeline.Reject(c, http.StatusUnauthorized, pipeline.CodeInvalidAuth, "invalid username or password")
}
