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
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yyup/kindguard/internal/kindguard/pipeline"
	"github.com/yyup/kindguard/pkg/security/rbac"
)

// profileColumns are the only fields a profile update may touch. The
// escalation guard has already rejected role fields; this allow-list keeps
// unexpected keys from reaching the column map.
var profileColumns = map[string]bool{
	"nickname": true,
	"phone":    true,
	"email":    true,
}

// UpdateProfile writes the sanitized profile fields of the authenticated
// user. The persisted values are the escaped ones: storage is downstream of
// the trust boundary.
func (h *Controller) UpdateProfile(c *gin.Context) {
	userID := pipeline.UserID(c)
	if !h.pipe.AuthorizeOwnership(c, rbac.RoleParent, userID) {
		return
	}

	body := pipeline.SanitizedBody(c)
	if len(body) == 0 {
		pipeline.Reject(c, http.StatusBadRequest, pipeline.CodeInvalidParams, "no profile fields supplied")
		return
	}

	updates := make(map[string]interface{}, len(body))
	for key, value := range body {
		if profileColumns[key] {
			updates[key] = value
		}
	}
	if len(updates) == 0 {
		pipeline.Reject(c, http.StatusBadRequest, pipeline.CodeInvalidParams, "no updatable fields supplied")
		return
	}

	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		pipeline.RejectInternal(c)
		return
	}
	if err := h.users.UpdateProfile(c.Request.Context(), id, updates); err != nil {
		pipeline.RejectInternal(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "profile updated"})
}
