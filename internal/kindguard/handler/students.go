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

	"github.com/gin-gonic/gin"

	"github.com/yyup/kindguard/internal/kindguard/pipeline"
	"github.com/yyup/kindguard/internal/kindguard/repository"
	"github.com/yyup/kindguard/pkg/security/rbac"
)

// ListStudents returns students visible to the caller. Parents see only
// their own children; teachers and administrators see the full roster. The
// search parameter has already passed the injection screen and is bound as a
// query parameter in the repository.
func (h *Controller) ListStudents(c *gin.Context) {
	role, err := pipeline.UserRole(c)
	if err != nil {
		pipeline.Reject(c, http.StatusForbidden, pipeline.CodePermissionDenied, "insufficient permissions")
		return
	}

	var parentID int64
	if role == rbac.RoleParent {
		parentID, err = strconv.ParseInt(pipeline.UserID(c), 10, 64)
		if err != nil {
			pipeline.RejectInternal(c)
			return
		}
	}

	students, err := h.students.Search(c.Request.Context(), c.Query("search"), parentID)
	if err != nil {
		pipeline.RejectInternal(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "students": students})
}

// DeleteStudent removes a student record. Admin only; the route guard has
// already enforced both the role and the numeric ID shape.
func (h *Controller) DeleteStudent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		pipeline.Reject(c, http.StatusBadRequest, pipeline.CodeInvalidID, "invalid id")
		return
	}

	if err := h.students.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			pipeline.Reject(c, http.StatusNotFound, pipeline.CodeInvalidID, "student not found")
			return
		}
		pipeline.RejectInternal(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "student deleted"})
}
