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

	"github.com/yyup/kindguard/internal/kindguard/model"
	"github.com/yyup/kindguard/internal/kindguard/pipeline"
)

// CSRFToken mints a fresh anti-forgery token bound to the authenticated
// principal. Issuing again replaces the previous token.
func (h *Controller) CSRFToken(c *gin.Context) {
	tok, err := h.guard.Issue(c.Request.Context(), pipeline.UserID(c))
	if err != nil {
		pipeline.RejectInternal(c)
		return
	}
	c.JSON(http.StatusOK, model.CSRFTokenResponse{CSRFToken: tok.Value})
}
