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

package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// SentryMiddleware creates a Gin middleware that reports panics and server
// errors to Sentry. Request headers are deliberately excluded from the scope:
// they carry bearer tokens and cookies.
func SentryMiddleware(repanic bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		transaction := sentry.StartTransaction(ctx, fmt.Sprintf("%s %s", c.Request.Method, c.FullPath()))
		transaction.Op = "http.server"
		transaction.SetData("http.method", c.Request.Method)
		transaction.SetData("http.route", c.FullPath())

		ctx = transaction.Context()
		c.Request = c.Request.WithContext(ctx)

		hub := sentry.GetHubFromContext(ctx)
		if hub == nil {
			hub = sentry.CurrentHub().Clone()
			ctx = sentry.SetHubOnContext(ctx, hub)
			c.Request = c.Request.WithContext(ctx)
		}

		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetTag("component", "http")
			scope.SetTag("http.method", c.Request.Method)
			scope.SetTag("http.route", c.FullPath())
			scope.SetContext("request", map[string]interface{}{
				"method":    c.Request.Method,
				"route":     c.FullPath(),
				"remote_ip": c.ClientIP(),
			})
		})

		defer func() {
			if rval := recover(); rval != nil {
				hub.WithScope(func(scope *sentry.Scope) {
					scope.SetLevel(sentry.LevelFatal)
					scope.SetTag("panic", "true")
					scope.SetExtra("stack_trace", string(debug.Stack()))

					var err error
					switch x := rval.(type) {
					case string:
						err = fmt.Errorf("panic: %s", x)
					case error:
						err = fmt.Errorf("panic: %w", x)
					default:
						err = fmt.Errorf("panic: %v", x)
					}

					hub.CaptureException(err)
				})

				transaction.Status = sentry.SpanStatusInternalError
				transaction.Finish()
				sentry.Flush(2 * time.Second)

				if repanic {
					panic(rval)
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"message": "internal server error",
					"error":   "INTERNAL_ERROR",
				})
			}
		}()

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		if c.Writer.Status() >= 500 {
			transaction.Status = sentry.SpanStatusInternalError
			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetLevel(sentry.LevelError)
				scope.SetTag("http.status_code", fmt.Sprintf("%d", c.Writer.Status()))
				scope.SetExtra("response_time_ms", duration.Milliseconds())

				if len(c.Errors) > 0 {
					for _, ginErr := range c.Errors {
						hub.CaptureException(ginErr.Err)
					}
				} else {
					hub.CaptureException(fmt.Errorf("HTTP %d: %s", c.Writer.Status(), http.StatusText(c.Writer.Status())))
				}
			})
		} else {
			transaction.Status = sentry.SpanStatusOK
		}

		transaction.SetData("http.status_code", c.Writer.Status())
		transaction.SetData("http.response_time_ms", duration.Milliseconds())
		transaction.Finish()
	}
}
