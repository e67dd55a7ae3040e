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
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yyup/kindguard/pkg/logger"
)

// RequestLoggerConfig holds configuration for request logging middleware
type RequestLoggerConfig struct {
	SkipPaths          []string // Paths to skip logging
	IncludeQueryParams bool     // Whether to include query parameters in path
}

// DefaultRequestLoggerConfig returns default configuration
func DefaultRequestLoggerConfig() *RequestLoggerConfig {
	return &RequestLoggerConfig{
		SkipPaths:          []string{"/api/health", "/metrics"},
		IncludeQueryParams: true,
	}
}

// RequestLogger is a middleware function for logging HTTP requests
func RequestLogger() gin.HandlerFunc {
	return RequestLoggerWithConfig(DefaultRequestLoggerConfig())
}

// RequestLoggerWithConfig creates a request logger middleware with custom configuration.
// Bodies are never logged: request content may carry credentials or markup
// and goes through the audit trail in sanitized form instead.
func RequestLoggerWithConfig(config *RequestLoggerConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultRequestLoggerConfig()
	}

	skipPaths := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		if skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = uuid.New().String()
			c.Header("X-Request-Id", requestID)
		}
		c.Set(string(logger.ContextKeyRequestID), requestID)

		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		if config.IncludeQueryParams && raw != "" {
			path = path + "?" + raw
		}

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", statusCode),
			zap.Float64("latency_ms", float64(latency.Nanoseconds())/1e6),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Int("response_size", c.Writer.Size()),
		}

		if len(c.Errors) > 0 {
			errors := make([]string, len(c.Errors))
			for i, err := range c.Errors {
				errors[i] = err.Error()
			}
			fields = append(fields, zap.Strings("errors", errors))
		}

		log := logger.GetLogger()
		if statusCode >= 500 {
			log.Error("HTTP request failed", fields...)
		} else if statusCode >= 400 {
			log.Warn("HTTP request client error", fields...)
		} else {
			log.Info("HTTP request completed", fields...)
		}
	}
}
