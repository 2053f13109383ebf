// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides gin middleware for the protonation service.
//
// # Request Flow
//
//	Request
//	   │
//	   ▼
//	RequestID ──► CORS ──► RateLimit ──► BodyLimit ──► Handler
//
// CORS headers are attached to every response, including rejections by the
// rate limiter, so browser clients can read the error body.
package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// =============================================================================
// Request IDs
// =============================================================================

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// requestIDKey is the gin context key for the request ID.
const requestIDKey = "protonation_request_id"

// maxRequestIDLength bounds client supplied IDs.
const maxRequestIDLength = 128

// RequestID reuses the client's X-Request-ID or generates a UUID, echoes it
// in the response and stores it for GetRequestID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the ID stored by RequestID, or a fresh one when the
// middleware did not run.
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	id := uuid.NewString()
	c.Set(requestIDKey, id)
	c.Header(RequestIDHeader, id)
	return id
}

// =============================================================================
// CORS
// =============================================================================

// CORS response header values.
const (
	AllowMethods     = "POST, GET, PATCH, OPTIONS"
	AllowHeaders     = "*"
	AllowCredentials = "true"
)

// CORS attaches the permissive cross-origin headers to every response.
//
// allowOrigin is sent verbatim as Access-Control-Allow-Origin.
func CORS(allowOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", allowOrigin)
		h.Set("Access-Control-Allow-Methods", AllowMethods)
		h.Set("Access-Control-Allow-Headers", AllowHeaders)
		h.Set("Access-Control-Allow-Credentials", AllowCredentials)
		c.Next()
	}
}

// Preflight answers OPTIONS requests on any path with an empty 200.
func Preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}

// =============================================================================
// Body Limit
// =============================================================================

// BodyLimit caps the request body at maxBytes. Reads beyond the cap fail,
// which surfaces as a binding error in the handler. maxBytes <= 0 disables.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// =============================================================================
// Rate Limiting
// =============================================================================

// RateLimitedMessage is the plain-text body of a 429 response.
const RateLimitedMessage = "Too many requests! Please slow down."

// RateLimit refuses requests whose client IP has exhausted its bucket.
//
// # Inputs
//
//   - limiter: Per-client buckets. nil disables limiting.
//   - onLimited: Called for every refused request. May be nil.
//
// OPTIONS requests are never limited.
func RateLimit(limiter *KeyedLimiter, onLimited func()) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		if !limiter.Allow(c.ClientIP(), time.Now()) {
			if onLimited != nil {
				onLimited()
			}
			c.Header("Retry-After", "1")
			c.String(http.StatusTooManyRequests, RateLimitedMessage)
			c.Abort()
			return
		}
		c.Next()
	}
}
