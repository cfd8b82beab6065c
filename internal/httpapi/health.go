// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Health answers liveness/readiness probes. Readiness additionally checks
// the Redis connection backing A5 capacity admission, since a runtime that
// cannot admit calls is not meaningfully ready.
type Health struct {
	Redis *redis.Client
}

// Healthz reports process liveness unconditionally.
func (h *Health) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness reports whether the runtime can currently admit and serve
// calls.
func (h *Health) Readiness(c *gin.Context) {
	if h.Redis != nil {
		if err := h.Redis.Ping(context.Background()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
