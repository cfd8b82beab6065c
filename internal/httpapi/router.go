// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/veralux-ai/voice-runtime/internal/commons"
)

// NewRouter builds the Gin engine and registers every route: one route
// group per concern, with handlers living as methods on a small struct.
func NewRouter(logger commons.Logger, webhookHandler *WebhookHandler, mediaHandler *MediaHandler, health *Health) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	root := engine.Group("")
	root.GET("/healthz/", health.Healthz)
	root.GET("/readiness/", health.Readiness)

	apiv1 := engine.Group("v1/telnyx")
	apiv1.POST("/webhook", webhookHandler.Handle)
	apiv1.GET("/media/:callControlId", mediaHandler.Handle)

	if logger != nil {
		logger.Info("httpapi: routes registered")
	}
	return engine
}
