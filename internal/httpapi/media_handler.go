// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/veralux-ai/voice-runtime/internal/commons"
	"github.com/veralux-ai/voice-runtime/internal/mediaingest"
	"github.com/veralux-ai/voice-runtime/internal/session"
)

// mediaUpgrader: origin checking is the carrier's problem (it connects
// server-to-server), so CheckOrigin always allows the upgrade and the token
// query parameter is the actual gate.
var mediaUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// MediaHandler upgrades the carrier's media WebSocket and feeds decoded
// PCM16 frames into the matching session.
type MediaHandler struct {
	Token    string
	Sessions *session.Manager
	Ingests  *IngestRegistry
	Logger   commons.Logger
}

// Handle is the gin.HandlerFunc for the media WebSocket endpoint at
// /v1/telnyx/media/:callControlId.
func (h *MediaHandler) Handle(c *gin.Context) {
	callControlID := c.Param("callControlId")
	token := c.Query("token")

	// Constant-time comparison: the token is a shared secret, not a public
	// identifier, and this is the sole gate on the upgrade.
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.Token)) != 1 {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ing := h.Ingests.Lookup(callControlID)
	if ing == nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	conn, err := mediaUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Errorw("media websocket upgrade failed", "call_control_id", callControlID, "error", err)
		}
		return
	}
	defer conn.Close()

	h.readLoop(conn, callControlID, ing)
}

func (h *MediaHandler) readLoop(conn *websocket.Conn, callControlID string, ing *mediaingest.Ingest) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if h.Logger != nil {
				h.Logger.Debugw("media websocket closed", "call_control_id", callControlID, "error", err)
			}
			return
		}

		var frame map[string]interface{}
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}

		event, _ := frame["event"].(string)
		switch event {
		case "stop":
			return
		case "media":
			h.handleMediaEvent(frame, callControlID, ing)
		default:
			// "start" and any other lifecycle events carry negotiation
			// metadata already fixed by the call's configured codec; no
			// per-frame action is needed.
		}
	}
}

func (h *MediaHandler) handleMediaEvent(frame map[string]interface{}, callControlID string, ing *mediaingest.Ingest) {
	now := time.Now()
	frames, restart, err := ing.HandleFrame(frame, now)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Debugw("media frame decode failed", "call_control_id", callControlID, "error", err)
		}
	}
	if restart.RequestRestart && h.Logger != nil {
		h.Logger.Warnw("media stream requested codec restart", "call_control_id", callControlID, "codec", restart.RequestedCodec)
	}
	if restart.Reprompt && h.Logger != nil {
		h.Logger.Warnw("media stream exhausted restart budget, needs reprompt", "call_control_id", callControlID)
	}

	for _, f := range frames {
		h.Sessions.Enqueue(callControlID, session.MediaFrameEvent{
			PCM16:     f.PCM16,
			FrameMs:   int(int64(len(f.PCM16)) * 1000 / int64(f.SampleRateHz)),
			Track:     "inbound",
			ArrivedAt: now,
		})
	}
}
