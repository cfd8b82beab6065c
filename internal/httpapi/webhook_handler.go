// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veralux-ai/voice-runtime/internal/callcontrol"
	"github.com/veralux-ai/voice-runtime/internal/capacity"
	"github.com/veralux-ai/voice-runtime/internal/commons"
	"github.com/veralux-ai/voice-runtime/internal/mediaingest"
	"github.com/veralux-ai/voice-runtime/internal/providers/tenant"
	"github.com/veralux-ai/voice-runtime/internal/session"
	"github.com/veralux-ai/voice-runtime/internal/webhook"
)

// SessionFactory builds the per-call collaborators (a Session and the
// mediaingest.Ingest feeding it) once a call has been admitted. Supplied by
// cmd/voiceruntime, which is the only place that knows how to wire a
// tenant's STT/TTS/brain providers together.
type SessionFactory func(tenantID, callControlID, from, to string) (*session.Session, *mediaingest.Ingest, error)

type webhookEnvelope struct {
	Data struct {
		EventType string `json:"event_type"`
		Payload   struct {
			CallControlID string `json:"call_control_id"`
			From          string `json:"from"`
			To            string `json:"to"`
			ClientState   string `json:"client_state"`
		} `json:"payload"`
	} `json:"data"`
}

// WebhookHandler implements A6+A5+A7's glue: verify the carrier's
// signature, admit the call, answer it and start media streaming, then
// route every subsequent lifecycle event into the session index.
type WebhookHandler struct {
	Keys        webhook.Keyset
	Resolver    *tenant.Resolver
	Admitter    *capacity.Admitter
	CallControl *callcontrol.Client
	Sessions    *session.Manager
	Ingests     *IngestRegistry
	NewSession  SessionFactory

	MediaBaseURL     string // e.g. "wss://runtime.example.com/v1/telnyx/media"
	MediaStreamToken string
	Logger           commons.Logger
}

// Handle is the gin.HandlerFunc for the carrier webhook endpoint. The 200
// {"ok":true} reply is sent before any async admission or call-control
// work completes.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}

	sig := c.GetHeader("telnyx-signature-ed25519")
	scheme := webhook.SchemeEd25519
	if sig == "" {
		sig = c.GetHeader("telnyx-signature")
		scheme = webhook.SchemeHMACSHA256
	}
	ts := c.GetHeader("telnyx-timestamp")

	result, err := webhook.Verify(webhook.Request{RawBody: body, Signature: sig, Timestamp: ts, Scheme: scheme}, h.Keys, time.Now())
	if err != nil || (!result.Verified && !result.Bypassed) {
		if h.Logger != nil {
			h.Logger.Warnw("webhook signature verification failed", "error", err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_signature"})
		return
	}

	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})

	go h.process(env)
}

func (h *WebhookHandler) process(env webhookEnvelope) {
	ctx := context.Background()
	callControlID := env.Data.Payload.CallControlID
	eventType := env.Data.EventType

	switch eventType {
	case "call.initiated":
		h.handleInitiated(ctx, env)
	case "call.hangup", "call.ended":
		h.Sessions.Enqueue(callControlID, session.WebhookEvent{
			EventType: eventType, CallControlID: callControlID,
			From: env.Data.Payload.From, To: env.Data.Payload.To, ClientState: env.Data.Payload.ClientState,
		})
		go h.drainAfterHangup(callControlID)
	default:
		h.Sessions.Enqueue(callControlID, session.WebhookEvent{
			EventType: eventType, CallControlID: callControlID,
			From: env.Data.Payload.From, To: env.Data.Payload.To, ClientState: env.Data.Payload.ClientState,
		})
	}
}

func (h *WebhookHandler) handleInitiated(ctx context.Context, env webhookEnvelope) {
	callControlID := env.Data.Payload.CallControlID
	from := env.Data.Payload.From
	to := env.Data.Payload.To

	tenantID, err := h.Resolver.ResolveDID(ctx, to)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warnw("call rejected: no tenant for DID", "to", to, "error", err)
		}
		h.CallControl.Hangup(ctx, callControlID)
		return
	}

	admitted, err := h.Admitter.TryAcquire(ctx, capacity.Request{TenantID: tenantID, CallControlID: callControlID, Now: time.Now()})
	if err != nil || !admitted.OK {
		if h.Logger != nil {
			h.Logger.Warnw("call rejected by admission control", "tenant_id", tenantID, "reason", admitted.Reason, "error", err)
		}
		h.CallControl.Hangup(ctx, callControlID)
		return
	}

	sess, ing, err := h.NewSession(tenantID, callControlID, from, to)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Errorw("session construction failed", "call_control_id", callControlID, "error", err)
		}
		h.Admitter.Release(ctx, tenantID, callControlID)
		h.CallControl.Hangup(ctx, callControlID)
		return
	}

	h.Sessions.Register(callControlID, sess)
	h.Ingests.Register(callControlID, ing)

	streamURL := fmt.Sprintf("%s/%s?token=%s", h.MediaBaseURL, callControlID, h.MediaStreamToken)
	if err := h.CallControl.Answer(ctx, callControlID, &callcontrol.AnswerStreamOptions{StreamURL: streamURL}); err != nil {
		if h.Logger != nil {
			h.Logger.Errorw("answer failed", "call_control_id", callControlID, "error", err)
		}
	}
}

// drainAfterHangup waits for the session's worker goroutine to finish
// processing the hangup (and anything queued ahead of it) before removing
// it from both indices once the call reaches ENDING.
func (h *WebhookHandler) drainAfterHangup(callControlID string) {
	sess := h.Sessions.Lookup(callControlID)
	if sess != nil {
		sess.Wait()
	}
	h.Sessions.Deregister(callControlID)
	h.Ingests.Deregister(callControlID)
}
