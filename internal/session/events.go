// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

// Package session implements the per-call glue layer: one dedicated worker
// goroutine per Call Session reading a bounded channel of tagged events, so
// webhook/frame/stt/tick/hangup events for one call are always processed in
// arrival order.
package session

import (
	"time"

	"github.com/veralux-ai/voice-runtime/internal/stt"
)

// EventKind tags the concrete type carried by an Event
// "tagged variants" design note for dynamic JSON payloads.
type EventKind string

const (
	EventWebhook    EventKind = "webhook"
	EventMediaFrame EventKind = "media_frame"
	EventSttResult  EventKind = "stt_result"
	EventTtsResult  EventKind = "tts_result"
	EventTick       EventKind = "tick"
	EventHangup     EventKind = "hangup"
)

// Event is one item on a Call Session's work queue.
type Event interface {
	Kind() EventKind
}

// WebhookEvent carries one carrier webhook's parsed payload.
type WebhookEvent struct {
	EventType     string
	CallControlID string
	From          string
	To            string
	ClientState   string
	Raw           map[string]interface{}
}

func (WebhookEvent) Kind() EventKind { return EventWebhook }

// MediaFrameEvent carries one inbound PCM16 frame from the media ingest
// path.
type MediaFrameEvent struct {
	PCM16     []int16
	FrameMs   int
	Track     string
	ArrivedAt time.Time
}

func (MediaFrameEvent) Kind() EventKind { return EventMediaFrame }

// SttResultEvent carries one transcript delivered by the STT pipeline.
type SttResultEvent struct {
	Text        string
	Source      stt.Source
	SampleCount int
}

func (SttResultEvent) Kind() EventKind { return EventSttResult }

// TtsResultEvent signals that synthesized audio is ready to play, or that
// synthesis failed.
type TtsResultEvent struct {
	AudioURL string
	Err      error
}

func (TtsResultEvent) Kind() EventKind { return EventTtsResult }

// TickEvent is a periodic wakeup used for watchdogs (e.g. the late-final
// timer) that don't have a natural triggering event.
type TickEvent struct {
	At time.Time
}

func (TickEvent) Kind() EventKind { return EventTick }

// HangupEvent forces the session to ENDING regardless of its current
// state — a hangup webhook always wins.
type HangupEvent struct {
	Reason string
}

func (HangupEvent) Kind() EventKind { return EventHangup }
