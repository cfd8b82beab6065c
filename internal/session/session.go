// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package session

import (
	"context"
	"sync"
	"time"

	"github.com/veralux-ai/voice-runtime/internal/callcontrol"
	"github.com/veralux-ai/voice-runtime/internal/capacity"
	"github.com/veralux-ai/voice-runtime/internal/commons"
	"github.com/veralux-ai/voice-runtime/internal/coordinator"
	"github.com/veralux-ai/voice-runtime/internal/stt"
)

const eventChannelSize = 64

// HistoryTurn is one prior exchange passed to the brain provider as
// conversation context.
type HistoryTurn struct {
	Role string
	Text string
}

// BrainClient is the conversational-reply collaborator; implemented by
// internal/providers/brain so this package never imports provider HTTP
// details directly.
type BrainClient interface {
	Reply(ctx context.Context, tenantID, callControlID, transcript string, history []HistoryTurn) (text string, err error)
}

// TTSClient is the speech-synthesis collaborator; implemented by
// internal/providers/tts.
type TTSClient interface {
	Synthesize(ctx context.Context, text, voice, format string, sampleRateHz int) (audio []byte, err error)
}

// Deps bundles everything one Call Session needs to carry out the
// webhook → admit → answer/stream → ingest → coordinate → respond flow.
type Deps struct {
	Coordinator *coordinator.Coordinator
	Pipeline    *stt.Pipeline
	CallControl *callcontrol.Client
	Admitter    *capacity.Admitter
	Brain       BrainClient
	TTS         TTSClient
	Logger      commons.Logger

	TenantID      string
	CallControlID string
	Voice         string
	TTSFormat     string
	TTSSampleRate int
}

// Session is one call's serial event-processing domain: every
// webhook, media frame, STT callback, and playback event for this call is
// processed in arrival order on a single goroutine.
type Session struct {
	deps Deps

	events chan Event

	mu      sync.Mutex
	ended   bool
	history []HistoryTurn

	wg sync.WaitGroup
}

// New builds a Session and starts its worker goroutine.
func New(deps Deps) *Session {
	s := &Session{
		deps:   deps,
		events: make(chan Event, eventChannelSize),
	}
	s.wg.Add(1)
	go s.loop()
	return s
}

// Enqueue pushes an event onto the session's work queue. Events for an
// already-ended session are dropped with a log line.
func (s *Session) Enqueue(ev Event) {
	s.mu.Lock()
	ended := s.ended
	s.mu.Unlock()
	if ended {
		if s.deps.Logger != nil {
			s.deps.Logger.Debugw("dropping event for ended session", "call_control_id", s.deps.CallControlID, "kind", ev.Kind())
		}
		return
	}
	select {
	case s.events <- ev:
	default:
		if s.deps.Logger != nil {
			s.deps.Logger.Warnw("session event queue full, dropping event", "call_control_id", s.deps.CallControlID, "kind", ev.Kind())
		}
	}
}

// Wait blocks until the session's worker goroutine has exited (used by the
// manager to join before removing the session from its index).
func (s *Session) Wait() {
	s.wg.Wait()
}

// loop never closes s.events — concurrent Enqueue callers only ever check
// the ended flag, so closing the channel underneath them would risk a
// send-on-closed-channel panic. The ended flag is the sole shutdown signal,
// an idempotent flag checked instead of relying on channel close.
func (s *Session) loop() {
	defer s.wg.Done()
	for ev := range s.events {
		s.handle(ev)
		s.mu.Lock()
		ended := s.ended
		s.mu.Unlock()
		if ended {
			return
		}
	}
}

func (s *Session) handle(ev Event) {
	switch e := ev.(type) {
	case WebhookEvent:
		s.handleWebhook(e)
	case MediaFrameEvent:
		s.handleMediaFrame(e)
	case SttResultEvent:
		s.handleSttResult(e)
	case TtsResultEvent:
		s.handleTtsResult(e)
	case TickEvent:
		// No watchdog work beyond what the STT pipeline already drives
		// internally via its own LateFinalWatchdogMs check.
	case HangupEvent:
		s.handleHangup(e)
	}
}

func (s *Session) handleWebhook(e WebhookEvent) {
	switch e.EventType {
	case "call.answered":
		s.deps.Coordinator.OnWsConnected()
	case "call.playback.started":
		s.deps.Coordinator.OnPlaybackStarted(nowMs())
	case "call.playback.ended":
		s.deps.Coordinator.OnPlaybackEnded(nowMs())
		s.deps.Pipeline.ResetPlaybackBoundary()
	case "call.hangup", "call.ended":
		s.handleHangup(HangupEvent{Reason: e.EventType})
	}
}

func (s *Session) handleMediaFrame(e MediaFrameEvent) {
	now := e.ArrivedAt
	if now.IsZero() {
		now = time.Now()
	}
	ms := now.UnixMilli()
	s.deps.Coordinator.OnFrame(ms, e.PCM16, e.FrameMs)
	s.deps.Pipeline.ProcessFrame(context.Background(), e.PCM16, ms)
}

func (s *Session) handleSttResult(e SttResultEvent) {
	if e.Source != stt.SourceFinal && e.Source != stt.SourcePartialFallback {
		return
	}
	s.deps.Coordinator.OnUtteranceEnd(nowMs(), e.SampleCount)
	s.deps.Coordinator.OnRespondingStart()

	s.mu.Lock()
	s.history = append(s.history, HistoryTurn{Role: "caller", Text: e.Text})
	history := append([]HistoryTurn(nil), s.history...)
	s.mu.Unlock()

	go s.respond(e.Text, history)
}

// respond calls the brain then TTS off the hot path.
func (s *Session) respond(transcript string, history []HistoryTurn) {
	ctx := context.Background()
	reply, err := s.deps.Brain.Reply(ctx, s.deps.TenantID, s.deps.CallControlID, transcript, history)
	if err != nil {
		if s.deps.Logger != nil {
			s.deps.Logger.Errorw("brain reply failed", "call_control_id", s.deps.CallControlID, "error", err)
		}
		return
	}

	s.mu.Lock()
	s.history = append(s.history, HistoryTurn{Role: "assistant", Text: reply})
	s.mu.Unlock()

	audio, err := s.deps.TTS.Synthesize(ctx, reply, s.deps.Voice, s.deps.TTSFormat, s.deps.TTSSampleRate)
	s.Enqueue(TtsResultEvent{Err: err, AudioURL: ""})
	// The synthesized audio is discarded: AudioURL stays empty, so
	// handleTtsResult issues no playback action and the reply is not played
	// to the caller.
	_ = audio
}

func (s *Session) handleTtsResult(e TtsResultEvent) {
	if e.Err != nil {
		if s.deps.Logger != nil {
			s.deps.Logger.Errorw("tts synthesis failed", "call_control_id", s.deps.CallControlID, "error", e.Err)
		}
		return
	}
	s.deps.Coordinator.OnTtsStart()
	if s.deps.CallControl != nil && e.AudioURL != "" {
		_ = s.deps.CallControl.Play(context.Background(), s.deps.CallControlID, e.AudioURL)
	}
}

func (s *Session) handleHangup(HangupEvent) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.mu.Unlock()

	s.deps.Coordinator.OnHangup()
	s.deps.Pipeline.Stop(context.Background(), nowMs())

	if s.deps.Admitter != nil {
		if err := s.deps.Admitter.Release(context.Background(), s.deps.TenantID, s.deps.CallControlID); err != nil && s.deps.Logger != nil {
			s.deps.Logger.Errorw("capacity release failed", "call_control_id", s.deps.CallControlID, "error", err)
		}
	}
}

func nowMs() int64 { return time.Now().UnixMilli() }
