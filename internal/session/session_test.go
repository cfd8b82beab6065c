// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veralux-ai/voice-runtime/internal/commons"
	"github.com/veralux-ai/voice-runtime/internal/coordinator"
	"github.com/veralux-ai/voice-runtime/internal/stt"
)

type fakeBrain struct {
	reply string
	err   error
	calls chan string
}

func (f *fakeBrain) Reply(ctx context.Context, tenantID, callControlID, transcript string, history []HistoryTurn) (string, error) {
	if f.calls != nil {
		f.calls <- transcript
	}
	return f.reply, f.err
}

type fakeTTS struct {
	err   error
	calls chan string
}

func (f *fakeTTS) Synthesize(ctx context.Context, text, voice, format string, sampleRateHz int) ([]byte, error) {
	if f.calls != nil {
		f.calls <- text
	}
	return []byte("audio-bytes"), f.err
}

type fakePlayback struct{}

func (fakePlayback) PlaybackActive() bool       { return false }
func (fakePlayback) PlaybackEndedAt() time.Time { return time.Time{} }

type fakeProvider struct{}

func (fakeProvider) Transcribe(ctx context.Context, pcm []int16, sampleRateHz int, partial bool) (stt.Transcription, error) {
	return stt.Transcription{Text: "ignored"}, nil
}

func newTestSession(brain BrainClient, tts TTSClient) *Session {
	coord := coordinator.New(coordinator.DefaultConfig(), coordinator.Callbacks{}, commons.NewTestLogger())
	pipe := stt.NewPipeline(stt.DefaultConfig(), stt.Callbacks{}, fakeProvider{}, fakePlayback{}, nil, commons.NewTestLogger())
	return New(Deps{
		Coordinator:   coord,
		Pipeline:      pipe,
		Brain:         brain,
		TTS:           tts,
		Logger:        commons.NewTestLogger(),
		TenantID:      "tenant-a",
		CallControlID: "call-1",
		TTSSampleRate: 16000,
	})
}

func TestSession_SttFinalTriggersBrainAndTts(t *testing.T) {
	brainCalls := make(chan string, 1)
	ttsCalls := make(chan string, 1)
	s := newTestSession(
		&fakeBrain{reply: "hello caller", calls: brainCalls},
		&fakeTTS{calls: ttsCalls},
	)

	s.Enqueue(SttResultEvent{Text: "hi there", Source: stt.SourceFinal})

	select {
	case transcript := <-brainCalls:
		assert.Equal(t, "hi there", transcript)
	case <-time.After(2 * time.Second):
		t.Fatal("brain was never called")
	}

	select {
	case text := <-ttsCalls:
		assert.Equal(t, "hello caller", text)
	case <-time.After(2 * time.Second):
		t.Fatal("tts was never called")
	}
}

func TestSession_PartialTranscriptDoesNotTriggerBrain(t *testing.T) {
	brainCalls := make(chan string, 1)
	s := newTestSession(&fakeBrain{reply: "x", calls: brainCalls}, &fakeTTS{})

	s.Enqueue(SttResultEvent{Text: "partial", Source: stt.SourcePartial})

	select {
	case <-brainCalls:
		t.Fatal("brain must not be called for a partial transcript")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSession_EventsDroppedAfterHangup(t *testing.T) {
	s := newTestSession(&fakeBrain{}, &fakeTTS{})

	s.Enqueue(HangupEvent{Reason: "call.hangup"})
	// Give the worker goroutine a moment to process the hangup.
	deadline := time.Now().Add(1 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		ended := s.ended
		s.mu.Unlock()
		if ended {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, s.ended)

	// A further event should be silently dropped, not delivered.
	s.Enqueue(TickEvent{At: time.Now()})
	assert.Equal(t, coordinator.StateEnding, s.deps.Coordinator.State())
}

func TestManager_EnqueueDropsForUnknownSession(t *testing.T) {
	m := NewManager(commons.NewTestLogger())
	// Must not panic even though no session is registered.
	m.Enqueue("unknown-call", TickEvent{At: time.Now()})
	assert.Equal(t, 0, m.Count())
}

func TestManager_RegisterLookupDeregister(t *testing.T) {
	m := NewManager(commons.NewTestLogger())
	s := newTestSession(&fakeBrain{}, &fakeTTS{})
	m.Register("call-1", s)

	assert.Equal(t, s, m.Lookup("call-1"))
	assert.Equal(t, 1, m.Count())

	m.Deregister("call-1")
	assert.Nil(t, m.Lookup("call-1"))
}
