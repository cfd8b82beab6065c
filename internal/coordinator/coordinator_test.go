// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package coordinator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veralux-ai/voice-runtime/internal/commons"
)

func cfgFast() Config {
	cfg := DefaultConfig()
	cfg.ArmAfterMs = 40 // two 20ms frames
	return cfg
}

func TestCoordinator_ArmsAfterConsecutiveFrames(t *testing.T) {
	var mediaReady bool
	c := New(cfgFast(), Callbacks{OnMediaReady: func() { mediaReady = true }}, commons.NewTestLogger())
	c.OnWsConnected()

	frame := make([]int16, 320)
	c.OnFrame(0, frame, 20)
	assert.False(t, mediaReady, "one frame isn't enough to arm")

	c.OnFrame(20, frame, 20)
	assert.True(t, mediaReady)
	assert.Equal(t, StateListening, c.State())
}

func TestCoordinator_GapResetsConsecutiveStreak(t *testing.T) {
	var readyCount int
	c := New(cfgFast(), Callbacks{OnMediaReady: func() { readyCount++ }}, commons.NewTestLogger())
	c.OnWsConnected()

	frame := make([]int16, 320)
	c.OnFrame(0, frame, 20)
	// Large gap exceeds max(300ms, 4*20ms) = 300ms, so the streak resets.
	c.OnFrame(1000, frame, 20)
	assert.Equal(t, 0, readyCount, "gap before second frame should have reset the streak")

	c.OnFrame(1020, frame, 20)
	assert.Equal(t, 1, readyCount)
}

func TestCoordinator_PlaybackActiveBlocksArming(t *testing.T) {
	var mediaReady bool
	c := New(cfgFast(), Callbacks{OnMediaReady: func() { mediaReady = true }}, commons.NewTestLogger())
	c.OnWsConnected()
	c.OnPlaybackStarted(0)

	frame := make([]int16, 320)
	c.OnFrame(0, frame, 20)
	c.OnFrame(20, frame, 20)
	assert.False(t, mediaReady, "media-ready predicate requires playback inactive")
}

func TestCoordinator_FullStateWalk(t *testing.T) {
	var transitions []string
	c := New(cfgFast(), Callbacks{
		OnStateChange: func(from, to State) { transitions = append(transitions, string(from)+"->"+string(to)) },
	}, commons.NewTestLogger())

	c.OnWsConnected()
	frame := make([]int16, 320)
	c.OnFrame(0, frame, 20)
	c.OnFrame(20, frame, 20) // IDLE -> LISTENING

	c.OnSpeechStart(100) // LISTENING -> CAPTURING
	summary := c.OnUtteranceEnd(500, 6400) // CAPTURING -> FINALIZING_STT
	assert.Equal(t, 400, summary.UtteranceDurationMs)

	c.OnRespondingStart() // FINALIZING_STT -> RESPONDING
	c.OnTtsStart()        // RESPONDING -> PLAYING
	c.OnPlaybackEnded(900) // PLAYING -> LISTENING
	c.OnHangup()           // LISTENING -> ENDING

	require.Equal(t, StateEnding, c.State())
	assert.Contains(t, transitions, "idle->listening")
	assert.Contains(t, transitions, "listening->capturing")
	assert.Contains(t, transitions, "capturing->finalizing_stt")
	assert.Contains(t, transitions, "finalizing_stt->responding")
	assert.Contains(t, transitions, "responding->playing")
	assert.Contains(t, transitions, "playing->listening")
	assert.Contains(t, transitions, "listening->ending")
}

func TestCoordinator_EndingIsAbsorbing(t *testing.T) {
	var transitions []string
	c := New(cfgFast(), Callbacks{
		OnStateChange: func(from, to State) { transitions = append(transitions, string(from)+"->"+string(to)) },
	}, commons.NewTestLogger())

	c.OnWsConnected()
	c.OnHangup() // IDLE -> ENDING
	require.Equal(t, StateEnding, c.State())

	c.OnPlaybackStarted(0)
	c.OnRespondingStart()
	c.OnTtsStart()
	require.Equal(t, StateEnding, c.State(), "no transition should ever leave ENDING")
	assert.Equal(t, []string{"idle->ending"}, transitions)
}

func TestCoordinator_PreRollResetsOnlyOnWsDisconnect(t *testing.T) {
	c := New(cfgFast(), Callbacks{}, commons.NewTestLogger())
	c.OnWsConnected()

	frame := make([]int16, 320)
	c.OnFrame(0, frame, 20)
	c.OnFrame(20, frame, 20)

	first := c.ConsumePreRollForUtterance()
	require.NotEmpty(t, first)
	second := c.ConsumePreRollForUtterance()
	assert.Equal(t, first, second, "consuming does not reset the ring")

	c.OnWsDisconnected()
	assert.Empty(t, c.ConsumePreRollForUtterance())
}

func TestCoordinator_TimingSummaryDeltas(t *testing.T) {
	c := New(cfgFast(), Callbacks{}, commons.NewTestLogger())
	c.OnWsConnected()
	c.OnPlaybackEnded(0)

	frame := make([]int16, 320)
	c.OnFrame(100, frame, 20) // first frame 100ms after playback ended
	c.OnFrame(120, frame, 20) // arms here

	c.OnSpeechStart(300)
	summary := c.OnUtteranceEnd(1000, 1600)

	assert.Equal(t, int64(100), summary.PlaybackToFirstFrameMs)
	assert.Equal(t, int64(20), summary.FirstFrameToArmedMs)
	assert.Equal(t, int64(180), summary.ArmedToSpeechStartMs)
}
