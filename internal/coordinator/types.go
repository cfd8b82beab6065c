// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

// Package coordinator implements the per-call audio/dialog state machine:
// media-readiness gating, the pre-roll ring, state transitions from IDLE
// through ENDING, and the timing summary emitted on each utterance
// boundary.
package coordinator

import "time"

// State is one node of the call's audio/dialog state machine.
type State string

const (
	StateIdle           State = "idle"
	StateListening       State = "listening"
	StateCapturing       State = "capturing"
	StateFinalizingSTT   State = "finalizing_stt"
	StateResponding      State = "responding"
	StatePlaying         State = "playing"
	StateEnding          State = "ending"
)

// Config holds the tunables of the media-ready predicate and pre-roll ring.
type Config struct {
	SampleRateHz        int
	FrameMs             int
	ArmAfterMs          int // ≥200ms consecutive frames required to arm
	PreRollMs           int
	MaxGapMultiplier    int // gap reset threshold is max(MinGapMs, FrameMs*MaxGapMultiplier)
	MinGapMs            int
}

// DefaultConfig matches the stated constants.
func DefaultConfig() Config {
	return Config{
		SampleRateHz:     16000,
		FrameMs:          20,
		ArmAfterMs:       200,
		PreRollMs:        500,
		MaxGapMultiplier: 4,
		MinGapMs:         300,
	}
}

// TimingSummary is emitted on each utterance-end transition, carrying
// absolute timestamps and the deltas derived from them.
type TimingSummary struct {
	PlaybackEndedAt   time.Time
	FirstFrameAt      time.Time
	ArmedAt           time.Time
	SpeechStartAt     time.Time
	UtteranceEndAt    time.Time

	PlaybackToFirstFrameMs int64
	FirstFrameToArmedMs    int64
	ArmedToSpeechStartMs   int64

	UtteranceDurationMs int
	UtteranceSampleCount int
}

// Callbacks lets the owning session react to state transitions without the
// coordinator depending on session/webhook/provider types.
type Callbacks struct {
	OnStateChange   func(from, to State)
	OnMediaReady    func()
	OnUtteranceEnd  func(summary TimingSummary)
}
