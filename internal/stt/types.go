// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

// Package stt implements the A3 speech-endpointed STT pipeline: playback
// gating, voice-activity detection with hysteresis, a replay guard, a
// pre-roll ring, partial/final transcription policy, barge-in, and the
// late-final and empty-final fallbacks.
package stt

import (
	"context"
	"time"
)

// Source identifies why a transcript callback fired.
type Source string

const (
	SourcePartial         Source = "partial"
	SourceFinal           Source = "final"
	SourcePartialFallback Source = "partial_fallback"
)

// SpeechStartInfo is passed to OnSpeechStart when a speech-start streak
// crosses its hysteresis threshold.
type SpeechStartInfo struct {
	AtMs          int64
	PreRollMs     int
	FromBargeIn   bool
}

// Transcription is what a Provider returns for one transcribe call.
type Transcription struct {
	Text       string
	IsFinal    bool
	Confidence float64
}

// Provider is the pluggable transcription backend. The pipeline is
// provider-agnostic: WAV wrapping, HTTP transport, and endpoint-specific
// semantics all live behind this interface.
type Provider interface {
	Transcribe(ctx context.Context, pcm []int16, sampleRateHz int, partial bool) (Transcription, error)
}

// Callbacks are the consumer hooks the pipeline drives.
type Callbacks struct {
	OnTranscript     func(text string, source Source, sampleCount int)
	OnSpeechStart    func(info SpeechStartInfo)
	OnSttRequestStart func(kind string)
	OnSttRequestEnd   func(kind string)
}

// Config holds every tunable of the per-frame algorithm, with the
// defaults applied by DefaultConfig.
type Config struct {
	SampleRateHz int

	PostPlaybackGraceMs int

	SpeechFramesRequired  int
	SilenceFramesRequired int
	RmsFloor              float64
	PeakFloor             float64

	ReplayGuardFrames int

	PreRollMs    int
	PreRollMaxMs int

	MinSpeechMs       int
	PartialIntervalMs int

	SilenceEndMs        int
	MaxUtteranceMs      int
	FinalizeCushionMs   int

	LateFinalWatchdogMs int

	EmptyFinalFallbackWindowMs int
}

// DefaultConfig returns the documented defaults at 16kHz.
func DefaultConfig() Config {
	return Config{
		SampleRateHz:               16000,
		PostPlaybackGraceMs:        650,
		SpeechFramesRequired:       3,
		SilenceFramesRequired:      5,
		RmsFloor:                   0.01,
		PeakFloor:                  0.05,
		ReplayGuardFrames:          32,
		PreRollMs:                  300,
		PreRollMaxMs:               800,
		MinSpeechMs:                200,
		PartialIntervalMs:          250,
		SilenceEndMs:               900,
		MaxUtteranceMs:             6000,
		FinalizeCushionMs:          120,
		LateFinalWatchdogMs:        8000,
		EmptyFinalFallbackWindowMs: 3000,
	}
}

// PlaybackState is queried by the pipeline every frame to apply the
// playback gate.
type PlaybackState interface {
	// PlaybackActive reports whether assistant audio is currently playing.
	PlaybackActive() bool
	// PlaybackEndedAt returns when playback last ended, or the zero Time if
	// playback has never run.
	PlaybackEndedAt() time.Time
}
