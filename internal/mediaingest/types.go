// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

// Package mediaingest implements the A1 media ingest pipeline: candidate
// payload extraction from a carrier media frame, codec decode to PCM16,
// linear resampling, fixed 20ms re-framing, and rolling-window stream
// health classification.
package mediaingest

import "time"

// Codec identifies the inbound media codec negotiated for a call leg.
type Codec string

const (
	CodecPCMU  Codec = "PCMU"
	CodecPCMA  Codec = "PCMA"
	CodecL16   Codec = "L16"
	CodecG722  Codec = "G722"
	CodecOpus  Codec = "OPUS"
	CodecAMRWB Codec = "AMR-WB"
)

// TrackSelector filters which leg of a bidirectional call a frame belongs to.
type TrackSelector string

const (
	TrackInbound  TrackSelector = "inbound"
	TrackOutbound TrackSelector = "outbound"
	TrackBoth     TrackSelector = "both"
)

// Frame is one emitted, fixed-duration unit of decoded audio.
type Frame struct {
	PCM16        []int16
	SampleRateHz int
	Channels     int
	TimestampMs  int64
	Seq          uint64
}

// Config controls ingest behavior; zero-value fields fall back to the
// defaults documented alongside each.
type Config struct {
	Codec          Codec
	TargetRateHz   int           // default 16000
	FrameMs        int           // default 20
	Track          TrackSelector // default TrackInbound
	MaxRestarts    int           // default 1
	HealthWindow   time.Duration // default 1s
	MinWindowFrames int          // default 10
}

// DefaultConfig returns the documented production defaults.
func DefaultConfig() Config {
	return Config{
		TargetRateHz:    16000,
		FrameMs:         20,
		Track:           TrackInbound,
		MaxRestarts:     1,
		HealthWindow:    time.Second,
		MinWindowFrames: 10,
	}
}

// TrackCounters tallies frames skipped by the track filter, kept separate
// for inbound vs outbound
type TrackCounters struct {
	SkippedInbound  uint64
	SkippedOutbound uint64
}
