// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package mediaingest

import (
	"math"
	"time"
)

// Transport identifies the call leg's underlying transport, used to gate
// whether a stream restart is valid.
type Transport string

const (
	TransportPSTN    Transport = "pstn"
	TransportWebRTC  Transport = "webrtc_hd"
)

type sample struct {
	at          time.Time
	decodeFail  bool
	tinyPayload bool
	rms         float64
}

// HealthMonitor classifies an ingest stream as healthy or unhealthy over a
// rolling window, and tracks how many restart attempts have
// been issued.
type HealthMonitor struct {
	window          time.Duration
	minWindowFrames int
	transport       Transport
	maxRestarts     int

	samples        []sample
	restartsIssued int
}

// NewHealthMonitor builds a monitor for the given transport and config.
func NewHealthMonitor(cfg Config, transport Transport) *HealthMonitor {
	window := cfg.HealthWindow
	if window <= 0 {
		window = time.Second
	}
	minFrames := cfg.MinWindowFrames
	if minFrames <= 0 {
		minFrames = 10
	}
	maxRestarts := cfg.MaxRestarts
	if maxRestarts == 0 {
		maxRestarts = 1
	}
	return &HealthMonitor{
		window:          window,
		minWindowFrames: minFrames,
		transport:       transport,
		maxRestarts:     maxRestarts,
	}
}

// RecordDecodeFailure notes a codec decode failure at time `at`.
func (h *HealthMonitor) RecordDecodeFailure(at time.Time) {
	h.record(sample{at: at, decodeFail: true})
}

// RecordTinyPayload notes a frame whose decoded payload was under the
// minimum byte threshold.
func (h *HealthMonitor) RecordTinyPayload(at time.Time) {
	h.record(sample{at: at, tinyPayload: true})
}

// RecordFrame notes a successfully decoded PCM16 frame and its RMS.
func (h *HealthMonitor) RecordFrame(at time.Time, pcm []int16) {
	h.record(sample{at: at, rms: rms(pcm)})
}

func (h *HealthMonitor) record(s sample) {
	h.samples = append(h.samples, s)
	h.prune(s.at)
}

func (h *HealthMonitor) prune(now time.Time) {
	cutoff := now.Add(-h.window)
	i := 0
	for i < len(h.samples) && h.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		h.samples = h.samples[i:]
	}
}

// Unhealthy reports whether the current window trips any of the three
// unhealthy conditions.
func (h *HealthMonitor) Unhealthy() bool {
	if len(h.samples) < h.minWindowFrames {
		return false
	}
	var decodeFailures, tinyPayloads, lowRMSFrames, decodedFrames int
	for _, s := range h.samples {
		if s.decodeFail {
			decodeFailures++
			continue
		}
		if s.tinyPayload {
			tinyPayloads++
			continue
		}
		decodedFrames++
		if s.rms < 0.001 {
			lowRMSFrames++
		}
	}
	if decodeFailures >= 5 {
		return true
	}
	if tinyPayloads >= 10 {
		return true
	}
	if decodedFrames > 0 && float64(lowRMSFrames)/float64(decodedFrames) >= 0.8 {
		return true
	}
	return false
}

// ShouldRestart reports whether a PCMU stream restart should be attempted:
// the stream is unhealthy, restarts remain, and the transport is PSTN.
func (h *HealthMonitor) ShouldRestart() bool {
	if h.transport != TransportPSTN {
		return false
	}
	if !h.Unhealthy() {
		return false
	}
	return h.restartsIssued < h.maxRestarts
}

// RecordRestart marks a restart as issued and clears the window so the
// monitor re-evaluates fresh data.
func (h *HealthMonitor) RecordRestart() {
	h.restartsIssued++
	h.samples = h.samples[:0]
}

// RestartsExhausted reports whether every allowed restart attempt has been
// used — the caller should signal a reprompt to the dialog layer instead.
func (h *HealthMonitor) RestartsExhausted() bool {
	return h.restartsIssued >= h.maxRestarts
}

func rms(pcm []int16) float64 {
	if len(pcm) == 0 {
		return 0
	}
	var sumSq float64
	for _, s := range pcm {
		v := float64(s) / 32768.0
		sumSq += v * v
	}
	return math.Sqrt(sumSq / float64(len(pcm)))
}
