// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

// Package audioring implements a bounded, duration-based PCM16 ring buffer
// shared by the STT pipeline's pre-roll window (A3) and the audio
// coordinator's pre-roll ring (A4).
package audioring

// Ring accumulates PCM16 samples up to a maximum duration, dropping the
// oldest samples once that duration is exceeded.
type Ring struct {
	sampleRateHz int
	maxSamples   int
	buf          []int16
}

// New builds a Ring capped at maxMs of audio at sampleRateHz.
func New(sampleRateHz, maxMs int) *Ring {
	return &Ring{
		sampleRateHz: sampleRateHz,
		maxSamples:   sampleRateHz * maxMs / 1000,
	}
}

// Add appends PCM16 samples, trimming from the front if the ring exceeds
// its configured maximum duration.
func (r *Ring) Add(pcm []int16) {
	r.buf = append(r.buf, pcm...)
	if over := len(r.buf) - r.maxSamples; over > 0 {
		r.buf = r.buf[over:]
	}
}

// Snapshot returns an immutable copy of the current ring contents.
func (r *Ring) Snapshot() []int16 {
	out := make([]int16, len(r.buf))
	copy(out, r.buf)
	return out
}

// DurationMs reports the current buffered duration in milliseconds.
func (r *Ring) DurationMs() int {
	if r.sampleRateHz == 0 {
		return 0
	}
	return len(r.buf) * 1000 / r.sampleRateHz
}

// Reset empties the ring.
func (r *Ring) Reset() {
	r.buf = r.buf[:0]
}

// Resize changes the maximum duration, trimming immediately if the new cap
// is smaller than the current contents. It applies no ceiling of its own;
// maxMs is used as given.
func (r *Ring) Resize(maxMs int) {
	r.maxSamples = r.sampleRateHz * maxMs / 1000
	if over := len(r.buf) - r.maxSamples; over > 0 {
		r.buf = r.buf[over:]
	}
}
