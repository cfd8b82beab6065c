// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package mediaingest

// Reframer accumulates resampled PCM16 and emits fixed-duration frames,
// carrying any remainder across calls in an accumulate-then-flush pattern.
type Reframer struct {
	sampleRateHz   int
	samplesPerFrame int
	remainder      []int16
	seq            uint64
}

// NewReframer builds a Reframer for frameMs windows at sampleRateHz.
func NewReframer(sampleRateHz, frameMs int) *Reframer {
	return &Reframer{
		sampleRateHz:    sampleRateHz,
		samplesPerFrame: sampleRateHz * frameMs / 1000,
	}
}

// Push appends newly decoded PCM16 and returns every complete frame that can
// now be emitted, leaving a short remainder buffered for the next call.
func (r *Reframer) Push(pcm []int16) []Frame {
	r.remainder = append(r.remainder, pcm...)

	var frames []Frame
	for len(r.remainder) >= r.samplesPerFrame {
		chunk := make([]int16, r.samplesPerFrame)
		copy(chunk, r.remainder[:r.samplesPerFrame])
		r.remainder = r.remainder[r.samplesPerFrame:]
		r.seq++
		frames = append(frames, Frame{
			PCM16:        chunk,
			SampleRateHz: r.sampleRateHz,
			Channels:     1,
			Seq:          r.seq,
		})
	}
	return frames
}

// Reset discards any buffered remainder, used on stream restart.
func (r *Reframer) Reset() {
	r.remainder = r.remainder[:0]
}
