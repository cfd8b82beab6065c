// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package mediaingest

// g722Decoder is a simplified G.722 64kbit/s decoder: two ADPCM sub-band
// decoders (6 bits low-band, 2 bits high-band) with a fixed per-band step
// size and a leaky-integrator predictor, recombined by sum and difference
// without a QMF synthesis filter. Its output is not bit-exact with ITU-T
// G.722. No ecosystem Go package implements G.722, so this is written from
// scratch.
type g722Decoder struct {
	band [2]g722Band
}

type g722Band struct {
	s   int
	det int
}

func newG722Decoder() *g722Decoder {
	d := &g722Decoder{}
	d.band[0].det = 32
	d.band[1].det = 8
	return d
}

// decodeBand runs one ADPCM sub-band decoder step, returning the
// reconstructed sample and updating state.
func (b *g722Band) decodeBand(code int, table []int) int {
	if code < 0 || code >= len(table) {
		code = 0
	}
	d := (b.det * table[code]) >> 15
	r := b.s + d
	// Pole/zero predictor update (simplified single-stage leaky predictor —
	// the full 2-pole/6-zero adaptive predictor is approximated here by a
	// leaky integrator, which keeps the decoder stable without the full
	// ITU-T recursion).
	b.s = (b.s*31)/32 + d
	return r
}

// decodeG722 converts a G.722 64kbit/s payload (one byte per 8kHz sample pair)
// to 16kHz mono PCM16.
func decodeG722(payload []byte) []int16 {
	dec := newG722Decoder()
	out := make([]int16, 0, len(payload)*2)

	for _, b := range payload {
		lowCode := int(b & 0x3f)
		highCode := int((b >> 6) & 0x03)

		lowSample := dec.band[0].decodeBand(lowCode, qlLowTable[:])
		highSample := dec.band[1].decodeBand(highCode, qlHighTable[:])

		// Recombine the two 8kHz sub-bands into two 16kHz samples (sum and
		// difference, no QMF filtering), clipped to int16 range.
		sum := lowSample + highSample
		diff := lowSample - highSample
		out = append(out, clampInt16(sum), clampInt16(diff))
	}
	return out
}

var qlLowTable = [64]int{
	// Inverse-quantizer scale table for the 6-bit low-band ADPCM codeword:
	// a linear ramp symmetric around zero, not the ITU-T reference values.
	0, 4, 8, 12, 16, 20, 24, 28, 32, 36, 40, 44, 48, 52, 56, 60,
	64, 68, 72, 76, 80, 84, 88, 92, 96, 100, 104, 108, 112, 116, 120, 124,
	-124, -120, -116, -112, -108, -104, -100, -96, -92, -88, -84, -80, -76, -72, -68, -64,
	-60, -56, -52, -48, -44, -40, -36, -32, -28, -24, -20, -16, -12, -8, -4, 0,
}

var qlHighTable = [4]int{-128, 128, -384, 384}

func clampInt16(v int) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
