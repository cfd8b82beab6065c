// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package mediaingest

// Resample converts PCM16 mono from one sample rate to another using linear
// interpolation. A no-op when the rates already match.
func Resample(pcm []int16, fromHz, toHz int) []int16 {
	if fromHz == toHz || len(pcm) == 0 {
		return pcm
	}
	ratio := float64(fromHz) / float64(toHz)
	outLen := int(float64(len(pcm)) / ratio)
	out := make([]int16, outLen)
	for i := range out {
		srcPos := float64(i) * ratio
		idx := int(srcPos)
		frac := srcPos - float64(idx)
		if idx >= len(pcm)-1 {
			out[i] = pcm[len(pcm)-1]
			continue
		}
		a, b := float64(pcm[idx]), float64(pcm[idx+1])
		out[i] = int16(a + (b-a)*frac)
	}
	return out
}
