// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package amrwb

// RepackToOctetAligned re-emits a frame list in the octet-aligned RTP
// packing: an optional CMR byte, then one TOC byte per frame, then the
// frame payloads concatenated. includeCmr controls whether the CMR byte is
// written (includeCmr=false omits it).
func RepackToOctetAligned(frames []Frame, cmr int, includeCmr bool) []byte {
	out := make([]byte, 0, len(frames)*2)
	if includeCmr {
		out = append(out, byte(cmr<<4))
	}
	for i, f := range frames {
		follow := byte(0)
		if i < len(frames)-1 {
			follow = 1
		}
		toc := (follow << 7) | (byte(f.FT) << 3) | (byte(f.Q) << 2)
		out = append(out, toc)
	}
	for _, f := range frames {
		out = append(out, f.Data...)
	}
	return out
}
