// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package amrwb

// parseBitPacked parses a bandwidth-efficient AMR-WB payload. cmrBits is the
// number of leading bits consumed as the CMR field: 4 for the standard
// RFC 4867 bandwidth-efficient CMR, 8 for the "explicit CMR byte" variant
// some senders use, or 0 to skip CMR entirely.
func parseBitPacked(payload []byte, cmrBits int) (frames []Frame, cmr int, err error) {
	br := newBitReader(payload)

	if cmrBits > 0 {
		v, ok := br.readBits(cmrBits)
		if !ok {
			return nil, 0, errf("payload_too_short")
		}
		cmr = int(v)
	}

	type toc struct{ ft, q int }
	var tocs []toc
	for {
		v, ok := br.readBits(6)
		if !ok {
			if len(tocs) == 0 {
				return nil, cmr, errf("toc_truncated")
			}
			return nil, cmr, errf("toc_truncated")
		}
		f := (v >> 5) & 1
		ft := int((v >> 1) & 0x0f)
		q := int(v & 1)
		tocs = append(tocs, toc{ft, q})
		if f == 0 {
			break
		}
	}

	for _, t := range tocs {
		if isReservedFT(t.ft) {
			return nil, cmr, errf("invalid_ft_%d", t.ft)
		}
		bitLen, ferr := frameSizeBits(t.ft)
		if ferr != nil {
			return nil, cmr, ferr
		}
		if bitLen == 0 {
			frames = append(frames, newFrame(t.ft, t.q, nil, 0))
			continue
		}
		raw, ok := br.readRawBits(bitLen)
		if !ok {
			return nil, cmr, errf("frame_truncated_ft_%d", t.ft)
		}
		frames = append(frames, newFrame(t.ft, t.q, raw, bitLen))
	}

	if !br.trailingBitsZero() {
		return nil, cmr, errf("trailing_bits_nonzero")
	}
	return frames, cmr, nil
}
