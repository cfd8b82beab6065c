// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package amrwb

// parseOctetAligned parses an octet-aligned AMR-WB RTP payload. withCMR
// controls whether the first byte is treated as a CMR byte (CMR<<4 | 0) to
// be stripped before the TOC list.
func parseOctetAligned(payload []byte, withCMR bool) (frames []Frame, cmr int, cmrStripped bool, err error) {
	if len(payload) == 0 {
		return nil, 0, false, errf("payload_too_short")
	}
	body := payload
	if withCMR {
		if len(body) < 2 {
			return nil, 0, false, errf("payload_too_short")
		}
		cmr = int(body[0] >> 4)
		cmrStripped = true
		body = body[1:]
	}

	// Walk the TOC list: each byte is F(1)|FT(4)|Q(1)|00, F=1 means another
	// TOC byte follows.
	var tocs []struct{ ft, q int }
	i := 0
	for {
		if i >= len(body) {
			return nil, 0, false, errf("toc_truncated")
		}
		toc := body[i]
		f := (toc >> 7) & 1
		ft := int((toc >> 3) & 0x0f)
		q := int((toc >> 2) & 1)
		tocs = append(tocs, struct{ ft, q int }{ft, q})
		i++
		if f == 0 {
			break
		}
	}
	if len(tocs) == 0 {
		return nil, 0, false, errf("missing_toc")
	}

	frameData := body[i:]
	off := 0
	for _, t := range tocs {
		if isReservedFT(t.ft) {
			return nil, 0, false, errf("invalid_ft_%d", t.ft)
		}
		sizeBytes, ferr := frameSizeBytes(t.ft)
		if ferr != nil {
			return nil, 0, false, ferr
		}
		bitLen, _ := frameSizeBits(t.ft)
		if sizeBytes == 0 {
			frames = append(frames, newFrame(t.ft, t.q, nil, bitLen))
			continue
		}
		if off+sizeBytes > len(frameData) {
			return nil, 0, false, errf("frame_truncated_ft_%d", t.ft)
		}
		data := make([]byte, sizeBytes)
		copy(data, frameData[off:off+sizeBytes])
		off += sizeBytes
		frames = append(frames, newFrame(t.ft, t.q, data, bitLen))
	}
	if off != len(frameData) {
		return nil, 0, false, errf("data_len_mismatch_expected_%d_got_%d", off, len(frameData))
	}
	return frames, cmr, cmrStripped, nil
}

// tocCount reports the number of parsed frames, one per TOC entry — used
// by the normalize-first validator.
func tocCount(frames []Frame) int { return len(frames) }
