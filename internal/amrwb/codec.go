// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package amrwb

import "strings"

// Transcode implements a normalize-first algorithm: it tries the
// bandwidth-efficient packing first (in three CMR variants), and
// only falls back to octet-aligned strict parsing if every bit-packed
// attempt fails. A successful bit-packed parse is always re-emitted as
// octet-aligned, because a bit-packed stream that happens to also parse as
// octet-aligned is the single most common cause of "robotic/crunchy audio"
// in production.
//
// payload must already have any RTP header stripped (see
// DetectAndStripRtpHeader).
func Transcode(payload []byte) Result {
	if len(payload) == 0 {
		return Result{OK: false, Packing: PackingInvalid, Error: "payload_too_short"}
	}

	var reasons []string

	// Steps 2-4: bandwidth-efficient, three CMR variants.
	for _, variant := range []int{4, 0, 8} {
		frames, cmr, err := parseBitPacked(payload, variant)
		if err != nil {
			reasons = append(reasons, err.Error())
			continue
		}
		// Validate by repacking to octet-aligned and re-parsing: the
		// decoder must output packing=be only when the repacked bytes
		// re-parse cleanly as octet-aligned.
		repacked := RepackToOctetAligned(frames, cmr, false)
		revalidated, _, _, rerr := parseOctetAligned(repacked, false)
		if rerr != nil {
			reasons = append(reasons, "revalidate:"+rerr.Error())
			continue
		}
		return Result{
			OK:       true,
			Packing:  PackingBE,
			Output:   repacked,
			Frames:   revalidated,
			TOCCount: tocCount(revalidated),
			CMR:      cmr,
		}
	}

	// Steps 5-6: octet-aligned, with and without a leading CMR byte.
	for _, withCMR := range []bool{true, false} {
		frames, cmr, cmrStripped, err := parseOctetAligned(payload, withCMR)
		if err != nil {
			reasons = append(reasons, err.Error())
			continue
		}
		output := payload
		if cmrStripped {
			output = payload[1:]
		}
		return Result{
			OK:          true,
			Packing:     PackingOctet,
			Output:      output,
			Frames:      frames,
			TOCCount:    tocCount(frames),
			CMR:         cmr,
			CMRStripped: cmrStripped,
		}
	}

	return Result{
		OK:      false,
		Packing: PackingInvalid,
		Error:   strings.Join(reasons, "; "),
	}
}

// TranscodeRTPPacket strips the RTP header (including extension and
// padding) before running Transcode — the end-to-end entry point for a raw
// inbound RTP packet carrying AMR-WB.
func TranscodeRTPPacket(rtpPacket []byte) Result {
	stripped, err := DetectAndStripRtpHeader(rtpPacket)
	if err != nil {
		return Result{OK: false, Packing: PackingInvalid, Error: err.Error()}
	}
	return Transcode(stripped.Payload)
}
