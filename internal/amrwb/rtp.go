// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package amrwb

import "fmt"

// RtpStripResult is the outcome of DetectAndStripRtpHeader.
type RtpStripResult struct {
	Stripped bool
	Payload  []byte
	Version  int
	CC       int
	HasExt   bool
	HasPad   int
}

// DetectAndStripRtpHeader parses a 12-byte-minimum RTP header (version=2,
// CSRC list, extension, padding) and returns the payload with the header,
// CSRC list, extension block, and trailing padding all removed.
func DetectAndStripRtpHeader(packet []byte) (*RtpStripResult, error) {
	if len(packet) < 12 {
		return nil, fmt.Errorf("payload_too_short")
	}
	b0 := packet[0]
	version := int(b0 >> 6)
	padBit := (b0 >> 5) & 1
	extBit := (b0 >> 4) & 1
	cc := int(b0 & 0x0f)

	headerLen := 12 + 4*cc
	if len(packet) < headerLen {
		return nil, fmt.Errorf("payload_too_short")
	}

	offset := headerLen
	hasExt := extBit == 1
	if hasExt {
		if len(packet) < offset+4 {
			return nil, fmt.Errorf("payload_too_short")
		}
		extLenWords := int(packet[offset+2])<<8 | int(packet[offset+3])
		offset += 4 + extLenWords*4
		if len(packet) < offset {
			return nil, fmt.Errorf("payload_too_short")
		}
	}

	end := len(packet)
	padCount := 0
	if padBit == 1 {
		if end <= offset {
			return nil, fmt.Errorf("payload_too_short")
		}
		padCount = int(packet[end-1])
		end -= padCount
		if end < offset {
			return nil, fmt.Errorf("payload_too_short")
		}
	}

	payload := make([]byte, end-offset)
	copy(payload, packet[offset:end])

	return &RtpStripResult{
		Stripped: true,
		Payload:  payload,
		Version:  version,
		CC:       cc,
		HasExt:   hasExt,
		HasPad:   padCount,
	}, nil
}
