// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

// Package amrwb implements a bit-level parser for RFC 4867 AMR-WB RTP
// payloads, in both the octet-aligned and bandwidth-efficient packings, with
// "normalize-first" repacking to octet-aligned output. This is the hardest,
// most bug-prone codec in the runtime — every frame boundary
// is computed in bits, not bytes, and a single off-by-one here produces the
// "robotic/crunchy audio" failure mode described in the design notes.
package amrwb

import "fmt"

// FrameSizeBytes maps FT (0..8, speech modes) to the octet-aligned speech
// payload size. FT 9 (SID) and FT 14/15 are handled separately.
var FrameSizeBytes = [9]int{17, 23, 32, 36, 40, 46, 50, 58, 60}

// FrameSizeBits maps FT (0..8) to the raw speech bit length — these are NOT
// 8×FrameSizeBytes; AMR-WB frames carry a few trailing padding bits in the
// octet-aligned form.
var FrameSizeBits = [9]int{132, 177, 253, 285, 317, 365, 397, 461, 477}

const (
	sidFT        = 9
	sidSizeBytes = 5
	sidSizeBits  = 40
)

// FT classification helpers.
func isReservedFT(ft int) bool { return ft >= 10 && ft <= 13 }
func isSpeechFT(ft int) bool   { return ft >= 0 && ft <= 8 }
func isSidFT(ft int) bool      { return ft == sidFT }
func isNoDataFT(ft int) bool   { return ft == 14 || ft == 15 }

// frameSizeBits returns the bit length of one FT's speech payload (0 for
// FT 14/15), or an error for reserved FTs.
func frameSizeBits(ft int) (int, error) {
	switch {
	case isSpeechFT(ft):
		return FrameSizeBits[ft], nil
	case isSidFT(ft):
		return sidSizeBits, nil
	case isNoDataFT(ft):
		return 0, nil
	case isReservedFT(ft):
		return 0, fmt.Errorf("invalid_ft_%d", ft)
	default:
		return 0, fmt.Errorf("invalid_ft_%d", ft)
	}
}

func frameSizeBytes(ft int) (int, error) {
	switch {
	case isSpeechFT(ft):
		return FrameSizeBytes[ft], nil
	case isSidFT(ft):
		return sidSizeBytes, nil
	case isNoDataFT(ft):
		return 0, nil
	case isReservedFT(ft):
		return 0, fmt.Errorf("invalid_ft_%d", ft)
	default:
		return 0, fmt.Errorf("invalid_ft_%d", ft)
	}
}

// Frame is one decoded AMR-WB speech frame.
type Frame struct {
	FT       int
	Q        int
	IsSpeech bool
	IsSid    bool
	IsNoData bool
	SizeBytes int
	BitLen   int
	Data     []byte // octet-aligned frame payload, nil for no-data frames (FT 14/15)
}

func newFrame(ft, q int, data []byte, bitLen int) Frame {
	return Frame{
		FT:        ft,
		Q:         q,
		IsSpeech:  isSpeechFT(ft),
		IsSid:     isSidFT(ft),
		IsNoData:  isNoDataFT(ft),
		SizeBytes: len(data),
		BitLen:    bitLen,
		Data:      data,
	}
}

// Packing identifies which RFC 4867 RTP packing produced a Result.
type Packing string

const (
	PackingBE      Packing = "be"     // bandwidth-efficient
	PackingOctet   Packing = "octet"  // octet-aligned
	PackingInvalid Packing = "invalid"
)

// Result is the outcome of Transcode: either a successfully normalized
// octet-aligned payload, or a diagnostic describing every packing attempted.
type Result struct {
	OK         bool
	Packing    Packing
	Output     []byte // octet-aligned payload (CMR stripped), valid when OK
	Frames     []Frame
	TOCCount   int
	CMR        int
	CMRStripped bool
	Error      string
}

// ParseError is a tagged parse failure reason,
// vocabulary exactly: invalid_ft_<n>, toc_truncated, frame_truncated_ft_<n>,
// data_len_mismatch_expected_<x>_got_<y>, trailing_bits_nonzero, missing_toc,
// payload_too_short.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return e.Reason }

func errf(format string, args ...interface{}) error {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}
