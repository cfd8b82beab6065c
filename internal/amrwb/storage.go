// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package amrwb

import (
	"bytes"
	"fmt"
)

const storageMagic = "#!AMR-WB\n"

// EncodeStorage writes the AMR-WB storage format: the "#!AMR-WB\n" magic,
// then one storage TOC byte (FT<<3 | Q<<2) followed by the raw frame bytes,
// per frame. Useful for offline diagnosis; independent of RTP
// packing.
func EncodeStorage(frames []Frame) []byte {
	var buf bytes.Buffer
	buf.WriteString(storageMagic)
	for _, f := range frames {
		toc := byte(f.FT<<3) | byte(f.Q<<2)
		buf.WriteByte(toc)
		buf.Write(f.Data)
	}
	return buf.Bytes()
}

// DecodeStorage parses the AMR-WB storage format produced by EncodeStorage.
func DecodeStorage(data []byte) ([]Frame, error) {
	if len(data) < len(storageMagic) || string(data[:len(storageMagic)]) != storageMagic {
		return nil, fmt.Errorf("missing_toc")
	}
	body := data[len(storageMagic):]
	var frames []Frame
	i := 0
	for i < len(body) {
		toc := body[i]
		ft := int(toc>>3) & 0x0f
		q := int(toc>>2) & 1
		i++
		if isReservedFT(ft) {
			return nil, errf("invalid_ft_%d", ft)
		}
		sizeBytes, err := frameSizeBytes(ft)
		if err != nil {
			return nil, err
		}
		bitLen, _ := frameSizeBits(ft)
		if sizeBytes == 0 {
			frames = append(frames, newFrame(ft, q, nil, bitLen))
			continue
		}
		if i+sizeBytes > len(body) {
			return nil, errf("frame_truncated_ft_%d", ft)
		}
		frameBytes := make([]byte, sizeBytes)
		copy(frameBytes, body[i:i+sizeBytes])
		i += sizeBytes
		frames = append(frames, newFrame(ft, q, frameBytes, bitLen))
	}
	return frames, nil
}
