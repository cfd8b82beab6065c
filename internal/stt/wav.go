// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package stt

import (
	"bytes"
	"encoding/binary"
)

const (
	wavBytesPerSample = 2
	wavBitsPerSample  = 16
	wavPCMFormat      = 1
)

// EncodeWAV wraps PCM16 mono samples in a RIFF/WAVE container, for
// providers that transcribe over a plain HTTP file upload rather than a
// raw-PCM streaming socket.
func EncodeWAV(pcm []int16, sampleRateHz int) []byte {
	pcmBytes := make([]byte, len(pcm)*wavBytesPerSample)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(pcmBytes[i*2:], uint16(s))
	}

	var buf bytes.Buffer
	byteRate := sampleRateHz * wavBytesPerSample

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcmBytes)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(wavPCMFormat))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRateHz))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(wavBytesPerSample))
	binary.Write(&buf, binary.LittleEndian, uint16(wavBitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcmBytes)))
	buf.Write(pcmBytes)

	return buf.Bytes()
}
