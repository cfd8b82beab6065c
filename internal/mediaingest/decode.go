// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package mediaingest

import (
	"encoding/binary"
	"fmt"

	"github.com/veralux-ai/voice-runtime/internal/amrwb"
	opus "gopkg.in/hraban/opus.v2"

	g711 "github.com/zaf/g711"
)

// DecodeResult is the outcome of decoding one codec payload to PCM16.
type DecodeResult struct {
	PCM16      []int16
	SampleRate int // native rate of the decoded PCM, before resampling
}

// Decode converts a single codec payload (already stripped of any RTP/carrier
// framing) to mono PCM16 at the codec's native sample rate.
func Decode(codec Codec, payload []byte, opusDec *opus.Decoder) (DecodeResult, error) {
	switch codec {
	case CodecPCMU:
		return DecodeResult{PCM16: g711.DecodeUlaw(payload), SampleRate: 8000}, nil
	case CodecPCMA:
		return DecodeResult{PCM16: g711.DecodeAlaw(payload), SampleRate: 8000}, nil
	case CodecL16:
		return DecodeResult{PCM16: decodeL16(payload), SampleRate: 8000}, nil
	case CodecG722:
		return DecodeResult{PCM16: decodeG722(payload), SampleRate: 16000}, nil
	case CodecOpus:
		return decodeOpus(payload, opusDec)
	case CodecAMRWB:
		return decodeAMRWB(payload)
	default:
		return DecodeResult{}, fmt.Errorf("unsupported codec %q", codec)
	}
}

func decodeL16(payload []byte) []int16 {
	out := make([]int16, len(payload)/2)
	for i := range out {
		out[i] = int16(binary.BigEndian.Uint16(payload[i*2:]))
	}
	return out
}

func decodeOpus(payload []byte, dec *opus.Decoder) (DecodeResult, error) {
	if dec == nil {
		return DecodeResult{}, fmt.Errorf("opus decoder not initialized")
	}
	// 5760 samples covers a 120ms packet at 48kHz mono, the longest Opus
	// packet; a shorter packet simply returns fewer samples.
	pcm := make([]int16, 5760)
	n, err := dec.Decode(payload, pcm)
	if err != nil {
		return DecodeResult{}, fmt.Errorf("opus decode: %w", err)
	}
	return DecodeResult{PCM16: pcm[:n], SampleRate: 48000}, nil
}

// decodeAMRWB normalizes the payload via the amrwb package. ACELP speech
// synthesis is not implemented here; the normalized frames are available on
// the Result for a provider that decodes AMR-WB natively, and the PCM16
// returned is zeroed but duration-correct so re-framing and health
// accounting stay in lockstep.
func decodeAMRWB(payload []byte) (DecodeResult, error) {
	res := amrwb.Transcode(payload)
	if !res.OK {
		return DecodeResult{}, fmt.Errorf("amrwb transcode: %s", res.Error)
	}
	const samplesPerFrame = 320 // 20ms @ 16kHz
	pcm := make([]int16, samplesPerFrame*len(res.Frames))
	return DecodeResult{PCM16: pcm, SampleRate: 16000}, nil
}
