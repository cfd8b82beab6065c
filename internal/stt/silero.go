// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package stt

import (
	speech "github.com/streamer45/silero-vad-go/speech"
)

// sileroDetector adapts streamer45/silero-vad-go's ONNX detector to
// FrameDetector, feeding it one 16kHz frame at a time and treating any
// returned segment as "speech present in this frame" ( step 2:
// "Optional Silero VAD (ONNX) on 16kHz-upsampled frames").
type sileroDetector struct {
	detector *speech.Detector
}

// NewSileroDetector loads the ONNX VAD model at modelPath. threshold is the
// Silero speech-probability cutoff (typically 0.5).
func NewSileroDetector(modelPath string, sampleRateHz int, threshold float32) (FrameDetector, error) {
	d, err := speech.NewDetector(speech.DetectorConfig{
		ModelPath:            modelPath,
		SampleRate:           sampleRateHz,
		Threshold:            threshold,
		MinSilenceDurationMs: 0,
		SpeechPadMs:          0,
	})
	if err != nil {
		return nil, err
	}
	return &sileroDetector{detector: d}, nil
}

func (d *sileroDetector) IsSpeech(frame []int16) (bool, error) {
	pcm := make([]float32, len(frame))
	for i, s := range frame {
		pcm[i] = float32(s) / 32768.0
	}
	segments, err := d.detector.Detect(pcm)
	if err != nil {
		return false, err
	}
	return len(segments) > 0, nil
}

// Close releases the underlying ONNX runtime session.
func (d *sileroDetector) Close() error {
	return d.detector.Destroy()
}
