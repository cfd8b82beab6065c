// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package stt

import "math"

// FrameDetector reports whether a single PCM16 frame contains speech,
// without any hysteresis — hysteresis is layered on top by hysteresisGate,
// splitting the raw per-frame decision from the streak-based threshold.
type FrameDetector interface {
	IsSpeech(frame []int16) (bool, error)
}

// rmsPeakDetector is the fallback gate used when Silero VAD is unavailable.
type rmsPeakDetector struct {
	rmsFloor  float64
	peakFloor float64
}

func newRMSPeakDetector(rmsFloor, peakFloor float64) *rmsPeakDetector {
	return &rmsPeakDetector{rmsFloor: rmsFloor, peakFloor: peakFloor}
}

func (d *rmsPeakDetector) IsSpeech(frame []int16) (bool, error) {
	if len(frame) == 0 {
		return false, nil
	}
	var sumSq float64
	var peak float64
	for _, s := range frame {
		v := float64(s) / 32768.0
		sumSq += v * v
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	rms := math.Sqrt(sumSq / float64(len(frame)))
	return rms >= d.rmsFloor || peak >= d.peakFloor, nil
}

// hysteresisGate layers the speech_frames_required/silence_frames_required
// streak counters on top of a FrameDetector.
type hysteresisGate struct {
	detector FrameDetector

	speechFramesRequired  int
	silenceFramesRequired int

	speechStreak  int
	silenceStreak int
	inSpeech      bool
}

func newHysteresisGate(detector FrameDetector, speechFramesRequired, silenceFramesRequired int) *hysteresisGate {
	if speechFramesRequired <= 0 {
		speechFramesRequired = 1
	}
	if silenceFramesRequired <= 0 {
		silenceFramesRequired = 1
	}
	return &hysteresisGate{
		detector:              detector,
		speechFramesRequired:  speechFramesRequired,
		silenceFramesRequired: silenceFramesRequired,
	}
}

// Update feeds one frame through the detector and streak counters. It
// returns (speechStartedNow, inSpeech).
func (g *hysteresisGate) Update(frame []int16) (bool, bool, error) {
	speech, err := g.detector.IsSpeech(frame)
	if err != nil {
		return false, g.inSpeech, err
	}

	startedNow := false
	if speech {
		g.speechStreak++
		g.silenceStreak = 0
		if !g.inSpeech && g.speechStreak >= g.speechFramesRequired {
			g.inSpeech = true
			startedNow = true
		}
	} else {
		g.silenceStreak++
		g.speechStreak = 0
		if g.inSpeech && g.silenceStreak >= g.silenceFramesRequired {
			g.inSpeech = false
		}
	}
	return startedNow, g.inSpeech, nil
}

// Reset clears the streak counters and in-speech state, used across
// playback boundaries.
func (g *hysteresisGate) Reset() {
	g.speechStreak = 0
	g.silenceStreak = 0
	g.inSpeech = false
}
