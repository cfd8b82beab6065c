// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package mediaingest

import (
	"fmt"
	"time"

	"github.com/veralux-ai/voice-runtime/internal/commons"
	opus "gopkg.in/hraban/opus.v2"
)

// RestartSignal is returned by HandleFrame when the health monitor decides
// the stream needs a codec restart, or has exhausted its restart budget and
// needs a dialog-layer reprompt instead.
type RestartSignal struct {
	RequestRestart bool
	RequestedCodec Codec
	Reprompt       bool
}

// Ingest is the A1 media ingest pipeline for one call leg: candidate payload
// extraction, codec decode, resample, re-frame, and health monitoring.
type Ingest struct {
	cfg       Config
	transport Transport
	logger    commons.Logger

	reframer *Reframer
	health   *HealthMonitor
	opusDec  *opus.Decoder
	counters TrackCounters
}

// NewIngest constructs an Ingest for the given codec/transport.
func NewIngest(cfg Config, transport Transport, logger commons.Logger) (*Ingest, error) {
	if cfg.TargetRateHz == 0 {
		cfg.TargetRateHz = DefaultConfig().TargetRateHz
	}
	if cfg.FrameMs == 0 {
		cfg.FrameMs = DefaultConfig().FrameMs
	}
	if cfg.Track == "" {
		cfg.Track = DefaultConfig().Track
	}

	var opusDec *opus.Decoder
	if cfg.Codec == CodecOpus {
		dec, err := opus.NewDecoder(48000, 1)
		if err != nil {
			return nil, fmt.Errorf("init opus decoder: %w", err)
		}
		opusDec = dec
	}

	return &Ingest{
		cfg:       cfg,
		transport: transport,
		logger:    logger,
		reframer:  NewReframer(cfg.TargetRateHz, cfg.FrameMs),
		health:    NewHealthMonitor(cfg, transport),
		opusDec:   opusDec,
	}, nil
}

// HandleFrame processes one decoded carrier JSON media frame. It returns the
// fixed-duration PCM16 frames extracted (zero or more), and a restart signal
// if the health monitor has decided the stream needs attention.
func (ig *Ingest) HandleFrame(raw map[string]interface{}, now time.Time) ([]Frame, RestartSignal, error) {
	event, _ := raw["event"].(string)
	if event != "media" {
		return nil, RestartSignal{}, nil
	}

	track := extractTrack(raw)
	if !ig.trackAllowed(track) {
		if track == TrackOutbound {
			ig.counters.SkippedOutbound++
		} else {
			ig.counters.SkippedInbound++
		}
		return nil, RestartSignal{}, nil
	}

	payload, ok := ExtractBestPayload(raw, ig.cfg.Codec)
	if !ok {
		ig.health.RecordTinyPayload(now)
		return nil, ig.evaluateHealth(now), fmt.Errorf("no payload candidate found")
	}

	dec, err := Decode(ig.cfg.Codec, payload, ig.opusDec)
	if err != nil {
		ig.health.RecordDecodeFailure(now)
		return nil, ig.evaluateHealth(now), fmt.Errorf("decode: %w", err)
	}

	resampled := Resample(dec.PCM16, dec.SampleRate, ig.cfg.TargetRateHz)
	frames := ig.reframer.Push(resampled)
	for _, f := range frames {
		ig.health.RecordFrame(now, f.PCM16)
	}

	return frames, ig.evaluateHealth(now), nil
}

func (ig *Ingest) evaluateHealth(now time.Time) RestartSignal {
	if ig.health.ShouldRestart() {
		return RestartSignal{RequestRestart: true, RequestedCodec: CodecPCMU}
	}
	if ig.health.Unhealthy() && ig.health.RestartsExhausted() {
		return RestartSignal{Reprompt: true}
	}
	return RestartSignal{}
}

// Restart resets the ingest pipeline to a new negotiated codec after a
// stream restart, recording the attempt against the health monitor.
func (ig *Ingest) Restart(codec Codec) {
	ig.cfg.Codec = codec
	ig.reframer.Reset()
	ig.health.RecordRestart()
}

// Counters reports the accumulated track-filter skip counts.
func (ig *Ingest) Counters() TrackCounters { return ig.counters }

func (ig *Ingest) trackAllowed(track TrackSelector) bool {
	if ig.cfg.Track == TrackBoth || track == "" {
		return true
	}
	return track == ig.cfg.Track
}

// extractTrack looks up the track selector under the conventional carrier
// media-frame path (media.track). It returns "" when the field is absent or
// not "inbound"/"outbound", and trackAllowed lets "" through.
func extractTrack(raw map[string]interface{}) TrackSelector {
	media, ok := raw["media"].(map[string]interface{})
	if !ok {
		return ""
	}
	track, _ := media["track"].(string)
	switch track {
	case "inbound":
		return TrackInbound
	case "outbound":
		return TrackOutbound
	default:
		return ""
	}
}
