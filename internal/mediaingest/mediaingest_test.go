// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package mediaingest

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veralux-ai/voice-runtime/internal/commons"
)

func TestExtractBestPayload_PrefersLargerCandidate(t *testing.T) {
	tiny := base64.StdEncoding.EncodeToString([]byte{0x01, 0x02}) // decodes to 2 bytes
	big := base64.StdEncoding.EncodeToString(make([]byte, 40))

	frame := map[string]interface{}{
		"event": "media",
		"media": map[string]interface{}{
			"track":   "inbound",
			"payload": tiny,
		},
		"duplicatePayload": big,
	}

	got, ok := ExtractBestPayload(frame, CodecPCMU)
	require.True(t, ok)
	assert.Len(t, got, 40)
}

func TestExtractBestPayload_BelowThresholdRejected(t *testing.T) {
	tiny := base64.StdEncoding.EncodeToString([]byte{0x01, 0x02})
	frame := map[string]interface{}{"media": map[string]interface{}{"payload": tiny}}

	_, ok := ExtractBestPayload(frame, CodecPCMU)
	assert.False(t, ok)
}

func TestExtractBestPayload_AMRWBHigherThreshold(t *testing.T) {
	mid := base64.StdEncoding.EncodeToString(make([]byte, 15)) // clears PCMU floor, not AMR-WB's
	frame := map[string]interface{}{"media": map[string]interface{}{"payload": mid}}

	_, ok := ExtractBestPayload(frame, CodecAMRWB)
	assert.False(t, ok)

	big := base64.StdEncoding.EncodeToString(make([]byte, 25))
	frame["media"].(map[string]interface{})["payload"] = big
	got, ok := ExtractBestPayload(frame, CodecAMRWB)
	require.True(t, ok)
	assert.Len(t, got, 25)
}

func TestResample_UpsampleDoublesLength(t *testing.T) {
	pcm := []int16{0, 100, 200, 300}
	out := Resample(pcm, 8000, 16000)
	assert.Len(t, out, 8)
}

func TestResample_NoOpWhenRatesMatch(t *testing.T) {
	pcm := []int16{1, 2, 3}
	out := Resample(pcm, 16000, 16000)
	assert.Equal(t, pcm, out)
}

func TestReframer_CarriesRemainder(t *testing.T) {
	r := NewReframer(16000, 20) // 320 samples/frame
	frames := r.Push(make([]int16, 500))
	require.Len(t, frames, 1)
	assert.Equal(t, uint64(1), frames[0].Seq)

	// Remaining 180 samples plus 200 new ones complete the second frame.
	frames = r.Push(make([]int16, 200))
	require.Len(t, frames, 1)
	assert.Equal(t, uint64(2), frames[0].Seq)
}

func TestHealthMonitor_UnhealthyOnDecodeFailures(t *testing.T) {
	h := NewHealthMonitor(DefaultConfig(), TransportPSTN)
	now := time.Now()
	for i := 0; i < 4; i++ {
		h.RecordFrame(now, make([]int16, 10))
	}
	assert.False(t, h.Unhealthy(), "below min window frames")

	for i := 0; i < 6; i++ {
		h.RecordDecodeFailure(now)
	}
	assert.True(t, h.Unhealthy())
}

func TestHealthMonitor_UnhealthyOnLowRMS(t *testing.T) {
	h := NewHealthMonitor(DefaultConfig(), TransportPSTN)
	now := time.Now()
	silence := make([]int16, 160)
	for i := 0; i < 12; i++ {
		h.RecordFrame(now, silence)
	}
	assert.True(t, h.Unhealthy())
}

func TestHealthMonitor_RestartGatedByTransport(t *testing.T) {
	h := NewHealthMonitor(DefaultConfig(), TransportWebRTC)
	now := time.Now()
	for i := 0; i < 10; i++ {
		h.RecordDecodeFailure(now)
	}
	assert.True(t, h.Unhealthy())
	assert.False(t, h.ShouldRestart(), "restart is PSTN-only")
}

func TestHealthMonitor_RestartBudgetExhausts(t *testing.T) {
	h := NewHealthMonitor(DefaultConfig(), TransportPSTN)
	now := time.Now()
	for i := 0; i < 10; i++ {
		h.RecordDecodeFailure(now)
	}
	require.True(t, h.ShouldRestart())
	h.RecordRestart()
	assert.True(t, h.RestartsExhausted())
}

func TestDecode_L16RoundTrips(t *testing.T) {
	payload := []byte{0x00, 0x01, 0xff, 0xff} // big-endian: 1, -1
	res, err := Decode(CodecL16, payload, nil)
	require.NoError(t, err)
	assert.Equal(t, []int16{1, -1}, res.PCM16)
	assert.Equal(t, 8000, res.SampleRate)
}

func TestIngest_HandleFrame_L16(t *testing.T) {
	cfg := Config{Codec: CodecL16, TargetRateHz: 8000, FrameMs: 20, Track: TrackInbound}
	ing, err := NewIngest(cfg, TransportPSTN, commons.NewTestLogger())
	require.NoError(t, err)

	pcm := make([]byte, 320) // 160 samples @ 16-bit = exactly one 20ms@8kHz frame
	payload := base64.StdEncoding.EncodeToString(pcm)
	raw := map[string]interface{}{
		"event": "media",
		"media": map[string]interface{}{"track": "inbound", "payload": payload},
	}

	frames, signal, err := ing.HandleFrame(raw, time.Now())
	require.NoError(t, err)
	assert.False(t, signal.RequestRestart)
	assert.Len(t, frames, 1)
}

func TestIngest_HandleFrame_SkipsWrongTrack(t *testing.T) {
	cfg := Config{Codec: CodecL16, TargetRateHz: 8000, FrameMs: 20, Track: TrackInbound}
	ing, err := NewIngest(cfg, TransportPSTN, commons.NewTestLogger())
	require.NoError(t, err)

	payload := base64.StdEncoding.EncodeToString(make([]byte, 320))
	raw := map[string]interface{}{
		"event": "media",
		"media": map[string]interface{}{"track": "outbound", "payload": payload},
	}

	frames, _, err := ing.HandleFrame(raw, time.Now())
	require.NoError(t, err)
	assert.Empty(t, frames)
	assert.Equal(t, uint64(1), ing.Counters().SkippedOutbound)
}

func TestIngest_Restart_ResetsReframerAndCodec(t *testing.T) {
	cfg := Config{Codec: CodecPCMA, TargetRateHz: 8000, FrameMs: 20, Track: TrackInbound}
	ing, err := NewIngest(cfg, TransportPSTN, commons.NewTestLogger())
	require.NoError(t, err)

	// 100 buffered samples: short of a 160-sample frame.
	assert.Empty(t, ing.reframer.Push(make([]int16, 100)))

	ing.Restart(CodecPCMU)
	assert.Equal(t, CodecPCMU, ing.cfg.Codec)
	// Had the remainder survived, 100+100 samples would complete a frame.
	assert.Empty(t, ing.reframer.Push(make([]int16, 100)))
}
