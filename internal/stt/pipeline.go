// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package stt

import (
	"context"
	"sync"

	"github.com/veralux-ai/voice-runtime/internal/audioring"
	"github.com/veralux-ai/voice-runtime/internal/commons"
)

// Pipeline runs the per-frame STT algorithm: playback gating, VAD with
// hysteresis, a replay guard, a pre-roll ring, partial and final
// transcription policy, barge-in, a late-final watchdog, and the
// empty-final fallback.
type Pipeline struct {
	cfg       Config
	callbacks Callbacks
	provider  Provider
	playback  PlaybackState
	logger    commons.Logger

	gate    *hysteresisGate
	replay  *replayGuard
	preRoll *audioring.Ring

	mu sync.Mutex

	inUtterance        bool
	utteranceFrames    []int16
	utteranceStartAtMs int64
	utteranceTotalMs   int
	speechMs           int
	silenceMs          int
	lastSpeechSampleIdx int

	lastPartialAtMs     int64
	hasLastPartialHash  bool
	lastPartialHash     [20]byte

	finalInFlight          bool
	finalCancel            context.CancelFunc
	finalRequestStartedMs  int64

	partialInFlight bool
	partialCancel   context.CancelFunc

	lastNonEmptyPartialText string
	lastNonEmptyPartialAtMs int64
}

// NewPipeline builds a Pipeline. detector is the FrameDetector to use for
// VAD; pass nil to fall back to the RMS/peak gate.
func NewPipeline(cfg Config, callbacks Callbacks, provider Provider, playback PlaybackState, detector FrameDetector, logger commons.Logger) *Pipeline {
	if detector == nil {
		detector = newRMSPeakDetector(cfg.RmsFloor, cfg.PeakFloor)
	}
	preRollMs := cfg.PreRollMs
	if preRollMs <= 0 {
		preRollMs = DefaultConfig().PreRollMs
	}
	if preRollMs > cfg.PreRollMaxMs && cfg.PreRollMaxMs > 0 {
		preRollMs = cfg.PreRollMaxMs
	}
	return &Pipeline{
		cfg:       cfg,
		callbacks: callbacks,
		provider:  provider,
		playback:  playback,
		logger:    logger,
		gate:      newHysteresisGate(detector, cfg.SpeechFramesRequired, cfg.SilenceFramesRequired),
		replay:    newReplayGuard(cfg.ReplayGuardFrames),
		preRoll:   audioring.New(cfg.SampleRateHz, preRollMs),
	}
}

// ProcessFrame runs one PCM16 frame through the pipeline. nowMs is the
// caller's monotonic clock in milliseconds, letting tests drive the
// pipeline deterministically.
func (p *Pipeline) ProcessFrame(ctx context.Context, frame []int16, nowMs int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameMs := 0
	if p.cfg.SampleRateHz > 0 {
		frameMs = len(frame) * 1000 / p.cfg.SampleRateHz
	}

	if p.playbackGated(nowMs) {
		startedNow, _, _ := p.gate.Update(frame)
		if startedNow && p.callbacks.OnSpeechStart != nil {
			p.callbacks.OnSpeechStart(SpeechStartInfo{AtMs: nowMs, FromBargeIn: true})
		}
		if p.playback != nil && p.playback.PlaybackActive() {
			if p.finalInFlight {
				p.abortFinalLocked()
			}
			if p.partialInFlight {
				p.abortPartialLocked()
			}
		}
		return
	}

	startedNow, inSpeech, _ := p.gate.Update(frame)

	if p.replay.Seen(frame) {
		return
	}

	// beginUtteranceLocked snapshots the pre-roll ring before this frame is
	// added to it, so the ring holds only the lookback preceding speech
	// start and the current frame is appended exactly once, via step 6
	// below.
	if startedNow && !p.inUtterance {
		p.beginUtteranceLocked(nowMs)
	}
	p.preRoll.Add(frame)

	if !p.inUtterance {
		return
	}

	p.utteranceFrames = append(p.utteranceFrames, frame...)
	p.utteranceTotalMs += frameMs
	if inSpeech {
		p.speechMs += frameMs
		p.silenceMs = 0
		p.lastSpeechSampleIdx = len(p.utteranceFrames)
	} else {
		p.silenceMs += frameMs
	}

	p.maybeSendPartialLocked(ctx, nowMs)

	force := p.utteranceTotalMs >= p.cfg.MaxUtteranceMs ||
		p.silenceMs >= p.cfg.SilenceEndMs ||
		(p.cfg.LateFinalWatchdogMs > 0 && nowMs-p.utteranceStartAtMs >= int64(p.cfg.LateFinalWatchdogMs))
	if force {
		p.finalizeLocked(ctx, nowMs)
	}
}

// Stop forces an immediate finalize of any in-progress utterance, e.g. on
// an explicit carrier hangup.
func (p *Pipeline) Stop(ctx context.Context, nowMs int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inUtterance {
		p.finalizeLocked(ctx, nowMs)
	}
}

// ResetPlaybackBoundary clears the VAD hysteresis and replay-guard windows.
// The session calls it when playback ends, not when playback starts.
func (p *Pipeline) ResetPlaybackBoundary() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gate.Reset()
	p.replay.Reset()
}

func (p *Pipeline) playbackGated(nowMs int64) bool {
	if p.playback == nil {
		return false
	}
	if p.playback.PlaybackActive() {
		return true
	}
	endedAt := p.playback.PlaybackEndedAt()
	if endedAt.IsZero() {
		return false
	}
	return nowMs-endedAt.UnixMilli() < int64(p.cfg.PostPlaybackGraceMs)
}

func (p *Pipeline) beginUtteranceLocked(nowMs int64) {
	if p.finalInFlight {
		p.abortFinalLocked()
	}
	if p.partialInFlight {
		p.abortPartialLocked()
	}
	p.inUtterance = true
	p.utteranceStartAtMs = nowMs
	p.utteranceTotalMs = 0
	p.speechMs = 0
	p.silenceMs = 0
	p.lastSpeechSampleIdx = 0
	p.utteranceFrames = append([]int16(nil), p.preRoll.Snapshot()...)
	p.lastSpeechSampleIdx = len(p.utteranceFrames)

	if p.callbacks.OnSpeechStart != nil {
		p.callbacks.OnSpeechStart(SpeechStartInfo{
			AtMs:      nowMs,
			PreRollMs: p.preRoll.DurationMs(),
		})
	}
}

// maybeSendPartialLocked fires a partial transcribe off the frame loop, the
// same way finalizeLocked fires the final: at most one transcription (of
// either kind) is ever in flight for a call, so this bails out if a final
// is already running and never blocks ProcessFrame on provider I/O.
func (p *Pipeline) maybeSendPartialLocked(ctx context.Context, nowMs int64) {
	if p.finalInFlight || p.partialInFlight {
		return
	}
	if p.utteranceTotalMs < p.cfg.MinSpeechMs {
		return
	}
	if nowMs-p.lastPartialAtMs < int64(p.cfg.PartialIntervalMs) {
		return
	}

	snapshot := append([]int16(nil), p.utteranceFrames...)
	h := hashFrame(snapshot)
	if p.hasLastPartialHash && h == p.lastPartialHash {
		return
	}
	p.lastPartialHash = h
	p.hasLastPartialHash = true
	p.lastPartialAtMs = nowMs

	partialCtx, cancel := context.WithCancel(ctx)
	p.partialInFlight = true
	p.partialCancel = cancel

	if p.callbacks.OnSttRequestStart != nil {
		p.callbacks.OnSttRequestStart("partial")
	}
	go p.runPartial(partialCtx, snapshot, nowMs)
}

func (p *Pipeline) runPartial(ctx context.Context, pcm []int16, nowMs int64) {
	result, err := p.provider.Transcribe(ctx, pcm, p.cfg.SampleRateHz, true)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.partialInFlight = false
	p.partialCancel = nil

	if p.callbacks.OnSttRequestEnd != nil {
		p.callbacks.OnSttRequestEnd("partial")
	}
	if err != nil {
		return
	}
	if result.Text != "" {
		p.lastNonEmptyPartialText = result.Text
		p.lastNonEmptyPartialAtMs = nowMs
		if p.callbacks.OnTranscript != nil {
			p.callbacks.OnTranscript(result.Text, SourcePartial, len(pcm))
		}
	}
}

func (p *Pipeline) abortPartialLocked() {
	if p.partialCancel != nil {
		p.partialCancel()
	}
	p.partialInFlight = false
	p.partialCancel = nil
}

// finalizeLocked trims trailing silence to the cushion, fires the final
// transcribe asynchronously (so barge-in can abort it without blocking the
// frame loop), and resets utterance state for the next one.
func (p *Pipeline) finalizeLocked(ctx context.Context, nowMs int64) {
	if p.partialInFlight {
		p.abortPartialLocked()
	}
	cushionSamples := p.cfg.SampleRateHz * p.cfg.FinalizeCushionMs / 1000
	trimEnd := p.lastSpeechSampleIdx + cushionSamples
	if trimEnd > len(p.utteranceFrames) {
		trimEnd = len(p.utteranceFrames)
	}
	final := append([]int16(nil), p.utteranceFrames[:trimEnd]...)

	p.inUtterance = false
	p.utteranceFrames = nil
	p.utteranceTotalMs = 0
	p.speechMs = 0
	p.silenceMs = 0
	p.hasLastPartialHash = false

	finalCtx, cancel := context.WithCancel(ctx)
	p.finalInFlight = true
	p.finalCancel = cancel
	p.finalRequestStartedMs = nowMs

	if p.callbacks.OnSttRequestStart != nil {
		p.callbacks.OnSttRequestStart("final")
	}

	go p.runFinal(finalCtx, final, nowMs)
}

func (p *Pipeline) runFinal(ctx context.Context, pcm []int16, nowMs int64) {
	result, err := p.provider.Transcribe(ctx, pcm, p.cfg.SampleRateHz, false)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.finalInFlight = false
	p.finalCancel = nil

	if p.callbacks.OnSttRequestEnd != nil {
		p.callbacks.OnSttRequestEnd("final")
	}
	if err != nil {
		return
	}

	text := result.Text
	source := SourceFinal
	if text == "" {
		if p.lastNonEmptyPartialText != "" &&
			nowMs-p.lastNonEmptyPartialAtMs <= int64(p.cfg.EmptyFinalFallbackWindowMs) {
			text = p.lastNonEmptyPartialText
			source = SourcePartialFallback
		}
	}
	if text != "" && p.callbacks.OnTranscript != nil {
		p.callbacks.OnTranscript(text, source, len(pcm))
	}
}

func (p *Pipeline) abortFinalLocked() {
	if p.finalCancel != nil {
		p.finalCancel()
	}
	p.finalInFlight = false
	p.finalCancel = nil
}
