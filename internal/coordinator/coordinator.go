// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package coordinator

import (
	"sync"
	"time"

	"github.com/veralux-ai/voice-runtime/internal/audioring"
	"github.com/veralux-ai/voice-runtime/internal/commons"
)

// Coordinator owns one call's audio/dialog state machine. It is safe for
// concurrent use: media frames arrive on the ingest goroutine while STT/
// brain/TTS events arrive on the session's dispatch goroutine.
type Coordinator struct {
	cfg       Config
	callbacks Callbacks
	logger    commons.Logger

	mu    sync.Mutex
	state State

	wsConnected      bool
	firstFrameSeen   bool
	firstFrameAt     time.Time
	lastFrameAt      time.Time
	consecutiveMs    int
	armed            bool
	armedAt          time.Time
	playbackActive   bool
	playbackEndedAt  time.Time

	preRoll *audioring.Ring

	utteranceStartedAt time.Time
	speechStartAt      time.Time
}

// New builds a Coordinator in the IDLE state.
func New(cfg Config, callbacks Callbacks, logger commons.Logger) *Coordinator {
	return &Coordinator{
		cfg:       cfg,
		callbacks: callbacks,
		logger:    logger,
		state:     StateIdle,
		preRoll:   audioring.New(cfg.SampleRateHz, cfg.PreRollMs),
	}
}

// State returns the current node of the state machine.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnWsConnected marks the media transport as up; media-ready evaluation can
// now proceed as frames arrive.
func (c *Coordinator) OnWsConnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wsConnected = true
}

// OnWsDisconnected resets the pre-roll ring and the arming state, so a reconnect re-runs
// the full media-ready predicate from scratch.
func (c *Coordinator) OnWsDisconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wsConnected = false
	c.firstFrameSeen = false
	c.consecutiveMs = 0
	c.armed = false
	c.preRoll.Reset()
}

// OnPlaybackStarted records that TTS audio is currently being played back to
// the caller, gating the media-ready predicate and subsequent re-arming.
func (c *Coordinator) OnPlaybackStarted(nowMs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playbackActive = true
	c.transitionLocked(StatePlaying)
}

// OnPlaybackEnded records the playback end time (used for the
// playback→first_frame timing delta) and transitions PLAYING → LISTENING.
func (c *Coordinator) OnPlaybackEnded(nowMs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playbackActive = false
	c.playbackEndedAt = epochToTime(nowMs)
	c.firstFrameSeen = false
	c.consecutiveMs = 0
	c.armed = false
	if c.state == StatePlaying {
		c.transitionLocked(StateListening)
	}
}

// OnFrame feeds one PCM16 frame's arrival into the media-ready predicate and
// the pre-roll ring. frameMs is the frame's nominal duration.
func (c *Coordinator) OnFrame(nowMs int64, pcm []int16, frameMs int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := epochToTime(nowMs)
	if !c.firstFrameSeen {
		c.firstFrameSeen = true
		c.firstFrameAt = now
		c.consecutiveMs = 0
	} else {
		gap := now.Sub(c.lastFrameAt).Milliseconds()
		gapLimit := int64(c.cfg.MinGapMs)
		if fromFrame := int64(c.cfg.FrameMs * c.cfg.MaxGapMultiplier); fromFrame > gapLimit {
			gapLimit = fromFrame
		}
		if gap > gapLimit {
			c.consecutiveMs = 0
		}
	}
	c.lastFrameAt = now
	c.consecutiveMs += frameMs

	c.preRoll.Add(pcm)

	if !c.armed && c.canArmLocked() {
		c.armed = true
		c.armedAt = now
		if c.state == StateIdle {
			c.transitionLocked(StateListening)
		}
		if c.callbacks.OnMediaReady != nil {
			c.callbacks.OnMediaReady()
		}
	}
}

// PlaybackActive reports whether assistant audio is currently playing,
// implementing internal/stt.PlaybackState so the STT pipeline can gate
// buffering directly off the coordinator's own state.
func (c *Coordinator) PlaybackActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playbackActive
}

// PlaybackEndedAt reports when playback last ended, implementing
// internal/stt.PlaybackState.
func (c *Coordinator) PlaybackEndedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playbackEndedAt
}

func (c *Coordinator) canArmLocked() bool {
	return c.wsConnected && c.firstFrameSeen && c.consecutiveMs >= c.cfg.ArmAfterMs && !c.playbackActive
}

// OnSpeechStart transitions LISTENING → CAPTURING on the STT pipeline's
// speech_start event.
func (c *Coordinator) OnSpeechStart(nowMs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speechStartAt = epochToTime(nowMs)
	if c.state == StateListening {
		c.transitionLocked(StateCapturing)
	}
}

// OnUtteranceEnd transitions CAPTURING → FINALIZING_STT, consumes the
// pre-roll ring for the caller, and emits the timing summary.
func (c *Coordinator) OnUtteranceEnd(nowMs int64, sampleCount int) TimingSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := epochToTime(nowMs)
	summary := TimingSummary{
		PlaybackEndedAt:      c.playbackEndedAt,
		FirstFrameAt:         c.firstFrameAt,
		ArmedAt:               c.armedAt,
		SpeechStartAt:          c.speechStartAt,
		UtteranceEndAt:         now,
		UtteranceSampleCount:   sampleCount,
	}
	if !c.playbackEndedAt.IsZero() && !c.firstFrameAt.IsZero() {
		summary.PlaybackToFirstFrameMs = c.firstFrameAt.Sub(c.playbackEndedAt).Milliseconds()
	}
	if !c.firstFrameAt.IsZero() && !c.armedAt.IsZero() {
		summary.FirstFrameToArmedMs = c.armedAt.Sub(c.firstFrameAt).Milliseconds()
	}
	if !c.armedAt.IsZero() && !c.speechStartAt.IsZero() {
		summary.ArmedToSpeechStartMs = c.speechStartAt.Sub(c.armedAt).Milliseconds()
	}
	if c.cfg.SampleRateHz > 0 {
		summary.UtteranceDurationMs = sampleCount * 1000 / c.cfg.SampleRateHz
	}

	if c.state == StateCapturing {
		c.transitionLocked(StateFinalizingSTT)
	}

	if c.callbacks.OnUtteranceEnd != nil {
		c.callbacks.OnUtteranceEnd(summary)
	}
	return summary
}

// ConsumePreRollForUtterance returns an immutable snapshot of the pre-roll
// ring. The ring is NOT reset here — it only resets on ws
// disconnect, so the next utterance may or may not overlap this one's
// pre-roll depending on the caller's own policy.
func (c *Coordinator) ConsumePreRollForUtterance() []int16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preRoll.Snapshot()
}

// OnRespondingStart transitions FINALIZING_STT → RESPONDING when the brain
// call begins.
func (c *Coordinator) OnRespondingStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateFinalizingSTT {
		c.transitionLocked(StateResponding)
	}
}

// OnTtsStart transitions RESPONDING → PLAYING when synthesis audio starts
// flowing back to the caller.
func (c *Coordinator) OnTtsStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateResponding {
		c.transitionLocked(StatePlaying)
	}
}

// OnHangup forces ENDING from any state.
func (c *Coordinator) OnHangup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transitionLocked(StateEnding)
}

// transitionLocked applies one state transition. ENDING is absorbing: once
// a call has hung up, nothing transitions it back out, regardless of which
// caller fires next.
func (c *Coordinator) transitionLocked(to State) {
	from := c.state
	if from == to || from == StateEnding {
		return
	}
	c.state = to
	if c.logger != nil {
		c.logger.Debugw("call state transition", "from", from, "to", to)
	}
	if c.callbacks.OnStateChange != nil {
		c.callbacks.OnStateChange(from, to)
	}
}

func epochToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}
