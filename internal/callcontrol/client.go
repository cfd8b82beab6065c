// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

// Package callcontrol implements the carrier call-control REST client:
// POST /calls/{id}/actions/{action}, bearer auth, bounded retries with
// jittered exponential backoff, and idempotent handling of a call that has
// already ended.
package callcontrol

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/veralux-ai/voice-runtime/internal/commons"
)

const (
	requestTimeout = 8 * time.Second
	maxRetries     = 2
	backoffBase    = 250 * time.Millisecond
	backoffCap     = 1500 * time.Millisecond
	jitterMaxMs    = 120
)

// Action is one of the carrier's call-control verbs.
type Action string

const (
	ActionAnswer Action = "answer"
	ActionPlay   Action = "playback_start"
	ActionStop   Action = "playback_stop"
	ActionHangup Action = "hangup"
)

// Client issues call-control actions against the carrier's REST API.
type Client struct {
	http        *resty.Client
	streamCodec string
	streamTrack string
	logger      commons.Logger
	sleep       func(time.Duration)
}

// Config configures the underlying resty client.
type Config struct {
	BaseURL     string
	BearerToken string
	StreamCodec string // injected into answer's stream_codec field
	StreamTrack string // injected into answer's stream_track field
}

// New builds a Client with the timeout/backoff policy baked in.
func New(cfg Config, logger commons.Logger) *Client {
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.BearerToken).
		SetTimeout(requestTimeout)

	return &Client{http: http, streamCodec: cfg.StreamCodec, streamTrack: cfg.StreamTrack, logger: logger, sleep: time.Sleep}
}

// AnswerStreamOptions carries the stream-related fields for the answer
// action; MediaFormat is intentionally never transmitted.
type AnswerStreamOptions struct {
	StreamURL   string
	MediaFormat string // accepted for symmetry with the carrier webhook shape, never sent
}

// Answer issues the answer action, stripping any media_format field and
// injecting the configured stream_codec/stream_track when stream options
// are present. The stream URL (which carries a token= query parameter) is
// logged with that parameter redacted.
func (c *Client) Answer(ctx context.Context, callControlID string, stream *AnswerStreamOptions) error {
	body := map[string]interface{}{}
	if stream != nil {
		body["stream_url"] = stream.StreamURL
		body["stream_codec"] = c.streamCodec
		body["stream_track"] = c.streamTrack
		// media_format is deliberately never set on the outgoing body.
		if c.logger != nil {
			c.logger.Debugw("answer with stream", "call_control_id", callControlID, "stream_url", redactToken(stream.StreamURL), "stream_track", c.streamTrack)
		}
	}
	return c.doAction(ctx, callControlID, ActionAnswer, body)
}

// Play starts audio playback of the given URL.
func (c *Client) Play(ctx context.Context, callControlID, audioURL string) error {
	return c.doAction(ctx, callControlID, ActionPlay, map[string]interface{}{"audio_url": audioURL})
}

// StopPlayback halts any in-progress playback, issued on barge-in so the
// carrier stops sending assistant audio the instant the caller starts
// talking over it.
func (c *Client) StopPlayback(ctx context.Context, callControlID string) error {
	return c.doAction(ctx, callControlID, ActionStop, map[string]interface{}{})
}

// Hangup ends the call.
func (c *Client) Hangup(ctx context.Context, callControlID string) error {
	return c.doAction(ctx, callControlID, ActionHangup, map[string]interface{}{})
}

// doAction POSTs to /calls/{id}/actions/{action}, retrying on 429/5xx with
// jittered exponential backoff, and treating an "already ended" 422 as
// success.
func (c *Client) doAction(ctx context.Context, callControlID string, action Action, body map[string]interface{}) error {
	path := fmt.Sprintf("/calls/%s/actions/%s", callControlID, action)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(body).
			Post(path)

		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return err // aborted — not retried
			}
			if attempt < maxRetries {
				c.backoff(attempt)
			}
			continue
		}

		status := resp.StatusCode()
		if status >= 200 && status < 300 {
			return nil
		}

		if status == 422 && isAlreadyEnded(resp.String()) {
			if c.logger != nil {
				c.logger.Debugw("call-control action treated as success (already ended)", "action", action, "call_control_id", callControlID)
			}
			return nil
		}

		lastErr = fmt.Errorf("callcontrol: %s action %q failed with status %d: %s", callControlID, action, status, resp.String())

		if status == 429 || status >= 500 {
			if attempt < maxRetries {
				c.backoff(attempt)
			}
			continue
		}
		return lastErr
	}
	return lastErr
}

func (c *Client) backoff(attempt int) {
	d := backoffBase << attempt
	if d > backoffCap {
		d = backoffCap
	}
	jitter := time.Duration(rand.Intn(jitterMaxMs+1)) * time.Millisecond
	c.sleep(d + jitter)
}

func isAlreadyEnded(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "already ended") || strings.Contains(lower, "no longer active")
}

// redactToken replaces a token= query parameter's value with "redacted".
func redactToken(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "redacted")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
