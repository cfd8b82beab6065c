// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

// Package tts is the HTTP collaborator satisfying internal/session.TTSClient:
// POSTing a synthesis request (text, voice, format, sampleRate) and
// returning the raw audio bytes alongside the response's Content-Type.
package tts

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/veralux-ai/voice-runtime/internal/commons"
)

const requestTimeout = 15 * time.Second

// Client posts a synthesis request to a configured TTS endpoint.
type Client struct {
	http   *resty.Client
	url    string
	logger commons.Logger
}

// New builds a Client bound to url.
func New(url string, logger commons.Logger) *Client {
	return &Client{http: resty.New().SetTimeout(requestTimeout), url: url, logger: logger}
}

type synthesizeRequest struct {
	Text       string `json:"text"`
	Voice      string `json:"voice"`
	Format     string `json:"format"`
	SampleRate int    `json:"sampleRate"`
}

// Synthesize implements internal/session.TTSClient.
func (c *Client) Synthesize(ctx context.Context, text, voice, format string, sampleRateHz int) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(synthesizeRequest{Text: text, Voice: voice, Format: format, SampleRate: sampleRateHz}).
		Post(c.url)
	if err != nil {
		return nil, fmt.Errorf("tts provider: request failed: %w", err)
	}
	if resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("tts provider: status %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.Body(), nil
}
