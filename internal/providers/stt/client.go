// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

// Package stt is the HTTP collaborator satisfying internal/stt.Provider:
// POSTing WAV audio (always WAV; raw PCM16 is not an option) to a
// configured STT URL and parsing its JSON {text, confidence?} or plain
// text reply.
package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/veralux-ai/voice-runtime/internal/commons"
	internalstt "github.com/veralux-ai/voice-runtime/internal/stt"
)

const requestTimeout = 15 * time.Second

// Client posts WAV-wrapped audio to a configured STT endpoint.
type Client struct {
	http     *resty.Client
	url      string
	language string
	logger   commons.Logger
}

// New builds a Client bound to url, with an optional BCP-47 language tag
// appended as the ?language= query parameter.
func New(url, language string, logger commons.Logger) *Client {
	return &Client{
		http:     resty.New().SetTimeout(requestTimeout),
		url:      url,
		language: language,
		logger:   logger,
	}
}

type transcribeResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Transcribe implements internal/stt.Provider.
func (c *Client) Transcribe(ctx context.Context, pcm []int16, sampleRateHz int, partial bool) (internalstt.Transcription, error) {
	wav := internalstt.EncodeWAV(pcm, sampleRateHz)

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "audio/wav").
		SetBody(wav)
	if c.language != "" {
		req.SetQueryParam("language", c.language)
	}
	if partial {
		req.SetQueryParam("partial", "true")
	}

	resp, err := req.Post(c.url)
	if err != nil {
		return internalstt.Transcription{}, fmt.Errorf("stt provider: request failed: %w", err)
	}
	if resp.StatusCode() >= 300 {
		return internalstt.Transcription{}, fmt.Errorf("stt provider: status %d: %s", resp.StatusCode(), resp.String())
	}

	body := strings.TrimSpace(resp.String())
	var parsed transcribeResponse
	if err := json.Unmarshal([]byte(body), &parsed); err == nil && parsed.Text != "" {
		return internalstt.Transcription{Text: parsed.Text, Confidence: parsed.Confidence, IsFinal: !partial}, nil
	}
	// Fall back to treating the whole body as plain text
	return internalstt.Transcription{Text: body, IsFinal: !partial}, nil
}
