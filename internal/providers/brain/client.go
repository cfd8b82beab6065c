// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

// Package brain is the HTTP collaborator satisfying internal/session.BrainClient:
// POSTing the transcript and history to /reply, or streaming the reply as
// Server-Sent Events from /reply/stream
package brain

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/veralux-ai/voice-runtime/internal/commons"
	"github.com/veralux-ai/voice-runtime/internal/session"
)

const requestTimeout = 20 * time.Second

// EventType tags one SSE event from /reply/stream, mirroring the
// enumerated event set.
type EventType string

const (
	EventToken EventType = "token"
	EventDone  EventType = "done"
	EventError EventType = "error"
	EventPing  EventType = "ping"
	EventMeta  EventType = "meta"
)

// StreamEvent is one decoded SSE line.
type StreamEvent struct {
	Type EventType
	Text string // token "t" or done "text" payload
	Err  string // error "message" payload
}

// Client posts conversational turns to a configured brain endpoint.
type Client struct {
	http      *resty.Client
	replyURL  string
	streamURL string
	logger    commons.Logger
}

// New builds a Client. replyURL is the non-streaming /reply endpoint;
// streamURL is the SSE /reply/stream endpoint (pass "" to disable
// streaming).
func New(replyURL, streamURL string, logger commons.Logger) *Client {
	return &Client{
		http:      resty.New().SetTimeout(requestTimeout),
		replyURL:  replyURL,
		streamURL: streamURL,
		logger:    logger,
	}
}

type replyRequest struct {
	TenantID      string         `json:"tenantId"`
	CallControlID string         `json:"callControlId"`
	Transcript    string         `json:"transcript"`
	History       []historyEntry `json:"history"`
}

type historyEntry struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type replyResponse struct {
	Text string `json:"text"`
}

func toHistoryEntries(history []session.HistoryTurn) []historyEntry {
	out := make([]historyEntry, len(history))
	for i, h := range history {
		out[i] = historyEntry{Role: h.Role, Text: h.Text}
	}
	return out
}

// Reply implements internal/session.BrainClient with a single blocking
// POST to /reply.
func (c *Client) Reply(ctx context.Context, tenantID, callControlID, transcript string, history []session.HistoryTurn) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(replyRequest{
			TenantID:      tenantID,
			CallControlID: callControlID,
			Transcript:    transcript,
			History:       toHistoryEntries(history),
		}).
		Post(c.replyURL)
	if err != nil {
		return "", fmt.Errorf("brain provider: request failed: %w", err)
	}
	if resp.StatusCode() >= 300 {
		return "", fmt.Errorf("brain provider: status %d: %s", resp.StatusCode(), resp.String())
	}

	var parsed replyResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("brain provider: malformed reply: %w", err)
	}
	return parsed.Text, nil
}

// ReplyStream posts to /reply/stream and delivers each decoded SSE event to
// onEvent as it arrives, returning once a "done" or "error" event closes
// the stream or ctx is cancelled. Session.respond calls the simpler
// blocking Reply instead, since TTS synthesis here is whole-utterance, not
// incremental; ReplyStream stays available for a token-by-token playback
// path without one.
func (c *Client) ReplyStream(ctx context.Context, tenantID, callControlID, transcript string, history []session.HistoryTurn, onEvent func(StreamEvent)) error {
	if c.streamURL == "" {
		return fmt.Errorf("brain provider: streaming not configured")
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetBody(replyRequest{
			TenantID:      tenantID,
			CallControlID: callControlID,
			Transcript:    transcript,
			History:       toHistoryEntries(history),
		}).
		Post(c.streamURL)
	if err != nil {
		return fmt.Errorf("brain provider: stream request failed: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	scanner := bufio.NewScanner(body)
	var eventType EventType
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			eventType = EventType(strings.TrimSpace(strings.TrimPrefix(line, "event:")))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			ev := decodeStreamEvent(eventType, data)
			onEvent(ev)
			if ev.Type == EventDone || ev.Type == EventError {
				return nil
			}
		case line == "":
			eventType = ""
		}
	}
	return scanner.Err()
}

func decodeStreamEvent(t EventType, data string) StreamEvent {
	switch t {
	case EventToken:
		var payload struct {
			T string `json:"t"`
		}
		json.Unmarshal([]byte(data), &payload)
		return StreamEvent{Type: EventToken, Text: payload.T}
	case EventDone:
		var payload struct {
			Text string `json:"text"`
		}
		json.Unmarshal([]byte(data), &payload)
		return StreamEvent{Type: EventDone, Text: payload.Text}
	case EventError:
		var payload struct {
			Message string `json:"message"`
		}
		json.Unmarshal([]byte(data), &payload)
		return StreamEvent{Type: EventError, Err: payload.Message}
	default:
		return StreamEvent{Type: t}
	}
}
