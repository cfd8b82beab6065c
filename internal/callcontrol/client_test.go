// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package callcontrol

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veralux-ai/voice-runtime/internal/commons"
)

func noSleepClient(srv *httptest.Server) *Client {
	c := New(Config{BaseURL: srv.URL, BearerToken: "tok", StreamCodec: "PCMU", StreamTrack: "both_tracks"}, commons.NewTestLogger())
	c.sleep = func(time.Duration) {} // tests don't want to actually wait on backoff
	return c
}

func TestAnswer_StripsMediaFormatAndInjectsStreamCodec(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calls/call-1/actions/answer", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		json.NewDecoder(r.Body).Decode(&captured)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := noSleepClient(srv)
	err := c.Answer(context.Background(), "call-1", &AnswerStreamOptions{
		StreamURL:   "wss://carrier/stream",
		MediaFormat: "pcmu/8000",
	})
	require.NoError(t, err)
	assert.Equal(t, "wss://carrier/stream", captured["stream_url"])
	assert.Equal(t, "PCMU", captured["stream_codec"])
	assert.Equal(t, "both_tracks", captured["stream_track"])
	_, hasMediaFormat := captured["media_format"]
	assert.False(t, hasMediaFormat, "media_format must never be sent on answer")
}

func TestDoAction_RetriesOn500ThenSucceeds(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := noSleepClient(srv)
	err := c.Hangup(context.Background(), "call-1")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestDoAction_ExhaustsRetriesOn429(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := noSleepClient(srv)
	err := c.Hangup(context.Background(), "call-1")
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts), "1 initial + 2 retries")
}

func TestDoAction_AlreadyEnded422TreatedAsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"call has already ended"}`))
	}))
	defer srv.Close()

	c := noSleepClient(srv)
	err := c.Hangup(context.Background(), "call-1")
	require.NoError(t, err)
}

func TestDoAction_Non5xxErrorNotRetried(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := noSleepClient(srv)
	err := c.Hangup(context.Background(), "call-1")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestDoAction_AbortedContextNotRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := noSleepClient(srv)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Hangup(ctx, "call-1")
	require.Error(t, err)
}

func TestRedactToken_StripsTokenQueryParam(t *testing.T) {
	got := redactToken("wss://carrier.example/v1/telnyx/media/abc?token=supersecret&other=1")
	assert.NotContains(t, got, "supersecret")
	assert.Contains(t, got, "token=redacted")
}
