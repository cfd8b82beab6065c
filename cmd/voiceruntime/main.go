// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

// Command voiceruntime runs the multi-tenant telephony voice runtime: it
// loads configuration, wires every component, and serves the carrier
// webhook, media WebSocket, and health endpoints until a shutdown signal
// arrives.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veralux-ai/voice-runtime/internal/callcontrol"
	"github.com/veralux-ai/voice-runtime/internal/capacity"
	"github.com/veralux-ai/voice-runtime/internal/commons"
	"github.com/veralux-ai/voice-runtime/internal/config"
	"github.com/veralux-ai/voice-runtime/internal/coordinator"
	"github.com/veralux-ai/voice-runtime/internal/httpapi"
	"github.com/veralux-ai/voice-runtime/internal/mediaingest"
	"github.com/veralux-ai/voice-runtime/internal/providers/brain"
	"github.com/veralux-ai/voice-runtime/internal/providers/stt"
	"github.com/veralux-ai/voice-runtime/internal/providers/tenant"
	"github.com/veralux-ai/voice-runtime/internal/providers/tts"
	"github.com/veralux-ai/voice-runtime/internal/session"
	internalstt "github.com/veralux-ai/voice-runtime/internal/stt"
	"github.com/veralux-ai/voice-runtime/internal/webhook"
)

func main() {
	if err := run(); err != nil {
		log := fmt.Sprintf("voiceruntime: fatal: %v\n", err)
		os.Stderr.WriteString(log)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := commons.NewApplicationLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.Capacity.RedisURL)
	if err != nil {
		return fmt.Errorf("redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)

	admitter := capacity.New(redisClient, capacity.Defaults{
		GlobalCap:    cfg.Capacity.GlobalConcurrencyCap,
		TenantCap:    cfg.Capacity.TenantConcurrencyCapDefault,
		TenantRPMCap: cfg.Capacity.TenantCallsPerMinCapDefault,
	}, logger)

	resolver := tenant.New(redisClient, tenant.Config{
		TenantMapPrefix: cfg.Capacity.TenantMapPrefix,
		TenantCfgPrefix: cfg.Capacity.TenantCfgPrefix,
	}, logger)

	keys := webhook.Keyset{DevBypass: cfg.Telnyx.SkipSignature}
	if !cfg.Telnyx.SkipSignature && cfg.Telnyx.PublicKey != "" {
		pub, err := webhook.ParseEd25519PublicKey(cfg.Telnyx.PublicKey)
		if err != nil {
			return fmt.Errorf("telnyx public key: %w", err)
		}
		keys.Ed25519PublicKey = pub
	}

	callControl := callcontrol.New(callcontrol.Config{
		BaseURL:     "https://api.telnyx.com/v2/calls",
		BearerToken: cfg.Telnyx.APIKey,
		StreamCodec: cfg.Telnyx.StreamCodec,
		StreamTrack: cfg.Telnyx.StreamTrack,
	}, logger)

	sessions := session.NewManager(logger)
	ingests := httpapi.NewIngestRegistry()

	wh := &httpapi.WebhookHandler{
		Keys:             keys,
		Resolver:         resolver,
		Admitter:         admitter,
		CallControl:      callControl,
		Sessions:         sessions,
		Ingests:          ingests,
		NewSession:       newSessionFactory(cfg, logger, callControl, admitter),
		MediaBaseURL:     cfg.PublicBaseURL + "/v1/telnyx/media",
		MediaStreamToken: cfg.MediaStreamToken,
		Logger:           logger,
	}
	mh := &httpapi.MediaHandler{Token: cfg.MediaStreamToken, Sessions: sessions, Ingests: ingests, Logger: logger}
	health := &httpapi.Health{Redis: redisClient}

	engine := httpapi.NewRouter(logger, wh, mh, health)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: engine}

	serveErr := make(chan error, 1)
	go func() {
		logger.Infow("voiceruntime: listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return fmt.Errorf("server: %w", err)
	case <-sigChan:
		logger.Info("voiceruntime: shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return redisClient.Close()
}

// newSessionFactory builds the httpapi.SessionFactory closure that wires a
// fresh Coordinator, STT Pipeline, and provider set for each admitted call.
func newSessionFactory(cfg *config.AppConfig, logger commons.Logger, callControl *callcontrol.Client, admitter *capacity.Admitter) httpapi.SessionFactory {
	sttClient := stt.New(cfg.WhisperURL, "", logger)
	ttsClient := tts.New(cfg.KokoroURL, logger)
	brainClient := brain.New(cfg.BrainURL+"/reply", cfg.BrainURL+"/reply/stream", logger)

	return func(tenantID, callControlID, from, to string) (*session.Session, *mediaingest.Ingest, error) {
		callLogger := logger.With("tenant_id", tenantID, "call_control_id", callControlID)

		coord := coordinator.New(coordinator.DefaultConfig(), coordinator.Callbacks{}, callLogger)

		ing, err := mediaingest.NewIngest(mediaingest.Config{
			Codec:        mediaingest.Codec(cfg.Telnyx.StreamCodec),
			TargetRateHz: cfg.Telnyx.TargetSampleRate,
			Track:        mapStreamTrack(cfg.Telnyx.StreamTrack),
			MaxRestarts:  cfg.MaxRestartAttempts,
		}, mediaingest.TransportPSTN, callLogger)
		if err != nil {
			return nil, nil, fmt.Errorf("media ingest: %w", err)
		}

		// sess is referenced by the pipeline's OnTranscript callback before
		// it exists; the callback only ever fires from a media frame the
		// session's own event loop hands the pipeline, which cannot happen
		// until after session.New returns and assigns sess below.
		var sess *session.Session
		pipeline := internalstt.NewPipeline(sttConfigFrom(cfg), internalstt.Callbacks{
			OnSpeechStart: func(info internalstt.SpeechStartInfo) {
				coord.OnSpeechStart(info.AtMs)
				if info.FromBargeIn {
					go func() {
						if err := callControl.StopPlayback(context.Background(), callControlID); err != nil {
							callLogger.Warnw("barge-in stop playback failed", "error", err)
						}
					}()
				}
			},
			OnTranscript: func(text string, source internalstt.Source, sampleCount int) {
				sess.Enqueue(session.SttResultEvent{Text: text, Source: source, SampleCount: sampleCount})
			},
		}, sttClient, coord, nil, callLogger)

		sess = session.New(session.Deps{
			Coordinator:   coord,
			Pipeline:      pipeline,
			CallControl:   callControl,
			Admitter:      admitter,
			Brain:         brainClient,
			TTS:           ttsClient,
			Logger:        callLogger,
			TenantID:      tenantID,
			CallControlID: callControlID,
			TTSFormat:     "pcm16",
			TTSSampleRate: cfg.Telnyx.TargetSampleRate,
		})

		return sess, ing, nil
	}
}

func mapStreamTrack(track string) mediaingest.TrackSelector {
	switch track {
	case "inbound_track":
		return mediaingest.TrackInbound
	case "outbound_track":
		return mediaingest.TrackOutbound
	default:
		return mediaingest.TrackBoth
	}
}

func sttConfigFrom(cfg *config.AppConfig) internalstt.Config {
	c := internalstt.DefaultConfig()
	c.SampleRateHz = cfg.Telnyx.TargetSampleRate
	if cfg.Stt.SilenceEndMs > 0 {
		c.SilenceEndMs = cfg.Stt.SilenceEndMs
	}
	if cfg.Stt.PreRollMs > 0 {
		c.PreRollMs = cfg.Stt.PreRollMs
	}
	if cfg.Stt.MaxUtteranceMs > 0 {
		c.MaxUtteranceMs = cfg.Stt.MaxUtteranceMs
	}
	if cfg.Stt.RMSFloor > 0 {
		c.RmsFloor = cfg.Stt.RMSFloor
	}
	if cfg.Stt.PeakFloor > 0 {
		c.PeakFloor = cfg.Stt.PeakFloor
	}
	if cfg.Stt.SpeechFramesRequired > 0 {
		c.SpeechFramesRequired = cfg.Stt.SpeechFramesRequired
	}
	if cfg.Stt.SilenceFramesRequired > 0 {
		c.SilenceFramesRequired = cfg.Stt.SilenceFramesRequired
	}
	if cfg.Stt.PartialIntervalMs > 0 {
		c.PartialIntervalMs = cfg.Stt.PartialIntervalMs
	}
	if cfg.Stt.PostPlaybackGraceMs > 0 {
		c.PostPlaybackGraceMs = cfg.Stt.PostPlaybackGraceMs
	}
	if cfg.Stt.LateFinalWatchdogMs > 0 {
		c.LateFinalWatchdogMs = cfg.Stt.LateFinalWatchdogMs
	}
	return c
}
