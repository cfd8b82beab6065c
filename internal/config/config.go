// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

// Package config loads the runtime's configuration from the environment via
// viper, with go-playground/validator enforcing required fields at startup:
// defaults are set on a fresh viper instance, then Unmarshal + Validate, so
// invalid config fails fast before the server ever binds a port.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// TelnyxConfig groups the Telnyx carrier-facing settings.
type TelnyxConfig struct {
	APIKey             string `mapstructure:"api_key" validate:"required"`
	PublicKey          string `mapstructure:"public_key"`
	StreamTrack        string `mapstructure:"stream_track" validate:"required,oneof=inbound_track outbound_track both_tracks"`
	StreamCodec        string `mapstructure:"stream_codec" validate:"required"`
	TargetSampleRate   int    `mapstructure:"target_sample_rate" validate:"required"`
	AcceptCodecs       string `mapstructure:"accept_codecs"`
	AmrwbDecode        bool   `mapstructure:"amrwb_decode"`
	G722Decode         bool   `mapstructure:"g722_decode"`
	OpusDecode         bool   `mapstructure:"opus_decode"`
	SkipSignature      bool   `mapstructure:"skip_signature"`
}

// SttConfig groups every STT_* tuning knob. Only the canonical names are
// exposed — legacy names like STT_RMS_THRESHOLD are intentionally not
// surfaced here.
type SttConfig struct {
	ChunkMs                int     `mapstructure:"chunk_ms"`
	SilenceMs              int     `mapstructure:"silence_ms"`
	SilenceEndMs           int     `mapstructure:"silence_end_ms"`
	PreRollMs              int     `mapstructure:"pre_roll_ms"`
	MinUtteranceMs         int     `mapstructure:"min_utterance_ms"`
	MaxUtteranceMs         int     `mapstructure:"max_utterance_ms"`
	RMSFloor               float64 `mapstructure:"rms_floor"`
	PeakFloor              float64 `mapstructure:"peak_floor"`
	SpeechFramesRequired   int     `mapstructure:"speech_frames_required"`
	SilenceFramesRequired  int     `mapstructure:"silence_frames_required"`
	PartialIntervalMs      int     `mapstructure:"partial_interval_ms"`
	PartialMinMs           int     `mapstructure:"partial_min_ms"`
	DisableGates           bool    `mapstructure:"disable_gates"`
	PostPlaybackGraceMs    int     `mapstructure:"post_playback_grace_ms"`
	LateFinalWatchdogMs    int     `mapstructure:"late_final_watchdog_ms"`
	VadEnabled             bool    `mapstructure:"vad_enabled"`
	VadThreshold           float64 `mapstructure:"vad_threshold"`
	RxPostprocessEnabled   bool    `mapstructure:"rx_postprocess_enabled"`
	RxDedupeWindow         int     `mapstructure:"rx_dedupe_window"`
	TrailingSilenceCushion int     `mapstructure:"trailing_silence_cushion_ms"`
}

// CapacityConfig groups the A5 admission defaults and key prefixes.
type CapacityConfig struct {
	RedisURL                     string `mapstructure:"redis_url" validate:"required"`
	GlobalConcurrencyCap         int    `mapstructure:"global_concurrency_cap" validate:"required,gt=0"`
	TenantConcurrencyCapDefault  int    `mapstructure:"tenant_concurrency_cap_default" validate:"required,gt=0"`
	TenantCallsPerMinCapDefault  int    `mapstructure:"tenant_calls_per_min_cap_default" validate:"required,gt=0"`
	TTLSeconds                   int    `mapstructure:"ttl_seconds" validate:"required,gt=0"`
	TenantMapPrefix              string `mapstructure:"tenantmap_prefix" validate:"required"`
	TenantCfgPrefix              string `mapstructure:"tenantcfg_prefix" validate:"required"`
	CapPrefix                    string `mapstructure:"cap_prefix" validate:"required"`
}

// AppConfig is the root configuration struct, unmarshalled from environment
// variables via viper's "__" key delimiter (ENV__NESTED style).
type AppConfig struct {
	Port             int    `mapstructure:"port" validate:"required"`
	LogLevel         string `mapstructure:"log_level" validate:"required"`
	MediaStreamToken string `mapstructure:"media_stream_token" validate:"required"`
	PublicBaseURL    string `mapstructure:"public_base_url"`
	AudioPublicBaseURL string `mapstructure:"audio_public_base_url"`
	AudioStorageDir  string `mapstructure:"audio_storage_dir"`
	DeadAirMs        int    `mapstructure:"dead_air_ms"`

	WhisperURL string `mapstructure:"whisper_url" validate:"required"`
	KokoroURL  string `mapstructure:"kokoro_url" validate:"required"`
	BrainURL   string `mapstructure:"brain_url" validate:"required"`

	Telnyx   TelnyxConfig    `mapstructure:"telnyx" validate:"required"`
	Stt      SttConfig       `mapstructure:"stt"`
	Capacity CapacityConfig  `mapstructure:"capacity" validate:"required"`

	MaxRestartAttempts int `mapstructure:"max_restart_attempts"`
}

// Load reads configuration from the environment (and an optional .env file
// named by ENV_PATH), applies defaults, and validates the result. A non-nil
// error here must cause the process to exit with a non-zero status; the
// caller logs which keys failed.
func Load() (*AppConfig, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter("__"))
	v.AddConfigPath(".")
	v.SetConfigName(".env")
	v.SetConfigType("env")
	if path := os.Getenv("ENV_PATH"); path != "" {
		v.SetConfigFile(path)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			log.Printf("config: error reading config file: %v", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal failed: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 9090)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MEDIA_STREAM_TOKEN", "")
	v.SetDefault("PUBLIC_BASE_URL", "")
	v.SetDefault("AUDIO_PUBLIC_BASE_URL", "")
	v.SetDefault("AUDIO_STORAGE_DIR", "./audio")
	v.SetDefault("DEAD_AIR_MS", 30000)
	v.SetDefault("MAX_RESTART_ATTEMPTS", 1)

	v.SetDefault("WHISPER_URL", "")
	v.SetDefault("KOKORO_URL", "")
	v.SetDefault("BRAIN_URL", "")

	v.SetDefault("TELNYX__API_KEY", "")
	v.SetDefault("TELNYX__PUBLIC_KEY", "")
	v.SetDefault("TELNYX__STREAM_TRACK", "both_tracks")
	v.SetDefault("TELNYX__STREAM_CODEC", "PCMU")
	v.SetDefault("TELNYX__TARGET_SAMPLE_RATE", 16000)
	v.SetDefault("TELNYX__ACCEPT_CODECS", "PCMU,PCMA,G722,OPUS,AMR-WB")
	v.SetDefault("TELNYX__AMRWB_DECODE", true)
	v.SetDefault("TELNYX__G722_DECODE", true)
	v.SetDefault("TELNYX__OPUS_DECODE", true)
	v.SetDefault("TELNYX__SKIP_SIGNATURE", false)

	v.SetDefault("STT__CHUNK_MS", 20)
	v.SetDefault("STT__SILENCE_MS", 300)
	v.SetDefault("STT__SILENCE_END_MS", 900)
	v.SetDefault("STT__PRE_ROLL_MS", 300)
	v.SetDefault("STT__MIN_UTTERANCE_MS", 150)
	v.SetDefault("STT__MAX_UTTERANCE_MS", 6000)
	v.SetDefault("STT__RMS_FLOOR", 0.01)
	v.SetDefault("STT__PEAK_FLOOR", 0.02)
	v.SetDefault("STT__SPEECH_FRAMES_REQUIRED", 3)
	v.SetDefault("STT__SILENCE_FRAMES_REQUIRED", 3)
	v.SetDefault("STT__PARTIAL_INTERVAL_MS", 250)
	v.SetDefault("STT__PARTIAL_MIN_MS", 150)
	v.SetDefault("STT__DISABLE_GATES", false)
	v.SetDefault("STT__POST_PLAYBACK_GRACE_MS", 650)
	v.SetDefault("STT__LATE_FINAL_WATCHDOG_MS", 8000)
	v.SetDefault("STT__VAD_ENABLED", true)
	v.SetDefault("STT__VAD_THRESHOLD", 0.5)
	v.SetDefault("STT__RX_POSTPROCESS_ENABLED", true)
	v.SetDefault("STT__RX_DEDUPE_WINDOW", 32)
	v.SetDefault("STT__TRAILING_SILENCE_CUSHION_MS", 120)

	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("GLOBAL_CONCURRENCY_CAP", 200)
	v.SetDefault("TENANT_CONCURRENCY_CAP_DEFAULT", 20)
	v.SetDefault("TENANT_CALLS_PER_MIN_CAP_DEFAULT", 30)
	v.SetDefault("CAPACITY_TTL_SECONDS", 600)
	v.SetDefault("TENANTMAP_PREFIX", "tenantmap")
	v.SetDefault("TENANTCFG_PREFIX", "tenantcfg")
	v.SetDefault("CAP_PREFIX", "cap")

	// CAPACITY__* aliases so the flat env names also map onto the nested
	// CapacityConfig struct without requiring callers to use "__".
	v.SetDefault("CAPACITY__REDIS_URL", v.GetString("REDIS_URL"))
	v.SetDefault("CAPACITY__GLOBAL_CONCURRENCY_CAP", v.GetInt("GLOBAL_CONCURRENCY_CAP"))
	v.SetDefault("CAPACITY__TENANT_CONCURRENCY_CAP_DEFAULT", v.GetInt("TENANT_CONCURRENCY_CAP_DEFAULT"))
	v.SetDefault("CAPACITY__TENANT_CALLS_PER_MIN_CAP_DEFAULT", v.GetInt("TENANT_CALLS_PER_MIN_CAP_DEFAULT"))
	v.SetDefault("CAPACITY__TTL_SECONDS", v.GetInt("CAPACITY_TTL_SECONDS"))
	v.SetDefault("CAPACITY__TENANTMAP_PREFIX", v.GetString("TENANTMAP_PREFIX"))
	v.SetDefault("CAPACITY__TENANTCFG_PREFIX", v.GetString("TENANTCFG_PREFIX"))
	v.SetDefault("CAPACITY__CAP_PREFIX", v.GetString("CAP_PREFIX"))
}

// MinuteBucket formats a timestamp as the UTC YYYYMMDDHHMM bucket key used
// by the per-tenant rpm counter.
func MinuteBucket(t time.Time) string {
	return t.UTC().Format("200601021504")
}
