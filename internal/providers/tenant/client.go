// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

// Package tenant resolves an inbound DID to a tenant id and fetches a
// tenant's JSON configuration blob, both single-key Redis lookups.
// Resolving a DID to a tenant is explicitly out of scope for the core
// admission/media pipeline beyond a single key lookup — this package is
// exactly that lookup, kept deliberately thin.
package tenant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/veralux-ai/voice-runtime/internal/commons"
)

// ErrNotFound is returned when a DID or tenant id has no mapping.
var ErrNotFound = fmt.Errorf("tenant: not found")

// Config holds the two key-prefixes configurable as environment settings
// (TENANTMAP_PREFIX, TENANTCFG_PREFIX).
type Config struct {
	TenantMapPrefix string
	TenantCfgPrefix string
}

// Resolver looks up tenant identity and configuration in Redis.
type Resolver struct {
	client *redis.Client
	cfg    Config
	logger commons.Logger
}

// New builds a Resolver.
func New(client *redis.Client, cfg Config, logger commons.Logger) *Resolver {
	return &Resolver{client: client, cfg: cfg, logger: logger}
}

func (r *Resolver) didKey(e164 string) string {
	return fmt.Sprintf("%s:did:%s", r.cfg.TenantMapPrefix, e164)
}

func (r *Resolver) configKey(tenantID string) string {
	return fmt.Sprintf("%s:%s", r.cfg.TenantCfgPrefix, tenantID)
}

func (r *Resolver) concurrencyOverrideKey(tenantID string) string {
	return fmt.Sprintf("%s:tenant:%s:cap:concurrency", r.cfg.TenantMapPrefix, tenantID)
}

func (r *Resolver) rpmOverrideKey(tenantID string) string {
	return fmt.Sprintf("%s:tenant:%s:cap:rpm", r.cfg.TenantMapPrefix, tenantID)
}

// ResolveDID maps a caller/callee E.164 number to a tenant id.
func (r *Resolver) ResolveDID(ctx context.Context, e164 string) (string, error) {
	tenantID, err := r.client.Get(ctx, r.didKey(e164)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("tenant: did lookup: %w", err)
	}
	return tenantID, nil
}

// TenantConfig is a tenant's opaque JSON configuration blob, decoded on demand by
// callers that know its shape (voice selection, brain prompt, feature
// flags); this package only fetches and unmarshals it into the generic map.
type TenantConfig map[string]interface{}

// FetchConfig retrieves and decodes a tenant's configuration JSON.
func (r *Resolver) FetchConfig(ctx context.Context, tenantID string) (TenantConfig, error) {
	raw, err := r.client.Get(ctx, r.configKey(tenantID)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tenant: config lookup: %w", err)
	}
	var cfg TenantConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("tenant: malformed config for %q: %w", tenantID, err)
	}
	return cfg, nil
}

// CapOverrides reads the optional per-tenant concurrency/rpm cap overrides
// stored under this resolver's tenant keys. internal/capacity's admission
// script does not read these keys; it reads its own {capacity}:override:*
// keys, so a value stored here does not change admission. A missing key
// means "no override" (0).
func (r *Resolver) CapOverrides(ctx context.Context, tenantID string) (concurrency, rpm int, err error) {
	concurrency, err = r.getIntOrZero(ctx, r.concurrencyOverrideKey(tenantID))
	if err != nil {
		return 0, 0, err
	}
	rpm, err = r.getIntOrZero(ctx, r.rpmOverrideKey(tenantID))
	if err != nil {
		return 0, 0, err
	}
	return concurrency, rpm, nil
}

func (r *Resolver) getIntOrZero(ctx context.Context, key string) (int, error) {
	n, err := r.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("tenant: override lookup %q: %w", key, err)
	}
	return n, nil
}
