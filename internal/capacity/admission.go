// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package capacity

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veralux-ai/voice-runtime/internal/commons"
)

// Reason is the rejection reason returned alongside ok=false.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonGlobalAtCapacity   Reason = "global_at_capacity"
	ReasonTenantAtCapacity   Reason = "tenant_at_capacity"
	ReasonTenantRateLimited  Reason = "tenant_rate_limited"
)

// Defaults holds the capacity caps used when no per-tenant override is set
// in Redis.
type Defaults struct {
	GlobalCap    int
	TenantCap    int
	TenantRPMCap int
}

// DefaultDefaults are conservative caps suitable for a single small
// deployment; production tenants are expected to override via config.
func DefaultDefaults() Defaults {
	return Defaults{GlobalCap: 500, TenantCap: 50, TenantRPMCap: 120}
}

// Request is the tryAcquire contract: which tenant and call are asking to
// be admitted, and when.
type Request struct {
	TenantID      string
	CallControlID string
	Now           time.Time
}

// Result is tryAcquire's outcome.
type Result struct {
	OK     bool
	Reason Reason
}

// Admitter enforces global/tenant concurrency and tenant rate limits via a
// single atomic Redis script.
type Admitter struct {
	client   *redis.Client
	defaults Defaults
	logger   commons.Logger
}

// New builds an Admitter over an existing redis client.
func New(client *redis.Client, defaults Defaults, logger commons.Logger) *Admitter {
	return &Admitter{client: client, defaults: defaults, logger: logger}
}

// TryAcquire runs the atomic admission script. It is idempotent: calling it
// again with a callControlId already admitted refreshes TTLs and returns OK
// without re-checking any cap.
func (a *Admitter) TryAcquire(ctx context.Context, req Request) (Result, error) {
	if req.CallControlID == "" {
		return Result{}, fmt.Errorf("capacity: callControlId is required")
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	keys := []string{
		globalActiveKey,
		tenantActiveKey(req.TenantID),
		tenantRPMKey(req.TenantID, now),
		tenantConcurrencyOverrideKey(req.TenantID),
		tenantRPMOverrideKey(req.TenantID),
	}
	argv := []interface{}{
		req.CallControlID,
		a.defaults.GlobalCap,
		a.defaults.TenantCap,
		a.defaults.TenantRPMCap,
		defaultTTLSeconds,
		rpmBucketTTLSeconds,
	}

	reply, err := admitScript.Run(ctx, a.client, keys, argv...).Text()
	if err != nil {
		return Result{}, fmt.Errorf("capacity: admission script failed: %w", err)
	}

	if reply == "ok" {
		return Result{OK: true}, nil
	}
	reason := Reason(reply)
	if a.logger != nil {
		a.logger.Debugw("call admission rejected", "tenant_id", req.TenantID, "reason", reason)
	}
	return Result{OK: false, Reason: reason}, nil
}

// Release removes callControlId from both the global and tenant active
// sets, freeing its concurrency slot.
func (a *Admitter) Release(ctx context.Context, tenantID, callControlID string) error {
	keys := []string{globalActiveKey, tenantActiveKey(tenantID)}
	if err := releaseScript.Run(ctx, a.client, keys, callControlID).Err(); err != nil {
		return fmt.Errorf("capacity: release script failed: %w", err)
	}
	return nil
}
