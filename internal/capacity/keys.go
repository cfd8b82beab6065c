// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

// Package capacity implements atomic admission control: a global
// concurrency cap, a per-tenant concurrency cap, and a per-tenant
// requests-per-minute cap, all enforced by a single Redis Lua script so no
// caller can race another into overshooting a cap.
package capacity

import (
	"fmt"
	"time"
)

const (
	globalActiveKey = "{capacity}:active:global"

	defaultTTLSeconds     = 180
	rpmBucketTTLSeconds   = 120
)

func tenantActiveKey(tenantID string) string {
	return fmt.Sprintf("{capacity}:active:tenant:%s", tenantID)
}

func tenantRPMKey(tenantID string, minuteUTC time.Time) string {
	return fmt.Sprintf("{capacity}:rpm:tenant:%s:%s", tenantID, minuteBucket(minuteUTC))
}

func tenantConcurrencyOverrideKey(tenantID string) string {
	return fmt.Sprintf("{capacity}:override:concurrency:%s", tenantID)
}

func tenantRPMOverrideKey(tenantID string) string {
	return fmt.Sprintf("{capacity}:override:rpm:%s", tenantID)
}

// minuteBucket formats t as YYYYMMDDHHMM in UTC
func minuteBucket(t time.Time) string {
	return t.UTC().Format("200601021504")
}
