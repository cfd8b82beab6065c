// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package capacity

import "github.com/redis/go-redis/v9"

// admitScript implements the six-step admission algorithm as a
// single atomic server-side script, so no two callers can interleave and
// both observe count < cap with only one slot remaining.
//
// KEYS[1] global-active-set
// KEYS[2] tenant-active-set
// KEYS[3] tenant-rpm-counter-for-current-minute
// KEYS[4] tenant-concurrency-cap-override (may not exist)
// KEYS[5] tenant-rpm-cap-override (may not exist)
//
// ARGV[1] callControlId
// ARGV[2] globalCap
// ARGV[3] tenantCap (default, used if override unset/non-positive)
// ARGV[4] tenantRpmCap (default, used if override unset/non-positive)
// ARGV[5] ttlSeconds (active-set member TTL)
// ARGV[6] rpmBucketTTLSeconds
//
// redis.NewScript's Run method tries EVALSHA first and transparently falls
// back to EVAL on a NOSCRIPT reply — go-redis handles the fallback, so
// there's no script-cache bookkeeping to do here.
var admitScript = redis.NewScript(`
local callControlId = ARGV[1]
local globalCap = tonumber(ARGV[2])
local tenantCap = tonumber(ARGV[3])
local tenantRpmCap = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])
local rpmTTL = tonumber(ARGV[6])

local overrideConcurrency = redis.call('GET', KEYS[4])
if overrideConcurrency and tonumber(overrideConcurrency) and tonumber(overrideConcurrency) > 0 then
	tenantCap = tonumber(overrideConcurrency)
end

local overrideRpm = redis.call('GET', KEYS[5])
if overrideRpm and tonumber(overrideRpm) and tonumber(overrideRpm) > 0 then
	tenantRpmCap = tonumber(overrideRpm)
end

if redis.call('SISMEMBER', KEYS[1], callControlId) == 1 or redis.call('SISMEMBER', KEYS[2], callControlId) == 1 then
	redis.call('SADD', KEYS[1], callControlId)
	redis.call('EXPIRE', KEYS[1], ttl)
	redis.call('SADD', KEYS[2], callControlId)
	redis.call('EXPIRE', KEYS[2], ttl)
	return 'ok'
end

if redis.call('SCARD', KEYS[1]) >= globalCap then
	return 'global_at_capacity'
end

if redis.call('SCARD', KEYS[2]) >= tenantCap then
	return 'tenant_at_capacity'
end

local rpm = tonumber(redis.call('GET', KEYS[3]))
if rpm and rpm >= tenantRpmCap then
	return 'tenant_rate_limited'
end

redis.call('SADD', KEYS[1], callControlId)
redis.call('EXPIRE', KEYS[1], ttl)
redis.call('SADD', KEYS[2], callControlId)
redis.call('EXPIRE', KEYS[2], ttl)

local newRpm = redis.call('INCR', KEYS[3])
if newRpm == 1 then
	redis.call('EXPIRE', KEYS[3], rpmTTL)
end

return 'ok'
`)

// releaseScript removes callControlId from both active sets atomically.
var releaseScript = redis.NewScript(`
redis.call('SREM', KEYS[1], ARGV[1])
redis.call('SREM', KEYS[2], ARGV[1])
return 1
`)
