// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package audioring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRing_TrimsToMaxDuration(t *testing.T) {
	r := New(16000, 300) // 4800 samples max
	r.Add(make([]int16, 4000))
	r.Add(make([]int16, 4000))
	assert.Equal(t, 4800, len(r.Snapshot()))
	assert.Equal(t, 300, r.DurationMs())
}

func TestRing_SnapshotIsImmutableCopy(t *testing.T) {
	r := New(16000, 300)
	r.Add([]int16{1, 2, 3})
	snap := r.Snapshot()
	snap[0] = 999
	assert.Equal(t, int16(1), r.Snapshot()[0])
}

func TestRing_Reset(t *testing.T) {
	r := New(16000, 300)
	r.Add(make([]int16, 100))
	r.Reset()
	assert.Empty(t, r.Snapshot())
	assert.Equal(t, 0, r.DurationMs())
}

func TestRing_ResizeTrimsImmediately(t *testing.T) {
	r := New(16000, 800)
	r.Add(make([]int16, 16000*800/1000))
	r.Resize(300)
	assert.Equal(t, 300, r.DurationMs())
}
