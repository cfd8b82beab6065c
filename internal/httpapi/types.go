// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

// Package httpapi is the thin Gin routing layer tying the carrier-facing
// webhook, the media WebSocket, and the health endpoints to the session
// manager and every other component. It holds no algorithmic logic of its
// own — every decision (signature verification, admission, coordination,
// endpointing) lives in the package it delegates to.
package httpapi

import (
	"sync"

	"github.com/veralux-ai/voice-runtime/internal/mediaingest"
)

// IngestRegistry indexes one active mediaingest.Ingest per call-control-id,
// the media-handler counterpart to internal/session.Manager's session
// index — the same bare-map-behind-a-mutex shape, since both are
// in-process lookups with no I/O surface of their own.
type IngestRegistry struct {
	mu      sync.Mutex
	ingests map[string]*mediaingest.Ingest
}

// NewIngestRegistry builds an empty registry.
func NewIngestRegistry() *IngestRegistry {
	return &IngestRegistry{ingests: make(map[string]*mediaingest.Ingest)}
}

// Register adds an Ingest under its call-control-id.
func (r *IngestRegistry) Register(callControlID string, ig *mediaingest.Ingest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ingests[callControlID] = ig
}

// Lookup returns the Ingest for a call-control-id, or nil if none exists.
func (r *IngestRegistry) Lookup(callControlID string) *mediaingest.Ingest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ingests[callControlID]
}

// Deregister removes a call-control-id's Ingest from the index.
func (r *IngestRegistry) Deregister(callControlID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ingests, callControlID)
}
