// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package mediaingest

import "encoding/base64"

// minPayloadBytes is the score floor for a decoded candidate; amrWbMinPayloadBytes
// applies instead when the negotiated codec is AMR-WB.
const (
	minPayloadBytes       = 10
	amrWbMinPayloadBytes  = 20
)

// candidate is one base64 string found at some path in the carrier frame,
// together with its decoded form.
type candidate struct {
	path    string
	decoded []byte
}

// ExtractBestPayload walks every string value in a decoded carrier media
// frame, base64-decodes each, and returns the best-scoring candidate: the
// one with the largest decoded length that still clears the codec's
// threshold. Picking the first non-empty payload is wrong — carriers often
// echo the payload under more than one field path, and the first one seen
// is frequently a truncated or placeholder value (the "tiny-payload
// pathology": payload_len=4, decoded_len=2).
func ExtractBestPayload(frame map[string]interface{}, codec Codec) ([]byte, bool) {
	threshold := minPayloadBytes
	if codec == CodecAMRWB {
		threshold = amrWbMinPayloadBytes
	}

	var candidates []candidate
	collectCandidates("", frame, &candidates)

	var best *candidate
	for i := range candidates {
		c := &candidates[i]
		if len(c.decoded) < threshold {
			continue
		}
		if best == nil || len(c.decoded) > len(best.decoded) {
			best = c
		}
	}
	if best == nil {
		return nil, false
	}
	return best.decoded, true
}

func collectCandidates(prefix string, v interface{}, out *[]candidate) {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, child := range t {
			collectCandidates(prefix+"."+k, child, out)
		}
	case []interface{}:
		for _, child := range t {
			collectCandidates(prefix, child, out)
		}
	case string:
		if t == "" {
			return
		}
		decoded, err := base64.StdEncoding.DecodeString(t)
		if err != nil {
			decoded, err = base64.RawStdEncoding.DecodeString(t)
			if err != nil {
				return
			}
		}
		*out = append(*out, candidate{path: prefix, decoded: decoded})
	}
}
