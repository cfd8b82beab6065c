// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

// Package webhook implements signed carrier-webhook verification: Ed25519
// or HMAC-SHA256 signatures over "{timestamp}.{rawBody}", a bounded
// clock-skew window, and constant-time comparison throughout.
package webhook

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Scheme identifies which signature algorithm to verify with.
type Scheme string

const (
	SchemeEd25519   Scheme = "ed25519"
	SchemeHMACSHA256 Scheme = "hmac-sha256"

	// maxSkew is the "|now - ts| <= 300s" bound.
	maxSkew = 300 * time.Second
)

// Request is one webhook delivery's signature material.
type Request struct {
	RawBody   []byte
	Signature string
	Timestamp string
	Scheme    Scheme
}

// Keyset holds the verification material for both schemes; a caller
// configures whichever scheme its carrier integration uses.
type Keyset struct {
	Ed25519PublicKey ed25519.PublicKey
	HMACSecret       []byte

	// DevBypass, when true, skips verification entirely. Callers must
	// still be told verification was skipped.
	DevBypass bool
}

// Result reports whether the signature verified and whether verification
// was explicitly bypassed.
type Result struct {
	Verified bool
	Bypassed bool
}

// Error is a tagged verification failure with one of a small set of
// enumerated rejection reasons.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return "webhook: " + e.Reason }

func newError(reason string) *Error { return &Error{Reason: reason} }

// Verify checks req against keys, returning a tagged Error for any
// rejection and never for a successful bypass.
func Verify(req Request, keys Keyset, now time.Time) (Result, error) {
	if keys.DevBypass {
		return Result{Verified: false, Bypassed: true}, nil
	}

	if req.Signature == "" || req.Timestamp == "" {
		return Result{}, newError("missing_headers")
	}

	ts, err := parseTimestamp(req.Timestamp)
	if err != nil {
		return Result{}, newError("invalid_timestamp")
	}

	skew := now.Sub(ts)
	if skew < 0 {
		skew = -skew
	}
	if skew > maxSkew {
		return Result{}, newError("timestamp_out_of_range")
	}

	message := []byte(req.Timestamp + "." + string(req.RawBody))

	switch req.Scheme {
	case SchemeEd25519:
		if len(keys.Ed25519PublicKey) == 0 {
			return Result{}, newError("no_key_configured")
		}
		sig, err := decodeSignature(req.Signature)
		if err != nil {
			return Result{}, newError("invalid_signature_encoding")
		}
		if !ed25519.Verify(keys.Ed25519PublicKey, message, sig) {
			return Result{}, newError("signature_mismatch")
		}
	case SchemeHMACSHA256:
		if len(keys.HMACSecret) == 0 {
			return Result{}, newError("no_key_configured")
		}
		sig, err := decodeSignature(req.Signature)
		if err != nil {
			return Result{}, newError("invalid_signature_encoding")
		}
		mac := hmac.New(sha256.New, keys.HMACSecret)
		mac.Write(message)
		expected := mac.Sum(nil)
		if subtle.ConstantTimeCompare(expected, sig) != 1 {
			return Result{}, newError("signature_mismatch")
		}
	default:
		return Result{}, newError("unsupported_scheme")
	}

	return Result{Verified: true}, nil
}

// parseTimestamp accepts integer seconds or milliseconds, normalizing to a
// time.Time.
func parseTimestamp(raw string) (time.Time, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	// A value above 9999999999 (11 digits or more) is milliseconds; 10
	// digits or fewer is seconds. Second values stay within 10 digits until
	// the year 2286, and current millisecond values have 13 digits.
	if n > 9999999999 {
		return time.UnixMilli(n), nil
	}
	return time.Unix(n, 0), nil
}

// decodeSignature accepts base64 (standard or URL-safe) or hex encoding.
func decodeSignature(sig string) ([]byte, error) {
	// Hex is tried first: a hex string whose length is a multiple of 4 is
	// also valid standard base64 and would otherwise decode to wrong bytes.
	if b, err := hex.DecodeString(sig); err == nil {
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(sig); err == nil {
		return b, nil
	}
	if b, err := base64.URLEncoding.DecodeString(sig); err == nil {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(sig); err == nil {
		return b, nil
	}
	return nil, fmt.Errorf("webhook: unrecognized signature encoding")
}

// ParseEd25519PublicKey accepts a PEM block, raw DER, base64, or hex
// encoded Ed25519 public key.
func ParseEd25519PublicKey(raw string) (ed25519.PublicKey, error) {
	raw = strings.TrimSpace(raw)
	if block, _ := pem.Decode([]byte(raw)); block != nil {
		return parseRawEd25519(block.Bytes)
	}
	if b, err := hex.DecodeString(raw); err == nil {
		if key, err2 := parseRawEd25519(b); err2 == nil {
			return key, nil
		}
	}
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
		if key, err2 := parseRawEd25519(b); err2 == nil {
			return key, nil
		}
	}
	return nil, fmt.Errorf("webhook: unrecognized ed25519 public key encoding")
}

// parseRawEd25519 accepts either a bare 32-byte seed/public key or a
// PKIX-wrapped DER public key whose last 32 bytes are the raw key — the
// runtime only needs to verify with it, not round-trip it, so the simpler
// trailing-32-bytes extraction covers both PKIX and raw encodings.
func parseRawEd25519(der []byte) (ed25519.PublicKey, error) {
	if len(der) == ed25519.PublicKeySize {
		return ed25519.PublicKey(der), nil
	}
	if len(der) > ed25519.PublicKeySize {
		return ed25519.PublicKey(der[len(der)-ed25519.PublicKeySize:]), nil
	}
	return nil, fmt.Errorf("webhook: ed25519 key too short")
}
