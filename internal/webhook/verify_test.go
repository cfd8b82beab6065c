// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package webhook

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signHMAC(t *testing.T, secret []byte, ts string, body []byte) string {
	t.Helper()
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(ts + "." + string(body)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerify_HMACSuccess(t *testing.T) {
	secret := []byte("shared-secret")
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	ts := strconv.FormatInt(now.Unix(), 10)
	body := []byte(`{"event":"call.ended"}`)

	req := Request{
		RawBody:   body,
		Timestamp: ts,
		Signature: signHMAC(t, secret, ts, body),
		Scheme:    SchemeHMACSHA256,
	}

	res, err := Verify(req, Keyset{HMACSecret: secret}, now)
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.False(t, res.Bypassed)
}

func TestVerify_HMACWrongSecretRejected(t *testing.T) {
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	ts := strconv.FormatInt(now.Unix(), 10)
	body := []byte(`{"event":"call.ended"}`)

	req := Request{
		RawBody:   body,
		Timestamp: ts,
		Signature: signHMAC(t, []byte("attacker-secret"), ts, body),
		Scheme:    SchemeHMACSHA256,
	}

	_, err := Verify(req, Keyset{HMACSecret: []byte("shared-secret")}, now)
	require.Error(t, err)
	var webhookErr *Error
	require.ErrorAs(t, err, &webhookErr)
	assert.Equal(t, "signature_mismatch", webhookErr.Reason)
}

func TestVerify_Ed25519Success(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	ts := strconv.FormatInt(now.Unix(), 10)
	body := []byte(`{"event":"call.started"}`)
	message := []byte(ts + "." + string(body))
	sig := ed25519.Sign(priv, message)

	req := Request{
		RawBody:   body,
		Timestamp: ts,
		Signature: base64.StdEncoding.EncodeToString(sig),
		Scheme:    SchemeEd25519,
	}

	res, err := Verify(req, Keyset{Ed25519PublicKey: pub}, now)
	require.NoError(t, err)
	assert.True(t, res.Verified)
}

func TestVerify_TimestampAtSkewBoundaryAccepted(t *testing.T) {
	secret := []byte("shared-secret")
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	ts := strconv.FormatInt(now.Add(-300*time.Second).Unix(), 10)
	body := []byte(`{}`)

	req := Request{
		RawBody:   body,
		Timestamp: ts,
		Signature: signHMAC(t, secret, ts, body),
		Scheme:    SchemeHMACSHA256,
	}

	res, err := Verify(req, Keyset{HMACSecret: secret}, now)
	require.NoError(t, err)
	assert.True(t, res.Verified)
}

func TestVerify_TimestampPastSkewBoundaryRejected(t *testing.T) {
	secret := []byte("shared-secret")
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	ts := strconv.FormatInt(now.Add(-301*time.Second).Unix(), 10)
	body := []byte(`{}`)

	req := Request{
		RawBody:   body,
		Timestamp: ts,
		Signature: signHMAC(t, secret, ts, body),
		Scheme:    SchemeHMACSHA256,
	}

	_, err := Verify(req, Keyset{HMACSecret: secret}, now)
	require.Error(t, err)
	var webhookErr *Error
	require.ErrorAs(t, err, &webhookErr)
	assert.Equal(t, "timestamp_out_of_range", webhookErr.Reason)
}

func TestVerify_MillisecondTimestampNormalized(t *testing.T) {
	secret := []byte("shared-secret")
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	tsMs := strconv.FormatInt(now.UnixMilli(), 10)
	body := []byte(`{}`)

	req := Request{
		RawBody:   body,
		Timestamp: tsMs,
		Signature: signHMAC(t, secret, tsMs, body),
		Scheme:    SchemeHMACSHA256,
	}

	res, err := Verify(req, Keyset{HMACSecret: secret}, now)
	require.NoError(t, err)
	assert.True(t, res.Verified)
}

func TestVerify_MissingHeadersRejected(t *testing.T) {
	_, err := Verify(Request{RawBody: []byte("x")}, Keyset{HMACSecret: []byte("s")}, time.Now())
	require.Error(t, err)
	var webhookErr *Error
	require.ErrorAs(t, err, &webhookErr)
	assert.Equal(t, "missing_headers", webhookErr.Reason)
}

func TestVerify_DevBypassSkipsVerificationAndReportsIt(t *testing.T) {
	res, err := Verify(Request{}, Keyset{DevBypass: true}, time.Now())
	require.NoError(t, err)
	assert.True(t, res.Bypassed)
	assert.False(t, res.Verified)
}

func TestParseEd25519PublicKey_RawAndBase64(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	fromB64, err := ParseEd25519PublicKey(base64.StdEncoding.EncodeToString(pub))
	require.NoError(t, err)
	assert.Equal(t, pub, fromB64)
}
