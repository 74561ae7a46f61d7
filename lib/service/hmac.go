// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// SignatureHeader carries the webhook body's HMAC-SHA256.
const SignatureHeader = "X-Hub-Signature-256"

// VerifyWebhookHMAC checks signature, the hex HMAC-SHA256 of body
// under secret with an optional "sha256=" prefix. Errors are safe to
// log: they never include the expected digest.
func VerifyWebhookHMAC(secret, body []byte, signature string) error {
	if len(secret) == 0 {
		return errors.New("webhook HMAC: secret is empty")
	}
	if len(body) == 0 {
		return errors.New("webhook HMAC: body is empty")
	}
	if signature == "" {
		return errors.New("webhook HMAC: signature is empty")
	}

	signatureBytes, err := hex.DecodeString(strings.TrimPrefix(signature, "sha256="))
	if err != nil {
		return fmt.Errorf("webhook HMAC: invalid hex signature: %w", err)
	}

	if subtle.ConstantTimeCompare(SignWebhook(secret, body), signatureBytes) != 1 {
		return errors.New("webhook HMAC: signature mismatch")
	}
	return nil
}

// SignWebhook returns the raw HMAC-SHA256 of body under secret.
func SignWebhook(secret, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return mac.Sum(nil)
}

// SignatureValue formats a signature header value for body.
func SignatureValue(secret, body []byte) string {
	return "sha256=" + hex.EncodeToString(SignWebhook(secret, body))
}
