package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignPayload returns the hex HMAC-SHA256 of raw under secret.
func SignPayload(raw []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(raw)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a device signature over the raw request body.
func VerifySignature(raw []byte, secret string, provided string) bool {
	expected := SignPayload(raw, secret)
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(provided)))
}
