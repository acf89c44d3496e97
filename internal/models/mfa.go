package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// PendingChallenge is the single live OTP challenge of a user. Only the digest of the code is kept.
type PendingChallenge struct {
	CodeDigest string
	ExpiresAt  time.Time
	Attempts   int
	LastSentAt time.Time
}

// IsLive reports whether the challenge carries a digest and expiry and has not expired at now.
func (p *PendingChallenge) IsLive(now time.Time) bool {
	return p != nil && p.CodeDigest != "" && !p.ExpiresAt.IsZero() && now.Before(p.ExpiresAt)
}

// Reusable reports whether Start may hand the challenge out again: live, with guesses left.
func (p *PendingChallenge) Reusable(now time.Time, maxAttempts int) bool {
	return p.IsLive(now) && p.Attempts < maxAttempts
}

const VerifiedStateOK = "ok"

// VerifiedState marks that the second factor was satisfied for a user.
type VerifiedState struct {
	State     string
	UpdatedAt time.Time
}

// MFAStartBody is the request body of POST /mfa/start.
type MFAStartBody struct {
	IDToken string          `json:"idToken"`
	UID     string          `json:"uid"     validate:"max=128"`
	Session json.RawMessage `json:"session"`
	Email   string          `json:"email"   validate:"omitempty,max=320"`
}

// MFAVerifyBody is the request body of POST /mfa/verify.
type MFAVerifyBody struct {
	IDToken string          `json:"idToken"`
	UID     string          `json:"uid"     validate:"max=128"`
	Code    OTPCode         `json:"code"    validate:"max=16"`
	Session json.RawMessage `json:"session"`
}

type MFAStartResponse struct {
	OK      bool `json:"ok"`
	Reused  bool `json:"reused,omitempty"`
	Created bool `json:"created,omitempty"`
}

type MFAVerifyResponse struct {
	OK bool `json:"ok"`
}

// OTPCode accepts the code either as a JSON string or as a bare JSON number.
type OTPCode string

func (c *OTPCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = OTPCode(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("code must be a string or a number")
	}
	*c = OTPCode(n.String())
	return nil
}

// SessionPresent reports whether a session value was supplied. JSON null counts as absent.
func SessionPresent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
