package mfa

import (
	"context"
	"errors"
	"strings"
	"time"

	"edgeguard/internal/activity"
	"edgeguard/internal/configuration"
	apierrors "edgeguard/internal/errors"
	h "edgeguard/internal/helpers"
	"edgeguard/internal/identity"
	"edgeguard/internal/models"
	"edgeguard/internal/notifier"
	"edgeguard/internal/store"

	"go.uber.org/zap"
)

// Challenger drives the per-user OTP state machine: NONE, PENDING, VERIFIED.
//
// There is no locking around the read-modify-write of the attempt counter. Two
// concurrent Verify calls for one uid may both observe the same count, which can
// allow one guess beyond MFAMaxAttempts. The store is last-writer-wins.
type Challenger struct {
	Store          store.IMFAStore
	Admins         store.IAdminDirectory
	Decoder        identity.IClaimsDecoder
	Notifier       notifier.INotifier
	ActivityLogger activity.IActivityLogger
	// Audience, when set, must appear in the aud claim on Verify.
	Audience string
	Now      func() time.Time
}

type StartInput struct {
	IDToken        string
	UID            string
	SessionPresent bool
	Email          string
}

type StartResult struct {
	Reused  bool
	Created bool
}

type VerifyInput struct {
	IDToken        string
	UID            string
	Code           string
	SessionPresent bool
}

func (c *Challenger) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Start issues a fresh code, or reuses the live one, and drops any verified marker.
// The pending row is read before the verified marker is reset, so a live challenge is reused
// rather than deleted and the resend throttle applies. A challenge with no attempts left is
// not reused: the caller gets a fresh code instead of one Verify would reject.
func (c *Challenger) Start(ctx context.Context, logger *zap.Logger, in StartInput) (StartResult, error) {
	switch {
	case in.IDToken == "":
		return StartResult{}, apierrors.NewValidationError(apierrors.MsgMissingIDToken)
	case in.UID == "":
		return StartResult{}, apierrors.NewValidationError(apierrors.MsgMissingUID)
	case !in.SessionPresent:
		return StartResult{}, apierrors.NewValidationError(apierrors.MsgMissingSession)
	}

	if err := c.requireAdmin(ctx, in.UID); err != nil {
		return StartResult{}, err
	}

	claims, err := c.Decoder.Decode(ctx, in.IDToken)
	if err != nil {
		return StartResult{}, decodeError(err, apierrors.NewValidationError(apierrors.MsgMalformedToken))
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		email = claims.Email
	}
	if email == "" {
		return StartResult{}, apierrors.NewValidationError(apierrors.MsgMissingEmail)
	}

	now := c.now()

	pending, err := c.Store.GetPending(ctx, in.UID)
	if err != nil {
		return StartResult{}, apierrors.NewStoreError(err)
	}

	if err = c.Store.DeleteVerified(ctx, in.UID); err != nil {
		return StartResult{}, apierrors.NewStoreError(err)
	}

	if pending.Reusable(now, configuration.MFAMaxAttempts) {
		return c.reuse(ctx, logger, in.UID, email, *pending, now)
	}

	if pending != nil {
		if err = c.Store.DeletePending(ctx, in.UID); err != nil {
			return StartResult{}, apierrors.NewStoreError(err)
		}
	}

	return c.create(ctx, logger, in.UID, email, now)
}

func (c *Challenger) reuse(
	ctx context.Context,
	logger *zap.Logger,
	uid string,
	email string,
	pending models.PendingChallenge,
	now time.Time,
) (StartResult, error) {
	result := StartResult{Reused: true}

	if !pending.LastSentAt.IsZero() && now.Sub(pending.LastSentAt) <= configuration.MFAResendThrottle {
		logger.Debug("Resend throttled", zap.String("uid", uid))
		c.record(logger, activity.ActionChallengeReused, uid, email, map[string]any{"resent": false})
		return result, nil
	}

	pending.LastSentAt = now
	if err := c.Store.UpsertPending(ctx, uid, pending); err != nil {
		return StartResult{}, apierrors.NewStoreError(err)
	}

	err := c.Notifier.NotifyFromTemplate(ctx, email, configuration.MFACodeSubject, notifier.TemplateMFAStillValid,
		map[string]any{"ExpiresAt": pending.ExpiresAt.UTC().Format("15:04 MST")})
	if err != nil {
		return StartResult{}, apierrors.NewDispatchError(err)
	}

	c.record(logger, activity.ActionChallengeReused, uid, email, map[string]any{"resent": true})
	return result, nil
}

func (c *Challenger) create(
	ctx context.Context,
	logger *zap.Logger,
	uid string,
	email string,
	now time.Time,
) (StartResult, error) {
	code, err := h.GenerateCode()
	if err != nil {
		return StartResult{}, err
	}

	challenge := models.PendingChallenge{
		CodeDigest: h.DigestCode(code),
		ExpiresAt:  now.Add(configuration.MFACodeTTL),
		Attempts:   0,
		LastSentAt: now,
	}
	if err = c.Store.UpsertPending(ctx, uid, challenge); err != nil {
		return StartResult{}, apierrors.NewStoreError(err)
	}

	err = c.Notifier.NotifyFromTemplate(ctx, email, configuration.MFACodeSubject, notifier.TemplateMFACode,
		map[string]any{"Code": code, "ExpiresInMinutes": int(configuration.MFACodeTTL.Minutes())})
	if err != nil {
		// The challenge stays persisted; a later Start reuses it.
		return StartResult{}, apierrors.NewDispatchError(err)
	}

	c.record(logger, activity.ActionChallengeCreated, uid, email,
		map[string]any{"expires_at": challenge.ExpiresAt.UTC().Format(time.RFC3339)})
	return StartResult{Created: true}, nil
}

// Verify checks a submitted code against the pending challenge.
func (c *Challenger) Verify(ctx context.Context, logger *zap.Logger, in VerifyInput) error {
	if in.IDToken == "" || in.UID == "" || in.Code == "" || !in.SessionPresent {
		return apierrors.NewValidationError(apierrors.MsgMissingFields)
	}

	now := c.now()

	if err := c.authenticate(ctx, in, now); err != nil {
		return err
	}

	if err := c.requireAdmin(ctx, in.UID); err != nil {
		return err
	}

	pending, err := c.Store.GetPending(ctx, in.UID)
	if err != nil {
		return apierrors.NewStoreError(err)
	}
	if pending == nil || pending.CodeDigest == "" || pending.ExpiresAt.IsZero() {
		return apierrors.NewChallengeMissingError()
	}

	if now.After(pending.ExpiresAt) {
		return apierrors.NewChallengeExpiredError()
	}

	if pending.Attempts >= configuration.MFAMaxAttempts {
		if err = c.Store.DeletePending(ctx, in.UID); err != nil {
			return apierrors.NewStoreError(err)
		}
		c.record(logger, activity.ActionVerifyLocked, in.UID, "", map[string]any{"attempts": pending.Attempts})
		return apierrors.NewChallengeExhaustedError()
	}

	if !h.CodeMatches(in.Code, pending.CodeDigest) {
		pending.Attempts++
		if err = c.Store.UpsertPending(ctx, in.UID, *pending); err != nil {
			return apierrors.NewStoreError(err)
		}
		c.record(logger, activity.ActionVerifyFailed, in.UID, "", map[string]any{"attempts": pending.Attempts})
		return apierrors.NewChallengeMismatchError()
	}

	err = c.Store.UpsertVerified(ctx, in.UID, models.VerifiedState{State: models.VerifiedStateOK, UpdatedAt: now})
	if err != nil {
		return apierrors.NewStoreError(err)
	}
	if err = c.Store.DeletePending(ctx, in.UID); err != nil {
		return apierrors.NewStoreError(err)
	}

	c.record(logger, activity.ActionVerified, in.UID, "", nil)
	return nil
}

func (c *Challenger) authenticate(ctx context.Context, in VerifyInput, now time.Time) error {
	claims, err := c.Decoder.Decode(ctx, in.IDToken)
	if err != nil {
		return decodeError(err, apierrors.NewAuthenticationError(apierrors.MsgMalformedToken))
	}

	switch {
	case c.Audience != "" && !claims.HasAudience(c.Audience):
		return apierrors.NewAuthenticationError(apierrors.MsgWrongAudience)
	case claims.Expired(now):
		return apierrors.NewAuthenticationError(apierrors.MsgTokenExpired)
	case claims.Subject != in.UID:
		return apierrors.NewAuthenticationError(apierrors.MsgUIDMismatch)
	}
	return nil
}

func (c *Challenger) requireAdmin(ctx context.Context, uid string) error {
	isAdmin, err := c.Admins.IsAdmin(ctx, uid)
	if err != nil {
		return apierrors.NewStoreError(err)
	}
	if !isAdmin {
		return apierrors.NewAuthorizationError()
	}
	return nil
}

// decodeError keeps signature failures from a verifying decoder distinct from malformed input.
func decodeError(err error, malformed *apierrors.APIError) error {
	if errors.Is(err, identity.ErrInvalidToken) {
		return apierrors.NewAuthenticationError(apierrors.MsgInvalidToken)
	}
	return malformed
}

func (c *Challenger) record(logger *zap.Logger, action string, uid string, email string, details map[string]any) {
	if c.ActivityLogger == nil {
		return
	}

	entry := models.AuditEntry{
		Action:  action,
		UserID:  uid,
		Email:   email,
		At:      c.now(),
		Details: details,
	}
	if err := c.ActivityLogger.Send(entry); err != nil {
		logger.Error("Failed to log MFA activity", zap.String("action", action), zap.Error(err))
	}
}
