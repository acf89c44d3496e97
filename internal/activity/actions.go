package activity

// Audit actions.
const (
	ActionChallengeCreated = "mfa.challenge.created"
	ActionChallengeReused  = "mfa.challenge.reused"
	ActionVerifyFailed     = "mfa.verify.failed"
	ActionVerifyLocked     = "mfa.verify.locked"
	ActionVerified         = "mfa.verified"
	ActionKeypad           = "device.keypad"
)
