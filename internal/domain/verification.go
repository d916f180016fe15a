package domain

import "time"

// Verification tracks an email verification code. VerifiedAt is the zero
// time until the code has been checked successfully.
type Verification struct {
	Email      string
	Code       string
	CreatedAt  time.Time
	VerifiedAt time.Time
}

// Verified reports whether the code check succeeded.
func (v Verification) Verified() bool {
	return !v.VerifiedAt.IsZero()
}
