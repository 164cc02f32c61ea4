package domain

import "time"

// TwoFactorCodeLength is the number of digits in an emailed code.
const TwoFactorCodeLength = 6

// TwoFactorToken is a stored one-time code. Only the hash is persisted.
type TwoFactorToken struct {
	ID         string
	UserID     string
	HashedCode string
	ExpiresAt  time.Time
	Used       bool
	CreatedAt  time.Time
}

// Usable reports whether the token can still be consumed at now.
func (t *TwoFactorToken) Usable(now time.Time) bool {
	return !t.Used && t.ExpiresAt.After(now)
}

// IsTwoFactorCode reports whether s is exactly six ASCII digits.
func IsTwoFactorCode(s string) bool {
	if len(s) != TwoFactorCodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
