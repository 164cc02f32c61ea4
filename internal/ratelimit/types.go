package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter provides fixed-window rate limit checks.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, now time.Time) (Result, error)
}

// Action names the operation a key is limited on.
type Action string

const (
	ActionSendCode   Action = "2fa-send"
	ActionVerifyCode Action = "2fa-verify"
)

// Key builds a limiter key for one user and action.
func Key(userID string, action Action) string {
	if userID == "" {
		return ""
	}
	return fmt.Sprintf("u:%s:%s", userID, action)
}

func windowStart(now time.Time, window time.Duration) (int64, time.Time) {
	size := int64(window / time.Second)
	if size <= 0 {
		size = 1
	}
	start := now.Unix() / size * size
	return start, time.Unix(start+size, 0).UTC()
}
