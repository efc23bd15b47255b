package llm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRateLimited = errors.New("rate limited")
	ErrEmptyOutput = errors.New("model returned no output")
)

// RateLimitError marks a rejection caused by rate limits or exhausted quota.
type RateLimitError struct {
	Provider string
	Model    string
	Message  string
	Err      error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s %s: rate limit exceeded: %s", e.Provider, e.Model, e.Message)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// IsRateLimit reports whether err is a rate-limit or quota rejection.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// quotaMessage catches quota errors some providers return with non-429 codes.
func quotaMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "insufficient_quota") ||
		strings.Contains(msg, "quota exceeded") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "rate limit")
}
