package service

import "errors"

var (
	ErrUserIDMissing       = errors.New("user_id is required")
	ErrNoMessages          = errors.New("at least one message is required")
	ErrContextFetchFailed  = errors.New("context fetch failed")
	ErrTokenBudgetTooSmall = errors.New("token budget too small")
	ErrNoModelForTask      = errors.New("no model configured for task")
	ErrBackendMissing      = errors.New("no backend registered for provider")
)
