package rate

import "errors"

var (
	// ErrRateLimited is returned when a key has used up its attempt budget.
	ErrRateLimited = errors.New("rate: too many attempts")
	// ErrRedisUnavailable wraps counter read or write failures.
	ErrRedisUnavailable = errors.New("rate: redis unavailable")
)
