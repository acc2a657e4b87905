package config

import "time"

// Compiled-in API defaults.
const (
	DefaultTimeout     = 30 * time.Second
	LongTimeout        = 120 * time.Second
	ShortTimeout       = 10 * time.Second
	MaxRetries         = 3
	InitialRetryDelay  = 1 * time.Second
	MaxRetryDelay      = 60 * time.Second
	ExponentialBase    = 2.0
	DefaultConcurrency = 4

	DefaultJournalBuffer = 256
)

// HTTPRetryCodes are the response statuses worth retrying.
var HTTPRetryCodes = []int{429, 500, 502, 503, 504}
