package config

import "time"

const (
	// Matching
	MatchCandidateLimit = 20

	// Moderation
	BanCacheTTL = 24 * time.Hour

	// Storage retry (transient Redis failures)
	StoreRetryAttempts = 3
	StoreRetryBackoff  = 100 * time.Millisecond
)

// SeverityWarnings maps a report severity to the warnings it applies to
// the reported user. A critical report bans outright once the warning
// threshold (default 3) is reached.
var SeverityWarnings = map[string]int{
	"low":      0,
	"medium":   1,
	"critical": 3,
}
