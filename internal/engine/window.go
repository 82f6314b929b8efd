package engine

import (
	"log/slog"
	"time"
)

// DefaultWindow is the lookback used when no explicit range is requested.
const DefaultWindow = 48 * time.Hour

// FirstScanWindow is the wider lookback used for a user's first scan, so a
// fresh dashboard has something to show.
const FirstScanWindow = 7 * 24 * time.Hour

var windowTokens = map[string]time.Duration{
	"auto":    DefaultWindow,
	"2hours":  2 * time.Hour,
	"1day":    24 * time.Hour,
	"3days":   3 * 24 * time.Hour,
	"7days":   7 * 24 * time.Hour,
	"30days":  30 * 24 * time.Hour,
}

// ResolveWindow maps a range token to a lookback duration. Unknown tokens
// fall back to the default window; a bad token never fails a scan.
func ResolveWindow(token string) time.Duration {
	if token == "" {
		return DefaultWindow
	}
	if window, ok := windowTokens[token]; ok {
		return window
	}
	slog.Warn("unknown time range token, using default window",
		"token", token,
		"default", DefaultWindow)
	return DefaultWindow
}
