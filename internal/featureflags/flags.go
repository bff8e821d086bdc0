package featureflags

import (
	"os"
	"strings"
)

// Known flags.
const (
	// SeedDemoOrg seeds the demo organization on bootstrap.
	SeedDemoOrg = "seed_demo_org"
	// LiveEvents enables the websocket change stream.
	LiveEvents = "live_events"
)

var defaults = map[string]bool{
	SeedDemoOrg: true,
	LiveEvents:  true,
}

// Enabled reports whether a flag is on. Flags are read from env as
// FLAG_<NAME>=true/1/yes/on (case-insensitive); unset flags use their default.
func Enabled(name string) bool {
	v, ok := os.LookupEnv("FLAG_" + strings.ToUpper(name))
	if !ok || strings.TrimSpace(v) == "" {
		return defaults[name]
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
