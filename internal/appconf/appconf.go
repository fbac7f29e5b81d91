// Package appconf holds process-level configuration shared across the
// application: the HTTP port, runtime environment, API keys, and rate limits.
package appconf

import "strings"

// Environment identifies the runtime environment the server runs in.
type Environment int

const (
	Test Environment = iota
	Development
	Production
)

// String returns the lowercase name of the environment.
func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// EnvFlagToEnvironment maps an -env flag value to an Environment.
// Unknown values fall back to Development.
func EnvFlagToEnvironment(value string) Environment {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "test":
		return Test
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

// Config holds the flag-level server configuration.
type Config struct {
	Port      int
	Env       Environment
	ApiKeys   []string
	Verbose   bool
	RateLimit int
}
