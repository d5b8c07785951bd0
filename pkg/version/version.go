// Package version provides version information for the weather-bitcoin-api application.
package version

// Version is the current version of the application.
const Version = "3.0.0"

// AgentString returns the full agent string with versioning.
func AgentString() string {
	return "weather-bitcoin-api/v" + Version
}
