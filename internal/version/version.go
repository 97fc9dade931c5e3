// Package version records the release version stamped into binaries.
package version

// Version is overridable at build time:
//
//	go build -ldflags "-X github.com/finpulse/finpulse-mcp/internal/version.Version=1.2.3"
var Version = "0.3.0"
