// Package version carries build metadata injected with -ldflags.
package version

import "fmt"

// Set at build time, e.g.
//
//	-ldflags "-X github.com/example/freelosync/internal/version.Tag=v1.2.0"
var (
	Tag       = ""
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String returns the --version line. Untagged builds report "dev".
func String() string {
	return fmt.Sprintf("freelo-sync %s (commit: %s, built: %s)", release(), shortCommit(), BuildTime)
}

// UserAgent identifies the tool to Freelo, which asks API clients to name
// themselves.
func UserAgent() string {
	if Tag == "" {
		return "freelo-sync/dev+" + shortCommit()
	}
	return "freelo-sync/" + Tag
}

func release() string {
	if Tag == "" {
		return "dev"
	}
	return Tag
}

func shortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
