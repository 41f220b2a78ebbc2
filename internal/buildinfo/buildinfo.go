// Package buildinfo holds the mailbot release identity. The release build
// sets these through ldflags, e.g.
//
//	-X github.com/mailbot-io/mailbot/internal/buildinfo.Version=1.2.0
package buildinfo

var (
	Version    = "dev"
	Codename   = "unknown"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// UserAgent is the User-Agent the client sends to the mailbot server.
func UserAgent() string {
	return "mailbot/" + Version
}
