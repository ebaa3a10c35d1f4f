// Package version exposes the build version, overridden at link time with
// -ldflags "-X chat-fe/internal/version.Version=...".
package version

var Version = "dev"
