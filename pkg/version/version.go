package version

// Version is the build version, overridden at release time via
// -ldflags "-X github.com/pagestage/pagestage/pkg/version.Version=...".
var Version = "dev"
