package version

// Version is the Stagehand version, overridden at build time via
// -ldflags "-X github.com/mediaops/stagehand/internal/version.Version=...".
var Version = "0.1.0-dev"
