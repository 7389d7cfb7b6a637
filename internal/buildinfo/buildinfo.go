package buildinfo

// Version is overridden at release time via -ldflags.
var Version = "0.0.0-dev"
