package version

// Version is the release version stamped into --version output.
var Version = "0.1.0"
