package psys

// Version is the psys release, overridable at link time with
// -ldflags "-X github.com/aretw0/psys.Version=...".
var Version = "v0.1.0-dev"
