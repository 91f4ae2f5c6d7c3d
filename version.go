package passivate

// Version is the release of the library and the passivate CLI.
// Release builds override it with -ldflags "-X github.com/aretw0/passivate.Version=...".
var Version = "0.1.0"
