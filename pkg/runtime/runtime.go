package runtime

var (
	// set at compile time via ldflags
	Version   = "dev"
	GitCommit = "unknown"
	Timestamp = "unknown"
)
