package misc

const (
	// ApplicationName is gateway name.
	ApplicationName = "trailsum-gw"

	// Prefix is configuration environment variables prefix.
	Prefix = "TRAILSUM"
)

var (
	// Version contains application version.
	Version = "dev"
)
