package info

var (
	// Version should be set at compile time to `git describe --tags --abbrev=0`
	Version string
	// BinaryName is the name the commands print about themselves.
	BinaryName = "genomexfer"
	// UserAgent identifies the tool to the archive.
	UserAgent = BinaryName
)

func init() {
	if Version == "" {
		Version = "dev"
	}
	UserAgent = BinaryName + "/" + Version
}
