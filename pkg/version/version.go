package version

import "fmt"

// Version indicates what version of strongdeps the binary belongs to
var Version = "dev"

// GitCommit indicates which git commit the binary was built from
var GitCommit string

// String returns a pretty string concatenation of Version and GitCommit
func String() string {
	return fmt.Sprintf("strongdeps version: %s\ngit commit: %s\n", Version, GitCommit)
}
