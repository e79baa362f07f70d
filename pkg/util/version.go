package util

import (
	"fmt"
)

// set by the build
var (
	// Version version
	Version = "unknown"
	// GitCommit git commit
	GitCommit = "unknown"
	// BuildTime build time
	BuildTime = "unknown"
)

// PrintVersion prints the build version info
func PrintVersion() bool {
	fmt.Println("Version  : ", Version)
	fmt.Println("GitCommit: ", GitCommit)
	fmt.Println("BuildTime: ", BuildTime)
	return true
}
