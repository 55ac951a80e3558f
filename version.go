package espalier

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var rawVersion string

// Version is the library version, embedded from the VERSION file.
var Version = strings.TrimSpace(rawVersion)
