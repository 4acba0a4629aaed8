// Package config provides configuration management for the shelf file
// organizer.
package config

import "time"

// Default configuration values for shelf.
const (
	// DefaultMode is the transfer mode used when none is specified.
	DefaultMode = "move"

	// DefaultConflict is the strategy applied when a destination name
	// is taken.
	DefaultConflict = "rename"

	// DefaultOutput is the report format written to stdout.
	DefaultOutput = "pretty"

	// DefaultRetentionDays is how long history clean keeps manifests.
	DefaultRetentionDays = 30

	// DefaultSettle is how long watch mode waits after the last event
	// on a path before organizing it.
	DefaultSettle = 2 * time.Second

	// DefaultLogLevel is the file log level.
	DefaultLogLevel = "info"
)

// DefaultComponentLevels holds per-component log level overrides
// applied when the config file sets none.
var DefaultComponentLevels = map[string]string{
	"organizer": "info",
	"watcher":   "info",
	"undo":      "info",
	"cli":       "info",
}
