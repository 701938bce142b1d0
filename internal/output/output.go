// Package output renders gigs, jobs and command results for the terminal:
// aligned tables by default, JSON for scripts, one line per record with
// --compact.
package output

import "os"

// EnvOutput selects the default format when no flag is given.
const EnvOutput = "CYBERDECK_OUTPUT"

// Format is how a command prints its result.
type Format int

// Output formats. FormatAuto means no choice was made yet.
const (
	FormatAuto Format = iota
	FormatJSON
	FormatTable
	FormatCompact
)

// Detect picks the format from the --json, --table and --compact flags,
// then CYBERDECK_OUTPUT, then falls back to a table.
func Detect(jsonFlag, tableFlag, compactFlag bool) Format {
	if jsonFlag {
		return FormatJSON
	}
	if compactFlag {
		return FormatCompact
	}
	if tableFlag {
		return FormatTable
	}

	switch os.Getenv(EnvOutput) {
	case "json":
		return FormatJSON
	case "compact", "oneline":
		return FormatCompact
	case "table":
		return FormatTable
	}

	return FormatTable
}
