package logger

import "github.com/mattn/go-isatty"

// isTerminal reports whether the file descriptor is attached to a
// terminal, so colored output can be enabled only for interactive runs.
func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
