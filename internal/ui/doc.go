// Package ui provides semantic text formatting for CLI output.
//
// Formatters degrade gracefully when color is unavailable (NO_COLOR,
// non-terminal output) by substituting plain-text decoration.
package ui
