// Package ui renders the terminal output of a run: the header, the
// "Searching:" progress dots and the closing summary. Diagnostics go
// through the logger instead.
package ui
