package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutFormWidth is the width of the add, edit and sign-in forms.
	LayoutFormWidth = 64
)

// headerLines is the number of rows above the content area: status bar,
// notice line and command bar.
const headerLines = 3

// Log display limits.
const (
	// LogTailLines is the number of log lines read for the log view.
	LogTailLines = 500
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second
)
