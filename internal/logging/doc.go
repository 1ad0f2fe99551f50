// Package logging provides the two logging channels of prophex-match.
//
// Logger emits the human-facing progress lines in the form
//
//	[prophyle<tag>] 2006-01-02 15:04:05 message
//
// to the screen and, when a Sink is open, to a persistent log file that is
// synced after every line. Setup builds the structured slog logger used for
// debug diagnostics.
package logging
