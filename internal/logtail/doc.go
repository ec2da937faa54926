// Package logtail reads the tail of the client's own log file for the log
// view.
//
// Read uses a ring buffer so only the last maxLines are kept in memory while
// the file is scanned once. Parse decodes the JSON lines written by the zap
// logger into an Entry whose String form is compact enough for a terminal:
//
//	14:32:15 WARN workflow failed duration=120ms error=list books: request failed op=list
//
// Lines that are not JSON are passed through untouched.
package logtail
