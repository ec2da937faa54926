// Package app is the composition root of shelf.
//
// It loads configuration, builds the zap logger and the book API client,
// chooses a token store and wires the shared result store into the book
// workflows. Two entry points share that setup:
//
//   - Run starts the terminal UI, with a channel router feeding navigation
//     back into Bubble Tea and an optional background refresher.
//   - RunCommand executes one non-interactive subcommand (login, logout,
//     list, show, add, edit, delete) and prints a plain-text result.
//
// The refresher only reloads on top of a settled success. Failed results
// wait for the user to retry, and a signed-out session is never touched.
package app
