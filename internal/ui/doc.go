// Package ui provides the Bubble Tea terminal interface for shelf.
//
// # Architecture Overview
//
// Model is the root tea.Model. It never mutates book state itself: every
// intent goes through workflow.Books.Dispatch, which stamps a generation and
// marks the shared store Loading. The returned job runs as a tea.Cmd and its
// completion comes back as a jobDoneMsg, which Model hands to
// workflow.Books.Finish. Stale completions are dropped there, so the view only
// ever renders the store's snapshot.
//
// # Navigation
//
// Workflows navigate through session.Router. Router implements it with a
// buffered channel that Model drains with a blocking command, so a job
// finishing in the background can move the user to the list or to sign-in.
// Keys that navigate call Model.navigate directly.
//
// # Views
//
//   - Sign in: email and password, exchanged for a token by Authenticator
//   - List: every book with a selection cursor, spinner while loading
//   - Detail: the fields of one book
//   - Form: add or edit, validated inline before dispatch
//   - Logs: the tail of the client's own log file
//
// # Key Bindings
//
//   - j/k, g/G: move the selection
//   - enter: open the selected book
//   - a, e, d: add, edit, delete
//   - r: reload the list
//   - l: logs
//   - L: sign out
//   - T: cycle theme (saved to prefs)
//   - h or ?: help
//   - esc: back
//   - q or ctrl+c: quit
package ui
