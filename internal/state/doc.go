// Package state holds the asynchronous result container shared by the book
// workflows, the background refresher and the UI.
//
// # Overview
//
// Every remote collection fetch is modelled as a Result with exactly four
// states:
//
//	Idle ──Requested──→ Loading ──Succeeded──→ Success
//	                       │
//	                       └────Failure─────→ Failed
//
// A Container adds generation bookkeeping to a Result, and Reduce is the only
// function that moves a Container from one state to the next. Reduce is pure:
// it reads no clock, performs no I/O and returns a new value.
//
// # Generations
//
// Each issued intent receives a generation number from Store.Begin. A
// completion is dropped as stale when:
//
//   - its generation was never issued
//   - its generation is not newer than the last applied completion
//   - a newer request of the same Op has been issued
//
// This resolves the case where a slow List finishes after a Delete that
// already refetched the list: the older List response is ignored.
//
// A fresh success while a newer request is outstanding yields Loading with the
// new data, so the UI shows fresh rows and still signals activity.
//
// # Store
//
// Store wraps a Container with a readers-writer lock, in the same way the
// poller and the UI share a snapshot:
//
//	Begin(op) → Requested (applied atomically)
//	Apply(action) → Snapshot
//	Snapshot() → Snapshot (defensive copies, UpdatedAt stamped here)
//	Reset() → Idle, outstanding generations invalidated
//
// # Jobs
//
// Job pairs an issued generation with a Task. Run converts the task outcome
// into Succeeded or Failure and recovers panics, so no failure leaves the
// workflow boundary as anything other than a Failure action.
package state
