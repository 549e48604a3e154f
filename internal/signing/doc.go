// Package signing drives the per-artifact signing workflow: submit the
// file, poll the signing request until it reaches a terminal state, and
// atomically install the signed result.
//
// # Run Model
//
// A run is single-threaded and strictly sequential: each target is fully
// resolved (or fatally aborted) before the next one starts. All waiting
// is a genuine blocking sleep of the calling goroutine; cancellation
// arrives through the context, aborts the run immediately, and leaves no
// resume state. A canceled run is restarted from scratch.
//
// # State Machine
//
// Per target:
//
//	SUBMITTING --success--> WAITING
//	SUBMITTING --error----> run aborted
//	WAITING --not terminal--> WAITING (after the poll interval)
//	WAITING --terminal, Completed--> DOWNLOADING
//	WAITING --terminal, not Completed--> outcome failure, run aborted
//	DOWNLOADING --success--> installed
//	DOWNLOADING --I/O error--> run aborted
//
// The poll interval is its own constant, unrelated to the transport's
// retry interval.
//
// # Atomic Install
//
// The signed artifact is downloaded to a <filename>.signing-tmp sibling
// in the destination directory, then renamed over the final path. No
// observer ever sees a partially written file at the final path, and the
// temporary file is removed on every exit path.
package signing
