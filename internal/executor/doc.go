// Package executor runs a job graph on a bounded pool of workers.
//
// A single coordinator goroutine owns the ready queue: it hands jobs whose
// dependencies have all succeeded to idle workers and, as each job finishes,
// unlocks the dependents that are now ready. Workers own the state
// transitions of the job they hold (Pending -> Running -> Succeeded|Failed).
//
// A failed job never cancels its siblings. Its dependents are simply never
// dispatched and stay Pending, and the run as a whole is reported as failed
// once every dispatched job is terminal.
package executor
