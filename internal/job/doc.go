// Package job provides a persistent background job runner. Jobs are saved to
// a store.JobStore before they are queued, executed by a fixed pool of
// workers, and recovered after a restart through a Registry that rebuilds
// each job from its stored type and payload.
package job
