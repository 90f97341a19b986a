// Package reminder keeps a task's reminder fields and its schedule registry
// entry consistent.
//
// The Coordinator owns every reminder state transition: setting or moving a
// reminder, clearing it, and the side effects of completing or deleting a
// task. Registry and task store calls are issued in a fixed order with
// best-effort compensation; the task record is the source of truth and any
// divergence heals on the next operation touching the task, since every
// operation re-derives the schedule handle and re-probes the registry.
//
// The DispatchHandler is the schedule target invoked when a reminder entry
// fires. It turns the entry's payload into a notification message.
package reminder
