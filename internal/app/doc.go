// Package app assembles the reminder service from configuration: database
// connection, stores, schedule registry, reminder coordinator, job runner,
// schedule poller, notification topic and token verifier. Both cmd/server
// and cmd/todoctl build their dependencies through it.
package app
