// Package postgres provides PostgreSQL implementations of the interfaces in
// internal/store: the task record store, the schedule registry's entry store
// and the background job store. It also embeds the goose migrations that
// create their tables.
package postgres
