// Package store defines interfaces for data persistence operations: the task
// record store, the schedule registry's entry store, and the background job
// store. These interfaces keep the reminder logic independent of the
// underlying database, and every implementation reports absence with the
// sentinel errors declared here.
package store
