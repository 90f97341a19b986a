// Package scheduler implements the schedule registry on top of
// store.ScheduleStore: a Registry client that names, creates, updates and
// removes one-shot entries within a group, and a Poller that claims due
// entries and fires their targets through the background job runner.
package scheduler
