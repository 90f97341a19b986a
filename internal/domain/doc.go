// Package domain contains the core business entities, value objects, and
// domain logic of the application: tasks, their reminder sub-state, and the
// schedule entries that fire reminders. It is independent of any specific
// infrastructure or delivery mechanism.
package domain
