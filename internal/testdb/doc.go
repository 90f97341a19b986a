// Package testdb provides helpers for tests that need a real PostgreSQL
// database: locating it from the environment, applying the embedded schema
// once per process, and running each test inside a transaction that is
// always rolled back.
//
// Tests using this package should carry the integration build tag:
//
//	//go:build integration
//
// and are skipped when no database URL is configured.
package testdb
