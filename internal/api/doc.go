// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It acts as an adapter between external clients
// and the task and reminder services, translating HTTP concerns to
// business operations and error kinds back to status codes.
package api
