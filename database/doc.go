// Package database builds the process-wide Bun engine from connection
// configuration and hands out short-lived, request-scoped sessions bound to
// its pool. It also carries the model registry, error classification, query
// hooks and the logger abstraction used by the rest of the service.
package database
