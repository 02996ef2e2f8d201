// Package repository provides a generic repository bound to a database
// session. Every operation runs inside the session's transaction, so nothing
// is persisted until the session is committed.
package repository
