// Package repository holds the credential store and revocation registry
// implementations.  The sentinel errors below let the session layer tell a
// missing record from a duplicate from an unreachable backend.
package repository

import "errors"

// ErrNotFound is returned when no user matches the lookup key.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when inserting a record whose email is taken.
var ErrEmailExists = errors.New("email already exists")

// ErrUnavailable wraps every backend failure (connection, query, decode).
var ErrUnavailable = errors.New("store unavailable")
