// Package repository implements the MySQL-backed stores. This file
// defines sentinel errors reused across repositories so that higher
// layers can distinguish failure scenarios without inspecting SQL
// errors: ErrNotFound maps to HTTP 404, ErrConflict to 409.
package repository

import "errors"

// ErrNotFound is returned when a row the caller asked for does not
// exist (or, for conditional updates, no longer matches the condition).
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as advancing the shipping status of an order
// that has not been paid or skipping a shipping stage.
var ErrConflict = errors.New("conflict")
