// Package store implements the persistence collaborators consumed by the
// HTTP handlers and the conversation engine. CRUD paths go through GORM;
// the conversation grouping query runs as parameterized SQL on the pgx pool.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when an insert collides with an existing unique row.
var ErrConflict = errors.New("record already exists")

const queryTimeout = 5 * time.Second
