// Package database holds the statement deadlines shared by SQL repositories.
package database

import (
	"context"
	"time"
)

const (
	DefaultQueryTimeout = 5 * time.Second
	DefaultWriteTimeout = 10 * time.Second
)

// QueryContext bounds a read with DefaultQueryTimeout. A parent deadline
// that is already shorter wins.
func QueryContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultQueryTimeout)
}

// WriteContext bounds an insert, update or delete with DefaultWriteTimeout.
func WriteContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultWriteTimeout)
}
