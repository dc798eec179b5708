package store

import "errors"

// Sentinel kinds for persistence errors.
var (
	ErrNotFound   = errors.New("record not found")
	ErrQueueEmpty = errors.New("queue is empty")
)
