package repository

import "errors"

// ErrClosed is returned when a writer is used after Close.
var ErrClosed = errors.New("repository: writer closed")
