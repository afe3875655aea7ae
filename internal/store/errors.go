package store

import "errors"

var ErrRunNotFound = errors.New("store: run not found")
