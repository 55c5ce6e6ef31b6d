// Package persistence provides database adapters.
package persistence

import "errors"

var ErrNotFound = errors.New("not found")
