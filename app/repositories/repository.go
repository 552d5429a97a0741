// Package repositories holds the gorm-backed persistence of the delivery
// platform. Every repository takes the *gorm.DB it works on; nothing reads a
// package-level handle.
package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = gorm.ErrRecordNotFound

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
