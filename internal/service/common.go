package service

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"testhub/internal/apperr"
)

// Clock lets tests pin time.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// lookupErr turns a missing row into a NotFound carrying msg and wraps
// anything else as a storage failure.
func lookupErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("%s", msg)
	}
	return apperr.Wrap(err, "query "+strings.ToLower(strings.TrimSuffix(msg, " not found")))
}

// pick returns v trimmed, or current when v is blank. Partial updates across
// the catalog only overwrite fields the caller actually filled in.
func pick(current string, v *string) string {
	if v == nil {
		return current
	}
	if t := strings.TrimSpace(*v); t != "" {
		return t
	}
	return current
}
