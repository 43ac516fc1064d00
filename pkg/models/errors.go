package models

import (
	"errors"
	"fmt"
)

// Filter validation errors
var (
	ErrUnknownSeverity   = errors.New("unknown severity")
	ErrUnknownAttackType = errors.New("unknown attack type")
	ErrUnknownTimeRange  = errors.New("unknown time range")
)

// Validate checks that every key in the patch is a known enum value.
// The store itself accepts any patch; callers at the API boundary validate.
func (p FilterPatch) Validate() error {
	for s := range p.Severity {
		if !s.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownSeverity, s)
		}
	}
	for t := range p.AttackType {
		if !t.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownAttackType, t)
		}
	}
	if p.TimeRange != nil && !p.TimeRange.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTimeRange, *p.TimeRange)
	}
	return nil
}
