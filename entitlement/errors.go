/*
errors.go - Centralized error types for the entitlement core

PURPOSE:
  All error types in one place. The taxonomy separates user-correctable
  rejections (which the caller branches on and surfaces inline, keeping
  the form open) from genuine configuration errors (hard failures).

ERROR CATEGORIES:
  1. Lookup errors - no policy configured (non-fatal, balance renders 0)
  2. Admissibility rejections - structured Decision values, not errors
  3. Configuration errors - unknown claim type (programming error)

USAGE:
  if errors.Is(err, entitlement.ErrPolicyNotFound) {
      // warn "no policy configured", render balance 0
  }
*/
package entitlement

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPolicyNotFound is returned when no entitlement rule is
	// configured for the lookup key. Non-fatal: the claim form renders
	// balance 0 with an explicit warning.
	ErrPolicyNotFound = errors.New("no entitlement policy configured")

	// ErrEmployeeNotFound is returned when a referenced employee
	// doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrClaimNotFound is returned when a referenced claim doesn't exist.
	ErrClaimNotFound = errors.New("claim not found")

	// ErrUnknownClaimType is returned for a claim type the engine does
	// not recognize. This is a configuration error worth a hard
	// failure, never a silent admit.
	ErrUnknownClaimType = errors.New("unrecognized claim type")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// PolicyNotFoundError carries the lookup key that missed.
type PolicyNotFoundError struct {
	DesignationID DesignationID
	Kind          ClaimType
	City          string
}

func (e *PolicyNotFoundError) Error() string {
	if e.City != "" {
		return fmt.Sprintf("no %s policy configured for designation %s, city %q", e.Kind, e.DesignationID, e.City)
	}
	return fmt.Sprintf("no %s policy configured for designation %s", e.Kind, e.DesignationID)
}

func (e *PolicyNotFoundError) Unwrap() error { return ErrPolicyNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPolicyNotFound) ||
		errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrClaimNotFound)
}

// IsConfigError reports whether the error is a configuration problem
// that should fail hard instead of rendering as a user-facing rejection.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrUnknownClaimType)
}
