// models/errors.go
package models

import "errors"

// Engine error taxonomy. All of these travel as returned values; a bad
// event is reported and skipped, it never halts processing of others.
var (
	// ErrDuplicateEvent means the event id was already applied. Callers
	// treat it as success-no-op, not a failure.
	ErrDuplicateEvent = errors.New("event already applied")

	// ErrDuplicateBatch means a payout batch already exists for the
	// (partner, period) pair.
	ErrDuplicateBatch = errors.New("payout batch already exists for partner and period")

	// ErrUnknownPartner and ErrUnknownCompany are referential integrity
	// failures; the event is queued for manual review.
	ErrUnknownPartner = errors.New("unknown partner")
	ErrUnknownCompany = errors.New("unknown company")

	// ErrCycleDetected means the upline chain loops back on itself.
	// Fatal for that chain only.
	ErrCycleDetected = errors.New("cycle detected in partner upline chain")

	// ErrWindowExpired marks a clawback attempted outside the configured
	// window. Recorded as a skipped reversal, not a fault.
	ErrWindowExpired = errors.New("clawback window expired")

	// ErrUnknownTier means a partner carries a tier the rate table has
	// no rates for.
	ErrUnknownTier = errors.New("unknown partner tier")

	// ErrNotFound is the generic lookup miss for stored documents.
	ErrNotFound = errors.New("not found")

	// ErrBadTransition is an illegal payout batch state change.
	ErrBadTransition = errors.New("illegal batch status transition")
)
