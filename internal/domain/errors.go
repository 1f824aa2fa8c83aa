package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLedgerUnavailable is returned when an owner-level ledger query fails.
	// The run is aborted and no partial result is returned.
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	// ErrBurnFailed is returned when a burn transaction is rejected or not confirmed.
	// Nothing was burned.
	ErrBurnFailed = errors.New("burn failed")

	// ErrQualification marks an error met while qualifying a single candidate.
	// It never leaves the qualifier; the candidate is treated as not qualifying.
	ErrQualification = errors.New("qualification failed")
)

// BurnError carries the ledger's rejection reason for a failed burn.
type BurnError struct {
	Stage     string   // blockhash, build, submit or confirm
	Signature string   // set once the transaction was submitted
	Reason    string   // ledger rejection reason
	Logs      []string // program logs from preflight, if any
	Err       error
}

func (e *BurnError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s at %s: %s", ErrBurnFailed, e.Stage, e.Reason)
	if e.Signature != "" {
		fmt.Fprintf(&b, " (signature %s)", e.Signature)
	}
	return b.String()
}

// Unwrap exposes both ErrBurnFailed and the underlying cause.
func (e *BurnError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrBurnFailed}
	}
	return []error{ErrBurnFailed, e.Err}
}
