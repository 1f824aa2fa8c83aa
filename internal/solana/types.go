package solana

import (
	"encoding/json"
	"fmt"
)

// Commitment is a Solana commitment level.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// ParseCommitment validates a commitment string.
func ParseCommitment(s string) (Commitment, error) {
	switch c := Commitment(s); c {
	case CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized:
		return c, nil
	default:
		return "", fmt.Errorf("unknown commitment %q", s)
	}
}

// rank orders commitment levels so a status can be compared against a target.
func (c Commitment) rank() int {
	switch c {
	case CommitmentProcessed:
		return 1
	case CommitmentConfirmed:
		return 2
	case CommitmentFinalized:
		return 3
	default:
		return 0
	}
}

// Reaches reports whether c is at least as strong as target.
func (c Commitment) Reaches(target Commitment) bool {
	return c.rank() > 0 && c.rank() >= target.rank()
}

// TokenAccount is one entry of getTokenAccountsByOwner (jsonParsed encoding).
// Mint and Amount are left empty when the account data could not be parsed.
type TokenAccount struct {
	Address  string
	Mint     string
	Owner    string
	Amount   string // raw integer amount as a decimal string
	Decimals int
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}

// SignatureStatus from getSignatureStatuses or signatureNotification.
type SignatureStatus struct {
	Slot               uint64
	Confirmations      *uint64
	Err                json.RawMessage // nil or "null" on success
	ConfirmationStatus Commitment
}

// Failed reports whether the transaction failed on-chain.
func (s *SignatureStatus) Failed() bool {
	return s != nil && len(s.Err) > 0 && string(s.Err) != "null"
}
