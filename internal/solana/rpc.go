package solana

import "context"

// RPCClient defines the Solana JSON-RPC methods used by the scanner,
// the metadata service and the burner.
type RPCClient interface {
	// GetTokenAccountsByOwner lists SPL token accounts held by owner for the given token program.
	GetTokenAccountsByOwner(ctx context.Context, owner, programID string) ([]TokenAccount, error)

	// GetAccountInfo retrieves raw account data. Returns nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetLatestBlockhash returns a recent blockhash for transaction construction.
	GetLatestBlockhash(ctx context.Context) (string, error)

	// SendTransaction submits a serialized, signed transaction and returns its signature.
	SendTransaction(ctx context.Context, rawTx []byte) (string, error)

	// GetSignatureStatuses reports the processing status of signatures.
	// Unknown signatures yield nil entries at their positions.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)
}

// Confirmer waits until a submitted transaction reaches the configured commitment.
type Confirmer interface {
	// Confirm blocks until the signature is confirmed, fails on-chain, or ctx expires.
	Confirm(ctx context.Context, signature string) (*SignatureStatus, error)
}
