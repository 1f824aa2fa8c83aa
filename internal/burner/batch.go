package burner

import (
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"

	"solana-nft-burner/internal/domain"
	"solana-nft-burner/internal/solana"
)

// MaxTransactionSize is the Solana packet limit for a serialized transaction.
const MaxTransactionSize = 1232

var (
	// ErrEmptyBatch is returned when there is nothing to burn.
	ErrEmptyBatch = errors.New("empty burn batch")

	// ErrBatchTooLarge is returned when the serialized transaction exceeds MaxTransactionSize.
	ErrBatchTooLarge = errors.New("burn batch exceeds transaction size limit")
)

// Batch is the set of token accounts burned together in one transaction.
// It is immutable once built.
type Batch struct {
	entries []domain.QualifiedNFT
}

// NewBatch selects the first limit entries of nfts, keeping their order.
// A non-positive limit selects nothing.
func NewBatch(nfts []domain.QualifiedNFT, limit int) Batch {
	if limit <= 0 || len(nfts) == 0 {
		return Batch{}
	}
	if limit > len(nfts) {
		limit = len(nfts)
	}
	entries := make([]domain.QualifiedNFT, limit)
	copy(entries, nfts[:limit])
	return Batch{entries: entries}
}

// Len returns the number of tokens in the batch.
func (b Batch) Len() int {
	return len(b.entries)
}

// Entries returns a copy of the batch entries.
func (b Batch) Entries() []domain.QualifiedNFT {
	out := make([]domain.QualifiedNFT, len(b.entries))
	copy(out, b.entries)
	return out
}

// Instructions builds one burn-1 instruction per entry, authorized by owner.
func (b Batch) Instructions(owner common.PublicKey) ([]types.Instruction, error) {
	if len(b.entries) == 0 {
		return nil, ErrEmptyBatch
	}

	ins := make([]types.Instruction, 0, len(b.entries))
	for _, nft := range b.entries {
		if !solana.IsPubkey(nft.AccountAddress) || !solana.IsPubkey(nft.Mint) {
			return nil, fmt.Errorf("invalid token account %q or mint %q", nft.AccountAddress, nft.Mint)
		}
		ins = append(ins, token.Burn(token.BurnParam{
			Account: common.PublicKeyFromString(nft.AccountAddress),
			Mint:    common.PublicKeyFromString(nft.Mint),
			Auth:    owner,
			Amount:  1,
		}))
	}
	return ins, nil
}

// Transaction builds and signs the batch transaction with owner as fee payer and authority.
func (b Batch) Transaction(owner types.Account, recentBlockhash string) (types.Transaction, error) {
	ins, err := b.Instructions(owner.PublicKey)
	if err != nil {
		return types.Transaction{}, err
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        owner.PublicKey,
			RecentBlockhash: recentBlockhash,
			Instructions:    ins,
		}),
		Signers: []types.Account{owner},
	})
	if err != nil {
		return types.Transaction{}, fmt.Errorf("new transaction: %w", err)
	}
	return tx, nil
}

// Serialize builds, signs and serializes the batch, enforcing MaxTransactionSize.
func (b Batch) Serialize(owner types.Account, recentBlockhash string) ([]byte, error) {
	tx, err := b.Transaction(owner, recentBlockhash)
	if err != nil {
		return nil, err
	}
	raw, err := tx.Serialize()
	if err != nil {
		return nil, fmt.Errorf("serialize transaction: %w", err)
	}
	if len(raw) > MaxTransactionSize {
		return nil, fmt.Errorf("%w: %d bytes for %d burns (max %d bytes)", ErrBatchTooLarge, len(raw), b.Len(), MaxTransactionSize)
	}
	return raw, nil
}
