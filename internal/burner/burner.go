// Package burner destroys a batch of qualified NFTs in one atomic transaction.
// Either every burn in the batch commits or none does.
package burner

import (
	"context"
	"errors"
	"strings"

	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"

	"solana-nft-burner/internal/domain"
	"solana-nft-burner/internal/observability"
	"solana-nft-burner/internal/solana"
)

// Stages at which a burn can fail, also used as metric status labels.
const (
	StageBlockhash = "blockhash"
	StageBuild     = "build"
	StageSubmit    = "submit"
	StageConfirm   = "confirm"
)

// Ledger is the subset of solana.RPCClient used to submit a transaction.
type Ledger interface {
	GetLatestBlockhash(ctx context.Context) (string, error)
	SendTransaction(ctx context.Context, rawTx []byte) (string, error)
}

// Options for creating Burner.
type Options struct {
	Ledger    Ledger
	Confirmer solana.Confirmer
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// Burner submits burn batches.
type Burner struct {
	ledger    Ledger
	confirmer solana.Confirmer
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// New creates a Burner.
func New(opts Options) *Burner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Burner{
		ledger:    opts.Ledger,
		confirmer: opts.Confirmer,
		metrics:   opts.Metrics,
		logger:    logger,
	}
}

// Burn burns the first limit entries of nfts in one transaction signed by owner
// and waits for confirmation. Callers decide whether to burn at all; an empty
// selection returns ErrEmptyBatch without touching the ledger.
func (b *Burner) Burn(ctx context.Context, owner types.Account, nfts []domain.QualifiedNFT, limit int) (*domain.Receipt, error) {
	return b.Submit(ctx, owner, NewBatch(nfts, limit))
}

// Submit signs, sends and confirms batch. Failures are returned as *domain.BurnError.
func (b *Burner) Submit(ctx context.Context, owner types.Account, batch Batch) (*domain.Receipt, error) {
	if batch.Len() == 0 {
		return nil, ErrEmptyBatch
	}

	blockhash, err := b.ledger.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, b.fail(StageBlockhash, "", err)
	}

	raw, err := batch.Serialize(owner, blockhash)
	if err != nil {
		return nil, b.fail(StageBuild, "", err)
	}

	b.logger.Info("submitting burn transaction",
		zap.Int("burns", batch.Len()),
		zap.Int("bytes", len(raw)),
		zap.Strings("mints", domain.Mints(batch.entries)))

	signature, err := b.ledger.SendTransaction(ctx, raw)
	if err != nil {
		return nil, b.fail(StageSubmit, "", err)
	}

	status, err := b.confirmer.Confirm(ctx, signature)
	if err != nil {
		return nil, b.fail(StageConfirm, signature, err)
	}

	receipt := &domain.Receipt{
		Signature: signature,
		Burned:    batch.Entries(),
	}
	if status != nil {
		receipt.Slot = status.Slot
	}

	b.metrics.RecordBurn(observability.BurnStatusConfirmed, batch.Len())
	b.logger.Info("burn transaction confirmed",
		zap.String("signature", signature),
		zap.Uint64("slot", receipt.Slot),
		zap.Int("burned", batch.Len()))

	return receipt, nil
}

// fail wraps err into a domain.BurnError carrying the ledger's reason.
func (b *Burner) fail(stage, signature string, err error) error {
	burnErr := &domain.BurnError{
		Stage:     stage,
		Signature: signature,
		Reason:    err.Error(),
		Err:       err,
	}

	var rpcErr *solana.RPCError
	if errors.As(err, &rpcErr) {
		burnErr.Reason = rpcErr.Message
		burnErr.Logs = rpcErr.Logs()
	}

	b.metrics.RecordBurn(stage, 0)
	b.logger.Error("burn transaction failed",
		zap.String("stage", stage),
		zap.String("signature", signature),
		zap.String("reason", burnErr.Reason),
		zap.String("logs", strings.Join(burnErr.Logs, "\n")))

	return burnErr
}
