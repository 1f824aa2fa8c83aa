// Package orchestrator coordinates the list, burn and inspect flows.
// Flow: scanner → (limit selection) → burner
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"

	"solana-nft-burner/internal/burner"
	"solana-nft-burner/internal/domain"
	"solana-nft-burner/internal/observability"
	"solana-nft-burner/internal/qualifier"
	"solana-nft-burner/internal/solana"
)

var (
	// ErrInvalidOwner is returned when the owner address is not a public key.
	ErrInvalidOwner = errors.New("invalid owner address")

	// ErrInvalidMint is returned when the mint address is not a public key.
	ErrInvalidMint = errors.New("invalid mint address")
)

// Scanner produces the qualified NFTs of an owner.
type Scanner interface {
	Scan(ctx context.Context, owner string) ([]domain.QualifiedNFT, error)
}

// Burner submits one burn batch.
type Burner interface {
	Submit(ctx context.Context, owner types.Account, batch burner.Batch) (*domain.Receipt, error)
}

// BurnerFactory builds the burner for a run that has a batch to submit.
// The returned release func is called once the submission finishes.
type BurnerFactory func(ctx context.Context) (Burner, func(), error)

// Explainer evaluates a single mint with full detail.
type Explainer interface {
	Explain(ctx context.Context, mint string) qualifier.Decision
}

// Orchestrator runs the CLI flows.
type Orchestrator struct {
	scanner   Scanner
	burner    Burner
	newBurner BurnerFactory
	explainer Explainer
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// Options for creating Orchestrator.
type Options struct {
	Scanner   Scanner
	Burner    Burner        // required for Burn unless NewBurner is set
	NewBurner BurnerFactory // used when Burner is nil
	Explainer Explainer     // required for Inspect

	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		scanner:   opts.Scanner,
		burner:    opts.Burner,
		newBurner: opts.NewBurner,
		explainer: opts.Explainer,
		metrics:   opts.Metrics,
		logger:    logger.Named("orchestrator"),
	}
}

// ListResult contains the outcome of a list run.
type ListResult struct {
	Owner string
	NFTs  []domain.QualifiedNFT
}

// List returns the qualified NFTs of owner.
func (o *Orchestrator) List(ctx context.Context, owner string) (*ListResult, error) {
	if !solana.IsPubkey(owner) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOwner, owner)
	}

	nfts, err := o.scanner.Scan(ctx, owner)
	if err != nil {
		return nil, err
	}

	o.metrics.MarkSuccess()
	return &ListResult{Owner: owner, NFTs: nfts}, nil
}

// BurnResult contains the outcome of a burn run.
// Exactly one of NoAction or Selected is set.
type BurnResult struct {
	Owner     string
	Qualified []domain.QualifiedNFT
	Selected  []domain.QualifiedNFT

	// NoAction explains why nothing was submitted.
	NoAction string
	DryRun   bool
	Receipt  *domain.Receipt
}

// Burn scans the signer's wallet and burns at most limit qualified NFTs in one
// transaction. A non-positive limit or an empty qualified set is a successful
// no-op that submits nothing. With dryRun the selection is returned unsubmitted.
func (o *Orchestrator) Burn(ctx context.Context, signer types.Account, limit int, dryRun bool) (*BurnResult, error) {
	owner := signer.PublicKey.ToBase58()
	result := &BurnResult{Owner: owner, DryRun: dryRun}

	if limit <= 0 {
		result.NoAction = fmt.Sprintf("burn limit is %d", limit)
		o.logger.Info("no action", zap.String("owner", owner), zap.String("reason", result.NoAction))
		o.metrics.MarkSuccess()
		return result, nil
	}

	nfts, err := o.scanner.Scan(ctx, owner)
	if err != nil {
		return nil, err
	}
	result.Qualified = nfts

	batch := burner.NewBatch(nfts, limit)
	if batch.Len() == 0 {
		result.NoAction = "no qualified NFTs"
		o.logger.Info("no action", zap.String("owner", owner), zap.String("reason", result.NoAction))
		o.metrics.MarkSuccess()
		return result, nil
	}
	result.Selected = batch.Entries()

	if dryRun {
		o.logger.Info("dry run, not submitting",
			zap.String("owner", owner),
			zap.Int("qualified", len(nfts)),
			zap.Int("selected", batch.Len()))
		o.metrics.MarkSuccess()
		return result, nil
	}

	b, release, err := o.burnerFor(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	o.logger.Info("burning",
		zap.String("owner", owner),
		zap.Int("qualified", len(nfts)),
		zap.Int("limit", limit),
		zap.Int("selected", batch.Len()))

	receipt, err := b.Submit(ctx, signer, batch)
	if err != nil {
		return nil, err
	}
	result.Receipt = receipt

	o.metrics.MarkSuccess()
	return result, nil
}

// Inspect explains the qualification decision for one mint.
func (o *Orchestrator) Inspect(ctx context.Context, mint string) (*qualifier.Decision, error) {
	if o.explainer == nil {
		return nil, errors.New("orchestrator: explainer is not configured")
	}
	if !solana.IsPubkey(mint) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMint, mint)
	}

	d := o.explainer.Explain(ctx, mint)
	return &d, nil
}

// burnerFor returns the configured burner, building one through NewBurner if needed.
func (o *Orchestrator) burnerFor(ctx context.Context) (Burner, func(), error) {
	if o.burner != nil {
		return o.burner, func() {}, nil
	}
	if o.newBurner == nil {
		return nil, nil, errors.New("orchestrator: burner is not configured")
	}
	b, release, err := o.newBurner(ctx)
	if err != nil {
		return nil, nil, err
	}
	if release == nil {
		release = func() {}
	}
	return b, release, nil
}
