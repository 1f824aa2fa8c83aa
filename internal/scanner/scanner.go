// Package scanner lists a wallet's token accounts, keeps single-unit
// candidates and qualifies them with a bounded number of concurrent checks.
package scanner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"solana-nft-burner/internal/domain"
	"solana-nft-burner/internal/observability"
	"solana-nft-burner/internal/solana"
)

// DefaultConcurrency is the number of candidates qualified at once when none is configured.
const DefaultConcurrency = 1

// nftAmount is the raw balance that marks a candidate NFT.
const nftAmount = "1"

// TokenAccountLister is the ledger call the scanner depends on.
type TokenAccountLister interface {
	GetTokenAccountsByOwner(ctx context.Context, owner, programID string) ([]solana.TokenAccount, error)
}

// Qualifier decides whether a mint is an eligible NFT. It must not fail.
type Qualifier interface {
	Qualifies(ctx context.Context, mint string) bool
}

// Options for creating Scanner.
type Options struct {
	Ledger    TokenAccountLister
	Qualifier Qualifier

	// Concurrency bounds simultaneous qualifier calls. Values below 1 mean DefaultConcurrency.
	Concurrency int
	// ProgramID is the token program to list accounts for. Defaults to solana.TokenProgramID.
	ProgramID string

	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// Scanner produces the qualified NFT set for an owner.
type Scanner struct {
	ledger      TokenAccountLister
	qualifier   Qualifier
	concurrency int
	programID   string
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// New creates a Scanner.
func New(opts Options) *Scanner {
	s := &Scanner{
		ledger:      opts.Ledger,
		qualifier:   opts.Qualifier,
		concurrency: opts.Concurrency,
		programID:   opts.ProgramID,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
	}
	if s.concurrency < 1 {
		s.concurrency = DefaultConcurrency
	}
	if s.programID == "" {
		s.programID = solana.TokenProgramID
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Concurrency returns the effective qualification bound.
func (s *Scanner) Concurrency() int {
	return s.concurrency
}

// Scan returns the qualified NFTs of owner in ledger order.
// A failed ledger query returns domain.ErrLedgerUnavailable and no partial result.
func (s *Scanner) Scan(ctx context.Context, owner string) ([]domain.QualifiedNFT, error) {
	start := time.Now()

	accounts, err := s.listAccounts(ctx, owner)
	if err != nil {
		return nil, err
	}

	candidates := FilterCandidates(accounts)
	s.logger.Info("token accounts listed",
		zap.String("owner", owner),
		zap.Int("accounts", len(accounts)),
		zap.Int("candidates", len(candidates)))

	qualified := s.qualify(ctx, candidates)

	duration := time.Since(start)
	s.metrics.RecordScan(len(accounts), len(candidates), len(qualified), duration)
	s.logger.Info("scan complete",
		zap.String("owner", owner),
		zap.Int("qualified", len(qualified)),
		zap.Duration("duration", duration))

	return qualified, nil
}

// Candidates returns the single-unit token accounts of owner without qualifying them.
func (s *Scanner) Candidates(ctx context.Context, owner string) ([]domain.Candidate, error) {
	accounts, err := s.listAccounts(ctx, owner)
	if err != nil {
		return nil, err
	}
	return FilterCandidates(accounts), nil
}

func (s *Scanner) listAccounts(ctx context.Context, owner string) ([]solana.TokenAccount, error) {
	accounts, err := s.ledger.GetTokenAccountsByOwner(ctx, owner, s.programID)
	if err != nil {
		return nil, fmt.Errorf("%w: list token accounts of %s: %w", domain.ErrLedgerUnavailable, owner, err)
	}
	return accounts, nil
}

// FilterCandidates keeps accounts whose raw amount is exactly "1", in input order.
// Entries with an unparsable address or mint are dropped, as are later
// accounts repeating a mint already kept.
func FilterCandidates(accounts []solana.TokenAccount) []domain.Candidate {
	candidates := make([]domain.Candidate, 0, len(accounts))
	seen := make(map[string]bool, len(accounts))

	for _, acc := range accounts {
		if acc.Amount != nftAmount {
			continue
		}
		if !solana.IsPubkey(acc.Address) || !solana.IsPubkey(acc.Mint) {
			continue
		}
		if seen[acc.Mint] {
			continue
		}
		seen[acc.Mint] = true

		candidates = append(candidates, domain.Candidate{
			AccountAddress: acc.Address,
			Mint:           acc.Mint,
		})
	}

	return candidates
}

// qualify runs the qualifier over candidates with at most s.concurrency calls
// in flight. Each result is written to the slot of its candidate index, so the
// output keeps candidate order whatever the completion order.
func (s *Scanner) qualify(ctx context.Context, candidates []domain.Candidate) []domain.QualifiedNFT {
	results := make([]bool, len(candidates))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			results[i] = s.qualifier.Qualifies(ctx, c.Mint)
			return nil
		})
	}
	// goroutines never return an error
	_ = g.Wait()

	qualified := make([]domain.QualifiedNFT, 0, len(candidates))
	for i, ok := range results {
		if ok {
			qualified = append(qualified, candidates[i].Qualified())
		}
	}
	return qualified
}
