// Package qualifier decides whether a single-unit token is an eligible NFT.
// Every failure is treated as "does not qualify".
package qualifier

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"solana-nft-burner/internal/domain"
	"solana-nft-burner/internal/metadata"
	"solana-nft-burner/internal/observability"
)

// Mode selects the qualification rule.
type Mode string

const (
	// ModeExistence qualifies a mint that has an on-chain metadata record.
	ModeExistence Mode = "existence"
	// ModeAttribute additionally requires a matching off-chain attribute trait type.
	ModeAttribute Mode = "attribute"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeExistence, ModeAttribute:
		return m, nil
	default:
		return "", fmt.Errorf("unknown qualification mode %q (want %s or %s)", s, ModeExistence, ModeAttribute)
	}
}

// Policy is the qualification configuration.
type Policy struct {
	Mode Mode
	// TraitType is matched case-sensitively against attribute trait_type in attribute mode.
	TraitType string
}

// Validate checks the policy is usable.
func (p Policy) Validate() error {
	if _, err := ParseMode(string(p.Mode)); err != nil {
		return err
	}
	if p.Mode == ModeAttribute && p.TraitType == "" {
		return errors.New("attribute mode requires a target trait type")
	}
	return nil
}

// MetadataSource is the subset of metadata.Service used by the qualifier.
type MetadataSource interface {
	Lookup(ctx context.Context, mint string) (*domain.MetadataRecord, error)
	FetchDocument(ctx context.Context, uri string) (*domain.Document, error)
}

// Reasons a candidate did not qualify, used as metric labels.
const (
	ReasonNotFound = "not_found"
	ReasonMetadata = "metadata_error"
	ReasonNoURI    = "no_uri"
	ReasonDocument = "document_error"
	ReasonNoTrait  = "trait_missing"
	ReasonPanic    = "panic"
)

// Decision is the full outcome of qualifying one mint.
type Decision struct {
	Mint      string
	Qualified bool
	Reason    string // empty when qualified
	Record    *domain.MetadataRecord
	Document  *domain.Document
	Err       error // wraps domain.ErrQualification when evaluation failed
}

// Options for creating Qualifier.
type Options struct {
	Policy   Policy
	Metadata MetadataSource
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// Qualifier applies a Policy to mints.
type Qualifier struct {
	policy   Policy
	metadata MetadataSource
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// New creates a Qualifier.
func New(opts Options) (*Qualifier, error) {
	if err := opts.Policy.Validate(); err != nil {
		return nil, err
	}
	if opts.Metadata == nil {
		return nil, errors.New("qualifier: metadata source is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Qualifier{
		policy:   opts.Policy,
		metadata: opts.Metadata,
		metrics:  opts.Metrics,
		logger:   logger,
	}, nil
}

// Policy returns the configured policy.
func (q *Qualifier) Policy() Policy {
	return q.policy
}

// Qualifies reports whether mint is an eligible NFT. It never fails:
// any error collapses to false.
func (q *Qualifier) Qualifies(ctx context.Context, mint string) bool {
	return q.Explain(ctx, mint).Qualified
}

// Explain evaluates mint and returns the decision with the data it was based on.
func (q *Qualifier) Explain(ctx context.Context, mint string) (d Decision) {
	d.Mint = mint

	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("qualifier panic",
				zap.String("mint", mint),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			d = Decision{
				Mint:   mint,
				Reason: ReasonPanic,
				Err:    fmt.Errorf("%w: panic: %v", domain.ErrQualification, r),
			}
		}
		if !d.Qualified {
			q.metrics.QualificationFailed(d.Reason)
			q.logger.Debug("candidate not qualified",
				zap.String("mint", mint),
				zap.String("reason", d.Reason),
				zap.Error(d.Err))
		}
	}()

	record, err := q.metadata.Lookup(ctx, mint)
	if err != nil {
		d.Reason = ReasonMetadata
		if errors.Is(err, metadata.ErrMetadataNotFound) {
			d.Reason = ReasonNotFound
		}
		d.Err = fmt.Errorf("%w: %w", domain.ErrQualification, err)
		return d
	}
	d.Record = record

	if q.policy.Mode == ModeExistence {
		d.Qualified = true
		return d
	}

	if record.URI == "" {
		d.Reason = ReasonNoURI
		d.Err = fmt.Errorf("%w: metadata has no uri", domain.ErrQualification)
		return d
	}

	doc, err := q.metadata.FetchDocument(ctx, record.URI)
	if err != nil {
		d.Reason = ReasonDocument
		d.Err = fmt.Errorf("%w: %w", domain.ErrQualification, err)
		return d
	}
	d.Document = doc

	if !doc.HasTrait(q.policy.TraitType) {
		d.Reason = ReasonNoTrait
		return d
	}

	d.Qualified = true
	return d
}
