// Package metadata resolves Metaplex token metadata for a mint: the on-chain
// metadata account and the off-chain JSON document it points to.
package metadata

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"

	"solana-nft-burner/internal/domain"
	"solana-nft-burner/internal/solana"
)

// Default configuration values.
const (
	DefaultDocumentTimeout  = 10 * time.Second
	DefaultIPFSGateway      = "https://ipfs.io/ipfs/"
	DefaultMaxDocumentBytes = 1 << 20

	// metadataV1Key is the account discriminator of Metaplex MetadataV1.
	metadataV1Key = 4
	// key(1) + updateAuthority(32) + mint(32) + three empty borsh strings
	minMetadataSize = 1 + 32 + 32 + 3*4
)

var (
	// ErrMetadataNotFound is returned when a mint has no metadata account.
	ErrMetadataNotFound = errors.New("metadata not found")

	// ErrInvalidMetadata is returned when the metadata account cannot be decoded.
	ErrInvalidMetadata = errors.New("invalid metadata account")

	// ErrDocument is returned when the off-chain document cannot be fetched or decoded.
	ErrDocument = errors.New("off-chain document unavailable")
)

// AccountReader is the ledger call the service depends on.
type AccountReader interface {
	GetAccountInfo(ctx context.Context, pubkey string) (*solana.AccountInfo, error)
}

// Options for creating Service.
type Options struct {
	RPC AccountReader

	// HTTPClient fetches off-chain documents. Defaults to a client with DefaultDocumentTimeout.
	HTTPClient *http.Client
	// IPFSGateway replaces the ipfs:// scheme. Defaults to DefaultIPFSGateway.
	IPFSGateway string
	// MaxDocumentBytes caps the off-chain document size. Defaults to DefaultMaxDocumentBytes.
	MaxDocumentBytes int64
}

// Service loads metadata records and off-chain documents.
type Service struct {
	rpc              AccountReader
	http             *http.Client
	ipfsGateway      string
	maxDocumentBytes int64
}

// New creates a metadata service.
func New(opts Options) *Service {
	s := &Service{
		rpc:              opts.RPC,
		http:             opts.HTTPClient,
		ipfsGateway:      opts.IPFSGateway,
		maxDocumentBytes: opts.MaxDocumentBytes,
	}
	if s.http == nil {
		s.http = &http.Client{Timeout: DefaultDocumentTimeout}
	}
	if s.ipfsGateway == "" {
		s.ipfsGateway = DefaultIPFSGateway
	}
	if !strings.HasSuffix(s.ipfsGateway, "/") {
		s.ipfsGateway += "/"
	}
	if s.maxDocumentBytes <= 0 {
		s.maxDocumentBytes = DefaultMaxDocumentBytes
	}
	return s
}

// Locate derives the metadata account address of mint.
func (s *Service) Locate(mint string) (string, error) {
	address, err := solana.MetadataAddress(mint)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMetadataNotFound, err)
	}
	return address, nil
}

// Load fetches and decodes the metadata account at address.
func (s *Service) Load(ctx context.Context, address string) (*domain.MetadataRecord, error) {
	info, err := s.rpc.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("get metadata account %s: %w", address, err)
	}
	if info == nil || info.Data == "" {
		return nil, ErrMetadataNotFound
	}
	if info.Owner != "" && info.Owner != solana.MetadataProgramID {
		return nil, fmt.Errorf("%w: owned by %s", ErrInvalidMetadata, info.Owner)
	}

	record, err := decodeMetadata(info.Data)
	if err != nil {
		return nil, err
	}
	record.Address = address
	return record, nil
}

// Lookup locates and loads the metadata of mint, checking the record belongs to it.
func (s *Service) Lookup(ctx context.Context, mint string) (*domain.MetadataRecord, error) {
	address, err := s.Locate(mint)
	if err != nil {
		return nil, err
	}
	record, err := s.Load(ctx, address)
	if err != nil {
		return nil, err
	}
	if record.Mint != mint {
		return nil, fmt.Errorf("%w: record mint %s does not match %s", ErrInvalidMetadata, record.Mint, mint)
	}
	return record, nil
}

// decodeMetadata decodes a base64 MetadataV1 account.
func decodeMetadata(data string) (*domain.MetadataRecord, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode base64: %v", ErrInvalidMetadata, err)
	}
	if len(decoded) < minMetadataSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidMetadata, len(decoded))
	}
	if decoded[0] != metadataV1Key {
		return nil, fmt.Errorf("%w: account key %d", ErrInvalidMetadata, decoded[0])
	}

	md, err := token_metadata.MetadataDeserialize(decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}

	return &domain.MetadataRecord{
		Mint:            md.Mint.ToBase58(),
		UpdateAuthority: md.UpdateAuthority.ToBase58(),
		Name:            trimPadding(md.Data.Name),
		Symbol:          trimPadding(md.Data.Symbol),
		URI:             trimPadding(md.Data.Uri),
	}, nil
}

// trimPadding strips the NUL padding Metaplex stores fixed-size strings with.
func trimPadding(s string) string {
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

// FetchDocument fetches the off-chain JSON document at uri.
func (s *Service) FetchDocument(ctx context.Context, uri string) (*domain.Document, error) {
	target := s.resolveURI(uri)
	if target == "" {
		return nil, fmt.Errorf("%w: empty uri", ErrDocument)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrDocument, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocument, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrDocument, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrDocument, err)
	}
	if int64(len(body)) > s.maxDocumentBytes {
		return nil, fmt.Errorf("%w: document exceeds %d bytes", ErrDocument, s.maxDocumentBytes)
	}

	var doc domain.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode json: %v", ErrDocument, err)
	}
	return &doc, nil
}

// resolveURI rewrites ipfs:// and ar:// URIs to HTTP gateways.
func (s *Service) resolveURI(uri string) string {
	uri = strings.TrimSpace(uri)
	switch {
	case strings.HasPrefix(uri, "ipfs://"):
		path := strings.TrimPrefix(uri, "ipfs://")
		path = strings.TrimPrefix(path, "ipfs/")
		return s.ipfsGateway + path
	case strings.HasPrefix(uri, "ar://"):
		return "https://arweave.net/" + strings.TrimPrefix(uri, "ar://")
	default:
		return uri
	}
}
