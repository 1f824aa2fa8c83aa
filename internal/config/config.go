// Package config loads run configuration from the environment.
// An optional .env file is read first; variables already set in the
// environment take precedence over it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/joho/godotenv"
	"github.com/mr-tron/base58"

	"solana-nft-burner/internal/logging"
	"solana-nft-burner/internal/qualifier"
	"solana-nft-burner/internal/solana"
)

// DefaultEnvFile is loaded when no explicit path is given. Missing is fine.
const DefaultEnvFile = ".env"

// Environment keys.
const (
	EnvPrivateKey      = "PRIVATE_KEY"
	EnvCluster         = "SOLANA_CLUSTER"
	EnvRPCURL          = "SOLANA_RPC_URL"
	EnvWSURL           = "SOLANA_WS_URL"
	EnvCommitment      = "SOLANA_COMMITMENT"
	EnvSendMaxRetries  = "SOLANA_SEND_MAX_RETRIES"
	EnvBurnLimit       = "BURN_LIMIT"
	EnvScanConcurrency = "SCAN_CONCURRENCY"
	EnvQualifyMode     = "QUALIFY_MODE"
	EnvQualifyTrait    = "QUALIFY_TRAIT"
	EnvRPCTimeout      = "RPC_TIMEOUT"
	EnvMetadataTimeout = "METADATA_HTTP_TIMEOUT"
	EnvConfirmTimeout  = "CONFIRM_TIMEOUT"
	EnvIPFSGateway     = "IPFS_GATEWAY"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
	EnvLogFile         = "LOG_FILE"
	EnvMetricsTextfile = "METRICS_TEXTFILE"
)

// Clusters.
const (
	ClusterMainnet  = "mainnet-beta"
	ClusterDevnet   = "devnet"
	ClusterTestnet  = "testnet"
	ClusterLocalnet = "localnet"
)

// ErrNoSigner is returned by Signer when no private key is configured.
var ErrNoSigner = fmt.Errorf("%s is not set", EnvPrivateKey)

// Config is the full run configuration.
type Config struct {
	PrivateKey string // base-58 64-byte secret key, never logged

	Cluster    string
	RPCURL     string
	WSURL      string
	Commitment solana.Commitment
	// SendMaxRetries caps node-side rebroadcast of a sent transaction; nil keeps the node default.
	SendMaxRetries *uint

	BurnLimit       int
	ScanConcurrency int
	Policy          qualifier.Policy

	RPCTimeout      time.Duration
	MetadataTimeout time.Duration
	ConfirmTimeout  time.Duration
	IPFSGateway     string

	Log             logging.Options
	MetricsTextfile string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Cluster:         ClusterMainnet,
		Commitment:      solana.CommitmentConfirmed,
		BurnLimit:       0,
		ScanConcurrency: 1,
		Policy:          qualifier.Policy{Mode: qualifier.ModeExistence, TraitType: "Texture"},
		RPCTimeout:      30 * time.Second,
		MetadataTimeout: 10 * time.Second,
		ConfirmTimeout:  60 * time.Second,
		IPFSGateway:     "https://ipfs.io/ipfs/",
		Log:             logging.Options{Level: "info", Format: logging.FormatConsole},
	}
}

// Load reads envFile (DefaultEnvFile when empty) and then the environment.
// An explicitly named envFile must exist.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", DefaultEnvFile, err)
		}
	} else if err := godotenv.Load(envFile); err != nil {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg, err := FromLookup(os.LookupEnv)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromLookup builds a Config from a lookup function such as os.LookupEnv.
// All parse and validation errors are reported together.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	integer := func(key string, dst *int) {
		var raw string
		str(key, &raw)
		if raw == "" {
			return
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid integer %q", key, raw))
			return
		}
		*dst = n
	}
	duration := func(key string, dst *time.Duration) {
		var raw string
		str(key, &raw)
		if raw == "" {
			return
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", key, raw))
			return
		}
		*dst = d
	}

	str(EnvPrivateKey, &cfg.PrivateKey)
	str(EnvCluster, &cfg.Cluster)
	str(EnvRPCURL, &cfg.RPCURL)
	str(EnvWSURL, &cfg.WSURL)

	var commitment string
	str(EnvCommitment, &commitment)
	if commitment != "" {
		c, err := solana.ParseCommitment(commitment)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvCommitment, err))
		} else {
			cfg.Commitment = c
		}
	}

	var retries string
	str(EnvSendMaxRetries, &retries)
	if retries != "" {
		n, err := strconv.ParseUint(retries, 10, 32)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid count %q", EnvSendMaxRetries, retries))
		} else {
			r := uint(n)
			cfg.SendMaxRetries = &r
		}
	}

	integer(EnvBurnLimit, &cfg.BurnLimit)
	integer(EnvScanConcurrency, &cfg.ScanConcurrency)

	var mode string
	str(EnvQualifyMode, &mode)
	if mode != "" {
		cfg.Policy.Mode = qualifier.Mode(strings.ToLower(mode))
	}
	// the trait is matched case-sensitively, so it is not normalized
	if v, ok := lookup(EnvQualifyTrait); ok && v != "" {
		cfg.Policy.TraitType = v
	}

	duration(EnvRPCTimeout, &cfg.RPCTimeout)
	duration(EnvMetadataTimeout, &cfg.MetadataTimeout)
	duration(EnvConfirmTimeout, &cfg.ConfirmTimeout)
	str(EnvIPFSGateway, &cfg.IPFSGateway)

	str(EnvLogLevel, &cfg.Log.Level)
	str(EnvLogFormat, &cfg.Log.Format)
	str(EnvLogFile, &cfg.Log.File)
	str(EnvMetricsTextfile, &cfg.MetricsTextfile)

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate checks value ranges and consistency.
func (c Config) Validate() error {
	var errs []error

	if c.RPCURL == "" {
		if _, err := ClusterEndpoint(c.Cluster); err != nil {
			errs = append(errs, err)
		}
	}
	if c.ScanConcurrency < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", EnvScanConcurrency, c.ScanConcurrency))
	}
	if err := c.Policy.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%s/%s: %w", EnvQualifyMode, EnvQualifyTrait, err))
	}
	if c.RPCTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", EnvRPCTimeout))
	}
	if c.MetadataTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", EnvMetadataTimeout))
	}
	if c.ConfirmTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", EnvConfirmTimeout))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", EnvLogLevel, err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", logging.FormatConsole, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("%s: unknown format %q", EnvLogFormat, c.Log.Format))
	}

	return errors.Join(errs...)
}

// Endpoint returns the JSON-RPC endpoint, preferring an explicit URL over the cluster default.
func (c Config) Endpoint() string {
	if c.RPCURL != "" {
		return c.RPCURL
	}
	endpoint, _ := ClusterEndpoint(c.Cluster)
	return endpoint
}

// Signer decodes the configured secret key.
func (c Config) Signer() (types.Account, error) {
	if c.PrivateKey == "" {
		return types.Account{}, ErrNoSigner
	}
	raw, err := base58.Decode(c.PrivateKey)
	if err != nil {
		return types.Account{}, fmt.Errorf("%s: not base-58", EnvPrivateKey)
	}
	if len(raw) != 64 {
		return types.Account{}, fmt.Errorf("%s: want 64 bytes, got %d", EnvPrivateKey, len(raw))
	}
	acc, err := types.AccountFromBytes(raw)
	if err != nil {
		return types.Account{}, fmt.Errorf("%s: %w", EnvPrivateKey, err)
	}
	return acc, nil
}

// ClusterEndpoint maps a cluster name to its public JSON-RPC endpoint.
func ClusterEndpoint(cluster string) (string, error) {
	switch cluster {
	case ClusterMainnet, "mainnet":
		return rpc.MainnetRPCEndpoint, nil
	case ClusterDevnet:
		return rpc.DevnetRPCEndpoint, nil
	case ClusterTestnet:
		return rpc.TestnetRPCEndpoint, nil
	case ClusterLocalnet:
		return rpc.LocalnetRPCEndpoint, nil
	default:
		return "", fmt.Errorf("%s: unknown cluster %q", EnvCluster, cluster)
	}
}
