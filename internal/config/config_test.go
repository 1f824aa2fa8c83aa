package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-nft-burner/internal/qualifier"
	"solana-nft-burner/internal/solana"
)

func lookupMap(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookupMap(nil))
	require.NoError(t, err)

	assert.Equal(t, ClusterMainnet, cfg.Cluster)
	assert.Equal(t, rpc.MainnetRPCEndpoint, cfg.Endpoint())
	assert.Equal(t, solana.CommitmentConfirmed, cfg.Commitment)
	assert.Equal(t, 0, cfg.BurnLimit)
	assert.Equal(t, 1, cfg.ScanConcurrency)
	assert.Equal(t, qualifier.ModeExistence, cfg.Policy.Mode)
	assert.Equal(t, "Texture", cfg.Policy.TraitType)
	assert.Equal(t, 30*time.Second, cfg.RPCTimeout)
	assert.Equal(t, 60*time.Second, cfg.ConfirmTimeout)
	assert.Empty(t, cfg.WSURL)
	assert.Nil(t, cfg.SendMaxRetries)
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := FromLookup(lookupMap(map[string]string{
		EnvCluster:         "devnet",
		EnvWSURL:           "wss://api.devnet.solana.com",
		EnvCommitment:      "finalized",
		EnvBurnLimit:       "3",
		EnvScanConcurrency: "4",
		EnvQualifyMode:     "attribute",
		EnvQualifyTrait:    "Background",
		EnvRPCTimeout:      "5s",
		EnvConfirmTimeout:  "2m",
		EnvLogLevel:        "debug",
		EnvLogFormat:       "json",
		EnvSendMaxRetries:  "0",
	}))
	require.NoError(t, err)
	require.NotNil(t, cfg.SendMaxRetries)
	assert.Equal(t, uint(0), *cfg.SendMaxRetries)

	assert.Equal(t, rpc.DevnetRPCEndpoint, cfg.Endpoint())
	assert.Equal(t, solana.CommitmentFinalized, cfg.Commitment)
	assert.Equal(t, 3, cfg.BurnLimit)
	assert.Equal(t, 4, cfg.ScanConcurrency)
	assert.Equal(t, qualifier.Policy{Mode: qualifier.ModeAttribute, TraitType: "Background"}, cfg.Policy)
	assert.Equal(t, 5*time.Second, cfg.RPCTimeout)
	assert.Equal(t, 2*time.Minute, cfg.ConfirmTimeout)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestFromLookup_RPCURLOverridesCluster(t *testing.T) {
	cfg, err := FromLookup(lookupMap(map[string]string{
		EnvCluster: "devnet",
		EnvRPCURL:  "https://rpc.example.com/?api-key=abc",
	}))
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.example.com/?api-key=abc", cfg.Endpoint())
}

func TestFromLookup_AggregatesErrors(t *testing.T) {
	_, err := FromLookup(lookupMap(map[string]string{
		EnvCluster:         "moonnet",
		EnvCommitment:      "max",
		EnvBurnLimit:       "three",
		EnvScanConcurrency: "0",
		EnvRPCTimeout:      "soon",
		EnvQualifyMode:     "fuzzy",
		EnvSendMaxRetries:  "-4",
	}))
	require.Error(t, err)

	msg := err.Error()
	for _, key := range []string{EnvCluster, EnvCommitment, EnvBurnLimit, EnvScanConcurrency, EnvRPCTimeout, EnvQualifyMode, EnvSendMaxRetries} {
		assert.Contains(t, msg, key)
	}
}

func TestFromLookup_AttributeModeNeedsTrait(t *testing.T) {
	cfg := Default()
	cfg.Policy = qualifier.Policy{Mode: qualifier.ModeAttribute}
	assert.Error(t, cfg.Validate())
}

func TestSigner(t *testing.T) {
	acc := types.NewAccount()
	cfg := Default()
	cfg.PrivateKey = base58.Encode(acc.PrivateKey)

	signer, err := cfg.Signer()
	require.NoError(t, err)
	assert.Equal(t, acc.PublicKey, signer.PublicKey)
}

func TestSigner_Invalid(t *testing.T) {
	cfg := Default()
	_, err := cfg.Signer()
	assert.ErrorIs(t, err, ErrNoSigner)

	cfg.PrivateKey = "0OIl"
	_, err = cfg.Signer()
	assert.Error(t, err)

	cfg.PrivateKey = base58.Encode(make([]byte, 32))
	_, err = cfg.Signer()
	assert.Error(t, err)
	assert.NotContains(t, err.Error(), cfg.PrivateKey, "secret must not leak into errors")
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "burn.env")
	require.NoError(t, os.WriteFile(path, []byte("BURN_LIMIT=7\nQUALIFY_MODE=attribute\nQUALIFY_TRAIT=Texture\n"), 0o600))

	// variables already in the environment win over the file
	t.Setenv(EnvQualifyTrait, "Color")
	// godotenv sets process variables; clear them once the test ends
	t.Setenv(EnvBurnLimit, "")
	t.Setenv(EnvQualifyMode, "")
	os.Unsetenv(EnvBurnLimit)
	os.Unsetenv(EnvQualifyMode)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.BurnLimit)
	assert.Equal(t, qualifier.ModeAttribute, cfg.Policy.Mode)
	assert.Equal(t, "Color", cfg.Policy.TraitType)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.Error(t, err)
}

func TestClusterEndpoint(t *testing.T) {
	for cluster, want := range map[string]string{
		ClusterMainnet:  rpc.MainnetRPCEndpoint,
		ClusterDevnet:   rpc.DevnetRPCEndpoint,
		ClusterTestnet:  rpc.TestnetRPCEndpoint,
		ClusterLocalnet: rpc.LocalnetRPCEndpoint,
	} {
		got, err := ClusterEndpoint(cluster)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ClusterEndpoint("moonnet")
	assert.Error(t, err)
}
