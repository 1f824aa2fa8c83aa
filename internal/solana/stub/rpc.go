package stub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"solana-nft-burner/internal/solana"
)

// ErrUnavailable simulates a node that cannot be reached.
var ErrUnavailable = errors.New("stub: rpc unavailable")

// RPCClient implements solana.RPCClient in memory for testing.
// It is safe for concurrent use.
type RPCClient struct {
	mu sync.Mutex

	TokenAccounts map[string][]solana.TokenAccount // keyed by owner
	Accounts      map[string]*solana.AccountInfo   // keyed by address
	Statuses      map[string]*solana.SignatureStatus

	// Blockhash returned by GetLatestBlockhash.
	Blockhash string

	// Injected failures.
	TokenAccountsErr error
	AccountInfoErr   map[string]error
	BlockhashErr     error
	SendErr          error
	// TxErr, when set, makes sent transactions land with this on-chain error.
	TxErr json.RawMessage

	// OnGetAccountInfo runs inside GetAccountInfo before the lookup.
	OnGetAccountInfo func(pubkey string)

	// Sent records every raw transaction passed to SendTransaction.
	Sent [][]byte

	calls     map[string]int
	signature atomic.Uint64
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		TokenAccounts:  make(map[string][]solana.TokenAccount),
		Accounts:       make(map[string]*solana.AccountInfo),
		Statuses:       make(map[string]*solana.SignatureStatus),
		AccountInfoErr: make(map[string]error),
		Blockhash:      "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N",
		calls:          make(map[string]int),
	}
}

func (c *RPCClient) record(method string) {
	c.mu.Lock()
	c.calls[method]++
	c.mu.Unlock()
}

// Calls returns how many times method was invoked.
func (c *RPCClient) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// AddTokenAccounts adds token accounts for an owner.
func (c *RPCClient) AddTokenAccounts(owner string, accounts ...solana.TokenAccount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TokenAccounts[owner] = append(c.TokenAccounts[owner], accounts...)
}

// AddAccount adds raw account data at address.
func (c *RPCClient) AddAccount(address string, info *solana.AccountInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Accounts[address] = info
}

// GetTokenAccountsByOwner returns copies of the stored accounts for owner.
func (c *RPCClient) GetTokenAccountsByOwner(_ context.Context, owner, _ string) ([]solana.TokenAccount, error) {
	c.record("getTokenAccountsByOwner")
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.TokenAccountsErr != nil {
		return nil, c.TokenAccountsErr
	}
	accounts := make([]solana.TokenAccount, len(c.TokenAccounts[owner]))
	copy(accounts, c.TokenAccounts[owner])
	return accounts, nil
}

// GetAccountInfo returns the stored account or nil when absent.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.record("getAccountInfo")
	if c.OnGetAccountInfo != nil {
		c.OnGetAccountInfo(pubkey)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.AccountInfoErr[pubkey]; err != nil {
		return nil, err
	}
	info, ok := c.Accounts[pubkey]
	if !ok {
		return nil, nil
	}
	copy := *info
	return &copy, nil
}

// GetLatestBlockhash returns the configured blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context) (string, error) {
	c.record("getLatestBlockhash")
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.BlockhashErr != nil {
		return "", c.BlockhashErr
	}
	return c.Blockhash, nil
}

// SendTransaction records the transaction and marks it confirmed, or failed when TxErr is set.
func (c *RPCClient) SendTransaction(_ context.Context, rawTx []byte) (string, error) {
	c.record("sendTransaction")
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.SendErr != nil {
		return "", c.SendErr
	}

	c.Sent = append(c.Sent, append([]byte(nil), rawTx...))
	sig := fmt.Sprintf("stub-signature-%d", c.signature.Add(1))
	c.Statuses[sig] = &solana.SignatureStatus{
		Slot:               uint64(1000 + len(c.Sent)),
		Err:                c.TxErr,
		ConfirmationStatus: solana.CommitmentConfirmed,
	}
	return sig, nil
}

// GetSignatureStatuses returns stored statuses, nil for unknown signatures.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	c.record("getSignatureStatuses")
	c.mu.Lock()
	defer c.mu.Unlock()

	statuses := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		if s, ok := c.Statuses[sig]; ok {
			copy := *s
			statuses[i] = &copy
		}
	}
	return statuses, nil
}

// MutatingCalls counts calls that could change ledger state.
func (c *RPCClient) MutatingCalls() int {
	return c.Calls("sendTransaction")
}
