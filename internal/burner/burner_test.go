package burner

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-nft-burner/internal/domain"
	"solana-nft-burner/internal/observability"
	"solana-nft-burner/internal/solana"
	"solana-nft-burner/internal/solana/stub"
)

// burnInstruction is the SPL Token instruction index of Burn.
const burnInstruction = 8

func qualifiedNFTs(n int) []domain.QualifiedNFT {
	nfts := make([]domain.QualifiedNFT, n)
	for i := range nfts {
		nfts[i] = domain.QualifiedNFT{
			AccountAddress: types.NewAccount().PublicKey.ToBase58(),
			Mint:           types.NewAccount().PublicKey.ToBase58(),
		}
	}
	return nfts
}

func newBurner(rpc *stub.RPCClient, metrics *observability.Metrics) *Burner {
	return New(Options{
		Ledger:    rpc,
		Confirmer: solana.NewPollingConfirmer(rpc, solana.CommitmentConfirmed, time.Millisecond, time.Second),
		Metrics:   metrics,
	})
}

func TestNewBatch(t *testing.T) {
	nfts := qualifiedNFTs(5)

	assert.Equal(t, 0, NewBatch(nfts, 0).Len())
	assert.Equal(t, 0, NewBatch(nfts, -3).Len())
	assert.Equal(t, 0, NewBatch(nil, 3).Len())
	assert.Equal(t, nfts, NewBatch(nfts, 99).Entries())
	assert.Equal(t, nfts[:3], NewBatch(nfts, 3).Entries())

	// the batch does not alias the input
	batch := NewBatch(nfts, 2)
	nfts[0].Mint = "changed"
	assert.NotEqual(t, "changed", batch.Entries()[0].Mint)
}

func TestBurner_BurnsFirstLimitInOneTransaction(t *testing.T) {
	rpc := stub.NewRPCClient()
	metrics := observability.NewMetrics("test")
	owner := types.NewAccount()
	nfts := qualifiedNFTs(5)

	receipt, err := newBurner(rpc, metrics).Burn(context.Background(), owner, nfts, 3)
	require.NoError(t, err)

	require.Len(t, rpc.Sent, 1, "exactly one transaction")
	assert.Equal(t, nfts[:3], receipt.Burned)
	assert.NotEmpty(t, receipt.Signature)
	assert.NotZero(t, receipt.Slot)

	tx, err := types.TransactionDeserialize(rpc.Sent[0])
	require.NoError(t, err)
	require.Len(t, tx.Message.Instructions, 3)
	assert.Equal(t, owner.PublicKey, tx.Message.Accounts[0], "owner pays the fee")
	assert.Equal(t, rpc.Blockhash, tx.Message.RecentBlockHash)

	for i, ins := range tx.Message.Instructions {
		assert.Equal(t, common.TokenProgramID, tx.Message.Accounts[ins.ProgramIDIndex])
		require.Len(t, ins.Data, 9)
		assert.Equal(t, byte(burnInstruction), ins.Data[0])
		assert.Equal(t, uint64(1), binary.LittleEndian.Uint64(ins.Data[1:]))

		require.Len(t, ins.Accounts, 3)
		assert.Equal(t, nfts[i].AccountAddress, tx.Message.Accounts[ins.Accounts[0]].ToBase58())
		assert.Equal(t, nfts[i].Mint, tx.Message.Accounts[ins.Accounts[1]].ToBase58())
		assert.Equal(t, owner.PublicKey, tx.Message.Accounts[ins.Accounts[2]])
	}

	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.TokensBurned))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.BurnTransactions.WithLabelValues(observability.BurnStatusConfirmed)))
}

func TestBurner_FailedTransactionBurnsNothing(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.TxErr = json.RawMessage(`{"InstructionError":[2,{"Custom":4}]}`)
	metrics := observability.NewMetrics("test")

	receipt, err := newBurner(rpc, metrics).Burn(context.Background(), types.NewAccount(), qualifiedNFTs(5), 3)
	require.Error(t, err)
	assert.Nil(t, receipt)

	assert.ErrorIs(t, err, domain.ErrBurnFailed)
	assert.ErrorIs(t, err, solana.ErrTransactionFailed)

	var burnErr *domain.BurnError
	require.True(t, errors.As(err, &burnErr))
	assert.Equal(t, StageConfirm, burnErr.Stage)
	assert.NotEmpty(t, burnErr.Signature)

	assert.Len(t, rpc.Sent, 1, "no retry")
	assert.Zero(t, testutil.ToFloat64(metrics.TokensBurned))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.BurnTransactions.WithLabelValues(StageConfirm)))
}

func TestBurner_PreflightRejection(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.SendErr = &solana.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed: Attempt to debit an account but found no record of a prior credit.",
		Data:    json.RawMessage(`{"logs":["Program log: insufficient lamports"]}`),
	}

	_, err := newBurner(rpc, nil).Burn(context.Background(), types.NewAccount(), qualifiedNFTs(2), 2)
	require.Error(t, err)

	var burnErr *domain.BurnError
	require.True(t, errors.As(err, &burnErr))
	assert.Equal(t, StageSubmit, burnErr.Stage)
	assert.Contains(t, burnErr.Reason, "no record of a prior credit")
	assert.Equal(t, []string{"Program log: insufficient lamports"}, burnErr.Logs)
	assert.Equal(t, 1, rpc.MutatingCalls())
	assert.Empty(t, rpc.Sent)
}

func TestBurner_BlockhashFailure(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.BlockhashErr = stub.ErrUnavailable

	_, err := newBurner(rpc, nil).Burn(context.Background(), types.NewAccount(), qualifiedNFTs(1), 1)
	assert.ErrorIs(t, err, domain.ErrBurnFailed)
	assert.ErrorIs(t, err, stub.ErrUnavailable)
	assert.Zero(t, rpc.MutatingCalls())
}

func TestBurner_EmptySelectionTouchesNothing(t *testing.T) {
	rpc := stub.NewRPCClient()
	b := newBurner(rpc, nil)

	_, err := b.Burn(context.Background(), types.NewAccount(), qualifiedNFTs(3), 0)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = b.Burn(context.Background(), types.NewAccount(), nil, 5)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	assert.Zero(t, rpc.Calls("getLatestBlockhash"))
	assert.Zero(t, rpc.MutatingCalls())
}

func TestBurner_OversizeBatchRejectedBeforeSubmit(t *testing.T) {
	rpc := stub.NewRPCClient()

	_, err := newBurner(rpc, nil).Burn(context.Background(), types.NewAccount(), qualifiedNFTs(20), 20)
	assert.ErrorIs(t, err, domain.ErrBurnFailed)
	assert.ErrorIs(t, err, ErrBatchTooLarge)

	var burnErr *domain.BurnError
	require.True(t, errors.As(err, &burnErr))
	assert.Equal(t, StageBuild, burnErr.Stage)
	assert.Zero(t, rpc.MutatingCalls())
}

func TestBatch_InvalidEntry(t *testing.T) {
	batch := NewBatch([]domain.QualifiedNFT{{AccountAddress: "bogus", Mint: "bogus"}}, 1)
	_, err := batch.Instructions(types.NewAccount().PublicKey)
	assert.Error(t, err)
}

func TestBatch_SerializeFitsPacket(t *testing.T) {
	owner := types.NewAccount()
	raw, err := NewBatch(qualifiedNFTs(10), 10).Serialize(owner, "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(raw), MaxTransactionSize)
}
