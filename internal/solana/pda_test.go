package solana

import (
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/types"
)

func TestMetadataAddress_MatchesSDK(t *testing.T) {
	mints := []string{
		"So11111111111111111111111111111111111111112",
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
	}
	for i := 0; i < 8; i++ {
		mints = append(mints, types.NewAccount().PublicKey.ToBase58())
	}

	for _, mint := range mints {
		got, err := MetadataAddress(mint)
		if err != nil {
			t.Fatalf("MetadataAddress(%s): %v", mint, err)
		}

		want, err := token_metadata.GetTokenMetaPubkey(common.PublicKeyFromString(mint))
		if err != nil {
			t.Fatalf("GetTokenMetaPubkey(%s): %v", mint, err)
		}

		if got != want.ToBase58() {
			t.Errorf("mint %s: expected %s, got %s", mint, want.ToBase58(), got)
		}
	}
}

func TestFindProgramAddress_MatchesSDK(t *testing.T) {
	program := common.TokenProgramID
	seeds := [][]byte{[]byte("burn"), types.NewAccount().PublicKey.Bytes()}

	got, bump, err := FindProgramAddress(seeds, program.Bytes())
	if err != nil {
		t.Fatalf("FindProgramAddress: %v", err)
	}

	want, wantBump, err := common.FindProgramAddress(seeds, program)
	if err != nil {
		t.Fatalf("common.FindProgramAddress: %v", err)
	}

	if got != want.ToBase58() || bump != wantBump {
		t.Errorf("expected %s/%d, got %s/%d", want.ToBase58(), wantBump, got, bump)
	}
}

func TestFindProgramAddress_SeedTooLong(t *testing.T) {
	_, _, err := FindProgramAddress([][]byte{make([]byte, 33)}, common.TokenProgramID.Bytes())
	if err == nil {
		t.Fatal("expected error for seed over 32 bytes")
	}
}

func TestMetadataAddress_InvalidMint(t *testing.T) {
	for _, mint := range []string{"", "not-base58-0OIl", "3yZe7d"} {
		if _, err := MetadataAddress(mint); err == nil {
			t.Errorf("expected error for mint %q", mint)
		}
	}
}

func TestIsPubkey(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{TokenProgramID, true},
		{MetadataProgramID, true},
		{"", false},
		{"0OIl", false},
		{"abc", false},
	}
	for _, tt := range tests {
		if got := IsPubkey(tt.in); got != tt.want {
			t.Errorf("IsPubkey(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCommitment_Reaches(t *testing.T) {
	tests := []struct {
		status, target Commitment
		want           bool
	}{
		{CommitmentProcessed, CommitmentConfirmed, false},
		{CommitmentConfirmed, CommitmentConfirmed, true},
		{CommitmentFinalized, CommitmentConfirmed, true},
		{CommitmentConfirmed, CommitmentFinalized, false},
		{"", CommitmentProcessed, false},
	}
	for _, tt := range tests {
		if got := tt.status.Reaches(tt.target); got != tt.want {
			t.Errorf("%q.Reaches(%q) = %v, want %v", tt.status, tt.target, got, tt.want)
		}
	}
}

func TestParseCommitment(t *testing.T) {
	if c, err := ParseCommitment("finalized"); err != nil || c != CommitmentFinalized {
		t.Errorf("ParseCommitment(finalized) = %q, %v", c, err)
	}
	if _, err := ParseCommitment("max"); err == nil {
		t.Error("expected error for unknown commitment")
	}
}
