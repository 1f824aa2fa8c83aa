package solana

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Well-known program IDs.
const (
	TokenProgramID    = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	MetadataProgramID = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"
)

const maxSeedLength = 32

// ErrNoViableBump is returned when no bump seed yields an off-curve address.
var ErrNoViableBump = errors.New("unable to find a viable program address bump seed")

// DecodePubkey decodes a base58 public key and checks its length.
func DecodePubkey(s string) ([]byte, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode base58 %q: %w", s, err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("public key %q has %d bytes, want 32", s, len(b))
	}
	return b, nil
}

// IsPubkey reports whether s is a valid base58 32-byte public key.
func IsPubkey(s string) bool {
	_, err := DecodePubkey(s)
	return err == nil
}

// MetadataAddress derives the Metaplex metadata PDA for a given mint.
// Seeds: ["metadata", metaplex_program_id, mint]
func MetadataAddress(mint string) (string, error) {
	mintBytes, err := DecodePubkey(mint)
	if err != nil {
		return "", err
	}
	programBytes, err := DecodePubkey(MetadataProgramID)
	if err != nil {
		return "", err
	}

	address, _, err := FindProgramAddress([][]byte{
		[]byte("metadata"),
		programBytes,
		mintBytes,
	}, programBytes)
	return address, err
}

// FindProgramAddress derives a Program Derived Address using the Solana algorithm:
// sha256(seeds || bump || programID || "ProgramDerivedAddress"), searching the bump
// from 255 down to 1 until the hash is off the ed25519 curve.
func FindProgramAddress(seeds [][]byte, programID []byte) (string, byte, error) {
	for _, seed := range seeds {
		if len(seed) > maxSeedLength {
			return "", 0, fmt.Errorf("seed of %d bytes exceeds %d", len(seed), maxSeedLength)
		}
	}

	for bump := 255; bump > 0; bump-- {
		h := sha256.New()
		for _, seed := range seeds {
			h.Write(seed)
		}
		h.Write([]byte{byte(bump)})
		h.Write(programID)
		h.Write([]byte("ProgramDerivedAddress"))
		hash := h.Sum(nil)

		if !isOnCurve(hash) {
			return base58.Encode(hash), byte(bump), nil
		}
	}

	return "", 0, ErrNoViableBump
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
