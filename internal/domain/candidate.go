package domain

// Candidate is a token account holding exactly one unit of its mint.
// Only candidates are sent to qualification.
type Candidate struct {
	AccountAddress string // token account address
	Mint           string // token mint address
}

// QualifiedNFT is a candidate that passed qualification and may be burned.
type QualifiedNFT struct {
	AccountAddress string
	Mint           string
}

// Qualified converts a candidate into a qualified NFT.
func (c Candidate) Qualified() QualifiedNFT {
	return QualifiedNFT{AccountAddress: c.AccountAddress, Mint: c.Mint}
}

// Mints returns the mint addresses of nfts in order.
func Mints(nfts []QualifiedNFT) []string {
	mints := make([]string, len(nfts))
	for i, nft := range nfts {
		mints[i] = nft.Mint
	}
	return mints
}

// Receipt describes a confirmed burn transaction.
type Receipt struct {
	Signature string
	Slot      uint64
	Burned    []QualifiedNFT
}
