// Package dlmm holds the on-chain constants and account layouts of the
// Meteora DLMM program that the portfolio core reads directly over RPC.
package dlmm

import "github.com/gagliardetto/solana-go"

// ProgramID is the Meteora DLMM (LB pair) program on mainnet.
const ProgramID = "LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo"

// ProgramPublicKey is ProgramID parsed once at package load.
var ProgramPublicKey = solana.MustPublicKeyFromBase58(ProgramID)

const LamportsPerSOL = 1_000_000_000

// WrappedSOLMint is the SPL wrapped-SOL mint, the quote target for
// converting arbitrary tokens into SOL.
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

// OwnerOffset is the byte offset of the owner field inside a position
// account: the owner pubkey sits right after the 8-byte discriminator.
const OwnerOffset = 8

// solMints are the mints treated as native/wrapped SOL when deciding
// whether the Y side of a pair can be priced directly off the SOL rate.
var solMints = map[string]struct{}{
	"So11111111111111111111111111111111111111112": {}, // wrapped SOL
	"11111111111111111111111111111111":            {}, // native SOL
}

// IsSOLMint reports whether mint is a recognized native or wrapped SOL mint.
func IsSOLMint(mint string) bool {
	_, ok := solMints[mint]
	return ok
}
