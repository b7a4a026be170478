package dlmm

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Position account layout (little-endian):
//   0   8-byte discriminator
//   8   owner        pubkey
//   40  lb pair      pubkey
//   72  amount x     u64 (raw token units)
//   80  amount y     u64 (raw, lamports when Y is SOL)
//   88  fee x pending  u64 (accrued, not yet claimed)
//   96  fee y pending  u64
//   104 fee x claimed  u64 (lifetime total)
//   112 fee y claimed  u64
const positionAccountMinLen = 120

// PositionAccount is the decoded on-chain state of one liquidity position.
type PositionAccount struct {
	Owner          solana.PublicKey
	LbPair         solana.PublicKey
	AmountXRaw     uint64
	AmountYRaw     uint64
	FeeXPendingRaw uint64
	FeeYPendingRaw uint64
	FeeXClaimedRaw uint64
	FeeYClaimedRaw uint64
}

// DecodePositionAccount parses raw account data into a PositionAccount.
func DecodePositionAccount(data []byte) (*PositionAccount, error) {
	if len(data) < positionAccountMinLen {
		return nil, fmt.Errorf("position account too short: %d bytes, need %d", len(data), positionAccountMinLen)
	}

	acc := &PositionAccount{
		Owner:          solana.PublicKeyFromBytes(data[8:40]),
		LbPair:         solana.PublicKeyFromBytes(data[40:72]),
		AmountXRaw:     binary.LittleEndian.Uint64(data[72:80]),
		AmountYRaw:     binary.LittleEndian.Uint64(data[80:88]),
		FeeXPendingRaw: binary.LittleEndian.Uint64(data[88:96]),
		FeeYPendingRaw: binary.LittleEndian.Uint64(data[96:104]),
		FeeXClaimedRaw: binary.LittleEndian.Uint64(data[104:112]),
		FeeYClaimedRaw: binary.LittleEndian.Uint64(data[112:120]),
	}
	return acc, nil
}

// HasLiquidity reports whether the position still holds tokens on either side.
func (p *PositionAccount) HasLiquidity() bool {
	return p.AmountXRaw > 0 || p.AmountYRaw > 0
}

// Pair account layout (little-endian):
//   0   8-byte discriminator
//   8   mint x       pubkey
//   40  mint y       pubkey
//   72  reserve x    u64 (raw token units)
//   80  reserve y    u64 (raw, lamports when Y is SOL)
//   88  bin step     u16
//   90  base fee bps u16
const pairAccountMinLen = 92

// PairAccount is the decoded on-chain state of an LB pair.
type PairAccount struct {
	MintX       solana.PublicKey
	MintY       solana.PublicKey
	ReserveXRaw uint64
	ReserveYRaw uint64
	BinStep     uint16
	BaseFeeBps  uint16
}

// DecodePairAccount parses raw account data into a PairAccount.
func DecodePairAccount(data []byte) (*PairAccount, error) {
	if len(data) < pairAccountMinLen {
		return nil, fmt.Errorf("pair account too short: %d bytes, need %d", len(data), pairAccountMinLen)
	}

	acc := &PairAccount{
		MintX:       solana.PublicKeyFromBytes(data[8:40]),
		MintY:       solana.PublicKeyFromBytes(data[40:72]),
		ReserveXRaw: binary.LittleEndian.Uint64(data[72:80]),
		ReserveYRaw: binary.LittleEndian.Uint64(data[80:88]),
		BinStep:     binary.LittleEndian.Uint16(data[88:90]),
		BaseFeeBps:  binary.LittleEndian.Uint16(data[90:92]),
	}
	return acc, nil
}
