// =================================
// File: internal/gateway/types.go
// =================================
package gateway

// LedgerEvent is a single deposit, withdrawal or fee-claim row from the
// indexer's position ledgers.
type LedgerEvent struct {
	TxID             string  `json:"tx_id"`
	TokenXAmount     float64 `json:"token_x_amount"`
	TokenYAmount     float64 `json:"token_y_amount"`
	TokenXUsdAmount  float64 `json:"token_x_usd_amount"`
	TokenYUsdAmount  float64 `json:"token_y_usd_amount"`
	OnchainTimestamp int64   `json:"onchain_timestamp"`
}

// IndexedPosition is the indexer's view of a single DLMM position.
// Pointer fields distinguish "absent" from a real zero.
type IndexedPosition struct {
	Address            string   `json:"address"`
	PairAddress        string   `json:"pair_address"`
	Owner              string   `json:"owner"`
	TotalFeeUsdClaimed *float64 `json:"total_fee_usd_claimed"`
	TokenXAmount       *float64 `json:"token_x_amount"`
	TokenYAmount       *float64 `json:"token_y_amount"`
	ClaimableFeeXUsd   *float64 `json:"claimable_fee_x_usd"`
	ClaimableFeeYUsd   *float64 `json:"claimable_fee_y_usd"`
	FeeX               *float64 `json:"fee_x"`
	FeeY               *float64 `json:"fee_y"`
}

// TokenMeta describes one side of a pair as the indexer reports it.
type TokenMeta struct {
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// PairInfo is the indexer's pool record.
type PairInfo struct {
	Address           string    `json:"address"`
	Name              string    `json:"name"`
	MintX             string    `json:"mint_x"`
	MintY             string    `json:"mint_y"`
	ReserveX          float64   `json:"reserve_x_amount"`
	ReserveY          float64   `json:"reserve_y_amount"`
	BinStep           int       `json:"bin_step"`
	BaseFeePercentage string    `json:"base_fee_percentage"`
	TokenX            TokenMeta `json:"token_x"`
	TokenY            TokenMeta `json:"token_y"`
}

// WalletEarning summarizes a wallet's lifetime activity in one pair.
type WalletEarning struct {
	TotalFeeUsdClaimed float64 `json:"total_fee_usd_claimed"`
	TotalDepositUsd    float64 `json:"total_deposit_usd"`
	TotalWithdrawUsd   float64 `json:"total_withdrawal_usd"`
}

// DammPool is one entry of the DAMM v2 pool listing.
type DammPool struct {
	Address    string `json:"pool_address"`
	TokenAMint string `json:"token_a_mint"`
	TokenBMint string `json:"token_b_mint"`
	Name       string `json:"pool_name"`
}

type dammPoolsResponse struct {
	Data   []DammPool `json:"data"`
	Total  int        `json:"total"`
	Status int        `json:"status"`
}

// TxInstruction is a flattened top-level instruction of a confirmed
// transaction: the owning program plus resolved account addresses.
type TxInstruction struct {
	ProgramID string
	Accounts  []string
}
