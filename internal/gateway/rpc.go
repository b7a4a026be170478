// =================================
// File: internal/gateway/rpc.go
// =================================
package gateway

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/alansory/metina/internal/dlmm"
)

// ChainClient reads DLMM state straight from a Solana RPC node. It is
// the ground truth the indexer-based paths fall back from and to.
type ChainClient struct {
	rpc    *rpc.Client
	logger *zap.Logger
}

func NewChainClient(rpcURL string, logger *zap.Logger) *ChainClient {
	return &ChainClient{
		rpc:    rpc.New(rpcURL),
		logger: logger.Named("chain"),
	}
}

// PositionsByOwner scans the DLMM program for position accounts whose
// owner field matches the wallet.
func (c *ChainClient) PositionsByOwner(ctx context.Context, owner solana.PublicKey) (map[string]*dlmm.PositionAccount, error) {
	opts := rpc.GetProgramAccountsOpts{
		Commitment: rpc.CommitmentConfirmed,
		Encoding:   solana.EncodingBase64,
		Filters: []rpc.RPCFilter{
			{
				Memcmp: &rpc.RPCFilterMemcmp{
					Offset: dlmm.OwnerOffset,
					Bytes:  solana.Base58(owner.Bytes()),
				},
			},
		},
	}

	accounts, err := c.rpc.GetProgramAccountsWithOpts(ctx, dlmm.ProgramPublicKey, &opts)
	if err != nil {
		return nil, fmt.Errorf("failed to scan program accounts: %w", err)
	}

	positions := make(map[string]*dlmm.PositionAccount, len(accounts))
	for _, account := range accounts {
		data := account.Account.Data.GetBinary()
		pos, err := dlmm.DecodePositionAccount(data)
		if err != nil {
			c.logger.Debug("skipping undecodable position account",
				zap.String("address", account.Pubkey.String()),
				zap.Error(err))
			continue
		}
		positions[account.Pubkey.String()] = pos
	}
	return positions, nil
}

// PositionAccount fetches and decodes one position account.
func (c *ChainClient) PositionAccount(ctx context.Context, address solana.PublicKey) (*dlmm.PositionAccount, error) {
	data, err := c.accountData(ctx, address)
	if err != nil {
		return nil, err
	}
	return dlmm.DecodePositionAccount(data)
}

// PairAccount fetches and decodes one lb pair account.
func (c *ChainClient) PairAccount(ctx context.Context, address solana.PublicKey) (*dlmm.PairAccount, error) {
	data, err := c.accountData(ctx, address)
	if err != nil {
		return nil, err
	}
	return dlmm.DecodePairAccount(data)
}

func (c *ChainClient) accountData(ctx context.Context, address solana.PublicKey) ([]byte, error) {
	result, err := c.rpc.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
		Encoding:   solana.EncodingBase64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}
	if result == nil || result.Value == nil {
		return nil, fmt.Errorf("account not found: %s", address)
	}
	return result.Value.Data.GetBinary(), nil
}

// Signatures returns the most recent transaction signatures touching
// the address, newest first, capped at limit.
func (c *ChainClient) Signatures(ctx context.Context, address solana.PublicKey, limit int) ([]string, error) {
	result, err := c.rpc.GetSignaturesForAddressWithOpts(ctx, address, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get signatures: %w", err)
	}

	sigs := make([]string, 0, len(result))
	for _, entry := range result {
		if entry.Err != nil {
			continue
		}
		sigs = append(sigs, entry.Signature.String())
	}
	return sigs, nil
}

// TransactionInstructions returns the top-level instructions of a
// confirmed transaction with program and account addresses resolved.
func (c *ChainClient) TransactionInstructions(ctx context.Context, signature string) ([]TxInstruction, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature: %w", err)
	}

	maxVersion := uint64(0)
	result, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if result == nil || result.Transaction == nil {
		return nil, fmt.Errorf("transaction not found: %s", signature)
	}

	tx, err := result.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}

	msg := tx.Message
	instructions := make([]TxInstruction, 0, len(msg.Instructions))
	for _, compiled := range msg.Instructions {
		program, err := msg.Program(compiled.ProgramIDIndex)
		if err != nil {
			continue
		}
		accounts := make([]string, 0, len(compiled.Accounts))
		for _, idx := range compiled.Accounts {
			account, err := msg.Account(idx)
			if err != nil {
				continue
			}
			accounts = append(accounts, account.String())
		}
		instructions = append(instructions, TxInstruction{
			ProgramID: program.String(),
			Accounts:  accounts,
		})
	}
	return instructions, nil
}

// TransactionAccounts returns every account address referenced by the
// transaction's message in declaration order.
func (c *ChainClient) TransactionAccounts(ctx context.Context, signature string) ([]string, error) {
	instructions, err := c.TransactionInstructions(ctx, signature)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var accounts []string
	for _, inst := range instructions {
		for _, account := range inst.Accounts {
			if _, ok := seen[account]; ok {
				continue
			}
			seen[account] = struct{}{}
			accounts = append(accounts, account)
		}
	}
	return accounts, nil
}
