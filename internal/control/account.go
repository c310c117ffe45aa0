package control

import (
	"context"
	"fmt"
	"math/big"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
	"github.com/bertankofon/intmax2-client-sdk/internal/history"
)

// Login authenticates the wallet and starts the periodic resync.
func (c *Client) Login(ctx context.Context) (*domain.LoginResult, error) {
	c.syncer.Stop()
	c.syncer.Reset()

	res, err := c.auth.Login(ctx)
	if err != nil {
		return nil, err
	}
	c.syncer.Start(c.base)
	c.syncer.Kick(c.base)
	return res, nil
}

// Logout stops the resync task and clears the session.
func (c *Client) Logout(ctx context.Context) {
	c.syncer.Stop()
	c.syncer.Reset()
	c.auth.Logout(ctx)
}

// Session returns a read-only snapshot of the session.
func (c *Client) Session() domain.SessionView {
	return c.auth.View()
}

// IsLoggedIn reports whether a session is established.
func (c *Client) IsLoggedIn() bool {
	return c.auth.View().Authenticated
}

// FetchTokenBalances returns the account balances. An empty unsynced read
// falls back to the user data snapshot; otherwise a resync is started in the
// background so the next read is fresh.
func (c *Client) FetchTokenBalances(ctx context.Context) ([]domain.TokenBalance, error) {
	view := c.auth.View()
	if !view.Authenticated {
		return nil, domain.NotLoggedIn("fetch balances")
	}

	balances, err := c.account.GetBalancesWithoutSync(ctx, view.ViewKey)
	if err != nil {
		return nil, fmt.Errorf("fetch balances: %w", err)
	}
	if len(balances) > 0 {
		c.syncer.Kick(c.base)
		return balances, nil
	}

	data, err := c.syncer.UserData(ctx)
	if err != nil {
		return nil, err
	}
	return data.Balances, nil
}

// GetTransferFee quotes the fee of a rollup transfer.
func (c *Client) GetTransferFee(ctx context.Context) (*domain.FeeQuote, error) {
	return c.fees.TransferFee(ctx)
}

// GetWithdrawalFee quotes the fee of withdrawing tokenIndex.
func (c *Client) GetWithdrawalFee(ctx context.Context, tokenIndex uint32) (*domain.FeeQuote, error) {
	return c.fees.WithdrawalFee(ctx, tokenIndex)
}

// GetClaimFee quotes the fee of claiming a withdrawal.
func (c *Client) GetClaimFee(ctx context.Context) (*domain.FeeQuote, error) {
	return c.fees.ClaimFee(ctx)
}

// BroadcastTransaction submits transfers, or one withdrawal when isWithdrawal is set.
func (c *Client) BroadcastTransaction(ctx context.Context, transfers []domain.BroadcastTransfer, isWithdrawal bool) (*domain.TxResult, error) {
	c.txMu.Lock()
	defer c.txMu.Unlock()
	return c.txs.Broadcast(ctx, transfers, isWithdrawal)
}

// Withdraw moves tokens from the rollup to a settlement-chain address.
func (c *Client) Withdraw(ctx context.Context, w domain.BroadcastTransfer) (*domain.TxResult, error) {
	c.txMu.Lock()
	defer c.txMu.Unlock()
	return c.txs.Withdraw(ctx, w)
}

// Deposit moves tokens from the wallet into the rollup.
func (c *Client) Deposit(ctx context.Context, req domain.DepositRequest) (*domain.DepositResult, error) {
	return c.deposits.Deposit(ctx, req)
}

// EstimateDepositGas returns the fee of a deposit in wei.
func (c *Client) EstimateDepositGas(ctx context.Context, req domain.DepositRequest) (*big.Int, error) {
	return c.deposits.EstimateGas(ctx, req)
}

// FetchWithdrawals returns the account withdrawals grouped by status.
func (c *Client) FetchWithdrawals(ctx context.Context, cursor *int64) (*domain.WithdrawalBuckets, error) {
	return c.reconciler.Fetch(ctx, cursor)
}

// ClaimWithdrawals submits the claim of the wallet's own withdrawals.
func (c *Client) ClaimWithdrawals(ctx context.Context, ws []domain.ContractWithdrawal) (*domain.ClaimResult, error) {
	if !c.auth.View().Authenticated {
		return nil, domain.NotLoggedIn("claim withdrawals")
	}
	return c.claimer.Claim(ctx, ws)
}

// FetchDeposits returns the deposit history.
func (c *Client) FetchDeposits(ctx context.Context, cursor domain.HistoryCursor) (*domain.HistoryPage, error) {
	return c.history.Deposits(ctx, cursor)
}

// FetchTransfers returns the received transfer history.
func (c *Client) FetchTransfers(ctx context.Context, cursor domain.HistoryCursor) (*domain.HistoryPage, error) {
	return c.history.Transfers(ctx, cursor)
}

// FetchTransactions returns the sent transaction history.
func (c *Client) FetchTransactions(ctx context.Context, cursor domain.HistoryCursor) (*domain.HistoryPage, error) {
	return c.history.Transactions(ctx, cursor)
}

// FetchHistory returns all three histories at once.
func (c *Client) FetchHistory(ctx context.Context, cursor domain.HistoryCursor) (*history.History, error) {
	return c.history.All(ctx, cursor)
}

// SignMessage signs message with the spend key.
func (c *Client) SignMessage(ctx context.Context, message []byte) ([]string, error) {
	key, err := c.auth.SpendKey()
	if err != nil {
		return nil, err
	}
	sig, err := c.account.SignMessage(ctx, key, message)
	if err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}
	return sig, nil
}

// VerifySignature checks a spend-key signature of the logged-in account.
func (c *Client) VerifySignature(ctx context.Context, signature []string, message []byte) (bool, error) {
	view := c.auth.View()
	if !view.Authenticated {
		return false, domain.NotLoggedIn("verify signature")
	}
	ok, err := c.account.VerifySignature(ctx, signature, view.SpendPublicKey, message)
	if err != nil {
		return false, fmt.Errorf("verify signature: %w", err)
	}
	return ok, nil
}
