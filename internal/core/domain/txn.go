package domain

// TransactionStatus is the user-facing status of a history entry or chain tx.
type TransactionStatus string

const (
	TxStatusProcessing TransactionStatus = "processing"
	TxStatusCompleted  TransactionStatus = "completed"
	TxStatusRejected   TransactionStatus = "rejected"
)

// StatusFromProver maps a proving module history status onto TransactionStatus.
func StatusFromProver(s string) TransactionStatus {
	switch s {
	case "processed", "success", "completed":
		return TxStatusCompleted
	case "timeout", "failed", "rejected":
		return TxStatusRejected
	default:
		// settled, pending and unknown states are still in flight
		return TxStatusProcessing
	}
}

type TransactionKind string

const (
	TxKindDeposit TransactionKind = "deposit"
	TxKindReceive TransactionKind = "receive"
	TxKindSend    TransactionKind = "send"
)

// Transaction is one entry of the account history.
type Transaction struct {
	Kind       TransactionKind   `json:"kind"`
	Digest     string            `json:"digest"`
	From       string            `json:"from,omitempty"`
	To         string            `json:"to,omitempty"`
	TokenIndex uint32            `json:"token_index"`
	Amount     string            `json:"amount"`
	Status     TransactionStatus `json:"status"`
	Timestamp  int64             `json:"timestamp"`
	Transfers  int               `json:"transfers,omitempty"`
}

// HistoryCursor pages history in descending order.
type HistoryCursor struct {
	Cursor *int64 `json:"cursor,omitempty"`
	Limit  int    `json:"limit"`
}

// HistoryPage is a page of account history.
type HistoryPage struct {
	Items      []Transaction `json:"items"`
	Pagination Pagination    `json:"pagination"`
}

// UserData is the cached balance snapshot of an account.
type UserData struct {
	Balances       []TokenBalance `json:"balances"`
	DepositLPT     int64          `json:"deposit_lpt"`
	TransferLPT    int64          `json:"transfer_lpt"`
	TxLPT          int64          `json:"tx_lpt"`
	WithdrawalLPT  int64          `json:"withdrawal_lpt"`
	ProcessedCount int            `json:"processed_count"`
}
