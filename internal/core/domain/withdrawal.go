package domain

// ContractWithdrawal is a withdrawal claimable on the liquidity contract.
// Nullifier is its identity: records sharing one are the same claim.
type ContractWithdrawal struct {
	Recipient  string `json:"recipient"`
	Nullifier  string `json:"nullifier"`
	Amount     string `json:"amount"`
	TokenIndex uint32 `json:"token_index"`
}

type WithdrawalStatus string

const (
	WithdrawalRequested WithdrawalStatus = "requested"
	WithdrawalRelayed   WithdrawalStatus = "relayed"
	WithdrawalSuccess   WithdrawalStatus = "success"
	WithdrawalNeedClaim WithdrawalStatus = "need_claim"
	WithdrawalFailed    WithdrawalStatus = "failed"
)

// WithdrawalRecord is a raw entry returned by the proving module.
type WithdrawalRecord struct {
	Contract  ContractWithdrawal `json:"contract_withdrawal"`
	Status    WithdrawalStatus   `json:"status"`
	Timestamp int64              `json:"timestamp,omitempty"`
}

// TimestampCursor pages withdrawal records in descending timestamp order.
type TimestampCursor struct {
	Cursor *int64 `json:"cursor,omitempty"`
	Limit  int    `json:"limit"`
	Order  string `json:"order"`
}

// Pagination describes the position of a page within the full result.
type Pagination struct {
	HasMore    bool   `json:"has_more"`
	NextCursor *int64 `json:"next_cursor,omitempty"`
	TotalCount int    `json:"total_count"`
}

// WithdrawalPage is what the proving module returns for one cursor request.
type WithdrawalPage struct {
	Records    []WithdrawalRecord `json:"records"`
	Pagination Pagination         `json:"pagination"`
}

// WithdrawalBuckets holds records partitioned by status.
type WithdrawalBuckets struct {
	Requested  []ContractWithdrawal `json:"requested"`
	Relayed    []ContractWithdrawal `json:"relayed"`
	Success    []ContractWithdrawal `json:"success"`
	NeedClaim  []ContractWithdrawal `json:"need_claim"`
	Failed     []ContractWithdrawal `json:"failed"`
	Pagination Pagination           `json:"pagination"`
}

// ClaimResult reports a submitted claim transaction.
type ClaimResult struct {
	TxHash string            `json:"tx_hash"`
	Status TransactionStatus `json:"status"`
}
