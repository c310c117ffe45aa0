package domain

import "errors"

// Error classes. Match with errors.Is.
var (
	ErrAuthentication      = errors.New("authentication error")
	ErrUnsupportedWallet   = errors.New("unsupported wallet")
	ErrNotLoggedIn         = errors.New("not logged in")
	ErrAMLCheckFailed      = errors.New("AML check failed")
	ErrApproval            = errors.New("approval failed")
	ErrSubmissionFailed    = errors.New("submission failed")
	ErrFinalization        = errors.New("finalization failed")
	ErrReconciliation      = errors.New("withdrawal reconciliation failed")
	ErrConfirmationTimeout = errors.New("confirmation timeout")
	ErrTransactionRejected = errors.New("transaction rejected")
	ErrInvalidAmount       = errors.New("invalid amount")

	ErrInvalidWithdrawAddress = errors.New("invalid withdrawal address")
	ErrInvalidTransferAddress = errors.New("invalid transfer address")
	ErrMainnetUnsupported     = errors.New("mainnet is not supported yet")
	ErrNoWithdrawalsToClaim   = errors.New("no withdrawals to claim")
)

// User-facing messages.
const (
	MsgSendFailed     = "Failed to send tx request"
	MsgFinalizeFailed = "Failed to finalize tx"
	MsgAMLFailed      = "AML check failed"
	MsgNotLoggedIn    = "Not logged in"
	MsgNothingToClaim = "No withdrawals to claim"

	MsgUnsupportedWallet = "Signature verification failed. You are using an unsupported wallet provider."
	MsgDifferentAccount  = "Different Google account detected. Please use the same Google account you used during initial setup."
	MsgSwitchedFromOwn   = "Wallet type mismatch. You initially used a different wallet. Please switch back to your original wallet provider or contact support."
	MsgSwitchedToOwn     = "Wallet type mismatch. You initially used INTMAX Wallet. Please switch back to INTMAX Wallet or contact support."
)

// Error carries a user-facing message, its class, and the underlying cause.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

// NewError builds an Error. msg defaults to the kind's text.
func NewError(kind error, op, msg string, cause error) *Error {
	if msg == "" && kind != nil {
		msg = kind.Error()
	}
	return &Error{Kind: kind, Op: op, Msg: msg, Err: cause}
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// parentKind maps a narrow class to the broader class it also belongs to.
var parentKind = map[error]error{
	ErrUnsupportedWallet: ErrAuthentication,
}

func (e *Error) Is(target error) bool {
	if e.Kind == nil {
		return false
	}
	if target == e.Kind {
		return true
	}
	parent, ok := parentKind[e.Kind]
	return ok && target == parent
}

// IsRetryable reports whether a pipeline error may succeed if the call is repeated.
// Finalization errors are not retryable: the memo is consumed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSubmissionFailed) && !errors.Is(err, ErrFinalization)
}

// NotLoggedIn is returned by every operation that needs key material.
func NotLoggedIn(op string) error {
	return NewError(ErrNotLoggedIn, op, MsgNotLoggedIn, nil)
}
