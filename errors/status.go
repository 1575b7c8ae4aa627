package errors

const (
	// SuccessCode is reported for a nil error.
	SuccessCode = 0
	// InternalCode is reported for any error that does not wrap a
	// registered root error.
	InternalCode = 1
)

// Signing and payer
var (
	// ErrInvalidSignature is returned when a required signature is missing
	// or does not verify.
	ErrInvalidSignature = Register(2, "INVALID_SIGNATURE")
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = Register(3, "NOT_FOUND")
	// ErrInvalidTransactionBody is returned for malformed transaction data.
	ErrInvalidTransactionBody = Register(4, "INVALID_TRANSACTION_BODY")
	// ErrState is returned when an object is in an invalid state.
	ErrState = Register(5, "INVALID_STATE")
	// ErrDuplicate is returned when an entity already exists.
	ErrDuplicate = Register(6, "DUPLICATE")
	// ErrType is returned on a type conversion failure.
	ErrType = Register(7, "INVALID_TYPE")
	// ErrOverflow is returned when an arithmetic operation overflows.
	ErrOverflow = Register(8, "OVERFLOW")
	// ErrDatabase is returned when the underlying store fails.
	ErrDatabase = Register(9, "DATABASE")

	ErrInsufficientPayerBalance   = Register(10, "INSUFFICIENT_PAYER_BALANCE")
	ErrInsufficientAccountBalance = Register(11, "INSUFFICIENT_ACCOUNT_BALANCE")
	ErrInsufficientTokenBalance   = Register(12, "INSUFFICIENT_TOKEN_BALANCE")
	ErrInvalidAccountID           = Register(13, "INVALID_ACCOUNT_ID")
	ErrInvalidAliasKey            = Register(14, "INVALID_ALIAS_KEY")
	ErrInvalidTokenID             = Register(15, "INVALID_TOKEN_ID")
)

// Transfers and association
var (
	ErrTokenNotAssociated       = Register(16, "TOKEN_NOT_ASSOCIATED_TO_ACCOUNT")
	ErrNoRemainingAutoAssoc     = Register(17, "NO_REMAINING_AUTOMATIC_ASSOCIATIONS")
	ErrAccountDeleted           = Register(18, "ACCOUNT_DELETED")
	ErrInvalidAccountAmounts    = Register(19, "INVALID_ACCOUNT_AMOUNTS")
	ErrTransfersNotZeroSum      = Register(20, "TRANSFERS_NOT_ZERO_SUM_FOR_TOKEN")
	ErrAccountRepeated          = Register(21, "ACCOUNT_REPEATED_IN_ACCOUNT_AMOUNTS")
	ErrEmptyTransactionBody     = Register(22, "EMPTY_TRANSACTION_BODY")
	ErrInvalidNftID             = Register(23, "INVALID_NFT_ID")
	ErrSenderDoesNotOwnNft      = Register(24, "SENDER_DOES_NOT_OWN_NFT_SERIAL_NO")
	ErrTokenAlreadyAssociated   = Register(42, "TOKEN_ALREADY_ASSOCIATED_TO_ACCOUNT")
	ErrRequiresZeroTokenBalance = Register(46, "TRANSACTION_REQUIRES_ZERO_TOKEN_BALANCES")
)

// Batch
var (
	// ErrInnerTransactionFailed is the status of a batch whose inner
	// operation failed. The failing operation carries its own status.
	ErrInnerTransactionFailed = Register(25, "INNER_TRANSACTION_FAILED")
	ErrBatchListEmpty         = Register(26, "BATCH_LIST_EMPTY")
	ErrBatchSizeLimitExceeded = Register(27, "BATCH_SIZE_LIMIT_EXCEEDED")
	ErrMissingBatchKey        = Register(28, "MISSING_BATCH_KEY")
	ErrInvalidBatchKey        = Register(29, "INVALID_BATCH_KEY")
	ErrBatchBlacklisted       = Register(30, "BATCH_TRANSACTION_IN_BLACKLIST")
	// ErrDuplicateTransaction is returned when a batch carries the same
	// inner transaction more than once.
	ErrDuplicateTransaction = Register(61, "DUPLICATE_TRANSACTION")
)

// Custom fees
var (
	ErrCustomFeeMaxDepth             = Register(31, "CUSTOM_FEE_CHARGING_EXCEEDED_MAX_RECURSION_DEPTH")
	ErrCustomFeeMaxAccountAmounts    = Register(32, "CUSTOM_FEE_CHARGING_EXCEEDED_MAX_ACCOUNT_AMOUNTS")
	ErrInsufficientBalanceForFee     = Register(33, "INSUFFICIENT_SENDER_ACCOUNT_BALANCE_FOR_CUSTOM_FEE")
	ErrCustomFeeMustBePositive       = Register(47, "CUSTOM_FEE_MUST_BE_POSITIVE")
	ErrInvalidCustomFeeCollector     = Register(48, "INVALID_CUSTOM_FEE_COLLECTOR")
	ErrTokenNotAssociatedToCollector = Register(49, "TOKEN_NOT_ASSOCIATED_TO_FEE_COLLECTOR")
	ErrInvalidTokenIDInCustomFees    = Register(50, "INVALID_TOKEN_ID_IN_CUSTOM_FEES")
)

// Hooks
var (
	ErrHookIDRepeated  = Register(34, "HOOK_ID_REPEATED_IN_CREATION_DETAILS")
	ErrHookNotFound    = Register(35, "HOOK_NOT_FOUND")
	ErrRejectedByHook  = Register(36, "REJECTED_BY_ACCOUNT_ALLOWANCE_HOOK")
	ErrInsufficientGas = Register(37, "INSUFFICIENT_GAS")
	ErrHookIDInUse     = Register(59, "HOOK_ID_IN_USE")
)

// ErrBatchKeyOnNonBatch is returned when a standalone transaction carries a
// batch key.
var ErrBatchKeyOnNonBatch = Register(60, "BATCH_KEY_SET_ON_NON_BATCH_TRANSACTION")

// Accounts and tokens
var (
	ErrHollowInCreatingBatch      = Register(38, "HOLLOW_ACCOUNT_FINALIZATION_IN_CREATING_BATCH")
	ErrMaxAllowancesExceeded      = Register(39, "MAX_ALLOWANCES_EXCEEDED")
	ErrInvalidMaxAutoAssociations = Register(41, "INVALID_MAX_AUTO_ASSOCIATIONS")
	ErrInvalidRenewalPeriod       = Register(44, "INVALID_RENEWAL_PERIOD")
	ErrTransferAccountSameAsDel   = Register(45, "TRANSFER_ACCOUNT_SAME_AS_DELETE_ACCOUNT")
	ErrSpenderHasNoAllowance      = Register(51, "SPENDER_DOES_NOT_HAVE_ALLOWANCE")
	ErrAmountExceedsAllowance     = Register(52, "AMOUNT_EXCEEDS_ALLOWANCE")
	ErrInvalidInitialSupply       = Register(53, "INVALID_TOKEN_INITIAL_SUPPLY")
	ErrInvalidTreasury            = Register(54, "INVALID_TREASURY_ACCOUNT_FOR_TOKEN")
	ErrNotSupported               = Register(55, "NOT_SUPPORTED")
	ErrPayerAccountNotFound       = Register(56, "PAYER_ACCOUNT_NOT_FOUND")
	ErrInvalidPayerSignature      = Register(57, "INVALID_PAYER_SIGNATURE")
	ErrAliasAlreadyAssigned       = Register(58, "ALIAS_ALREADY_ASSIGNED")
	// ErrTransferListSizeLimitExceeded is returned when a transfer changes
	// too many balances on its own, before any custom fee.
	ErrTransferListSizeLimitExceeded = Register(62, "TRANSFER_LIST_SIZE_LIMIT_EXCEEDED")
)

// ErrIteratorDone is returned by an iterator that has no more items. It
// never reaches a client.
var ErrIteratorDone = Register(100, "ITERATOR_DONE")

// ErrPanic is only set when we recover from a panic, so we know to redact
// potentially sensitive system info.
var ErrPanic = Register(111222, "PANIC")

// Code returns the status code of given error. A nil error is a success and
// any error not wrapping a registered root error is internal.
func Code(err error) uint32 {
	if isNilErr(err) {
		return SuccessCode
	}
	for {
		if e, ok := err.(*Error); ok {
			return e.code
		}
		if u, ok := err.(unpacker); ok {
			// A collection reports the status of its first error.
			if errs := u.Unpack(); len(errs) > 0 {
				return Code(errs[0])
			}
		}
		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return InternalCode
		}
	}
}

// Name returns the canonical status name for given code.
func Name(code uint32) string {
	switch code {
	case SuccessCode:
		return "SUCCESS"
	case InternalCode:
		return "FAIL_INVALID"
	}
	if e, ok := Lookup(code); ok {
		return e.desc
	}
	return "UNKNOWN"
}

// Redact replaces an internal error message with a generic one, so that
// system details do not leak into client visible records.
func Redact(err error) error {
	if ErrPanic.Is(err) {
		return ErrPanic
	}
	if Code(err) == InternalCode {
		return errInternal
	}
	return err
}

var errInternal = &Error{code: InternalCode, desc: "FAIL_INVALID"}
