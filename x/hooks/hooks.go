/*
Package hooks authorizes debits with the allowance hooks accounts declare.

The code of a hook is run by an external evaluator. The ledger only knows
whether the evaluation authorized the debit and how much gas it used.
*/
package hooks

import (
	"context"
	"fmt"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/x/account"
)

// Result is the verdict of a hook evaluation.
type Result int32

const (
	Authorized Result = iota
	Rejected
	NotFound
	GasError
)

func (r Result) String() string {
	switch r {
	case Authorized:
		return "authorized"
	case Rejected:
		return "rejected"
	case NotFound:
		return "not_found"
	case GasError:
		return "gas_error"
	default:
		return fmt.Sprintf("Result(%d)", int32(r))
	}
}

// Call is a single hook invocation.
type Call struct {
	Account  ledger.AccountID
	HookID   ledger.HookID
	GasLimit int64
	CallData []byte
}

// Outcome is returned by an evaluator.
type Outcome struct {
	Result  Result
	GasUsed int64
}

// Evaluator runs the code of a hook.
type Evaluator interface {
	Evaluate(ctx context.Context, call Call) (Outcome, error)
}

// Authorize evaluates a hook the account declared and returns the gas it
// used. Gas is returned even when the hook rejects the debit.
func Authorize(ctx context.Context, db ledger.ReadOnlyKVStore, ev Evaluator, call Call) (int64, error) {
	acc, err := account.NewBucket().Active(db, call.Account)
	if err != nil {
		return 0, err
	}
	if _, ok := acc.Hook(call.HookID); !ok {
		return 0, errors.Wrapf(errors.ErrHookNotFound, "account %s hook %d", call.Account, call.HookID)
	}
	if call.GasLimit <= 0 {
		return 0, errors.Wrap(errors.ErrInsufficientGas, "gas limit must be positive")
	}

	out, err := ev.Evaluate(ctx, call)
	if err != nil {
		return 0, errors.Wrapf(err, "evaluate hook %d", call.HookID)
	}
	gas := out.GasUsed
	if gas > call.GasLimit {
		gas = call.GasLimit
	}
	ledger.GetLogger(ctx).Debug("hook evaluated",
		"account", call.Account, "hook", call.HookID, "result", out.Result, "gas", out.GasUsed)

	switch {
	case out.Result == GasError || out.GasUsed > call.GasLimit:
		return gas, errors.Wrapf(errors.ErrInsufficientGas, "hook %d used %d of %d", call.HookID, out.GasUsed, call.GasLimit)
	case out.Result == Authorized:
		return gas, nil
	case out.Result == Rejected:
		return gas, errors.Wrapf(errors.ErrRejectedByHook, "hook %d", call.HookID)
	case out.Result == NotFound:
		return gas, errors.Wrapf(errors.ErrHookNotFound, "hook %d code", call.HookID)
	default:
		return gas, errors.Wrapf(errors.ErrState, "unknown hook result %s", out.Result)
	}
}
