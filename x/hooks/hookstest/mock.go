// Package hookstest provides a hook evaluator that tests can program.
package hookstest

import (
	"context"

	"github.com/iov-one/ledger/x/hooks"
	"github.com/stretchr/testify/mock"
)

// Evaluator is a testify mock of hooks.Evaluator.
//
//	ev := &hookstest.Evaluator{}
//	ev.On("Evaluate", mock.Anything, mock.Anything).Return(hooks.Outcome{Result: hooks.Authorized}, nil)
type Evaluator struct {
	mock.Mock
}

var _ hooks.Evaluator = (*Evaluator)(nil)

func (e *Evaluator) Evaluate(ctx context.Context, call hooks.Call) (hooks.Outcome, error) {
	args := e.Called(ctx, call)
	return args.Get(0).(hooks.Outcome), args.Error(1)
}

// Returning returns an evaluator answering every call with given result.
func Returning(r hooks.Result, gas int64) *Evaluator {
	e := &Evaluator{}
	e.On("Evaluate", mock.Anything, mock.Anything).Return(hooks.Outcome{Result: r, GasUsed: gas}, nil)
	return e
}
