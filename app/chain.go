package app

import (
	"context"
	"reflect"

	"github.com/iov-one/ledger"
)

// Decorators holds a chain of decorators, not yet resolved by a Handler.
type Decorators struct {
	chain []ledger.Decorator
}

/*
ChainDecorators takes a chain of decorators, and upon adding a final
Handler (often a Router), returns a Handler that will execute this whole
stack.

	app.ChainDecorators(
		utils.NewRecovery(),
		utils.NewLogging(),
		sigs.NewDecorator(),
		fees.NewDecorator(auth),
	).WithHandler(
		router,
	)
*/
func ChainDecorators(chain ...ledger.Decorator) Decorators {
	return Decorators{}.Chain(chain...)
}

// Chain returns a copy extended with more decorators. Nil decorators are
// skipped.
func (d Decorators) Chain(chain ...ledger.Decorator) Decorators {
	next := make([]ledger.Decorator, 0, len(d.chain)+len(chain))
	next = append(next, d.chain...)
	next = append(next, cutoffNil(chain)...)
	return Decorators{chain: next}
}

// cutoffNil will in-place remove all nil values from given slice.
func cutoffNil(ds []ledger.Decorator) []ledger.Decorator {
	var cutoff int
	for i := 0; i < len(ds); i++ {
		ds[i-cutoff] = ds[i]
		if ds[i] == nil || (reflect.ValueOf(ds[i]).Kind() == reflect.Ptr && reflect.ValueOf(ds[i]).IsNil()) {
			cutoff++
		}
	}
	return ds[:len(ds)-cutoff]
}

// WithHandler resolves the stack and returns a concrete Handler that will
// pass through the chain of decorators before calling the final Handler.
func (d Decorators) WithHandler(h ledger.Handler) ledger.Handler {
	// The top of the chain is executed first.
	for i := len(d.chain) - 1; i >= 0; i-- {
		h = step{d: d.chain[i], next: h}
	}
	return h
}

// step captures one step executing a decorator around a specific Handler.
type step struct {
	d    ledger.Decorator
	next ledger.Handler
}

var _ ledger.Handler = step{}

func (s step) Check(ctx context.Context, db ledger.ReadOnlyKVStore, tx *ledger.Tx) (*ledger.CheckResult, error) {
	return s.d.Check(ctx, db, tx, s.next)
}

func (s step) Deliver(ctx context.Context, db ledger.KVStore, tx *ledger.Tx) (*ledger.DeliverResult, error) {
	return s.d.Deliver(ctx, db, tx, s.next)
}
