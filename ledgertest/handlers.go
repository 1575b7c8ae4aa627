// Package ledgertest provides fakes and helpers for testing ledger
// extensions.
package ledgertest

import (
	"context"

	"github.com/iov-one/ledger"
)

// Handler is a fake handler that counts its calls and returns the
// configured results.
type Handler struct {
	checkCall   int
	CheckResult ledger.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult ledger.DeliverResult
	DeliverErr    error

	// OnDeliver if set is called before returning the delivery result.
	// Use it to write to the store.
	OnDeliver func(ctx context.Context, db ledger.KVStore, tx *ledger.Tx) error
}

var _ ledger.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx context.Context, db ledger.ReadOnlyKVStore, tx *ledger.Tx) (*ledger.CheckResult, error) {
	h.checkCall++
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx context.Context, db ledger.KVStore, tx *ledger.Tx) (*ledger.DeliverResult, error) {
	h.deliverCall++
	if h.OnDeliver != nil {
		if err := h.OnDeliver(ctx, db, tx); err != nil {
			return nil, err
		}
	}
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}

// Decorator is a fake decorator that counts its calls and can short
// circuit the stack with an error.
type Decorator struct {
	checkCall int
	CheckErr  error

	deliverCall int
	DeliverErr  error
}

var _ ledger.Decorator = (*Decorator)(nil)

func (d *Decorator) Check(ctx context.Context, db ledger.ReadOnlyKVStore, tx *ledger.Tx, next ledger.Checker) (*ledger.CheckResult, error) {
	d.checkCall++
	if d.CheckErr != nil {
		return nil, d.CheckErr
	}
	return next.Check(ctx, db, tx)
}

func (d *Decorator) Deliver(ctx context.Context, db ledger.KVStore, tx *ledger.Tx, next ledger.Deliverer) (*ledger.DeliverResult, error) {
	d.deliverCall++
	if d.DeliverErr != nil {
		return nil, d.DeliverErr
	}
	return next.Deliver(ctx, db, tx)
}

func (d *Decorator) CheckCallCount() int {
	return d.checkCall
}

func (d *Decorator) DeliverCallCount() int {
	return d.deliverCall
}
