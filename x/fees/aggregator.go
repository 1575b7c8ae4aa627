package fees

import (
	"math"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
)

// FeeResult is the fee of a single transaction in tinybars.
type FeeResult struct {
	// Node is paid to the node that submitted the transaction.
	Node int64 `json:"node"`
	// Network and Service are paid to the funding account.
	Network int64 `json:"network"`
	Service int64 `json:"service"`
}

// Total returns the sum of all components.
func (f FeeResult) Total() int64 {
	return f.Node + f.Network + f.Service
}

// Plus returns the component-wise sum of both fees.
func (f FeeResult) Plus(other FeeResult) (FeeResult, error) {
	var err error
	sum := FeeResult{}
	if sum.Node, err = add(f.Node, other.Node); err != nil {
		return sum, err
	}
	if sum.Network, err = add(f.Network, other.Network); err != nil {
		return sum, err
	}
	sum.Service, err = add(f.Service, other.Service)
	return sum, err
}

// Charge returns the service price of an operation in tinycents:
//
//	base(kind) + sum(max(0, extras[e] - included(e)) * price(e))
//
// Extras without a price are free.
func (c *Configuration) Charge(kind string, extras ledger.FeeExtras) (int64, error) {
	s := c.schedule(kind)
	total := s.Base
	for _, e := range s.Extras {
		units := extras[e.Extra] - e.Included
		if units <= 0 {
			continue
		}
		cost, err := mul(units, e.Price)
		if err != nil {
			return 0, errors.Wrapf(err, "%s extra of %q", e.Extra, kind)
		}
		if total, err = add(total, cost); err != nil {
			return 0, errors.Wrapf(err, "%q fee", kind)
		}
	}
	return total, nil
}

// ToTinybars converts tinycents using the configured exchange rate,
// rounding down.
func (c *Configuration) ToTinybars(tinycents int64) (int64, error) {
	v, err := mul(tinycents, c.Rate.HbarEquiv)
	if err != nil {
		return 0, errors.Wrap(err, "exchange")
	}
	return v / c.Rate.CentEquiv, nil
}

// Fees returns the fee of a transaction of given kind. The node and network
// components are charged once per outer transaction. An operation executed
// inside of a batch pays only for the service.
func (c *Configuration) Fees(kind string, extras ledger.FeeExtras, outer bool) (FeeResult, error) {
	var res FeeResult
	cents, err := c.Charge(kind, extras)
	if err != nil {
		return res, err
	}
	if res.Service, err = c.ToTinybars(cents); err != nil {
		return res, err
	}
	if !outer {
		return res, nil
	}
	if res.Node, err = c.ToTinybars(c.NodeFee); err != nil {
		return res, err
	}
	if res.Network, err = c.ToTinybars(c.NetworkFee); err != nil {
		return res, err
	}
	return res, nil
}

// TxExtras returns the extras of the transaction: the handler reported
// extras plus the signature count.
func TxExtras(tx *ledger.Tx, handler ledger.FeeExtras) ledger.FeeExtras {
	extras := make(ledger.FeeExtras, len(handler)+1)
	for e, n := range handler {
		extras[e] = n
	}
	extras.Add(ledger.ExtraSignatures, int64(len(tx.Signatures)))
	return extras
}

func add(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, errors.ErrOverflow
	}
	return a + b, nil
}

func mul(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	c := a * b
	if c/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, errors.ErrOverflow
	}
	return c, nil
}
