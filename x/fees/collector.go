package fees

import (
	"context"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/x/account"
)

// Collector moves fees from payers to the node and funding accounts.
type Collector struct {
	accounts *account.Bucket
}

// NewCollector returns a collector using the account bucket.
func NewCollector() *Collector {
	return &Collector{accounts: account.NewBucket()}
}

// Pay charges the full fee. ErrInsufficientPayerBalance is returned if the
// payer cannot afford it, in which case nothing is charged.
func (c *Collector) Pay(db ledger.KVStore, conf *Configuration, payer ledger.AccountID, fee FeeResult) error {
	acc, err := c.accounts.Active(db, payer)
	if err != nil {
		return errors.Wrap(errors.ErrPayerAccountNotFound, err.Error())
	}
	if acc.Balance < fee.Total() {
		return errors.Wrapf(errors.ErrInsufficientPayerBalance, "fee %d, balance %d", fee.Total(), acc.Balance)
	}
	return c.move(db, conf, payer, fee)
}

// PayUpTo charges as much of the fee as the payer can afford, node fee
// first. The charged amount is returned.
func (c *Collector) PayUpTo(db ledger.KVStore, conf *Configuration, payer ledger.AccountID, fee FeeResult) (int64, error) {
	acc, err := c.accounts.Active(db, payer)
	if err != nil {
		// Nothing to charge from.
		return 0, nil
	}
	left := acc.Balance
	capped := FeeResult{}
	capped.Node, left = take(fee.Node, left)
	capped.Network, left = take(fee.Network, left)
	capped.Service, _ = take(fee.Service, left)
	if err := c.move(db, conf, payer, capped); err != nil {
		return 0, err
	}
	return capped.Total(), nil
}

func take(want, available int64) (int64, int64) {
	if want > available {
		want = available
	}
	if want < 0 {
		want = 0
	}
	return want, available - want
}

func (c *Collector) move(db ledger.KVStore, conf *Configuration, payer ledger.AccountID, fee FeeResult) error {
	if err := c.accounts.Move(db, payer, conf.NodeAccount, fee.Node); err != nil {
		return errors.Wrap(err, "node fee")
	}
	if err := c.accounts.Move(db, payer, conf.FundingAccount, fee.Network+fee.Service); err != nil {
		return errors.Wrap(err, "network fee")
	}
	return nil
}

// Receipt is the fee a transaction was charged. The executor of a
// transaction passes an empty receipt down the stack and charges the
// recorded fee again after rolling the transaction back.
type Receipt struct {
	Payer ledger.AccountID
	Fee   FeeResult
	// Recorded is set once the payer was authorized and the fee computed.
	Recorded bool
}

type contextKey int

const contextKeyReceipt contextKey = iota

// WithReceipt attaches a receipt the fee decorator fills in.
func WithReceipt(ctx context.Context, r *Receipt) context.Context {
	return context.WithValue(ctx, contextKeyReceipt, r)
}

func receipt(ctx context.Context) *Receipt {
	if r, ok := ctx.Value(contextKeyReceipt).(*Receipt); ok {
		return r
	}
	return &Receipt{}
}
