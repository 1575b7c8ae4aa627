package fees

import (
	"context"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/x"
	"github.com/iov-one/ledger/x/account"
)

// Decorator authorizes the payer of a transaction and charges its fee
// before calling down the stack.
//
// The fee is charged to the store the transaction runs against. Rolling
// back a failed transaction rolls back the fee as well, so the executor
// must charge the fee found in the Receipt again.
type Decorator struct {
	auth      x.Authenticator
	accounts  *account.Bucket
	collector *Collector
	outer     bool
}

var _ ledger.Decorator = (*Decorator)(nil)

// NewDecorator returns a decorator charging the node, network and service
// fee of a standalone transaction.
func NewDecorator(auth x.Authenticator) *Decorator {
	return &Decorator{
		auth:      auth,
		accounts:  account.NewBucket(),
		collector: NewCollector(),
		outer:     true,
	}
}

// NewInnerDecorator returns a decorator charging only the service fee, as
// used for the operations of a batch.
func NewInnerDecorator(auth x.Authenticator) *Decorator {
	d := NewDecorator(auth)
	d.outer = false
	return d
}

// Check sets the required fee and makes sure the payer can afford it. A
// hollow payer is authorized on delivery only, because that finalizes it.
func (d *Decorator) Check(ctx context.Context, db ledger.ReadOnlyKVStore, tx *ledger.Tx, next ledger.Checker) (*ledger.CheckResult, error) {
	res, err := next.Check(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	conf, err := LoadConfiguration(db)
	if err != nil {
		return nil, err
	}
	fee, err := conf.Fees(tx.Msg.Kind(), TxExtras(tx, res.Extras), d.outer)
	if err != nil {
		return nil, err
	}
	payer, err := d.accounts.Active(db, tx.Payer)
	if err != nil {
		return nil, errors.Wrap(errors.ErrPayerAccountNotFound, err.Error())
	}
	if !payer.IsHollow() && !d.auth.HasKey(ctx, payer.Key) {
		return nil, errors.Wrapf(errors.ErrInvalidPayerSignature, "account %s", tx.Payer)
	}
	if payer.Balance < fee.Total() {
		return nil, errors.Wrapf(errors.ErrInsufficientPayerBalance, "fee %d, balance %d", fee.Total(), payer.Balance)
	}
	res.RequiredFee = fee.Total()
	return res, nil
}

// Deliver charges the fee and executes the transaction.
func (d *Decorator) Deliver(ctx context.Context, db ledger.KVStore, tx *ledger.Tx, next ledger.Deliverer) (*ledger.DeliverResult, error) {
	checker, ok := next.(ledger.Checker)
	if !ok {
		return nil, errors.Wrap(errors.ErrType, "next must be a handler")
	}
	chk, err := checker.Check(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	conf, err := LoadConfiguration(db)
	if err != nil {
		return nil, err
	}
	fee, err := conf.Fees(tx.Msg.Kind(), TxExtras(tx, chk.Extras), d.outer)
	if err != nil {
		return nil, err
	}
	if _, err := d.accounts.Active(db, tx.Payer); err != nil {
		return nil, errors.Wrap(errors.ErrPayerAccountNotFound, err.Error())
	}
	if err := d.auth.RequireSigner(ctx, db, tx.Payer); err != nil {
		if errors.ErrInvalidSignature.Is(err) {
			return nil, errors.Wrap(errors.ErrInvalidPayerSignature, err.Error())
		}
		return nil, errors.Wrap(err, "payer")
	}

	r := receipt(ctx)
	*r = Receipt{Payer: tx.Payer, Fee: fee, Recorded: true}
	if err := d.collector.Pay(db, &conf, tx.Payer, fee); err != nil {
		return nil, err
	}
	return next.Deliver(ctx, db, tx)
}
