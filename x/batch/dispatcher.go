package batch

import (
	"context"
	"fmt"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/x"
	"github.com/iov-one/ledger/x/account"
	"github.com/iov-one/ledger/x/fees"
	"github.com/iov-one/ledger/x/sigs"
)

// Record is the outcome of a single transaction.
type Record struct {
	Kind   string           `json:"kind"`
	Payer  ledger.AccountID `json:"payer"`
	Status ledger.Status    `json:"status"`
	// Fee is the amount of tinybars charged to the payer.
	Fee                int64                      `json:"fee"`
	NewAccounts        []ledger.AccountID         `json:"new_accounts,omitempty"`
	AssessedCustomFees []ledger.AssessedCustomFee `json:"assessed_custom_fees,omitempty"`
	GasUsed            int64                      `json:"gas_used,omitempty"`
	Tags               ledger.Tags                `json:"tags,omitempty"`
	Log                string                     `json:"log,omitempty"`
}

// Result is the record of the executed transaction. A batch that passed
// its prechecks has one child record per inner transaction.
type Result struct {
	Record
	Children []Record `json:"children,omitempty"`
	// Aliases were bound by the transaction. They are only persisted when
	// the transaction succeeded and the state is committed.
	Aliases []ledger.AliasAssignment `json:"-"`
}

// Dispatcher executes batches and single transactions.
type Dispatcher struct {
	auth       x.Authenticator
	checker    ledger.Checker
	inner      ledger.Deliverer
	standalone ledger.Handler
	accounts   *account.Bucket
	collector  *fees.Collector
}

// NewDispatcher returns a dispatcher running inner transactions through
// inner and single transactions through standalone. Both are expected to
// verify signatures and charge fees with a fees decorator. checker reports
// the fee extras of an inner transaction before the batch executes. auth
// authorizes the payer of a batch. The Check of standalone is the precheck
// of a single transaction.
func NewDispatcher(auth x.Authenticator, checker ledger.Checker, inner ledger.Deliverer, standalone ledger.Handler) *Dispatcher {
	return &Dispatcher{
		auth:       auth,
		checker:    checker,
		inner:      inner,
		standalone: standalone,
		accounts:   account.NewBucket(),
		collector:  fees.NewCollector(),
	}
}

// Execute runs a batch. The returned error is the reason of the batch
// status, nil on success. A batch failing its prechecks leaves db untouched
// and has no child records. Once the prechecks pass the outer fee and the
// fees of the attempted inner transactions are written to db, whatever the
// outcome.
func (d *Dispatcher) Execute(ctx context.Context, db ledger.CacheableKVStore, tx *ledger.Tx) (res *Result, err error) {
	res = &Result{Record: Record{Kind: AtomicKind}}
	defer d.recovered(res, &err)
	if tx != nil {
		res.Payer = tx.Payer
	}
	logger := ledger.GetLogger(ctx).With("payer", res.Payer)

	outer := db.CacheWrap()
	var (
		msg *AtomicMsg
		fee fees.FeeResult
	)
	msg, fee, err = d.precheck(ctx, outer, tx)
	if err != nil {
		outer.Discard()
		res.fail(err)
		logger.Info("batch rejected", "status", res.Status, "err", err)
		return res, err
	}
	feeConf, err := fees.LoadConfiguration(outer)
	if err != nil {
		outer.Discard()
		res.fail(err)
		return res, err
	}
	if err := d.collector.Pay(outer, &feeConf, tx.Payer, fee); err != nil {
		outer.Discard()
		res.fail(err)
		return res, err
	}
	res.Fee = fee.Total()

	clog := ledger.NewCreationLog()
	ctx = ledger.WithCreationLog(ctx, clog)
	work := outer.CacheWrap()
	receipts := make([]*fees.Receipt, 0, len(msg.Transactions))
	res.Children = make([]Record, len(msg.Transactions))

	failed := -1
	var innerErr error
	for i, inner := range msg.Transactions {
		r := &fees.Receipt{}
		receipts = append(receipts, r)
		mark := clog.Mark()
		out, err := d.inner.Deliver(fees.WithReceipt(ctx, r), work, inner)

		child := &res.Children[i]
		child.Kind = inner.Msg.Kind()
		child.Payer = inner.Payer
		child.Status = ledger.StatusOf(err)
		child.Fee = r.Fee.Total()
		if err != nil {
			child.Log = errors.Redact(err).Error()
		} else {
			child.Log = out.Log
			child.NewAccounts = clog.Since(mark)
			child.AssessedCustomFees = out.AssessedCustomFees
			child.GasUsed = out.Extras[ledger.ExtraGas]
			child.Tags = out.Tags
		}
		logger.Debug("inner transaction", "index", i, "kind", child.Kind,
			"inner_payer", child.Payer, "status", child.Status)

		if err != nil {
			failed, innerErr = i, err
			break
		}
	}

	if failed < 0 {
		if err := work.Write(); err != nil {
			outer.Discard()
			return res, d.abort(res, err)
		}
		if err := outer.Write(); err != nil {
			return res, d.abort(res, err)
		}
		res.Status = ledger.StatusSuccess
		res.Log = fmt.Sprintf("%d transactions", len(msg.Transactions))
		res.Aliases = clog.Aliases()
		logger.Info("batch executed", "status", res.Status, "size", len(msg.Transactions), "fee", res.Fee)
		return res, nil
	}

	work.Discard()
	// Nothing the inner transactions did survives, fees of the attempted
	// ones are charged again on top of the outer fee.
	for i, r := range receipts {
		child := &res.Children[i]
		child.NewAccounts = nil
		child.AssessedCustomFees = nil
		child.Tags = nil
		if !r.Recorded {
			child.Fee = 0
			continue
		}
		charged, err := d.collector.PayUpTo(outer, &feeConf, r.Payer, r.Fee)
		if err != nil {
			outer.Discard()
			return res, d.abort(res, err)
		}
		child.Fee = charged
	}
	for i := failed + 1; i < len(res.Children); i++ {
		inner := msg.Transactions[i]
		res.Children[i] = Record{
			Kind:   inner.Msg.Kind(),
			Payer:  inner.Payer,
			Status: ledger.StatusOf(errors.ErrInnerTransactionFailed),
			Log:    "not executed",
		}
	}
	if err := outer.Write(); err != nil {
		return res, d.abort(res, err)
	}

	err = errors.Wrapf(errors.ErrInnerTransactionFailed, "transaction %d: %s", failed, innerErr)
	res.fail(err)
	logger.Info("batch executed", "status", res.Status, "failed", failed,
		"inner_status", res.Children[failed].Status, "fee", res.Fee)
	return res, err
}

// precheck validates the batch and authorizes its payer. The fee of the
// outer transaction is returned.
func (d *Dispatcher) precheck(ctx context.Context, db ledger.CacheableKVStore, tx *ledger.Tx) (*AtomicMsg, fees.FeeResult, error) {
	var none fees.FeeResult
	if tx == nil {
		return nil, none, errors.Wrap(errors.ErrEmptyTransactionBody, "no transaction")
	}
	if tx.BatchKey != nil {
		return nil, none, errors.Wrap(errors.ErrInvalidTransactionBody, "batch cannot be tagged with a batch key")
	}
	if tx.Payer <= 0 {
		return nil, none, errors.Wrap(errors.ErrPayerAccountNotFound, "missing payer")
	}
	var msg AtomicMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, none, err
	}
	conf, err := LoadConfiguration(db)
	if err != nil {
		return nil, none, err
	}
	if n := len(msg.Transactions); n > int(conf.MaxBatchSize) {
		return nil, none, errors.Wrapf(errors.ErrBatchSizeLimitExceeded, "%d transactions, max %d", n, conf.MaxBatchSize)
	}

	ctx, err = sigs.Verify(ctx, tx)
	if err != nil {
		return nil, none, err
	}
	if !d.auth.HasKey(ctx, msg.BatchKey) {
		return nil, none, errors.Wrap(errors.ErrInvalidSignature, "batch key did not sign")
	}

	feeConf, err := fees.LoadConfiguration(db)
	if err != nil {
		return nil, none, err
	}
	outerFee, err := feeConf.Fees(AtomicKind, fees.TxExtras(tx, nil), true)
	if err != nil {
		return nil, none, err
	}
	total := outerFee
	for i, inner := range msg.Transactions {
		chk, err := d.checker.Check(ctx, db, inner)
		if err != nil {
			return nil, none, errors.Wrapf(err, "transaction %d", i)
		}
		f, err := feeConf.Fees(inner.Msg.Kind(), fees.TxExtras(inner, chk.Extras), false)
		if err != nil {
			return nil, none, errors.Wrapf(err, "transaction %d", i)
		}
		if total, err = total.Plus(f); err != nil {
			return nil, none, err
		}
	}

	payer, err := d.accounts.Active(db, tx.Payer)
	if err != nil {
		return nil, none, errors.Wrap(errors.ErrPayerAccountNotFound, err.Error())
	}
	if err := d.auth.RequireSigner(ctx, db, tx.Payer); err != nil {
		if errors.ErrInvalidSignature.Is(err) {
			return nil, none, errors.Wrap(errors.ErrInvalidPayerSignature, err.Error())
		}
		return nil, none, errors.Wrap(err, "payer")
	}
	if payer.Balance < total.Total() {
		return nil, none, errors.Wrapf(errors.ErrInsufficientPayerBalance,
			"balance %d, batch may cost %d", payer.Balance, total.Total())
	}
	return &msg, outerFee, nil
}

// ExecuteSingle runs a transaction that is not part of a batch. A batch is
// passed to Execute. On failure nothing but the fee is written to db.
func (d *Dispatcher) ExecuteSingle(ctx context.Context, db ledger.CacheableKVStore, tx *ledger.Tx) (res *Result, err error) {
	if isBatch(tx) {
		return d.Execute(ctx, db, tx)
	}
	res = newRecord(tx)
	defer d.recovered(res, &err)
	logger := ledger.GetLogger(ctx).With("payer", res.Payer, "kind", res.Kind)
	if err = checkSingle(tx); err != nil {
		res.fail(err)
		return res, err
	}

	clog := ledger.NewCreationLog()
	r := &fees.Receipt{}
	ctx = fees.WithReceipt(ledger.WithCreationLog(ctx, clog), r)

	work := db.CacheWrap()
	var out *ledger.DeliverResult
	out, err = d.standalone.Deliver(ctx, work, tx)
	if err == nil {
		if err = work.Write(); err != nil {
			return res, d.abort(res, err)
		}
		res.Status = ledger.StatusSuccess
		res.Fee = r.Fee.Total()
		res.Log = out.Log
		res.NewAccounts = clog.All()
		res.AssessedCustomFees = out.AssessedCustomFees
		res.GasUsed = out.Extras[ledger.ExtraGas]
		res.Tags = out.Tags
		res.Aliases = clog.Aliases()
		logger.Info("transaction executed", "status", res.Status, "fee", res.Fee)
		return res, nil
	}

	work.Discard()
	res.fail(err)
	if r.Recorded {
		conf, lerr := fees.LoadConfiguration(db)
		if lerr != nil {
			return res, d.abort(res, lerr)
		}
		charged, perr := d.collector.PayUpTo(db, &conf, r.Payer, r.Fee)
		if perr != nil {
			return res, d.abort(res, perr)
		}
		res.Fee = charged
	}
	logger.Info("transaction executed", "status", res.Status, "fee", res.Fee, "err", err)
	return res, err
}

// Check runs the prechecks of a transaction without executing it. Nothing is
// written to db and no fee is charged. The fee of the record is the fee the
// payer must be able to cover: the outer fee for a batch, the full fee
// otherwise.
func (d *Dispatcher) Check(ctx context.Context, db ledger.CacheableKVStore, tx *ledger.Tx) (res *Result, err error) {
	res = newRecord(tx)
	defer d.recovered(res, &err)

	if isBatch(tx) {
		// Authorizing a hollow payer finalizes it.
		scratch := db.CacheWrap()
		defer scratch.Discard()
		_, fee, err := d.precheck(ctx, scratch, tx)
		if err != nil {
			res.fail(err)
			return res, err
		}
		res.Status = ledger.StatusSuccess
		res.Fee = fee.Total()
		return res, nil
	}

	if err := checkSingle(tx); err != nil {
		res.fail(err)
		return res, err
	}
	chk, err := d.standalone.Check(ctx, db, tx)
	if err != nil {
		res.fail(err)
		return res, err
	}
	res.Status = ledger.StatusSuccess
	res.Fee = chk.RequiredFee
	res.Log = chk.Log
	return res, nil
}

func isBatch(tx *ledger.Tx) bool {
	return tx != nil && !ledger.IsEmptyMsg(tx.Msg) && tx.Msg.Kind() == AtomicKind
}

func newRecord(tx *ledger.Tx) *Result {
	res := &Result{}
	if tx != nil {
		res.Payer = tx.Payer
		if !ledger.IsEmptyMsg(tx.Msg) {
			res.Kind = tx.Msg.Kind()
		}
	}
	return res
}

// checkSingle rejects what cannot be submitted outside of a batch.
func checkSingle(tx *ledger.Tx) error {
	switch {
	case tx == nil || ledger.IsEmptyMsg(tx.Msg):
		return errors.Wrap(errors.ErrEmptyTransactionBody, "no message")
	case tx.BatchKey != nil:
		return errors.Wrap(errors.ErrBatchKeyOnNonBatch, "submitted outside of a batch")
	}
	return nil
}

// recovered turns a panic into a failed record. Writes that were not yet
// flushed to db are lost, fees included.
func (d *Dispatcher) recovered(res *Result, err *error) {
	r := recover()
	if r == nil {
		return
	}
	*err = errors.Wrapf(errors.ErrPanic, "%v", r)
	res.Fee = 0
	res.Children = nil
	res.Aliases = nil
	res.fail(*err)
}

// abort reports a failure of the store itself. The whole transaction,
// fees included, is lost.
func (d *Dispatcher) abort(res *Result, err error) error {
	err = errors.Wrap(errors.ErrDatabase, err.Error())
	res.Fee = 0
	res.Children = nil
	res.Aliases = nil
	res.fail(err)
	return err
}

func (r *Record) fail(err error) {
	r.Status = ledger.StatusOf(err)
	r.Log = errors.Redact(err).Error()
}
