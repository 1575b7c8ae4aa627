package batch

import (
	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/codec"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
)

func init() {
	ledger.RegisterMsg(func() ledger.Msg { return &AtomicMsg{} })
}

// AtomicKind is the kind of the batch message.
const AtomicKind = "batch/atomic"

// AtomicMsg lists the inner transactions of a batch. Each of them must be
// tagged with BatchKey.
type AtomicMsg struct {
	BatchKey     *crypto.Key  `json:"batch_key"`
	Transactions []*ledger.Tx `json:"transactions"`
}

var (
	_ ledger.Msg               = (*AtomicMsg)(nil)
	_ ledger.SignBytesProvider = (*AtomicMsg)(nil)
)

func (AtomicMsg) Kind() string {
	return AtomicKind
}

// Validate checks the list without consulting the state. The first problem
// found is returned, so that the batch reports a single status.
func (m *AtomicMsg) Validate() error {
	if len(m.Transactions) == 0 {
		return errors.Wrap(errors.ErrBatchListEmpty, "no transactions")
	}
	if m.BatchKey == nil {
		return errors.Wrap(errors.ErrMissingBatchKey, "batch")
	}
	if err := m.BatchKey.Validate(); err != nil {
		return errors.Wrap(errors.ErrInvalidBatchKey, err.Error())
	}
	seen := make(map[string]int, len(m.Transactions))
	for i, tx := range m.Transactions {
		if err := m.validateInner(tx); err != nil {
			return errors.Wrapf(err, "transaction %d", i)
		}
		// A signature covers a single execution.
		bz, err := tx.SignBytes()
		if err != nil {
			return errors.Wrapf(err, "transaction %d", i)
		}
		if first, ok := seen[string(bz)]; ok {
			return errors.Wrapf(errors.ErrDuplicateTransaction, "transaction %d repeats transaction %d", i, first)
		}
		seen[string(bz)] = i
	}
	return nil
}

func (m *AtomicMsg) validateInner(tx *ledger.Tx) error {
	switch {
	case tx == nil || ledger.IsEmptyMsg(tx.Msg):
		return errors.Wrap(errors.ErrEmptyTransactionBody, "no message")
	case tx.Msg.Kind() == AtomicKind:
		return errors.Wrap(errors.ErrBatchBlacklisted, "nested batch")
	case tx.BatchKey == nil:
		return errors.Wrap(errors.ErrMissingBatchKey, "inner transaction")
	case !tx.BatchKey.Equals(m.BatchKey):
		return errors.Wrapf(errors.ErrInvalidBatchKey, "tagged with %s", tx.BatchKey)
	}
	return tx.Validate()
}

// signEnvelope is what the signatures of the outer transaction cover. Inner
// transactions are covered by their own sign bytes; their signatures are
// verified separately.
type signEnvelope struct {
	BatchKey *crypto.Key
	Inner    [][]byte
}

// SignBytes implements ledger.SignBytesProvider.
func (m *AtomicMsg) SignBytes() ([]byte, error) {
	env := signEnvelope{BatchKey: m.BatchKey, Inner: make([][]byte, len(m.Transactions))}
	for i, tx := range m.Transactions {
		if tx == nil {
			return nil, errors.Wrapf(errors.ErrEmptyTransactionBody, "transaction %d", i)
		}
		bz, err := tx.SignBytes()
		if err != nil {
			return nil, errors.Wrapf(err, "transaction %d", i)
		}
		env.Inner[i] = bz
	}
	return codec.Marshal(env)
}
