package utils

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/ledgertest"
	"github.com/iov-one/ledger/ledgertest/assert"
	"github.com/iov-one/ledger/store"
	"github.com/tendermint/tendermint/libs/log"
)

type panicHandler struct{}

func (panicHandler) Check(context.Context, ledger.ReadOnlyKVStore, *ledger.Tx) (*ledger.CheckResult, error) {
	panic("check")
}

func (panicHandler) Deliver(context.Context, ledger.KVStore, *ledger.Tx) (*ledger.DeliverResult, error) {
	panic("deliver")
}

func TestRecovery(t *testing.T) {
	ctx := context.Background()
	db := store.MemStore()
	tx := &ledger.Tx{Payer: 2, Msg: &ledgertest.Msg{}}

	_, err := NewRecovery().Check(ctx, db, tx, panicHandler{})
	assert.IsErr(t, errors.ErrPanic, err)

	_, err = NewRecovery().Deliver(ctx, db, tx, panicHandler{})
	assert.IsErr(t, errors.ErrPanic, err)
	assert.Equal(t, true, strings.Contains(err.Error(), "deliver"))

	h := &ledgertest.Handler{}
	_, err = NewRecovery().Deliver(ctx, db, tx, h)
	assert.Nil(t, err)
	assert.Equal(t, 1, h.DeliverCallCount())
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	ctx := ledger.WithLogger(context.Background(), log.NewTMLogger(log.NewSyncWriter(&buf)))
	db := store.MemStore()
	tx := &ledger.Tx{Payer: 2, Msg: &ledgertest.Msg{}}

	h := &ledgertest.Handler{DeliverErr: errors.ErrInvalidAliasKey}
	_, err := NewLogging().Deliver(ctx, db, tx, h)
	assert.IsErr(t, errors.ErrInvalidAliasKey, err)

	out := buf.String()
	assert.Equal(t, true, strings.Contains(out, "INVALID_ALIAS_KEY"))
	assert.Equal(t, true, strings.Contains(out, "kind="+ledgertest.MsgKind))
}
