package ledger

import (
	"context"
	"time"

	"github.com/tendermint/tendermint/libs/log"
)

type contextKey int

const (
	contextKeyLogger contextKey = iota
	contextKeyTime
	contextKeyCreationLog
	contextKeyChainID
)

// DefaultLogger is used for all context that have not
// set anything themselves
var DefaultLogger = log.NewNopLogger()

// WithLogger sets the logger for this context.
func WithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// GetLogger returns the currently set logger, or DefaultLogger if none was
// set.
func GetLogger(ctx context.Context) log.Logger {
	if l, ok := ctx.Value(contextKeyLogger).(log.Logger); ok {
		return l
	}
	return DefaultLogger
}

// WithLogInfo accepts keyvalue pairs, and returns another context like this,
// after passing all the keyvals to the Logger
func WithLogInfo(ctx context.Context, keyvals ...interface{}) context.Context {
	return WithLogger(ctx, GetLogger(ctx).With(keyvals...))
}

// WithConsensusTime sets the time at which the current transaction is
// executed. All nodes must agree on this value.
func WithConsensusTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, contextKeyTime, t.UTC())
}

// ConsensusTime returns the time at which the current transaction is
// executed.
func ConsensusTime(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(contextKeyTime).(time.Time)
	return t, ok
}

// WithChainID sets the id of the chain the transaction is executed on.
func WithChainID(ctx context.Context, chainID string) context.Context {
	return context.WithValue(ctx, contextKeyChainID, chainID)
}

// GetChainID returns the id of the chain the transaction is executed on, or
// an empty string if none was set.
func GetChainID(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyChainID).(string)
	return id
}

// CreationLog remembers accounts created while executing a batch. It lives
// only as long as the batch execution.
type CreationLog struct {
	created []AccountID
	index   map[AccountID]struct{}
	aliases []AliasAssignment
}

// AliasAssignment is an alias that was bound to an account.
type AliasAssignment struct {
	Alias   []byte
	Account AccountID
}

// NewCreationLog returns an empty log.
func NewCreationLog() *CreationLog {
	return &CreationLog{index: make(map[AccountID]struct{})}
}

// Record marks given account as created.
func (l *CreationLog) Record(id AccountID) {
	if _, ok := l.index[id]; ok {
		return
	}
	l.index[id] = struct{}{}
	l.created = append(l.created, id)
}

// Created returns true if given account was created by this batch.
func (l *CreationLog) Created(id AccountID) bool {
	_, ok := l.index[id]
	return ok
}

// RecordAlias remembers that alias was bound to given account.
func (l *CreationLog) RecordAlias(alias []byte, id AccountID) {
	l.aliases = append(l.aliases, AliasAssignment{Alias: alias, Account: id})
}

// Aliases returns all alias assignments, in the order they were made.
func (l *CreationLog) Aliases() []AliasAssignment {
	return append([]AliasAssignment(nil), l.aliases...)
}

// Mark returns a position in the log that can be passed to Since.
func (l *CreationLog) Mark() int {
	return len(l.created)
}

// Since returns all accounts created after given mark, in creation order.
func (l *CreationLog) Since(mark int) []AccountID {
	if mark >= len(l.created) {
		return nil
	}
	return append([]AccountID(nil), l.created[mark:]...)
}

// All returns every account created so far.
func (l *CreationLog) All() []AccountID {
	return l.Since(0)
}

// WithCreationLog sets the creation log of the running batch.
func WithCreationLog(ctx context.Context, l *CreationLog) context.Context {
	return context.WithValue(ctx, contextKeyCreationLog, l)
}

// GetCreationLog returns the creation log of the running batch. Outside of
// a batch a fresh log is returned so that callers can record unconditionally.
func GetCreationLog(ctx context.Context) *CreationLog {
	if l, ok := ctx.Value(contextKeyCreationLog).(*CreationLog); ok {
		return l
	}
	return NewCreationLog()
}
