package app

import (
	"context"
	"sync"
	"time"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/x/account"
	"github.com/iov-one/ledger/x/alias"
	"github.com/iov-one/ledger/x/batch"
	"github.com/iov-one/ledger/x/hooks"
	"github.com/tendermint/tendermint/libs/log"
)

// AliasCacheSize is the number of committed aliases a node keeps in memory.
const AliasCacheSize = 4096

// Node executes transactions one at a time against a versioned store.
// Every submission is committed as a new version.
type Node struct {
	mu         sync.Mutex
	store      *CommitStore
	dispatcher *batch.Dispatcher
	resolver   *alias.Resolver
	accounts   *account.Bucket
	logger     log.Logger
	now        func() time.Time
	// chainID is empty until the genesis is loaded.
	chainID string
}

// NewNode loads the latest version of db.
func NewNode(db ledger.CommitKVStore, evaluator hooks.Evaluator, logger log.Logger) (*Node, error) {
	store, err := NewCommitStore(db)
	if err != nil {
		return nil, err
	}
	chainID, err := loadChainID(store.CheckStore())
	if err != nil {
		return nil, err
	}
	resolver, err := alias.NewResolver(AliasCacheSize)
	if err != nil {
		return nil, err
	}
	return &Node{
		chainID:    chainID,
		store:      store,
		dispatcher: NewDispatcher(resolver, evaluator),
		resolver:   resolver,
		accounts:   account.NewBucket(),
		logger:     logger,
		now:        time.Now,
	}, nil
}

// SetClock changes the source of the consensus time.
func (n *Node) SetClock(now func() time.Time) {
	n.mu.Lock()
	n.now = now
	n.mu.Unlock()
}

// InitChain loads the genesis into an empty store and commits it.
func (n *Node) InitChain(gen *Genesis) (ledger.CommitID, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	db := n.store.DeliverStore()
	if err := saveChainID(db, gen.ChainID); err != nil {
		return ledger.CommitID{}, err
	}
	if err := Initializers().FromGenesis(gen.AppState, db); err != nil {
		return ledger.CommitID{}, errors.Wrap(err, "genesis")
	}
	id, err := n.store.Commit()
	if err != nil {
		return id, err
	}
	n.chainID = gen.ChainID
	n.logger.Info("chain initialized", "chain_id", gen.ChainID, "version", id.Version)
	return id, nil
}

// ChainID returns the chain id stored by the genesis.
func (n *Node) ChainID() (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return loadChainID(n.store.CheckStore())
}

// Submit executes a transaction, a batch or not, and commits the outcome.
// The returned error is the reason of a failed status. The result is nil
// only if the state could not be committed.
func (n *Node) Submit(ctx context.Context, tx *ledger.Tx) (*batch.Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	res, txErr := n.dispatcher.ExecuteSingle(n.txContext(ctx), n.store.DeliverStore(), tx)
	id, err := n.store.Commit()
	if err != nil {
		n.logger.Error("commit failed", "err", err)
		return nil, err
	}
	if res.Status.OK() {
		n.resolver.Remember(res.Aliases)
	}
	n.logger.Debug("committed", "version", id.Version, "status", res.Status)
	return res, txErr
}

// Check runs the prechecks of a transaction against the latest committed
// version. Nothing is committed and no fee is charged.
func (n *Node) Check(ctx context.Context, tx *ledger.Tx) (*batch.Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dispatcher.Check(n.txContext(ctx), n.store.CheckStore(), tx)
}

func (n *Node) txContext(ctx context.Context) context.Context {
	ctx = ledger.WithLogger(ctx, n.logger)
	ctx = ledger.WithConsensusTime(ctx, n.now())
	return ledger.WithChainID(ctx, n.chainID)
}

// SubmitBatch executes an atomic batch and commits the outcome.
func (n *Node) SubmitBatch(ctx context.Context, tx *ledger.Tx) (*batch.Result, error) {
	if tx != nil && !ledger.IsEmptyMsg(tx.Msg) && tx.Msg.Kind() != batch.AtomicKind {
		return nil, errors.Wrapf(errors.ErrInvalidTransactionBody, "%s is not a batch", tx.Msg.Kind())
	}
	return n.Submit(ctx, tx)
}

// Account returns the committed state of an account.
func (n *Node) Account(id ledger.AccountID) (*account.Account, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.accounts.Get(n.store.CheckStore(), id)
}

// AliasedAccount returns the committed account an alias resolves to.
func (n *Node) AliasedAccount(a crypto.Alias) (*account.Account, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	db := n.store.CheckStore()
	id, ok, err := n.resolver.Resolve(db, a)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidAccountID, "no account for alias %s", a)
	}
	return n.accounts.Get(db, id)
}

// LatestVersion returns the version and hash of the committed state.
func (n *Node) LatestVersion() (ledger.CommitID, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.store.CommitInfo()
}
