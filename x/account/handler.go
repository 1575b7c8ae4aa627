package account

import (
	"context"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/x"
	"github.com/tendermint/tendermint/libs/common"
)

// Holdings tells if an account still holds tokens. It is implemented by the
// token extension.
type Holdings interface {
	HasTokenBalance(db ledger.ReadOnlyKVStore, id ledger.AccountID) (bool, error)
}

// RegisterRoutes registers the handlers of this extension.
func RegisterRoutes(r ledger.Registry, auth x.Authenticator, holdings Holdings) {
	accounts := NewBucket()
	r.Handle(CreateMsg{}.Kind(), &createHandler{accounts: accounts, index: NewAliasIndex()})
	r.Handle(UpdateMsg{}.Kind(), &updateHandler{auth: auth, accounts: accounts})
	r.Handle(DeleteMsg{}.Kind(), &deleteHandler{auth: auth, accounts: accounts, holdings: holdings})
}

// AccountTag returns the tag of a record naming given account.
func AccountTag(id ledger.AccountID) common.KVPair {
	return common.KVPair{Key: []byte("account"), Value: []byte(id.String())}
}

type createHandler struct {
	accounts *Bucket
	index    *AliasIndex
}

var _ ledger.Handler = (*createHandler)(nil)

func (h *createHandler) Check(ctx context.Context, db ledger.ReadOnlyKVStore, tx *ledger.Tx) (*ledger.CheckResult, error) {
	var msg CreateMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{}, nil
}

func (h *createHandler) Deliver(ctx context.Context, db ledger.KVStore, tx *ledger.Tx) (*ledger.DeliverResult, error) {
	var msg CreateMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	conf, err := LoadConfiguration(db)
	if err != nil {
		return nil, err
	}
	renew := msg.AutoRenewPeriod
	if renew == 0 {
		renew = conf.DefaultAutoRenewPeriod
	}
	if !conf.renewInRange(renew) {
		return nil, errors.Wrapf(errors.ErrInvalidRenewalPeriod, "%d not in [%d, %d]",
			renew, conf.MinAutoRenewPeriod, conf.MaxAutoRenewPeriod)
	}

	payer, err := h.accounts.Active(db, tx.Payer)
	if err != nil {
		return nil, errors.Wrap(err, "payer")
	}
	if payer.Balance < msg.InitialBalance {
		return nil, errors.Wrapf(errors.ErrInsufficientPayerBalance, "initial balance %d", msg.InitialBalance)
	}

	aliases, err := h.aliases(db, &msg)
	if err != nil {
		return nil, err
	}

	if err := payer.Debit(msg.InitialBalance); err != nil {
		return nil, err
	}
	if err := h.accounts.Save(db, payer); err != nil {
		return nil, err
	}

	acc := &Account{
		Key:                 msg.Key,
		Alias:               msg.Alias,
		Balance:             msg.InitialBalance,
		Memo:                msg.Memo,
		AutoRenewPeriod:     renew,
		Expiry:              Expiry(ctx, renew),
		MaxAutoAssociations: msg.MaxAutoAssociations,
		Hooks:               msg.Hooks,
	}
	if err := h.accounts.Create(db, acc); err != nil {
		return nil, err
	}
	clog := ledger.GetCreationLog(ctx)
	clog.Record(acc.ID)
	for _, a := range aliases {
		if err := h.index.Assign(db, a, acc.ID); err != nil {
			return nil, err
		}
		clog.RecordAlias(a, acc.ID)
	}

	return &ledger.DeliverResult{
		Log:  "account " + acc.ID.String() + " created",
		Tags: []common.KVPair{AccountTag(acc.ID)},
	}, nil
}

// aliases returns all index entries the new account needs. An ECDSA key
// alias is also reachable by the EVM address of the key.
func (h *createHandler) aliases(db ledger.ReadOnlyKVStore, msg *CreateMsg) ([]crypto.Alias, error) {
	if len(msg.Alias) == 0 {
		return nil, nil
	}
	aliases := []crypto.Alias{msg.Alias}
	if kind, _, _ := msg.Alias.Parse(); kind == crypto.AliasKey && msg.Key.Type == crypto.KeyECDSASecp256k1 {
		addr, err := msg.Key.EVMAddress()
		if err != nil {
			return nil, err
		}
		aliases = append(aliases, crypto.Alias(addr))
	}
	for _, a := range aliases {
		switch id, ok, err := h.index.Lookup(db, a); {
		case err != nil:
			return nil, err
		case ok:
			return nil, errors.Wrapf(errors.ErrAliasAlreadyAssigned, "alias used by %s", id)
		}
	}
	return aliases, nil
}

// Expiry returns the expiration time of an account created now.
func Expiry(ctx context.Context, renew int64) int64 {
	now, ok := ledger.ConsensusTime(ctx)
	if !ok {
		return renew
	}
	return now.Unix() + renew
}

type updateHandler struct {
	auth     x.Authenticator
	accounts *Bucket
}

var _ ledger.Handler = (*updateHandler)(nil)

func (h *updateHandler) Check(ctx context.Context, db ledger.ReadOnlyKVStore, tx *ledger.Tx) (*ledger.CheckResult, error) {
	var msg UpdateMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{}, nil
}

func (h *updateHandler) Deliver(ctx context.Context, db ledger.KVStore, tx *ledger.Tx) (*ledger.DeliverResult, error) {
	var msg UpdateMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	if _, err := h.accounts.Active(db, msg.Account); err != nil {
		return nil, err
	}
	if err := h.auth.RequireSigner(ctx, db, msg.Account); err != nil {
		return nil, err
	}
	// Signing may have finalized a hollow account.
	acc, err := h.accounts.Active(db, msg.Account)
	if err != nil {
		return nil, err
	}

	if msg.Key != nil {
		if !h.auth.HasKey(ctx, msg.Key) {
			return nil, errors.Field("Key", errors.ErrInvalidSignature, "new key must sign")
		}
		acc.Key = msg.Key
	}
	if msg.Memo != nil {
		acc.Memo = *msg.Memo
	}
	if msg.AutoRenewPeriod != nil {
		conf, err := LoadConfiguration(db)
		if err != nil {
			return nil, err
		}
		if !conf.renewInRange(*msg.AutoRenewPeriod) {
			return nil, errors.Wrapf(errors.ErrInvalidRenewalPeriod, "%d not in [%d, %d]",
				*msg.AutoRenewPeriod, conf.MinAutoRenewPeriod, conf.MaxAutoRenewPeriod)
		}
		acc.AutoRenewPeriod = *msg.AutoRenewPeriod
	}
	if msg.MaxAutoAssociations != nil {
		limit := *msg.MaxAutoAssociations
		if limit != UnlimitedAutoAssociations && limit < acc.UsedAutoAssociations {
			return nil, errors.Wrapf(errors.ErrInvalidMaxAutoAssociations,
				"%d slots already used", acc.UsedAutoAssociations)
		}
		acc.MaxAutoAssociations = limit
	}
	for _, id := range msg.RemoveHooks {
		if err := removeHook(acc, id); err != nil {
			return nil, err
		}
	}
	for _, hook := range msg.AddHooks {
		if _, ok := acc.Hook(hook.ID); ok {
			return nil, errors.Wrapf(errors.ErrHookIDInUse, "hook id %d", hook.ID)
		}
		acc.Hooks = append(acc.Hooks, hook)
	}

	if err := h.accounts.Save(db, acc); err != nil {
		return nil, err
	}
	return &ledger.DeliverResult{Tags: []common.KVPair{AccountTag(acc.ID)}}, nil
}

func removeHook(acc *Account, id ledger.HookID) error {
	for i, h := range acc.Hooks {
		if h.ID == id {
			acc.Hooks = append(acc.Hooks[:i], acc.Hooks[i+1:]...)
			return nil
		}
	}
	return errors.Wrapf(errors.ErrHookNotFound, "hook id %d", id)
}

type deleteHandler struct {
	auth     x.Authenticator
	accounts *Bucket
	holdings Holdings
}

var _ ledger.Handler = (*deleteHandler)(nil)

func (h *deleteHandler) Check(ctx context.Context, db ledger.ReadOnlyKVStore, tx *ledger.Tx) (*ledger.CheckResult, error) {
	var msg DeleteMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{}, nil
}

func (h *deleteHandler) Deliver(ctx context.Context, db ledger.KVStore, tx *ledger.Tx) (*ledger.DeliverResult, error) {
	var msg DeleteMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	if _, err := h.accounts.Active(db, msg.Account); err != nil {
		return nil, err
	}
	if _, err := h.accounts.Active(db, msg.TransferAccount); err != nil {
		return nil, errors.Wrap(err, "transfer account")
	}
	if err := h.auth.RequireSigner(ctx, db, msg.Account); err != nil {
		return nil, err
	}
	if h.holdings != nil {
		switch has, err := h.holdings.HasTokenBalance(db, msg.Account); {
		case err != nil:
			return nil, err
		case has:
			return nil, errors.Wrapf(errors.ErrRequiresZeroTokenBalance, "account %s", msg.Account)
		}
	}

	acc, err := h.accounts.Active(db, msg.Account)
	if err != nil {
		return nil, err
	}
	if err := h.accounts.Move(db, acc.ID, msg.TransferAccount, acc.Balance); err != nil {
		return nil, err
	}
	acc, err = h.accounts.Get(db, msg.Account)
	if err != nil {
		return nil, err
	}
	acc.Deleted = true
	if err := h.accounts.Save(db, acc); err != nil {
		return nil, err
	}
	return &ledger.DeliverResult{
		Log:  "account " + acc.ID.String() + " deleted",
		Tags: []common.KVPair{AccountTag(acc.ID), AccountTag(msg.TransferAccount)},
	}, nil
}
