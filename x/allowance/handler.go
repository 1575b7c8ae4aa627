package allowance

import (
	"context"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/x"
	"github.com/iov-one/ledger/x/account"
	"github.com/iov-one/ledger/x/token"
)

// RegisterRoutes registers the handlers of this extension.
func RegisterRoutes(r ledger.Registry, auth x.Authenticator) {
	h := &handler{
		auth:     auth,
		bucket:   NewBucket(),
		accounts: account.NewBucket(),
		tokens:   token.NewController(),
	}
	r.Handle(ApproveMsg{}.Kind(), &approveHandler{h})
	r.Handle(DeleteMsg{}.Kind(), &deleteHandler{h})
}

type handler struct {
	auth     x.Authenticator
	bucket   *Bucket
	accounts *account.Bucket
	tokens   *token.Controller
}

// requireOwners checks the signature of every distinct owner once.
func (h *handler) requireOwners(ctx context.Context, db ledger.KVStore, owners []ledger.AccountID) error {
	seen := make(map[ledger.AccountID]struct{})
	for _, o := range owners {
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		if _, err := h.accounts.Active(db, o); err != nil {
			return errors.Wrap(err, "owner")
		}
		if err := h.auth.RequireSigner(ctx, db, o); err != nil {
			return errors.Wrapf(err, "owner %s", o)
		}
	}
	return nil
}

type approveHandler struct {
	*handler
}

var _ ledger.Handler = (*approveHandler)(nil)

func (h *approveHandler) Check(ctx context.Context, db ledger.ReadOnlyKVStore, tx *ledger.Tx) (*ledger.CheckResult, error) {
	var msg ApproveMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	extras := ledger.FeeExtras{}
	extras.Add(ledger.ExtraAllowances, int64(len(msg.Allowances)))
	return &ledger.CheckResult{Extras: extras}, nil
}

func (h *approveHandler) Deliver(ctx context.Context, db ledger.KVStore, tx *ledger.Tx) (*ledger.DeliverResult, error) {
	var msg ApproveMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	owners := make([]ledger.AccountID, 0, len(msg.Allowances))
	for _, g := range msg.Allowances {
		owners = append(owners, g.Owner)
	}
	if err := h.requireOwners(ctx, db, owners); err != nil {
		return nil, err
	}
	conf, err := account.LoadConfiguration(db)
	if err != nil {
		return nil, err
	}

	for i, g := range msg.Allowances {
		if _, err := h.accounts.Active(db, g.Spender); err != nil {
			return nil, errors.Wrapf(err, "allowance %d spender", i)
		}
		if g.Token != 0 {
			if _, err := h.tokens.Token(db, g.Token); err != nil {
				return nil, errors.Wrapf(err, "allowance %d", i)
			}
			if err := h.requireAssociated(db, g.Owner, g.Token); err != nil {
				return nil, errors.Wrapf(err, "allowance %d", i)
			}
		}
		a := &Allowance{Owner: g.Owner, Spender: g.Spender, Token: g.Token, Amount: g.Amount}
		if err := h.bucket.Save(db, a); err != nil {
			return nil, err
		}
		n, err := h.bucket.CountByOwner(db, g.Owner)
		if err != nil {
			return nil, err
		}
		if n > int(conf.MaxAllowances) {
			return nil, errors.Wrapf(errors.ErrMaxAllowancesExceeded, "owner %s has %d", g.Owner, n)
		}
	}
	return &ledger.DeliverResult{}, nil
}

func (h *approveHandler) requireAssociated(db ledger.ReadOnlyKVStore, owner ledger.AccountID, tok ledger.TokenID) error {
	ok, err := token.NewRelationshipBucket().Exists(db, owner, tok)
	switch {
	case err != nil:
		return err
	case !ok:
		return errors.Wrapf(errors.ErrTokenNotAssociated, "owner %s token %s", owner, tok)
	}
	return nil
}

type deleteHandler struct {
	*handler
}

var _ ledger.Handler = (*deleteHandler)(nil)

func (h *deleteHandler) Check(ctx context.Context, db ledger.ReadOnlyKVStore, tx *ledger.Tx) (*ledger.CheckResult, error) {
	var msg DeleteMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	extras := ledger.FeeExtras{}
	extras.Add(ledger.ExtraAllowances, int64(len(msg.Allowances)))
	return &ledger.CheckResult{Extras: extras}, nil
}

func (h *deleteHandler) Deliver(ctx context.Context, db ledger.KVStore, tx *ledger.Tx) (*ledger.DeliverResult, error) {
	var msg DeleteMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	owners := make([]ledger.AccountID, 0, len(msg.Allowances))
	for _, r := range msg.Allowances {
		owners = append(owners, r.Owner)
	}
	if err := h.requireOwners(ctx, db, owners); err != nil {
		return nil, err
	}
	for _, r := range msg.Allowances {
		if _, err := h.bucket.Get(db, r.Owner, r.Spender, r.Token); err != nil {
			return nil, err
		}
		if err := h.bucket.Remove(db, r.Owner, r.Spender, r.Token); err != nil {
			return nil, err
		}
	}
	return &ledger.DeliverResult{}, nil
}
