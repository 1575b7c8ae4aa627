package token

import (
	"context"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/x"
	"github.com/iov-one/ledger/x/account"
	"github.com/tendermint/tendermint/libs/common"
)

// RegisterRoutes registers the handlers of this extension.
func RegisterRoutes(r ledger.Registry, auth x.Authenticator) {
	ctrl := NewController()
	r.Handle(CreateMsg{}.Kind(), &createHandler{auth: auth, ctrl: ctrl})
	r.Handle(AssociateMsg{}.Kind(), &associateHandler{auth: auth, ctrl: ctrl})
}

// TokenTag returns the tag of a record naming given token.
func TokenTag(id ledger.TokenID) common.KVPair {
	return common.KVPair{Key: []byte("token"), Value: []byte(id.String())}
}

type createHandler struct {
	auth x.Authenticator
	ctrl *Controller
}

var _ ledger.Handler = (*createHandler)(nil)

func (h *createHandler) Check(ctx context.Context, db ledger.ReadOnlyKVStore, tx *ledger.Tx) (*ledger.CheckResult, error) {
	var msg CreateMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	extras := ledger.FeeExtras{}
	extras.Add(ledger.ExtraNftSerials, msg.InitialSerials)
	return &ledger.CheckResult{Extras: extras}, nil
}

func (h *createHandler) Deliver(ctx context.Context, db ledger.KVStore, tx *ledger.Tx) (*ledger.DeliverResult, error) {
	var msg CreateMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	if _, err := h.ctrl.accounts.Active(db, msg.Treasury); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidTreasury, err.Error())
	}
	if err := h.auth.RequireSigner(ctx, db, msg.Treasury); err != nil {
		return nil, errors.Wrap(err, "treasury")
	}
	for i, f := range msg.CustomFees {
		if err := h.validateFee(db, f); err != nil {
			return nil, errors.Wrapf(err, "custom fee %d", i)
		}
	}

	t := &Token{
		Name:        msg.Name,
		Symbol:      msg.Symbol,
		Type:        msg.Type,
		Treasury:    msg.Treasury,
		TotalSupply: msg.InitialSupply,
		Decimals:    msg.Decimals,
		CustomFees:  msg.CustomFees,
	}
	if err := h.ctrl.Mint(db, t, msg.InitialSerials); err != nil {
		return nil, err
	}
	return &ledger.DeliverResult{
		Log:  "token " + t.ID.String() + " created",
		Tags: []common.KVPair{TokenTag(t.ID), account.AccountTag(t.Treasury)},
	}, nil
}

func (h *createHandler) validateFee(db ledger.ReadOnlyKVStore, f FixedFee) error {
	if _, err := h.ctrl.accounts.Active(db, f.Collector); err != nil {
		return errors.Wrap(errors.ErrInvalidCustomFeeCollector, err.Error())
	}
	if f.DenominatingToken == 0 {
		return nil
	}
	denom, err := h.ctrl.tokens.Get(db, f.DenominatingToken)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidTokenIDInCustomFees, err.Error())
	}
	if !denom.IsFungible() {
		return errors.Wrapf(errors.ErrInvalidTokenIDInCustomFees, "%s is not fungible", denom.ID)
	}
	switch ok, err := h.ctrl.rels.Exists(db, f.Collector, f.DenominatingToken); {
	case err != nil:
		return err
	case !ok:
		return errors.Wrapf(errors.ErrTokenNotAssociatedToCollector,
			"collector %s token %s", f.Collector, f.DenominatingToken)
	}
	return nil
}

type associateHandler struct {
	auth x.Authenticator
	ctrl *Controller
}

var _ ledger.Handler = (*associateHandler)(nil)

func (h *associateHandler) Check(ctx context.Context, db ledger.ReadOnlyKVStore, tx *ledger.Tx) (*ledger.CheckResult, error) {
	var msg AssociateMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	extras := ledger.FeeExtras{}
	extras.Add(ledger.ExtraTokens, int64(len(msg.Tokens)))
	return &ledger.CheckResult{Extras: extras}, nil
}

func (h *associateHandler) Deliver(ctx context.Context, db ledger.KVStore, tx *ledger.Tx) (*ledger.DeliverResult, error) {
	var msg AssociateMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	if _, err := h.ctrl.accounts.Active(db, msg.Account); err != nil {
		return nil, err
	}
	if err := h.auth.RequireSigner(ctx, db, msg.Account); err != nil {
		return nil, err
	}
	tags := []common.KVPair{account.AccountTag(msg.Account)}
	for _, t := range msg.Tokens {
		if err := h.ctrl.Associate(db, msg.Account, t); err != nil {
			return nil, err
		}
		tags = append(tags, TokenTag(t))
	}
	return &ledger.DeliverResult{Tags: tags}, nil
}
