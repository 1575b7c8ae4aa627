package cash

import (
	"context"
	"fmt"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/x"
	"github.com/iov-one/ledger/x/account"
	"github.com/iov-one/ledger/x/alias"
	"github.com/iov-one/ledger/x/allowance"
	"github.com/iov-one/ledger/x/customfee"
	"github.com/iov-one/ledger/x/hooks"
	"github.com/iov-one/ledger/x/token"
	"github.com/tendermint/tendermint/libs/common"
)

// RegisterRoutes registers the transfer handler.
func RegisterRoutes(r ledger.Registry, auth x.Authenticator, resolver *alias.Resolver, evaluator hooks.Evaluator) {
	r.Handle(TransferMsg{}.Kind(), NewTransferHandler(auth, resolver, evaluator))
}

// TransferHandler executes TransferMsg.
type TransferHandler struct {
	auth       x.Authenticator
	resolver   *alias.Resolver
	evaluator  hooks.Evaluator
	accounts   *account.Bucket
	allowances *allowance.Bucket
	tokens     *token.Controller
}

var _ ledger.Handler = (*TransferHandler)(nil)

// NewTransferHandler returns a handler resolving aliases with given
// resolver and running allowance hooks with given evaluator.
func NewTransferHandler(auth x.Authenticator, resolver *alias.Resolver, evaluator hooks.Evaluator) *TransferHandler {
	return &TransferHandler{
		auth:       auth,
		resolver:   resolver,
		evaluator:  evaluator,
		accounts:   account.NewBucket(),
		allowances: allowance.NewBucket(),
		tokens:     token.NewController(),
	}
}

// Check reports the accounts, tokens, serials and hook gas the transfer
// uses.
func (h *TransferHandler) Check(ctx context.Context, db ledger.ReadOnlyKVStore, tx *ledger.Tx) (*ledger.CheckResult, error) {
	var msg TransferMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	extras := ledger.FeeExtras{}
	refs := make(map[string]struct{})
	gas := func(c *HookCall) {
		if c != nil {
			extras.Add(ledger.ExtraGas, c.GasLimit)
		}
	}
	for _, a := range msg.Hbar {
		refs[refKey(a.Account, a.Alias)] = struct{}{}
		gas(a.Hook)
	}
	for _, l := range msg.Tokens {
		if len(l.Transfers) != 0 {
			extras.Add(ledger.ExtraTokens, 1)
		}
		for _, a := range l.Transfers {
			refs[refKey(a.Account, a.Alias)] = struct{}{}
			gas(a.Hook)
		}
		for _, n := range l.Nfts {
			refs[refKey(n.Sender, nil)] = struct{}{}
			refs[refKey(n.Receiver, n.ReceiverAlias)] = struct{}{}
			gas(n.SenderHook)
		}
		extras.Add(ledger.ExtraNftSerials, int64(len(l.Nfts)))
	}
	extras.Add(ledger.ExtraAccounts, int64(len(refs)))
	return &ledger.CheckResult{Extras: extras}, nil
}

// change is a resolved balance change. Token zero is hbar.
type change struct {
	token    ledger.TokenID
	account  ledger.AccountID
	amount   int64
	approved bool
	hook     *HookCall
}

// nftMove is a resolved serial transfer.
type nftMove struct {
	token    ledger.TokenID
	serial   int64
	from, to ledger.AccountID
	approved bool
	hook     *HookCall
}

// Deliver resolves the accounts, authorizes the debits, assesses custom
// fees and moves the balances.
func (h *TransferHandler) Deliver(ctx context.Context, db ledger.KVStore, tx *ledger.Tx) (*ledger.DeliverResult, error) {
	var msg TransferMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	conf, err := LoadConfiguration(db)
	if err != nil {
		return nil, err
	}

	changes, nfts, err := h.resolve(ctx, db, &msg)
	if err != nil {
		return nil, err
	}
	var (
		debits   []customfee.Debit
		existing []customfee.Adjustment
	)
	for _, c := range changes {
		existing = append(existing, customfee.Adjustment{Token: c.token, Account: c.account, Amount: c.amount})
		if c.amount < 0 {
			debits = append(debits, customfee.Debit{Token: c.token, Account: c.account, Amount: -c.amount})
		}
	}
	for _, n := range nfts {
		existing = append(existing,
			customfee.Adjustment{Token: n.token, Account: n.from, Amount: -1},
			customfee.Adjustment{Token: n.token, Account: n.to, Amount: 1})
		debits = append(debits, customfee.Debit{Token: n.token, Account: n.from, Amount: 1})
	}
	// Custom fees can only add to the count, see customfee.Guard.
	if n := customfee.CountDistinct(existing); n > int(conf.MaxAccountAmounts) {
		return nil, errors.Wrapf(errors.ErrTransferListSizeLimitExceeded, "%d balance changes, max %d", n, conf.MaxAccountAmounts)
	}

	gas, err := h.authorize(ctx, db, tx.Payer, changes, nfts)
	if err != nil {
		return nil, err
	}

	assessed, err := conf.guard(h.tokens).Charge(db, debits, existing)
	if err != nil {
		return nil, err
	}

	// Debits go first, so that a missing balance is reported before any
	// auto association happens.
	for _, c := range changes {
		if c.amount < 0 {
			if err := h.apply(db, c.token, c.account, c.amount); err != nil {
				return nil, err
			}
		}
	}
	for _, c := range changes {
		if c.amount > 0 {
			if err := h.apply(db, c.token, c.account, c.amount); err != nil {
				return nil, err
			}
		}
	}
	for _, n := range nfts {
		if err := h.tokens.MoveNft(db, n.token, n.serial, n.from, n.to); err != nil {
			return nil, err
		}
	}
	for _, a := range assessed.Adjustments {
		if err := h.apply(db, a.Token, a.Account, a.Amount); err != nil {
			if errors.ErrInsufficientAccountBalance.Is(err) || errors.ErrInsufficientTokenBalance.Is(err) {
				return nil, errors.Wrap(errors.ErrInsufficientBalanceForFee, err.Error())
			}
			return nil, errors.Wrap(err, "custom fee")
		}
	}

	res := &ledger.DeliverResult{
		Log:                fmt.Sprintf("%d changes, %d serials, %d custom fees", len(changes), len(nfts), len(assessed.Fees)),
		Tags:               tags(changes, nfts),
		AssessedCustomFees: assessed.Fees,
	}
	if gas > 0 {
		res.Extras = ledger.FeeExtras{ledger.ExtraGas: gas}
	}
	return res, nil
}

// resolve maps every alias to an account, creating accounts for aliases
// that receive a positive amount.
func (h *TransferHandler) resolve(ctx context.Context, db ledger.KVStore, msg *TransferMsg) ([]change, []nftMove, error) {
	var changes []change
	add := func(tok ledger.TokenID, list []AccountAmount) error {
		seen := make(map[ledger.AccountID]struct{}, len(list))
		for _, a := range list {
			id, err := h.account(ctx, db, a.Account, a.Alias, a.Amount)
			if err != nil {
				return err
			}
			if _, ok := seen[id]; ok {
				return errors.Wrapf(errors.ErrAccountRepeated, "account %s", id)
			}
			seen[id] = struct{}{}
			changes = append(changes, change{
				token:    tok,
				account:  id,
				amount:   a.Amount,
				approved: a.Approved,
				hook:     a.Hook,
			})
		}
		return nil
	}

	if err := add(0, msg.Hbar); err != nil {
		return nil, nil, errors.Wrap(err, "hbar")
	}
	var nfts []nftMove
	for _, l := range msg.Tokens {
		tok, err := h.tokens.Token(db, l.Token)
		if err != nil {
			return nil, nil, err
		}
		if len(l.Transfers) != 0 {
			if !tok.IsFungible() {
				return nil, nil, errors.Wrapf(errors.ErrNotSupported, "amount transfer of non fungible %s", tok.ID)
			}
			if err := add(tok.ID, l.Transfers); err != nil {
				return nil, nil, errors.Wrapf(err, "token %s", tok.ID)
			}
			continue
		}
		if tok.IsFungible() {
			return nil, nil, errors.Wrapf(errors.ErrNotSupported, "serial transfer of fungible %s", tok.ID)
		}
		for _, n := range l.Nfts {
			to, err := h.account(ctx, db, n.Receiver, n.ReceiverAlias, 1)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "token %s serial %d", tok.ID, n.Serial)
			}
			if to == n.Sender {
				return nil, nil, errors.Wrapf(errors.ErrAccountRepeated, "serial %d sent to its sender", n.Serial)
			}
			nfts = append(nfts, nftMove{
				token:    tok.ID,
				serial:   n.Serial,
				from:     n.Sender,
				to:       to,
				approved: n.Approved,
				hook:     n.SenderHook,
			})
		}
	}
	return changes, nfts, nil
}

func (h *TransferHandler) account(ctx context.Context, db ledger.KVStore, id ledger.AccountID, a crypto.Alias, credit int64) (ledger.AccountID, error) {
	if len(a) == 0 {
		return id, nil
	}
	id, _, err := h.resolver.ResolveOrCreate(ctx, db, a, credit)
	return id, err
}

// authorize checks that every debit is allowed: spent from an allowance of
// the payer, approved by a hook or signed by the account. The gas used by
// hooks is returned.
func (h *TransferHandler) authorize(ctx context.Context, db ledger.KVStore, payer ledger.AccountID, changes []change, nfts []nftMove) (int64, error) {
	var gas int64
	signed := make(map[ledger.AccountID]struct{})
	debit := func(tok ledger.TokenID, from ledger.AccountID, amount int64, approved bool, hook *HookCall) error {
		switch {
		case approved:
			return h.allowances.Spend(db, from, payer, tok, amount)
		case hook != nil:
			used, err := hooks.Authorize(ctx, db, h.evaluator, hooks.Call{
				Account:  from,
				HookID:   hook.ID,
				GasLimit: hook.GasLimit,
				CallData: hook.CallData,
			})
			gas += used
			return err
		}
		if _, ok := signed[from]; ok {
			return nil
		}
		if err := h.auth.RequireSigner(ctx, db, from); err != nil {
			return err
		}
		signed[from] = struct{}{}
		return nil
	}

	for _, c := range changes {
		if c.amount >= 0 {
			continue
		}
		if err := debit(c.token, c.account, -c.amount, c.approved, c.hook); err != nil {
			return gas, errors.Wrapf(err, "debit of %s", c.account)
		}
	}
	for _, n := range nfts {
		if err := debit(n.token, n.from, 1, n.approved, n.hook); err != nil {
			return gas, errors.Wrapf(err, "serial %d of %s", n.serial, n.from)
		}
	}
	return gas, nil
}

// apply changes a balance. Token zero is hbar.
func (h *TransferHandler) apply(db ledger.KVStore, tok ledger.TokenID, id ledger.AccountID, amount int64) error {
	if tok != 0 {
		return h.tokens.Adjust(db, tok, id, amount)
	}
	acc, err := h.accounts.Active(db, id)
	if err != nil {
		return err
	}
	if amount < 0 {
		err = acc.Debit(-amount)
	} else {
		err = acc.Credit(amount)
	}
	if err != nil {
		return err
	}
	return h.accounts.Save(db, acc)
}

func tags(changes []change, nfts []nftMove) []common.KVPair {
	var res []common.KVPair
	seen := make(map[ledger.AccountID]struct{})
	tag := func(id ledger.AccountID) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			res = append(res, account.AccountTag(id))
		}
	}
	for _, c := range changes {
		tag(c.account)
	}
	for _, n := range nfts {
		tag(n.from)
		tag(n.to)
	}
	return res
}
