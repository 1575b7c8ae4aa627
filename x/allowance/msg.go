package allowance

import (
	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
)

func init() {
	ledger.RegisterMsg(func() ledger.Msg { return &ApproveMsg{} })
	ledger.RegisterMsg(func() ledger.Msg { return &DeleteMsg{} })
}

var (
	_ ledger.Msg = (*ApproveMsg)(nil)
	_ ledger.Msg = (*DeleteMsg)(nil)
)

// Grant sets the allowance of a spender. A zero amount removes it.
type Grant struct {
	Owner   ledger.AccountID `json:"owner"`
	Spender ledger.AccountID `json:"spender"`
	Token   ledger.TokenID   `json:"token,omitempty"`
	Amount  int64            `json:"amount"`
}

// ApproveMsg sets allowances. Every owner must sign.
type ApproveMsg struct {
	Allowances []Grant `json:"allowances"`
}

func (ApproveMsg) Kind() string {
	return "allowance/approve"
}

func (m *ApproveMsg) Validate() error {
	if len(m.Allowances) == 0 {
		return errors.Field("Allowances", errors.ErrEmptyTransactionBody, "required")
	}
	var errs error
	seen := make(map[[3]int64]struct{}, len(m.Allowances))
	for _, g := range m.Allowances {
		if g.Owner <= 0 {
			errs = errors.AppendField(errs, "Allowances", errors.Wrap(errors.ErrInvalidAccountID, "owner"))
		}
		if g.Spender <= 0 || g.Spender == g.Owner {
			errs = errors.AppendField(errs, "Allowances", errors.Wrap(errors.ErrInvalidAccountID, "spender"))
		}
		if g.Token < 0 {
			errs = errors.AppendField(errs, "Allowances", errors.ErrInvalidTokenID)
		}
		if g.Amount < 0 {
			errs = errors.AppendField(errs, "Allowances", errors.ErrInvalidAccountAmounts)
		}
		k := [3]int64{int64(g.Owner), int64(g.Spender), int64(g.Token)}
		if _, ok := seen[k]; ok {
			errs = errors.AppendField(errs, "Allowances", errors.Wrap(errors.ErrAccountRepeated, "allowance repeated"))
		}
		seen[k] = struct{}{}
	}
	return errs
}

// Removal names a token allowance to delete.
type Removal struct {
	Owner   ledger.AccountID `json:"owner"`
	Spender ledger.AccountID `json:"spender"`
	Token   ledger.TokenID   `json:"token"`
}

// DeleteMsg removes token allowances. Every owner must sign.
type DeleteMsg struct {
	Allowances []Removal `json:"allowances"`
}

func (DeleteMsg) Kind() string {
	return "allowance/delete"
}

func (m *DeleteMsg) Validate() error {
	if len(m.Allowances) == 0 {
		return errors.Field("Allowances", errors.ErrEmptyTransactionBody, "required")
	}
	var errs error
	for _, r := range m.Allowances {
		if r.Owner <= 0 || r.Spender <= 0 {
			errs = errors.AppendField(errs, "Allowances", errors.ErrInvalidAccountID)
		}
		if r.Token <= 0 {
			errs = errors.AppendField(errs, "Allowances", errors.ErrInvalidTokenID)
		}
	}
	return errs
}
