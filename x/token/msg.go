package token

import (
	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
)

func init() {
	ledger.RegisterMsg(func() ledger.Msg { return &CreateMsg{} })
	ledger.RegisterMsg(func() ledger.Msg { return &AssociateMsg{} })
}

var (
	_ ledger.Msg = (*CreateMsg)(nil)
	_ ledger.Msg = (*AssociateMsg)(nil)
)

// CreateMsg creates a token owned by the treasury account.
type CreateMsg struct {
	Name     string           `json:"name"`
	Symbol   string           `json:"symbol"`
	Type     Type             `json:"type"`
	Treasury ledger.AccountID `json:"treasury"`
	// InitialSupply is issued to the treasury of a fungible token.
	InitialSupply int64 `json:"initial_supply,omitempty"`
	Decimals      int32 `json:"decimals,omitempty"`
	// InitialSerials is the number of NFTs minted to the treasury of a non
	// fungible token.
	InitialSerials int64      `json:"initial_serials,omitempty"`
	CustomFees     []FixedFee `json:"custom_fees,omitempty"`
}

func (CreateMsg) Kind() string {
	return "token/create"
}

func (m *CreateMsg) Validate() error {
	var errs error
	if m.Name == "" || len(m.Name) > maxNameSize {
		errs = errors.AppendField(errs, "Name", errors.ErrInvalidTransactionBody)
	}
	if m.Symbol == "" || len(m.Symbol) > maxNameSize {
		errs = errors.AppendField(errs, "Symbol", errors.ErrInvalidTransactionBody)
	}
	if m.Treasury <= 0 {
		errs = errors.AppendField(errs, "Treasury", errors.ErrInvalidTreasury)
	}
	if m.InitialSupply < 0 {
		errs = errors.AppendField(errs, "InitialSupply", errors.ErrInvalidInitialSupply)
	}
	if m.InitialSerials < 0 {
		errs = errors.AppendField(errs, "InitialSerials", errors.ErrInvalidInitialSupply)
	}
	switch m.Type {
	case FungibleCommon:
		if m.InitialSerials != 0 {
			errs = errors.AppendField(errs, "InitialSerials", errors.ErrInvalidInitialSupply)
		}
	case NonFungibleUnique:
		if m.InitialSupply != 0 {
			errs = errors.AppendField(errs, "InitialSupply", errors.ErrInvalidInitialSupply)
		}
		if m.Decimals != 0 {
			errs = errors.AppendField(errs, "Decimals", errors.ErrInvalidTransactionBody)
		}
	default:
		errs = errors.AppendField(errs, "Type", errors.ErrInvalidTransactionBody)
	}
	for i := range m.CustomFees {
		errs = errors.AppendField(errs, "CustomFees", m.CustomFees[i].Validate())
	}
	return errs
}

// AssociateMsg associates an account with tokens.
type AssociateMsg struct {
	Account ledger.AccountID `json:"account"`
	Tokens  []ledger.TokenID `json:"tokens"`
}

func (AssociateMsg) Kind() string {
	return "token/associate"
}

func (m *AssociateMsg) Validate() error {
	var errs error
	if m.Account <= 0 {
		errs = errors.AppendField(errs, "Account", errors.ErrInvalidAccountID)
	}
	if len(m.Tokens) == 0 {
		errs = errors.AppendField(errs, "Tokens", errors.ErrEmptyTransactionBody)
	}
	seen := make(map[ledger.TokenID]struct{}, len(m.Tokens))
	for _, t := range m.Tokens {
		if t <= 0 {
			errs = errors.AppendField(errs, "Tokens", errors.ErrInvalidTokenID)
			continue
		}
		if _, ok := seen[t]; ok {
			errs = errors.AppendField(errs, "Tokens", errors.Wrapf(errors.ErrInvalidTokenID, "%s repeated", t))
		}
		seen[t] = struct{}{}
	}
	return errs
}
