package account

import (
	"bytes"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
)

func init() {
	ledger.RegisterMsg(func() ledger.Msg { return &CreateMsg{} })
	ledger.RegisterMsg(func() ledger.Msg { return &UpdateMsg{} })
	ledger.RegisterMsg(func() ledger.Msg { return &DeleteMsg{} })
}

var (
	_ ledger.Msg = (*CreateMsg)(nil)
	_ ledger.Msg = (*UpdateMsg)(nil)
	_ ledger.Msg = (*DeleteMsg)(nil)
)

// CreateMsg creates a keyed account funded by the payer.
type CreateMsg struct {
	Key *crypto.Key `json:"key"`
	// Alias is optional. It must be derived from Key, either the key alias
	// or the EVM address of an ECDSA key.
	Alias               crypto.Alias `json:"alias,omitempty"`
	InitialBalance      int64        `json:"initial_balance,omitempty"`
	Memo                string       `json:"memo,omitempty"`
	AutoRenewPeriod     int64        `json:"auto_renew_period,omitempty"`
	MaxAutoAssociations int32        `json:"max_auto_associations,omitempty"`
	Hooks               []Hook       `json:"hooks,omitempty"`
}

func (CreateMsg) Kind() string {
	return "account/create"
}

func (m *CreateMsg) Validate() error {
	var errs error
	if m.Key == nil {
		errs = errors.AppendField(errs, "Key", errors.Wrap(errors.ErrInvalidSignature, "key required"))
	} else {
		errs = errors.AppendField(errs, "Key", m.Key.Validate())
		if len(m.Alias) != 0 {
			errs = errors.AppendField(errs, "Alias", validateKeyAlias(m.Key, m.Alias))
		}
	}
	if m.InitialBalance < 0 {
		errs = errors.AppendField(errs, "InitialBalance", errors.ErrInvalidAccountAmounts)
	}
	if len(m.Memo) > maxMemoSize {
		errs = errors.AppendField(errs, "Memo", errors.ErrInvalidTransactionBody)
	}
	if m.AutoRenewPeriod < 0 {
		errs = errors.AppendField(errs, "AutoRenewPeriod", errors.ErrInvalidRenewalPeriod)
	}
	if m.MaxAutoAssociations < UnlimitedAutoAssociations {
		errs = errors.AppendField(errs, "MaxAutoAssociations", errors.ErrInvalidMaxAutoAssociations)
	}
	errs = errors.AppendField(errs, "Hooks", ValidateHooks(m.Hooks))
	return errs
}

// validateKeyAlias returns an error unless the alias was derived from the
// key.
func validateKeyAlias(key *crypto.Key, alias crypto.Alias) error {
	kind, aliasKey, err := alias.Parse()
	if err != nil {
		return err
	}
	switch kind {
	case crypto.AliasKey:
		if !aliasKey.Equals(key) {
			return errors.Wrap(errors.ErrInvalidAliasKey, "alias of another key")
		}
	case crypto.AliasEVMAddress:
		addr, err := key.EVMAddress()
		if err != nil {
			return errors.Wrap(errors.ErrInvalidAliasKey, "evm address alias requires an ecdsa key")
		}
		if !bytes.Equal(addr, alias) {
			return errors.Wrap(errors.ErrInvalidAliasKey, "evm address of another key")
		}
	}
	return nil
}

// UpdateMsg changes the properties of an account. Only the set fields are
// updated. Hooks are removed before new hooks are added.
type UpdateMsg struct {
	Account             ledger.AccountID `json:"account"`
	Key                 *crypto.Key      `json:"key,omitempty"`
	Memo                *string          `json:"memo,omitempty"`
	AutoRenewPeriod     *int64           `json:"auto_renew_period,omitempty"`
	MaxAutoAssociations *int32           `json:"max_auto_associations,omitempty"`
	AddHooks            []Hook           `json:"add_hooks,omitempty"`
	RemoveHooks         []ledger.HookID  `json:"remove_hooks,omitempty"`
}

func (UpdateMsg) Kind() string {
	return "account/update"
}

func (m *UpdateMsg) Validate() error {
	if m.Account <= 0 {
		return errors.Field("Account", errors.ErrInvalidAccountID, "required")
	}
	if m.Key == nil && m.Memo == nil && m.AutoRenewPeriod == nil &&
		m.MaxAutoAssociations == nil && len(m.AddHooks) == 0 && len(m.RemoveHooks) == 0 {
		return errors.Wrap(errors.ErrEmptyTransactionBody, "nothing to update")
	}
	var errs error
	if m.Key != nil {
		errs = errors.AppendField(errs, "Key", m.Key.Validate())
	}
	if m.Memo != nil && len(*m.Memo) > maxMemoSize {
		errs = errors.AppendField(errs, "Memo", errors.ErrInvalidTransactionBody)
	}
	if m.MaxAutoAssociations != nil && *m.MaxAutoAssociations < UnlimitedAutoAssociations {
		errs = errors.AppendField(errs, "MaxAutoAssociations", errors.ErrInvalidMaxAutoAssociations)
	}
	errs = errors.AppendField(errs, "AddHooks", ValidateHooks(m.AddHooks))
	seen := make(map[ledger.HookID]struct{}, len(m.RemoveHooks))
	for _, id := range m.RemoveHooks {
		if _, ok := seen[id]; ok {
			errs = errors.AppendField(errs, "RemoveHooks", errors.Wrapf(errors.ErrHookIDRepeated, "hook id %d", id))
			break
		}
		seen[id] = struct{}{}
	}
	return errs
}

// DeleteMsg marks an account deleted and moves its hbar to another account.
type DeleteMsg struct {
	Account         ledger.AccountID `json:"account"`
	TransferAccount ledger.AccountID `json:"transfer_account"`
}

func (DeleteMsg) Kind() string {
	return "account/delete"
}

func (m *DeleteMsg) Validate() error {
	var errs error
	if m.Account <= 0 {
		errs = errors.AppendField(errs, "Account", errors.ErrInvalidAccountID)
	}
	if m.TransferAccount <= 0 {
		errs = errors.AppendField(errs, "TransferAccount", errors.ErrInvalidAccountID)
	}
	if m.Account == m.TransferAccount {
		errs = errors.AppendField(errs, "TransferAccount", errors.ErrTransferAccountSameAsDel)
	}
	return errs
}
