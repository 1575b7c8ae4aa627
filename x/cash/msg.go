package cash

import (
	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
)

func init() {
	ledger.RegisterMsg(func() ledger.Msg { return &TransferMsg{} })
}

var _ ledger.Msg = (*TransferMsg)(nil)

// HookCall authorizes a debit with an allowance hook of the debited
// account, instead of its signature.
type HookCall struct {
	ID       ledger.HookID `json:"id"`
	GasLimit int64         `json:"gas_limit"`
	CallData []byte        `json:"call_data,omitempty"`
}

// AccountAmount is a balance change of a single account. The account is
// referenced either by id or by alias. Negative amounts are debits.
type AccountAmount struct {
	Account ledger.AccountID `json:"account,omitempty"`
	Alias   crypto.Alias     `json:"alias,omitempty"`
	Amount  int64            `json:"amount"`
	// Approved debits are spent from an allowance granted to the payer.
	Approved bool      `json:"approved,omitempty"`
	Hook     *HookCall `json:"hook,omitempty"`
}

// NftTransfer moves a single serial.
type NftTransfer struct {
	Sender        ledger.AccountID `json:"sender"`
	Receiver      ledger.AccountID `json:"receiver,omitempty"`
	ReceiverAlias crypto.Alias     `json:"receiver_alias,omitempty"`
	Serial        int64            `json:"serial"`
	Approved      bool             `json:"approved,omitempty"`
	SenderHook    *HookCall        `json:"sender_hook,omitempty"`
}

// TokenTransferList lists the moves of a single token. A fungible token
// uses Transfers, a non fungible one Nfts.
type TokenTransferList struct {
	Token     ledger.TokenID  `json:"token"`
	Transfers []AccountAmount `json:"transfers,omitempty"`
	Nfts      []NftTransfer   `json:"nfts,omitempty"`
}

// TransferMsg moves hbar and tokens between accounts. Every list must
// net to zero.
type TransferMsg struct {
	Hbar   []AccountAmount     `json:"hbar,omitempty"`
	Tokens []TokenTransferList `json:"tokens,omitempty"`
}

func (TransferMsg) Kind() string {
	return "crypto/transfer"
}

// Validate checks the lists without consulting the state. A transfer that
// does not move anything is an empty body.
func (m *TransferMsg) Validate() error {
	if m.empty() {
		return errors.Wrap(errors.ErrEmptyTransactionBody, "nothing to transfer")
	}
	var errs error
	errs = errors.AppendField(errs, "Hbar", validateAmounts(m.Hbar, errors.ErrInvalidAccountAmounts))

	tokens := make(map[ledger.TokenID]struct{}, len(m.Tokens))
	for _, l := range m.Tokens {
		if l.Token <= 0 {
			errs = errors.AppendField(errs, "Tokens", errors.ErrInvalidTokenID)
			continue
		}
		if _, ok := tokens[l.Token]; ok {
			errs = errors.AppendField(errs, "Tokens", errors.Wrapf(errors.ErrDuplicate, "token %s", l.Token))
		}
		tokens[l.Token] = struct{}{}

		switch {
		case len(l.Transfers) == 0 && len(l.Nfts) == 0:
			errs = errors.AppendField(errs, "Tokens", errors.Wrapf(errors.ErrEmptyTransactionBody, "token %s", l.Token))
		case len(l.Transfers) != 0 && len(l.Nfts) != 0:
			errs = errors.AppendField(errs, "Tokens",
				errors.Wrapf(errors.ErrInvalidTransactionBody, "token %s mixes fungible and nft transfers", l.Token))
		case len(l.Transfers) != 0:
			errs = errors.AppendField(errs, "Tokens", validateAmounts(l.Transfers, errors.ErrTransfersNotZeroSum))
		default:
			errs = errors.AppendField(errs, "Tokens", validateNfts(l.Nfts))
		}
	}
	return errs
}

func (m *TransferMsg) empty() bool {
	if len(m.Hbar) != 0 {
		return false
	}
	for _, l := range m.Tokens {
		if len(l.Transfers) != 0 || len(l.Nfts) != 0 {
			return false
		}
	}
	return true
}

// validateAmounts checks a single list. unbalanced is returned if the list
// does not net to zero.
func validateAmounts(list []AccountAmount, unbalanced *errors.Error) error {
	var (
		errs error
		sum  int64
	)
	seen := make(map[string]struct{}, len(list))
	for _, a := range list {
		if err := validateRef(a.Account, a.Alias); err != nil {
			errs = errors.Append(errs, err)
			continue
		}
		k := refKey(a.Account, a.Alias)
		if _, ok := seen[k]; ok {
			errs = errors.Append(errs, errors.Wrapf(errors.ErrAccountRepeated, "%s", k))
		}
		seen[k] = struct{}{}

		if a.Amount >= 0 && (a.Approved || a.Hook != nil) {
			errs = errors.Append(errs, errors.Wrap(errors.ErrInvalidTransactionBody, "only a debit can be approved or hooked"))
		}
		if a.Approved && a.Hook != nil {
			errs = errors.Append(errs, errors.Wrap(errors.ErrInvalidTransactionBody, "debit both approved and hooked"))
		}
		next := sum + a.Amount
		if (a.Amount > 0 && next < sum) || (a.Amount < 0 && next > sum) {
			return errors.Append(errs, errors.Wrap(unbalanced, "overflow"))
		}
		sum = next
	}
	if sum != 0 {
		errs = errors.Append(errs, errors.Wrapf(unbalanced, "sum is %d", sum))
	}
	return errs
}

func validateNfts(list []NftTransfer) error {
	var errs error
	serials := make(map[int64]struct{}, len(list))
	for _, n := range list {
		if n.Serial <= 0 {
			errs = errors.Append(errs, errors.Wrapf(errors.ErrInvalidNftID, "serial %d", n.Serial))
		}
		if _, ok := serials[n.Serial]; ok {
			errs = errors.Append(errs, errors.Wrapf(errors.ErrDuplicate, "serial %d", n.Serial))
		}
		serials[n.Serial] = struct{}{}
		if n.Sender <= 0 {
			errs = errors.Append(errs, errors.Wrap(errors.ErrInvalidAccountID, "sender"))
		}
		if err := validateRef(n.Receiver, n.ReceiverAlias); err != nil {
			errs = errors.Append(errs, errors.Wrap(err, "receiver"))
		}
		if n.Receiver == n.Sender {
			errs = errors.Append(errs, errors.Wrap(errors.ErrAccountRepeated, "sender is the receiver"))
		}
		if n.Approved && n.SenderHook != nil {
			errs = errors.Append(errs, errors.Wrap(errors.ErrInvalidTransactionBody, "debit both approved and hooked"))
		}
	}
	return errs
}

// validateRef requires exactly one of id and alias.
func validateRef(id ledger.AccountID, alias crypto.Alias) error {
	switch {
	case id != 0 && len(alias) != 0:
		return errors.Wrap(errors.ErrInvalidAccountID, "both id and alias set")
	case len(alias) != 0:
		return nil
	case id <= 0:
		return errors.Wrap(errors.ErrInvalidAccountID, "missing account")
	}
	return nil
}

func refKey(id ledger.AccountID, alias crypto.Alias) string {
	if len(alias) != 0 {
		return alias.String()
	}
	return id.String()
}
