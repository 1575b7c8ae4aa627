package account

import (
	"math"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/orm"
)

// UnlimitedAutoAssociations allows an account to receive any token.
const UnlimitedAutoAssociations = -1

const maxMemoSize = 100

// Hook is an allowance hook declared by an account. The code the hook runs
// is opaque to the ledger.
type Hook struct {
	ID ledger.HookID `json:"id"`
	// Contract is the account of the code evaluating the hook.
	Contract ledger.AccountID `json:"contract,omitempty"`
	AdminKey *crypto.Key      `json:"admin_key,omitempty"`
}

// Account is the state of a single ledger account.
type Account struct {
	ID ledger.AccountID `json:"id"`
	// Key is nil for a hollow account.
	Key                  *crypto.Key  `json:"key,omitempty"`
	Alias                crypto.Alias `json:"alias,omitempty"`
	Balance              int64        `json:"balance"`
	Memo                 string       `json:"memo,omitempty"`
	AutoRenewPeriod      int64        `json:"auto_renew_period,omitempty"`
	Expiry               int64        `json:"expiry,omitempty"`
	MaxAutoAssociations  int32        `json:"max_auto_associations"`
	UsedAutoAssociations int32        `json:"used_auto_associations,omitempty"`
	Deleted              bool         `json:"deleted,omitempty"`
	Hooks                []Hook       `json:"hooks,omitempty"`
}

var _ orm.Model = (*Account)(nil)

// IsHollow returns true if the account has no key yet.
func (a *Account) IsHollow() bool {
	return a.Key == nil
}

// Validate checks the account invariants.
func (a *Account) Validate() error {
	var errs error
	if a.ID <= 0 {
		errs = errors.AppendField(errs, "ID", errors.ErrInvalidAccountID)
	}
	if a.Key != nil {
		errs = errors.AppendField(errs, "Key", a.Key.Validate())
	} else if len(a.Alias) != 0 {
		errs = errors.AppendField(errs, "Alias",
			errors.Wrap(errors.ErrState, "hollow account cannot carry an alias"))
	}
	if a.Balance < 0 {
		errs = errors.AppendField(errs, "Balance", errors.ErrInsufficientAccountBalance)
	}
	if len(a.Memo) > maxMemoSize {
		errs = errors.AppendField(errs, "Memo", errors.Wrap(errors.ErrState, "too long"))
	}
	if a.MaxAutoAssociations < UnlimitedAutoAssociations {
		errs = errors.AppendField(errs, "MaxAutoAssociations", errors.ErrInvalidMaxAutoAssociations)
	}
	if a.UsedAutoAssociations < 0 {
		errs = errors.AppendField(errs, "UsedAutoAssociations", errors.ErrState)
	}
	errs = errors.AppendField(errs, "Hooks", ValidateHooks(a.Hooks))
	return errs
}

// ValidateHooks returns an error if two hooks share an id.
func ValidateHooks(hooks []Hook) error {
	seen := make(map[ledger.HookID]struct{}, len(hooks))
	for i, h := range hooks {
		if h.ID <= 0 {
			return errors.Wrapf(errors.ErrInvalidTransactionBody, "hook %d: id must be positive", i)
		}
		if h.AdminKey != nil {
			if err := h.AdminKey.Validate(); err != nil {
				return errors.Wrapf(err, "hook %d admin key", i)
			}
		}
		if _, ok := seen[h.ID]; ok {
			return errors.Wrapf(errors.ErrHookIDRepeated, "hook id %d", h.ID)
		}
		seen[h.ID] = struct{}{}
	}
	return nil
}

// Hook returns the hook with given id.
func (a *Account) Hook(id ledger.HookID) (*Hook, bool) {
	for i := range a.Hooks {
		if a.Hooks[i].ID == id {
			return &a.Hooks[i], true
		}
	}
	return nil, false
}

// Credit adds amount to the balance.
func (a *Account) Credit(amount int64) error {
	if amount < 0 {
		return a.Debit(-amount)
	}
	if a.Balance > math.MaxInt64-amount {
		return errors.Wrapf(errors.ErrOverflow, "account %s", a.ID)
	}
	a.Balance += amount
	return nil
}

// Debit removes amount from the balance.
func (a *Account) Debit(amount int64) error {
	if amount < 0 {
		return a.Credit(-amount)
	}
	if a.Balance < amount {
		return errors.Wrapf(errors.ErrInsufficientAccountBalance,
			"account %s has %d, needs %d", a.ID, a.Balance, amount)
	}
	a.Balance -= amount
	return nil
}

// HasFreeAutoAssociation returns true if the account can receive one more
// token it is not associated with.
func (a *Account) HasFreeAutoAssociation() bool {
	return a.MaxAutoAssociations == UnlimitedAutoAssociations ||
		a.UsedAutoAssociations < a.MaxAutoAssociations
}

// Bucket stores accounts by id.
type Bucket struct {
	orm.ModelBucket
	seq orm.Sequence
}

// NewBucket returns the account bucket.
func NewBucket() *Bucket {
	return &Bucket{
		ModelBucket: orm.NewModelBucket("accounts"),
		seq:         orm.NewSequence("accounts", "id"),
	}
}

// Get loads an account. ErrNotFound is returned if there is none.
func (b *Bucket) Get(db ledger.ReadOnlyKVStore, id ledger.AccountID) (*Account, error) {
	var a Account
	if err := b.One(db, id.Bytes(), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Active loads an account that can take part in a transaction. A missing
// account fails with ErrInvalidAccountID, a deleted one with
// ErrAccountDeleted.
func (b *Bucket) Active(db ledger.ReadOnlyKVStore, id ledger.AccountID) (*Account, error) {
	a, err := b.Get(db, id)
	switch {
	case errors.ErrNotFound.Is(err):
		return nil, errors.Wrapf(errors.ErrInvalidAccountID, "account %s", id)
	case err != nil:
		return nil, err
	case a.Deleted:
		return nil, errors.Wrapf(errors.ErrAccountDeleted, "account %s", id)
	}
	return a, nil
}

// Save stores the account under its id.
func (b *Bucket) Save(db ledger.KVStore, a *Account) error {
	return b.Put(db, a.ID.Bytes(), a)
}

// Create assigns the next free id to the account and stores it.
func (b *Bucket) Create(db ledger.KVStore, a *Account) error {
	id, err := b.seq.NextInt(db)
	if err != nil {
		return errors.Wrap(err, "account id")
	}
	a.ID = ledger.AccountID(id)
	return b.ModelBucket.Create(db, a.ID.Bytes(), a)
}

// Reserve makes sure no future account is created with an id lower or
// equal to given one.
func (b *Bucket) Reserve(db ledger.KVStore, id ledger.AccountID) error {
	return b.seq.EnsureAtLeast(db, int64(id))
}

// Move transfers amount of hbar between two accounts.
func (b *Bucket) Move(db ledger.KVStore, from, to ledger.AccountID, amount int64) error {
	if from == to || amount == 0 {
		return nil
	}
	src, err := b.Active(db, from)
	if err != nil {
		return err
	}
	if err := src.Debit(amount); err != nil {
		return err
	}
	if err := b.Save(db, src); err != nil {
		return err
	}
	dst, err := b.Active(db, to)
	if err != nil {
		return err
	}
	if err := dst.Credit(amount); err != nil {
		return err
	}
	return b.Save(db, dst)
}

// AliasRecord is the alias index entry.
type AliasRecord struct {
	Account ledger.AccountID
}

func (r *AliasRecord) Validate() error {
	if r.Account <= 0 {
		return errors.ErrInvalidAccountID
	}
	return nil
}

// AliasIndex maps alias bytes to an account id.
type AliasIndex struct {
	orm.ModelBucket
}

// NewAliasIndex returns the alias index.
func NewAliasIndex() *AliasIndex {
	return &AliasIndex{ModelBucket: orm.NewModelBucket("alias_index")}
}

// Lookup returns the account the alias points to.
func (i *AliasIndex) Lookup(db ledger.ReadOnlyKVStore, alias crypto.Alias) (ledger.AccountID, bool, error) {
	if len(alias) == 0 {
		return 0, false, nil
	}
	var r AliasRecord
	switch err := i.One(db, alias, &r); {
	case errors.ErrNotFound.Is(err):
		return 0, false, nil
	case err != nil:
		return 0, false, err
	}
	return r.Account, true, nil
}

// Assign binds the alias to the account. An alias can be assigned only
// once.
func (i *AliasIndex) Assign(db ledger.KVStore, alias crypto.Alias, id ledger.AccountID) error {
	if len(alias) == 0 {
		return errors.Wrap(errors.ErrInvalidAliasKey, "empty alias")
	}
	err := i.ModelBucket.Create(db, alias, &AliasRecord{Account: id})
	if errors.ErrDuplicate.Is(err) {
		return errors.Wrapf(errors.ErrAliasAlreadyAssigned, "alias %s", alias)
	}
	return err
}
