package token

import (
	"math"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/orm"
)

// Type tells if the units of a token are interchangeable.
type Type int32

const (
	FungibleCommon    Type = 1
	NonFungibleUnique Type = 2
)

// FixedFee is a custom fee charged on every transfer of the token. The
// sender of the token pays it to the collector.
type FixedFee struct {
	Amount int64 `json:"amount"`
	// DenominatingToken is the token the fee is paid in. Zero means hbar.
	DenominatingToken ledger.TokenID   `json:"denominating_token,omitempty"`
	Collector         ledger.AccountID `json:"collector"`
}

func (f *FixedFee) Validate() error {
	var errs error
	if f.Amount <= 0 {
		errs = errors.AppendField(errs, "Amount", errors.ErrCustomFeeMustBePositive)
	}
	if f.DenominatingToken < 0 {
		errs = errors.AppendField(errs, "DenominatingToken", errors.ErrInvalidTokenIDInCustomFees)
	}
	if f.Collector <= 0 {
		errs = errors.AppendField(errs, "Collector", errors.ErrInvalidCustomFeeCollector)
	}
	return errs
}

// Token is the definition of a token.
type Token struct {
	ID          ledger.TokenID   `json:"id"`
	Name        string           `json:"name"`
	Symbol      string           `json:"symbol"`
	Type        Type             `json:"type"`
	Treasury    ledger.AccountID `json:"treasury"`
	TotalSupply int64            `json:"total_supply"`
	Decimals    int32            `json:"decimals,omitempty"`
	CustomFees  []FixedFee       `json:"custom_fees,omitempty"`
	// NextSerial is the serial the next minted NFT gets.
	NextSerial int64 `json:"next_serial,omitempty"`
}

var _ orm.Model = (*Token)(nil)

func (t *Token) Validate() error {
	var errs error
	if t.ID <= 0 {
		errs = errors.AppendField(errs, "ID", errors.ErrInvalidTokenID)
	}
	if t.Name == "" || len(t.Name) > maxNameSize {
		errs = errors.AppendField(errs, "Name", errors.ErrInvalidTransactionBody)
	}
	if t.Symbol == "" || len(t.Symbol) > maxNameSize {
		errs = errors.AppendField(errs, "Symbol", errors.ErrInvalidTransactionBody)
	}
	switch t.Type {
	case FungibleCommon:
	case NonFungibleUnique:
		if t.Decimals != 0 {
			errs = errors.AppendField(errs, "Decimals", errors.ErrInvalidTransactionBody)
		}
	default:
		errs = errors.AppendField(errs, "Type", errors.ErrInvalidTransactionBody)
	}
	if t.Treasury <= 0 {
		errs = errors.AppendField(errs, "Treasury", errors.ErrInvalidTreasury)
	}
	if t.TotalSupply < 0 {
		errs = errors.AppendField(errs, "TotalSupply", errors.ErrInvalidInitialSupply)
	}
	for i := range t.CustomFees {
		errs = errors.AppendField(errs, "CustomFees", t.CustomFees[i].Validate())
	}
	return errs
}

// IsFungible returns true for a fungible token.
func (t *Token) IsFungible() bool {
	return t.Type == FungibleCommon
}

// IsExempt returns true if given account never pays the custom fees of this
// token.
func (t *Token) IsExempt(id ledger.AccountID) bool {
	if id == t.Treasury {
		return true
	}
	for _, f := range t.CustomFees {
		if f.Collector == id {
			return true
		}
	}
	return false
}

const maxNameSize = 100

// Relationship binds an account to a token. Balance is the number of units
// of a fungible token or the number of owned serials of a non fungible one.
type Relationship struct {
	Account        ledger.AccountID `json:"account"`
	Token          ledger.TokenID   `json:"token"`
	Balance        int64            `json:"balance"`
	AutoAssociated bool             `json:"auto_associated,omitempty"`
}

var _ orm.Model = (*Relationship)(nil)

func (r *Relationship) Validate() error {
	var errs error
	if r.Account <= 0 {
		errs = errors.AppendField(errs, "Account", errors.ErrInvalidAccountID)
	}
	if r.Token <= 0 {
		errs = errors.AppendField(errs, "Token", errors.ErrInvalidTokenID)
	}
	if r.Balance < 0 {
		errs = errors.AppendField(errs, "Balance", errors.ErrInsufficientTokenBalance)
	}
	return errs
}

// Add changes the balance by amount, which can be negative.
func (r *Relationship) Add(amount int64) error {
	if amount > 0 && r.Balance > math.MaxInt64-amount {
		return errors.Wrapf(errors.ErrOverflow, "%s of %s", r.Token, r.Account)
	}
	if r.Balance+amount < 0 {
		return errors.Wrapf(errors.ErrInsufficientTokenBalance,
			"account %s holds %d of %s, needs %d", r.Account, r.Balance, r.Token, -amount)
	}
	r.Balance += amount
	return nil
}

// Nft is a single serial of a non fungible token.
type Nft struct {
	Token  ledger.TokenID   `json:"token"`
	Serial int64            `json:"serial"`
	Owner  ledger.AccountID `json:"owner"`
}

var _ orm.Model = (*Nft)(nil)

func (n *Nft) Validate() error {
	if n.Token <= 0 || n.Serial <= 0 {
		return errors.Wrap(errors.ErrInvalidNftID, "token and serial required")
	}
	if n.Owner <= 0 {
		return errors.Wrap(errors.ErrInvalidAccountID, "owner")
	}
	return nil
}

// Bucket stores tokens by id.
type Bucket struct {
	orm.ModelBucket
	seq orm.Sequence
}

// NewBucket returns the token bucket.
func NewBucket() *Bucket {
	return &Bucket{
		ModelBucket: orm.NewModelBucket("tokens"),
		seq:         orm.NewSequence("tokens", "id"),
	}
}

// Get loads a token. A missing token fails with ErrInvalidTokenID.
func (b *Bucket) Get(db ledger.ReadOnlyKVStore, id ledger.TokenID) (*Token, error) {
	var t Token
	err := b.One(db, id.Bytes(), &t)
	if errors.ErrNotFound.Is(err) {
		return nil, errors.Wrapf(errors.ErrInvalidTokenID, "token %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Save stores the token under its id.
func (b *Bucket) Save(db ledger.KVStore, t *Token) error {
	return b.Put(db, t.ID.Bytes(), t)
}

// Create assigns the next free id to the token and stores it.
func (b *Bucket) Create(db ledger.KVStore, t *Token) error {
	id, err := b.seq.NextInt(db)
	if err != nil {
		return errors.Wrap(err, "token id")
	}
	t.ID = ledger.TokenID(id)
	return b.ModelBucket.Create(db, t.ID.Bytes(), t)
}

// Reserve makes sure no future token is created with an id lower or equal
// to given one.
func (b *Bucket) Reserve(db ledger.KVStore, id ledger.TokenID) error {
	return b.seq.EnsureAtLeast(db, int64(id))
}

// RelationshipBucket stores relationships by account and token, so that
// all relationships of an account share a key prefix.
type RelationshipBucket struct {
	orm.ModelBucket
}

// NewRelationshipBucket returns the relationship bucket.
func NewRelationshipBucket() *RelationshipBucket {
	return &RelationshipBucket{ModelBucket: orm.NewModelBucket("token_rels")}
}

func relKey(acc ledger.AccountID, tok ledger.TokenID) []byte {
	return append(acc.Bytes(), tok.Bytes()...)
}

// Get loads a relationship. ErrTokenNotAssociated is returned if the
// account is not associated with the token.
func (b *RelationshipBucket) Get(db ledger.ReadOnlyKVStore, acc ledger.AccountID, tok ledger.TokenID) (*Relationship, error) {
	var r Relationship
	err := b.One(db, relKey(acc, tok), &r)
	if errors.ErrNotFound.Is(err) {
		return nil, errors.Wrapf(errors.ErrTokenNotAssociated, "account %s token %s", acc, tok)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Exists returns true if the account is associated with the token.
func (b *RelationshipBucket) Exists(db ledger.ReadOnlyKVStore, acc ledger.AccountID, tok ledger.TokenID) (bool, error) {
	return b.Has(db, relKey(acc, tok))
}

// Save stores the relationship.
func (b *RelationshipBucket) Save(db ledger.KVStore, r *Relationship) error {
	return b.Put(db, relKey(r.Account, r.Token), r)
}

// ByAccount returns all relationships of an account ordered by token.
func (b *RelationshipBucket) ByAccount(db ledger.ReadOnlyKVStore, acc ledger.AccountID) ([]*Relationship, error) {
	keys, err := b.Keys(db, acc.Bytes())
	if err != nil {
		return nil, err
	}
	rels := make([]*Relationship, 0, len(keys))
	for _, k := range keys {
		var r Relationship
		if err := b.One(db, k, &r); err != nil {
			return nil, err
		}
		rels = append(rels, &r)
	}
	return rels, nil
}

// HasTokenBalance returns true if the account holds a unit of any token.
func (b *RelationshipBucket) HasTokenBalance(db ledger.ReadOnlyKVStore, acc ledger.AccountID) (bool, error) {
	rels, err := b.ByAccount(db, acc)
	if err != nil {
		return false, err
	}
	for _, r := range rels {
		if r.Balance != 0 {
			return true, nil
		}
	}
	return false, nil
}

// NftBucket stores NFT serials by token and serial.
type NftBucket struct {
	orm.ModelBucket
}

// NewNftBucket returns the NFT bucket.
func NewNftBucket() *NftBucket {
	return &NftBucket{ModelBucket: orm.NewModelBucket("nfts")}
}

func nftKey(tok ledger.TokenID, serial int64) []byte {
	return append(tok.Bytes(), orm.EncodeSequence(serial)...)
}

// Get loads an NFT. A missing serial fails with ErrInvalidNftID.
func (b *NftBucket) Get(db ledger.ReadOnlyKVStore, tok ledger.TokenID, serial int64) (*Nft, error) {
	var n Nft
	err := b.One(db, nftKey(tok, serial), &n)
	if errors.ErrNotFound.Is(err) {
		return nil, errors.Wrapf(errors.ErrInvalidNftID, "%s", ledger.NftID{Token: tok, Serial: serial})
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Save stores the NFT.
func (b *NftBucket) Save(db ledger.KVStore, n *Nft) error {
	return b.Put(db, nftKey(n.Token, n.Serial), n)
}
