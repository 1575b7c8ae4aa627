package ledger

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/iov-one/ledger/errors"
)

// Shard and realm are fixed. Entity ids are displayed as "0.0.<num>".
const entityPrefix = "0.0."

// AccountID is the numeric identity of an account.
type AccountID int64

// TokenID is the numeric identity of a token.
type TokenID int64

// HookID identifies a hook within the account that declared it.
type HookID int64

func (id AccountID) String() string { return entityPrefix + strconv.FormatInt(int64(id), 10) }
func (id TokenID) String() string   { return entityPrefix + strconv.FormatInt(int64(id), 10) }

// Bytes returns the big endian representation, used as a store key.
func (id AccountID) Bytes() []byte { return seq(int64(id)) }

// Bytes returns the big endian representation, used as a store key.
func (id TokenID) Bytes() []byte { return seq(int64(id)) }

func seq(n int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(n))
	return b
}

// ParseAccountID accepts either "0.0.<num>" or a bare number.
func ParseAccountID(s string) (AccountID, error) {
	n, err := parseEntity(s)
	return AccountID(n), err
}

// ParseTokenID accepts either "0.0.<num>" or a bare number.
func ParseTokenID(s string) (TokenID, error) {
	n, err := parseEntity(s)
	return TokenID(n), err
}

func parseEntity(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimPrefix(s, entityPrefix), 10, 64)
	if err != nil || n < 0 {
		return 0, errors.Wrapf(errors.ErrInvalidTransactionBody, "invalid entity id %q", s)
	}
	return n, nil
}

func (id AccountID) MarshalJSON() ([]byte, error) { return json.Marshal(id.String()) }
func (id TokenID) MarshalJSON() ([]byte, error)   { return json.Marshal(id.String()) }

func (id *AccountID) UnmarshalJSON(raw []byte) error {
	n, err := unmarshalEntity(raw)
	*id = AccountID(n)
	return err
}

func (id *TokenID) UnmarshalJSON(raw []byte) error {
	n, err := unmarshalEntity(raw)
	*id = TokenID(n)
	return err
}

func unmarshalEntity(raw []byte) (int64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, errors.Wrap(errors.ErrInvalidTransactionBody, "entity id must be a string or a number")
		}
		return n, nil
	}
	return parseEntity(s)
}

// NftID identifies a single serial of a non fungible token.
type NftID struct {
	Token  TokenID
	Serial int64
}

func (n NftID) String() string {
	return fmt.Sprintf("%s/%d", n.Token, n.Serial)
}
