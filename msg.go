package ledger

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/iov-one/ledger/errors"
)

// Msg is a single requested ledger mutation. The set of kinds is closed:
// each extension registers the kinds it handles.
type Msg interface {
	// Kind returns the routing name of the message, ie. "crypto/transfer".
	Kind() string

	// Validate performs the stateless checks of the message content.
	Validate() error
}

// SignBytesProvider is implemented by messages that cannot be serialized with
// the binary codec directly, for example because they carry other
// transactions.
type SignBytesProvider interface {
	SignBytes() ([]byte, error)
}

var msgKinds = map[string]func() Msg{}

// RegisterMsg makes a message kind decodable. Call it from an init function
// of the extension that declares the message.
func RegisterMsg(factory func() Msg) {
	kind := factory().Kind()
	if _, ok := msgKinds[kind]; ok {
		panic(fmt.Sprintf("message kind %q already registered", kind))
	}
	msgKinds[kind] = factory
}

// MsgKinds returns all registered message kinds, sorted.
func MsgKinds() []string {
	kinds := make([]string, 0, len(msgKinds))
	for k := range msgKinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// IsEmptyMsg returns true for a nil message and for a nil pointer to a
// message struct.
func IsEmptyMsg(m Msg) bool {
	if m == nil {
		return true
	}
	v := reflect.ValueOf(m)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// msgJSON is the union representation of a message.
type msgJSON struct {
	Kind string          `json:"kind"`
	Body json.RawMessage `json:"body"`
}

// MarshalMsg returns the JSON union representation of given message.
func MarshalMsg(m Msg) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(errors.ErrType, err.Error())
	}
	return json.Marshal(msgJSON{Kind: m.Kind(), Body: body})
}

// UnmarshalMsg decodes the JSON union representation of a message.
func UnmarshalMsg(raw []byte) (Msg, error) {
	var u msgJSON
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidTransactionBody, err.Error())
	}
	if u.Kind == "" {
		return nil, errors.Wrap(errors.ErrEmptyTransactionBody, "missing kind")
	}
	factory, ok := msgKinds[u.Kind]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotSupported, "unknown kind %q", u.Kind)
	}
	m := factory()
	if len(u.Body) != 0 {
		if err := json.Unmarshal(u.Body, m); err != nil {
			return nil, errors.Field("body", errors.ErrInvalidTransactionBody, err.Error())
		}
	}
	return m, nil
}

// LoadMsg copies the message of the transaction into dest and validates it.
// dest must be a pointer to the message struct, ie.
//
//	var msg CreateMsg
//	if err := ledger.LoadMsg(tx, &msg); err != nil {
func LoadMsg(tx *Tx, dest Msg) error {
	if tx == nil || IsEmptyMsg(tx.Msg) {
		return errors.Wrap(errors.ErrEmptyTransactionBody, "no message")
	}
	src := reflect.ValueOf(tx.Msg)
	dst := reflect.ValueOf(dest)
	if dst.Kind() != reflect.Ptr || dst.IsNil() {
		return errors.Wrapf(errors.ErrType, "destination %T", dest)
	}
	if src.Kind() == reflect.Ptr {
		src = src.Elem()
	}
	if !src.Type().AssignableTo(dst.Elem().Type()) {
		return errors.Wrapf(errors.ErrType, "want %T, got %T", dest, tx.Msg)
	}
	dst.Elem().Set(src)
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "invalid message")
	}
	return nil
}
