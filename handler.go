package ledger

import (
	"context"
	"encoding/json"

	"github.com/tendermint/tendermint/libs/common"
)

// Handler is a core engine that can process a few specific messages.
// This could represent "crypto transfer" or "token associate".
type Handler interface {
	Checker
	Deliverer
}

// Checker is a subset of Handler to verify the validity of a transaction
// without consulting the state it is going to be executed against. Check
// returns the units of every extra fee dimension the message uses.
type Checker interface {
	Check(ctx context.Context, db ReadOnlyKVStore, tx *Tx) (*CheckResult, error)
}

// Deliverer is a subset of Handler to execute a transaction.
type Deliverer interface {
	Deliver(ctx context.Context, db KVStore, tx *Tx) (*DeliverResult, error)
}

// Decorator wraps a Handler to provide common functionality
// like authentication, or fee-handling, to many Handlers
type Decorator interface {
	Check(ctx context.Context, db ReadOnlyKVStore, tx *Tx, next Checker) (*CheckResult, error)
	Deliver(ctx context.Context, db KVStore, tx *Tx, next Deliverer) (*DeliverResult, error)
}

// Registry is an interface to register your handler,
// the setup side of a Router
type Registry interface {
	Handle(kind string, h Handler)
}

// CheckResult captures the result of checking a message.
type CheckResult struct {
	Log    string
	Extras FeeExtras
	// RequiredFee is the fee in tinybars the payer must be able to cover.
	RequiredFee int64
}

// DeliverResult captures the result of delivering a message.
type DeliverResult struct {
	Log string
	// Tags name the accounts and tokens the transaction touched.
	Tags Tags
	// Extras are the units that are only known after execution, ie. hook gas.
	Extras FeeExtras
	// AssessedCustomFees lists all custom fees charged by a transfer.
	AssessedCustomFees []AssessedCustomFee
}

// Tags index the record of a transaction.
type Tags []common.KVPair

type tagJSON struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// MarshalJSON writes the tags as text, ie. {"key":"account","value":"0.0.1000"}.
func (t Tags) MarshalJSON() ([]byte, error) {
	out := make([]tagJSON, len(t))
	for i, kv := range t {
		out[i] = tagJSON{Key: string(kv.Key), Value: string(kv.Value)}
	}
	return json.Marshal(out)
}

func (t *Tags) UnmarshalJSON(raw []byte) error {
	var in []tagJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return err
	}
	if in == nil {
		*t = nil
		return nil
	}
	tags := make(Tags, len(in))
	for i, kv := range in {
		tags[i] = common.KVPair{Key: []byte(kv.Key), Value: []byte(kv.Value)}
	}
	*t = tags
	return nil
}

// AssessedCustomFee is a custom fee charged while transferring a token.
type AssessedCustomFee struct {
	// Token the fee is denominated in. Zero means hbar.
	Token     TokenID
	Amount    int64
	Collector AccountID
	Payer     AccountID
}

// Options are the app options
// Each extension can look up it's key and parse the json as desired
type Options map[string]json.RawMessage

// ReadOptions reads the values stored under a given key,
// and parses the json into the given obj.
// Returns an error if it cannot parse.
// Noop and no error if key is missing
func (o Options) ReadOptions(key string, obj interface{}) error {
	msg := o[key]
	if len(msg) == 0 {
		return nil
	}
	return json.Unmarshal(msg, obj)
}

// Initializer implementations are used to initialize
// extensions from genesis file contents
type Initializer interface {
	FromGenesis(opts Options, db KVStore) error
}
