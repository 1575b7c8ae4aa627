package cash

import (
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/gconf"
	"github.com/iov-one/ledger/x/customfee"
)

// Configuration is stored under the "cash" key.
type Configuration struct {
	// MaxCustomFeeDepth is the deepest level of custom fees a transfer
	// charges. Fees of the transferred tokens are level zero.
	MaxCustomFeeDepth int32 `json:"max_custom_fee_depth"`
	// MaxAccountAmounts bounds the distinct balance changes of a transfer,
	// custom fees included. A transfer exceeding it on its own fails with
	// TRANSFER_LIST_SIZE_LIMIT_EXCEEDED.
	MaxAccountAmounts int32 `json:"max_account_amounts"`
}

// DefaultConfiguration is used when the genesis does not configure the
// extension.
func DefaultConfiguration() Configuration {
	return Configuration{
		MaxCustomFeeDepth: 2,
		MaxAccountAmounts: 20,
	}
}

func (c *Configuration) Validate() error {
	var errs error
	if c.MaxCustomFeeDepth < 0 {
		errs = errors.AppendField(errs, "MaxCustomFeeDepth", errors.ErrState)
	}
	if c.MaxAccountAmounts <= 0 {
		errs = errors.AppendField(errs, "MaxAccountAmounts", errors.ErrState)
	}
	return errs
}

// guard returns the custom fee guard bounded by this configuration.
func (c *Configuration) guard(tokens customfee.TokenReader) *customfee.Guard {
	return customfee.NewGuard(tokens, int(c.MaxCustomFeeDepth), int(c.MaxAccountAmounts))
}

// LoadConfiguration returns the configuration stored in the database or the
// defaults if none was stored.
func LoadConfiguration(db gconf.ReadStore) (Configuration, error) {
	var conf Configuration
	switch err := gconf.Load(db, "cash", &conf); {
	case errors.ErrNotFound.Is(err):
		return DefaultConfiguration(), nil
	case err != nil:
		return conf, errors.Wrap(err, "load configuration")
	}
	return conf, nil
}
