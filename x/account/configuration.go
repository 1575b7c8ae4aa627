package account

import (
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/gconf"
)

// Configuration is stored under the "account" key.
type Configuration struct {
	MinAutoRenewPeriod     int64 `json:"min_auto_renew_period"`
	MaxAutoRenewPeriod     int64 `json:"max_auto_renew_period"`
	DefaultAutoRenewPeriod int64 `json:"default_auto_renew_period"`
	// MaxAllowances is the number of allowances a single account may grant.
	MaxAllowances int32 `json:"max_allowances"`
}

// DefaultConfiguration is used when the genesis does not configure the
// extension.
func DefaultConfiguration() Configuration {
	return Configuration{
		MinAutoRenewPeriod:     2592000,
		MaxAutoRenewPeriod:     8000001,
		DefaultAutoRenewPeriod: 7776000,
		MaxAllowances:          100,
	}
}

func (c *Configuration) Validate() error {
	var errs error
	if c.MinAutoRenewPeriod <= 0 {
		errs = errors.AppendField(errs, "MinAutoRenewPeriod", errors.ErrState)
	}
	if c.MaxAutoRenewPeriod < c.MinAutoRenewPeriod {
		errs = errors.AppendField(errs, "MaxAutoRenewPeriod", errors.ErrState)
	}
	if !c.renewInRange(c.DefaultAutoRenewPeriod) {
		errs = errors.AppendField(errs, "DefaultAutoRenewPeriod", errors.ErrInvalidRenewalPeriod)
	}
	if c.MaxAllowances < 0 {
		errs = errors.AppendField(errs, "MaxAllowances", errors.ErrState)
	}
	return errs
}

func (c *Configuration) renewInRange(period int64) bool {
	return period >= c.MinAutoRenewPeriod && period <= c.MaxAutoRenewPeriod
}

// LoadConfiguration returns the configuration stored in the database or the
// defaults if none was stored.
func LoadConfiguration(db gconf.ReadStore) (Configuration, error) {
	var conf Configuration
	switch err := gconf.Load(db, "account", &conf); {
	case errors.ErrNotFound.Is(err):
		return DefaultConfiguration(), nil
	case err != nil:
		return conf, errors.Wrap(err, "load configuration")
	}
	return conf, nil
}
