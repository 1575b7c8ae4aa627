package fees

import (
	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/gconf"
)

// Configuration is stored under the "fees" key. All prices are in
// tinycents.
type Configuration struct {
	// NodeAccount receives the node fee.
	NodeAccount ledger.AccountID `json:"node_account"`
	// FundingAccount receives the network and service fees.
	FundingAccount ledger.AccountID `json:"funding_account"`
	NodeFee        int64            `json:"node_fee"`
	NetworkFee     int64            `json:"network_fee"`
	Rate           ExchangeRate     `json:"rate"`
	Schedule       []KindSchedule   `json:"schedule"`
}

// ExchangeRate converts tinycents to tinybars:
// tinybars = tinycents * HbarEquiv / CentEquiv
type ExchangeRate struct {
	HbarEquiv int64 `json:"hbar_equiv"`
	CentEquiv int64 `json:"cent_equiv"`
}

// KindSchedule is the price list of one operation kind.
type KindSchedule struct {
	Kind   string       `json:"kind"`
	Base   int64        `json:"base"`
	Extras []ExtraPrice `json:"extras,omitempty"`
}

// ExtraPrice is the price of a single unit of an extra dimension. The
// first Included units are covered by the base fee.
type ExtraPrice struct {
	Extra    ledger.Extra `json:"extra"`
	Price    int64        `json:"price"`
	Included int64        `json:"included"`
}

// DefaultConfiguration is used when the genesis does not configure the
// extension.
func DefaultConfiguration() Configuration {
	withSigs := func(kind string, base int64, extras ...ExtraPrice) KindSchedule {
		extras = append(extras, ExtraPrice{Extra: ledger.ExtraSignatures, Price: 120000, Included: 1})
		return KindSchedule{Kind: kind, Base: base, Extras: extras}
	}
	return Configuration{
		NodeAccount:    3,
		FundingAccount: 98,
		NodeFee:        120000,
		NetworkFee:     240000,
		Rate:           ExchangeRate{HbarEquiv: 1, CentEquiv: 12},
		Schedule: []KindSchedule{
			withSigs("crypto/transfer", 1200000,
				ExtraPrice{Extra: ledger.ExtraAccounts, Price: 120000, Included: 1},
				ExtraPrice{Extra: ledger.ExtraTokens, Price: 1200000, Included: 1},
				ExtraPrice{Extra: ledger.ExtraNftSerials, Price: 1200000, Included: 1},
				ExtraPrice{Extra: ledger.ExtraGas, Price: 12}),
			withSigs("account/create", 6000000),
			withSigs("account/update", 2400000),
			withSigs("account/delete", 6000000),
			withSigs("token/create", 120000000,
				ExtraPrice{Extra: ledger.ExtraNftSerials, Price: 2400000, Included: 1}),
			withSigs("token/associate", 6000000,
				ExtraPrice{Extra: ledger.ExtraTokens, Price: 6000000, Included: 1}),
			withSigs("allowance/approve", 600000,
				ExtraPrice{Extra: ledger.ExtraAllowances, Price: 600000, Included: 1}),
			withSigs("allowance/delete", 600000,
				ExtraPrice{Extra: ledger.ExtraAllowances, Price: 600000, Included: 1}),
			withSigs("batch/atomic", 12000),
		},
	}
}

func (c *Configuration) Validate() error {
	var errs error
	if c.NodeAccount <= 0 {
		errs = errors.AppendField(errs, "NodeAccount", errors.ErrInvalidAccountID)
	}
	if c.FundingAccount <= 0 {
		errs = errors.AppendField(errs, "FundingAccount", errors.ErrInvalidAccountID)
	}
	if c.NodeFee < 0 {
		errs = errors.AppendField(errs, "NodeFee", errors.ErrState)
	}
	if c.NetworkFee < 0 {
		errs = errors.AppendField(errs, "NetworkFee", errors.ErrState)
	}
	if c.Rate.HbarEquiv <= 0 || c.Rate.CentEquiv <= 0 {
		errs = errors.AppendField(errs, "Rate", errors.Wrap(errors.ErrState, "must be positive"))
	}
	seen := make(map[string]struct{}, len(c.Schedule))
	for _, s := range c.Schedule {
		if _, ok := seen[s.Kind]; ok || s.Kind == "" {
			errs = errors.AppendField(errs, "Schedule", errors.Wrapf(errors.ErrDuplicate, "kind %q", s.Kind))
			continue
		}
		seen[s.Kind] = struct{}{}
		if s.Base < 0 {
			errs = errors.AppendField(errs, "Schedule", errors.Wrapf(errors.ErrState, "negative base of %q", s.Kind))
		}
		for _, e := range s.Extras {
			if e.Price < 0 || e.Included < 0 {
				errs = errors.AppendField(errs, "Schedule",
					errors.Wrapf(errors.ErrState, "negative %s price of %q", e.Extra, s.Kind))
			}
		}
	}
	return errs
}

// schedule returns the price list of given kind. A kind without a price
// list costs nothing.
func (c *Configuration) schedule(kind string) KindSchedule {
	for _, s := range c.Schedule {
		if s.Kind == kind {
			return s
		}
	}
	return KindSchedule{Kind: kind}
}

// LoadConfiguration returns the configuration stored in the database or the
// defaults if none was stored.
func LoadConfiguration(db gconf.ReadStore) (Configuration, error) {
	var conf Configuration
	switch err := gconf.Load(db, "fees", &conf); {
	case errors.ErrNotFound.Is(err):
		return DefaultConfiguration(), nil
	case err != nil:
		return conf, errors.Wrap(err, "load configuration")
	}
	return conf, nil
}
