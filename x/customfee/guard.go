/*
Package customfee assesses the custom fees of the tokens moved by a
transfer.

A fee denominated in another token debits that token from the sender, which
may carry custom fees itself. Each such token level is charged one level
deeper than the one that triggered it. The guard stops the chain with
ErrCustomFeeMaxDepth when it goes deeper than the configured maximum or
deeper than MaxPlausibleLevel, whichever comes first.
*/
package customfee

import (
	"sort"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/x/token"
)

// MaxPlausibleLevel is the deepest level any legitimate fee chain reaches.
// It applies even if the configured maximum is higher.
const MaxPlausibleLevel = 10

// Debit is a token leaving an account. Token zero is hbar.
type Debit struct {
	Token   ledger.TokenID
	Account ledger.AccountID
	Amount  int64
}

// Adjustment is a signed balance change. Token zero is hbar.
type Adjustment struct {
	Token   ledger.TokenID
	Account ledger.AccountID
	Amount  int64
}

// Result lists the assessed fees and the balance changes paying them.
type Result struct {
	Fees        []ledger.AssessedCustomFee
	Adjustments []Adjustment
	// Depth is the deepest level that charged a fee.
	Depth int
}

// TokenReader loads token definitions.
type TokenReader interface {
	Token(db ledger.ReadOnlyKVStore, id ledger.TokenID) (*token.Token, error)
}

// RecursionContext counts the fee levels entered by a single transfer.
type RecursionContext struct {
	level    int
	maxDepth int
}

// NewRecursionContext returns a context at level zero.
func NewRecursionContext(maxDepth int) *RecursionContext {
	return &RecursionContext{maxDepth: maxDepth}
}

// Level returns the current level.
func (r *RecursionContext) Level() int {
	return r.level
}

// Descend moves one level deeper.
func (r *RecursionContext) Descend() {
	r.level++
}

// Check fails if fees must not be charged at the current level.
func (r *RecursionContext) Check() error {
	switch {
	case r.level > r.maxDepth:
		return errors.Wrapf(errors.ErrCustomFeeMaxDepth, "level %d over max depth %d", r.level, r.maxDepth)
	case r.level > MaxPlausibleLevel:
		return errors.Wrapf(errors.ErrCustomFeeMaxDepth, "level %d over plausible level %d", r.level, MaxPlausibleLevel)
	}
	return nil
}

// Guard assesses custom fees within the configured bounds.
type Guard struct {
	tokens TokenReader
	// MaxDepth is the deepest level fees are charged at. Zero charges only
	// the fees of the moved tokens.
	MaxDepth int
	// MaxAccountAmounts bounds the number of distinct balances a transfer
	// changes, fees included.
	MaxAccountAmounts int
}

// NewGuard returns a guard with given bounds.
func NewGuard(tokens TokenReader, maxDepth, maxAccountAmounts int) *Guard {
	return &Guard{tokens: tokens, MaxDepth: maxDepth, MaxAccountAmounts: maxAccountAmounts}
}

// Charge assesses the custom fees of the debits. existing are the balance
// changes the transfer makes on its own; they count against
// MaxAccountAmounts.
func (g *Guard) Charge(db ledger.ReadOnlyKVStore, debits []Debit, existing []Adjustment) (*Result, error) {
	rc := NewRecursionContext(g.MaxDepth)
	res := &Result{}
	pending := aggregate(debits)
	for len(pending) > 0 {
		var next []Debit
		charged := false
		for _, d := range pending {
			if d.Token == 0 {
				continue
			}
			tok, err := g.tokens.Token(db, d.Token)
			if err != nil {
				return nil, err
			}
			if len(tok.CustomFees) == 0 || tok.IsExempt(d.Account) {
				continue
			}
			if !charged {
				if err := rc.Check(); err != nil {
					return nil, errors.Wrapf(err, "token %s", tok.ID)
				}
				charged = true
				res.Depth = rc.Level()
			}
			for _, f := range tok.CustomFees {
				res.Fees = append(res.Fees, ledger.AssessedCustomFee{
					Token:     f.DenominatingToken,
					Amount:    f.Amount,
					Collector: f.Collector,
					Payer:     d.Account,
				})
				res.Adjustments = append(res.Adjustments,
					Adjustment{Token: f.DenominatingToken, Account: d.Account, Amount: -f.Amount},
					Adjustment{Token: f.DenominatingToken, Account: f.Collector, Amount: f.Amount},
				)
				if f.DenominatingToken != 0 {
					next = append(next, Debit{Token: f.DenominatingToken, Account: d.Account, Amount: f.Amount})
				}
			}
		}
		pending = aggregate(next)
		rc.Descend()
	}

	if n := CountDistinct(existing, res.Adjustments); n > g.MaxAccountAmounts {
		return nil, errors.Wrapf(errors.ErrCustomFeeMaxAccountAmounts, "%d balance changes, max %d", n, g.MaxAccountAmounts)
	}
	return res, nil
}

// aggregate merges debits of the same token and account, so that a fee is
// charged once per sender and token. The order is deterministic.
func aggregate(debits []Debit) []Debit {
	type k struct {
		tok ledger.TokenID
		acc ledger.AccountID
	}
	idx := make(map[k]int, len(debits))
	var out []Debit
	for _, d := range debits {
		key := k{tok: d.Token, acc: d.Account}
		if i, ok := idx[key]; ok {
			out[i].Amount += d.Amount
			continue
		}
		idx[key] = len(out)
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Token != out[j].Token {
			return out[i].Token < out[j].Token
		}
		return out[i].Account < out[j].Account
	})
	return out
}

// CountDistinct returns the number of distinct token and account pairs the
// adjustments change.
func CountDistinct(lists ...[]Adjustment) int {
	type k struct {
		tok ledger.TokenID
		acc ledger.AccountID
	}
	seen := make(map[k]struct{})
	for _, l := range lists {
		for _, a := range l {
			seen[k{tok: a.Token, acc: a.Account}] = struct{}{}
		}
	}
	return len(seen)
}
