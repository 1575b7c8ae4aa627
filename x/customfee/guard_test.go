package customfee

import (
	"fmt"
	"testing"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/x/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokens map[ledger.TokenID]*token.Token

func (t tokens) Token(db ledger.ReadOnlyKVStore, id ledger.TokenID) (*token.Token, error) {
	tok, ok := t[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidTokenID, "token %s", id)
	}
	return tok, nil
}

const (
	sender   ledger.AccountID = 7
	receiver ledger.AccountID = 8
)

// chain returns n tokens where token i charges a fee in token i+1 and the
// last one charges a fee in hbar. Moving token 1 charges fees at levels 0
// to n-1.
func chain(n int) tokens {
	ts := tokens{}
	for i := 1; i <= n; i++ {
		denom := ledger.TokenID(i + 1)
		if i == n {
			denom = 0
		}
		ts[ledger.TokenID(i)] = &token.Token{
			ID:       ledger.TokenID(i),
			Treasury: 1,
			Type:     token.FungibleCommon,
			CustomFees: []token.FixedFee{
				{Amount: int64(i), DenominatingToken: denom, Collector: ledger.AccountID(100 + i)},
			},
		}
	}
	return ts
}

func TestRecursionBoundedness(t *testing.T) {
	for _, maxDepth := range []int{0, 1, 2, 5, 10, 11, 50} {
		for length := 1; length <= 14; length++ {
			t.Run(fmt.Sprintf("max %d chain %d", maxDepth, length), func(t *testing.T) {
				g := NewGuard(chain(length), maxDepth, 1000)
				res, err := g.Charge(nil, []Debit{{Token: 1, Account: sender, Amount: 1}}, nil)

				deepest := length - 1
				if deepest > maxDepth || deepest > MaxPlausibleLevel {
					require.Error(t, err)
					assert.True(t, errors.ErrCustomFeeMaxDepth.Is(err), "%+v", err)
					assert.Equal(t, errors.ErrCustomFeeMaxDepth.Code(), errors.Code(err))
					return
				}
				require.NoError(t, err)
				assert.Equal(t, deepest, res.Depth)
				assert.Len(t, res.Fees, length)
				assert.Len(t, res.Adjustments, 2*length)
			})
		}
	}
}

func TestTwelveLevelChainWithHighMax(t *testing.T) {
	g := NewGuard(chain(12), 50, 20)
	_, err := g.Charge(nil, []Debit{{Token: 1, Account: sender, Amount: 1}}, nil)
	assert.True(t, errors.ErrCustomFeeMaxDepth.Is(err), "%+v", err)
}

func TestChargeAssessment(t *testing.T) {
	ts := chain(2)
	g := NewGuard(ts, 2, 20)

	res, err := g.Charge(nil, []Debit{
		{Token: 1, Account: sender, Amount: 3},
		{Token: 1, Account: sender, Amount: 2},
	}, []Adjustment{
		{Token: 1, Account: sender, Amount: -5},
		{Token: 1, Account: receiver, Amount: 5},
	})
	require.NoError(t, err)

	// The fee of token 1 is charged once for the sender.
	assert.Equal(t, []ledger.AssessedCustomFee{
		{Token: 2, Amount: 1, Collector: 101, Payer: sender},
		{Token: 0, Amount: 2, Collector: 102, Payer: sender},
	}, res.Fees)
	assert.Equal(t, []Adjustment{
		{Token: 2, Account: sender, Amount: -1},
		{Token: 2, Account: 101, Amount: 1},
		{Token: 0, Account: sender, Amount: -2},
		{Token: 0, Account: 102, Amount: 2},
	}, res.Adjustments)
}

func TestExemptAccounts(t *testing.T) {
	ts := chain(1)
	g := NewGuard(ts, 2, 20)

	// Treasury and collector never pay.
	for _, payer := range []ledger.AccountID{1, 101} {
		res, err := g.Charge(nil, []Debit{{Token: 1, Account: payer, Amount: 1}}, nil)
		require.NoError(t, err)
		assert.Empty(t, res.Fees)
	}

	// Hbar debits carry no custom fees.
	res, err := g.Charge(nil, []Debit{{Token: 0, Account: sender, Amount: 1}}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Fees)
}

func TestMaxAccountAmounts(t *testing.T) {
	g := NewGuard(chain(3), 5, 5)
	_, err := g.Charge(nil, []Debit{{Token: 1, Account: sender, Amount: 1}}, []Adjustment{
		{Token: 1, Account: sender, Amount: -1},
		{Token: 1, Account: receiver, Amount: 1},
	})
	assert.True(t, errors.ErrCustomFeeMaxAccountAmounts.Is(err), "%+v", err)

	g.MaxAccountAmounts = 8
	_, err = g.Charge(nil, []Debit{{Token: 1, Account: sender, Amount: 1}}, nil)
	assert.NoError(t, err)
}

func TestCountDistinct(t *testing.T) {
	assert.Equal(t, 0, CountDistinct())
	assert.Equal(t, 3, CountDistinct(
		[]Adjustment{{Token: 1, Account: sender, Amount: -1}, {Token: 1, Account: receiver, Amount: 1}},
		[]Adjustment{{Token: 1, Account: sender, Amount: -2}, {Token: 0, Account: sender, Amount: -1}},
	))
}

func TestUnknownToken(t *testing.T) {
	g := NewGuard(tokens{}, 2, 20)
	_, err := g.Charge(nil, []Debit{{Token: 9, Account: sender, Amount: 1}}, nil)
	assert.True(t, errors.ErrInvalidTokenID.Is(err))
}
