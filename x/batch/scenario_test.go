package batch_test

import (
	"testing"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/ledgertest"
	"github.com/iov-one/ledger/x/account"
	"github.com/iov-one/ledger/x/cash"
	"github.com/iov-one/ledger/x/token"
	. "github.com/smartystreets/goconvey/convey"
)

const gold ledger.TokenID = 5100

func goldToken() token.GenesisToken {
	return token.GenesisToken{
		ID:          gold,
		Name:        "gold",
		Symbol:      "GLD",
		Type:        token.FungibleCommon,
		Treasury:    sender,
		TotalSupply: 100,
	}
}

// feeChain returns n tokens starting at first. Each one charges a fee of one
// unit of the next token, the last one a fee in hbar. The sender holds 100
// units of each of them.
func feeChain(first ledger.TokenID, n int) []token.GenesisToken {
	var res []token.GenesisToken
	for i := 0; i < n; i++ {
		id := first + ledger.TokenID(i)
		var denom ledger.TokenID
		if i < n-1 {
			denom = id + 1
		}
		res = append(res, token.GenesisToken{
			ID:          id,
			Name:        "chain",
			Symbol:      "CHN",
			Type:        token.FungibleCommon,
			Treasury:    poor,
			TotalSupply: 1000,
			CustomFees:  []token.FixedFee{{Amount: 1, DenominatingToken: denom, Collector: collector}},
			Holders: []token.GenesisHolder{
				{Account: sender, Balance: 100},
				{Account: bob},
				{Account: collector},
			},
		})
	}
	return res
}

func status(err *errors.Error) ledger.Status {
	return ledger.StatusOf(err)
}

func TestBatchScenarios(t *testing.T) {
	Convey("Given a ledger without fees", t, func() {
		f := newLedger(t, genesisOpts{fees: freeFees(), tokens: []token.GenesisToken{goldToken()}})

		Convey("A token credit to an unknown key alias creates the account", func() {
			newcomer := crypto.KeyAlias(ledgertest.NewKey().PublicKey())
			transfer := &cash.TransferMsg{Tokens: []cash.TokenTransferList{{
				Token: gold,
				Transfers: []cash.AccountAmount{
					{Account: sender, Amount: -1},
					{Alias: newcomer, Amount: 1},
				},
			}}}
			res, err := f.dispatcher.Execute(f.ctx(), f.db, f.batch(f.inner(sender, transfer)))
			So(err, ShouldBeNil)
			So(res.Status, ShouldEqual, ledger.StatusSuccess)
			So(res.Children, ShouldHaveLength, 1)
			So(res.Children[0].NewAccounts, ShouldResemble, []ledger.AccountID{firstNew})
			So(res.Aliases, ShouldNotBeEmpty)

			acc, err := account.NewBucket().Get(f.db, firstNew)
			So(err, ShouldBeNil)
			So(acc.MaxAutoAssociations, ShouldEqual, account.UnlimitedAutoAssociations)
			So(acc.Alias, ShouldResemble, newcomer)
			So(f.tokenBalance(t, gold, firstNew), ShouldEqual, 1)
			So(f.tokenBalance(t, gold, sender), ShouldEqual, 99)

			id, ok, err := f.resolver.Resolve(f.db, newcomer)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(id, ShouldEqual, firstNew)
			// Only committed aliases are cached.
			So(f.resolver.Cached(newcomer), ShouldBeFalse)
		})

		Convey("A zero credit to an unknown alias fails the batch", func() {
			before := f.dump(t)
			stranger := crypto.KeyAlias(ledgertest.NewKey().PublicKey())
			transfer := &cash.TransferMsg{Hbar: []cash.AccountAmount{
				{Account: sender, Amount: 0},
				{Alias: stranger, Amount: 0},
			}}
			res, err := f.dispatcher.Execute(f.ctx(), f.db, f.batch(f.inner(sender, transfer)))
			So(errors.ErrInnerTransactionFailed.Is(err), ShouldBeTrue)
			So(res.Status, ShouldEqual, status(errors.ErrInnerTransactionFailed))
			So(res.Children, ShouldHaveLength, 1)
			So(res.Children[0].Status, ShouldEqual, status(errors.ErrInvalidAccountID))
			So(res.Aliases, ShouldBeEmpty)

			_, ok, err := f.resolver.Resolve(f.db, stranger)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
			So(f.balance(t, sender), ShouldEqual, 1000)
			So(f.dump(t), ShouldResemble, before)
		})

		Convey("A hollow account cannot be finalized by the batch creating it", func() {
			before := f.dump(t)
			owner := ledgertest.NewECDSAKey()
			evm := ledgertest.EVMAddress(owner)
			create := f.inner(sender, &cash.TransferMsg{Hbar: []cash.AccountAmount{
				{Account: sender, Amount: -10},
				{Alias: evm, Amount: 10},
			}})
			spend := f.inner(sender, &cash.TransferMsg{Hbar: []cash.AccountAmount{
				{Alias: evm, Amount: -1},
				{Account: sender, Amount: 1},
			}}, owner)

			res, err := f.dispatcher.Execute(f.ctx(), f.db, f.batch(create, spend))
			So(errors.ErrInnerTransactionFailed.Is(err), ShouldBeTrue)
			So(res.Children, ShouldHaveLength, 2)
			So(res.Children[0].Status, ShouldEqual, ledger.StatusSuccess)
			// Rolled back with the batch.
			So(res.Children[0].NewAccounts, ShouldBeEmpty)
			So(res.Children[1].Status, ShouldEqual, status(errors.ErrHollowInCreatingBatch))

			_, ok, err := f.resolver.Resolve(f.db, evm)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
			_, err = account.NewBucket().Get(f.db, firstNew)
			So(errors.ErrNotFound.Is(err), ShouldBeTrue)
			So(f.dump(t), ShouldResemble, before)
		})

		Convey("A failed operation rolls back the ones before it", func() {
			before := f.dump(t)
			pay := f.inner(sender, hbar(sender, bob, 10))
			// Bob did not sign.
			steal := f.inner(sender, hbar(bob, sender, 500))
			never := f.inner(sender, hbar(sender, bob, 1))

			res, err := f.dispatcher.Execute(f.ctx(), f.db, f.batch(pay, steal, never))
			So(errors.ErrInnerTransactionFailed.Is(err), ShouldBeTrue)
			So(res.Children, ShouldHaveLength, 3)
			So(res.Children[0].Status, ShouldEqual, ledger.StatusSuccess)
			So(res.Children[1].Status, ShouldEqual, status(errors.ErrInvalidSignature))
			So(res.Children[2].Status, ShouldEqual, status(errors.ErrInnerTransactionFailed))
			So(res.Children[2].Log, ShouldEqual, "not executed")
			So(f.dump(t), ShouldResemble, before)
		})

		Convey("Operations see the writes of the ones before them", func() {
			first := f.inner(sender, hbar(sender, bob, 600))
			second := f.inner(bob, hbar(bob, collector, 1500))

			res, err := f.dispatcher.Execute(f.ctx(), f.db, f.batch(first, second))
			So(err, ShouldBeNil)
			So(res.Status, ShouldEqual, ledger.StatusSuccess)
			So(f.balance(t, sender), ShouldEqual, 400)
			So(f.balance(t, bob), ShouldEqual, 100)
			So(f.balance(t, collector), ShouldEqual, 1500)
		})
	})

	Convey("Given a ledger with a chain of custom fees", t, func() {
		depth := cash.Configuration{MaxCustomFeeDepth: 50, MaxAccountAmounts: 100}
		f := newLedger(t, genesisOpts{
			fees:   freeFees(),
			cash:   &depth,
			tokens: feeChain(5001, 12),
		})
		transfer := func(tok ledger.TokenID) *cash.TransferMsg {
			return &cash.TransferMsg{Tokens: []cash.TokenTransferList{{
				Token: tok,
				Transfers: []cash.AccountAmount{
					{Account: sender, Amount: -1},
					{Account: bob, Amount: 1},
				},
			}}}
		}

		Convey("Twelve levels fail with the recursion status although the max depth is higher", func() {
			res, err := f.dispatcher.Execute(f.ctx(), f.db, f.batch(f.inner(sender, transfer(5001))))
			So(errors.ErrInnerTransactionFailed.Is(err), ShouldBeTrue)
			So(res.Children[0].Status, ShouldEqual, status(errors.ErrCustomFeeMaxDepth))
			So(res.Children[0].Status.String(), ShouldEqual, "CUSTOM_FEE_CHARGING_EXCEEDED_MAX_RECURSION_DEPTH")
			So(f.tokenBalance(t, 5001, sender), ShouldEqual, 100)
		})

		Convey("Ten levels are charged", func() {
			res, err := f.dispatcher.Execute(f.ctx(), f.db, f.batch(f.inner(sender, transfer(5003))))
			So(err, ShouldBeNil)
			So(res.Children[0].AssessedCustomFees, ShouldHaveLength, 10)
			So(f.tokenBalance(t, 5003, bob), ShouldEqual, 1)
			for tok := ledger.TokenID(5004); tok <= 5012; tok++ {
				So(f.tokenBalance(t, tok, sender), ShouldEqual, 99)
				So(f.tokenBalance(t, tok, collector), ShouldEqual, 1)
			}
			So(f.balance(t, sender), ShouldEqual, 999)
			So(f.balance(t, collector), ShouldEqual, 1)
		})
	})
}
