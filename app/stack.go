package app

import (
	"github.com/iov-one/ledger/x"
	"github.com/iov-one/ledger/x/account"
	"github.com/iov-one/ledger/x/alias"
	"github.com/iov-one/ledger/x/allowance"
	"github.com/iov-one/ledger/x/batch"
	"github.com/iov-one/ledger/x/cash"
	"github.com/iov-one/ledger/x/fees"
	"github.com/iov-one/ledger/x/hollow"
	"github.com/iov-one/ledger/x/hooks"
	"github.com/iov-one/ledger/x/sigs"
	"github.com/iov-one/ledger/x/token"
	"github.com/iov-one/ledger/x/utils"
)

// Routes returns a router serving every operation kind of the ledger but
// the batch, which is run by the dispatcher.
func Routes(auth x.Authenticator, resolver *alias.Resolver, evaluator hooks.Evaluator) *Router {
	r := NewRouter()
	account.RegisterRoutes(r, auth, token.NewController())
	token.RegisterRoutes(r, auth)
	allowance.RegisterRoutes(r, auth)
	cash.RegisterRoutes(r, auth, resolver, evaluator)
	return r
}

// Stack returns the decorators every transaction goes through before it
// reaches the router. Operations of a batch only pay the service fee.
func Stack(auth x.Authenticator, inner bool) Decorators {
	fee := fees.NewDecorator(auth)
	if inner {
		fee = fees.NewInnerDecorator(auth)
	}
	return ChainDecorators(
		utils.NewRecovery(),
		utils.NewLogging(),
		sigs.NewDecorator(),
		fee,
	)
}

// NewDispatcher wires the full ledger: signatures are checked by the
// hollow account finalizer, operations are routed to their handlers and
// fees are charged by the fee decorators.
func NewDispatcher(resolver *alias.Resolver, evaluator hooks.Evaluator) *batch.Dispatcher {
	auth := hollow.NewFinalizer()
	r := Routes(auth, resolver, evaluator)
	return batch.NewDispatcher(
		auth,
		r,
		Stack(auth, true).WithHandler(r),
		Stack(auth, false).WithHandler(r),
	)
}
