package app

import (
	"context"
	"fmt"
	"regexp"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
)

// isKind checks if a message kind is valid. Kinds are lowercase words
// separated by a slash, ie. "crypto/transfer".
var isKind = regexp.MustCompile(`^[a-z0-9_]+/[a-z0-9_]+$`).MatchString

// Router dispatches a transaction to the handler registered for the kind of
// its message.
type Router struct {
	routes map[string]ledger.Handler
}

var _ ledger.Registry = (*Router)(nil)
var _ ledger.Handler = (*Router)(nil)

// NewRouter returns a new empty router.
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]ledger.Handler),
	}
}

// Handle registers a handler for the given kind. It panics on a malformed
// kind or when a handler was already registered for it.
func (r *Router) Handle(kind string, h ledger.Handler) {
	if !isKind(kind) {
		panic(fmt.Sprintf("invalid message kind %q", kind))
	}
	if _, ok := r.routes[kind]; ok {
		panic(fmt.Sprintf("re-registering route: %s", kind))
	}
	r.routes[kind] = h
}

// Handler returns the handler registered for the kind. A kind nobody
// registered is served by a handler that always fails with ErrNotSupported.
func (r *Router) Handler(kind string) ledger.Handler {
	if h, ok := r.routes[kind]; ok {
		return h
	}
	return notFound(kind)
}

// Kinds returns the number of registered kinds.
func (r *Router) Kinds() int {
	return len(r.routes)
}

func (r *Router) Check(ctx context.Context, db ledger.ReadOnlyKVStore, tx *ledger.Tx) (*ledger.CheckResult, error) {
	h, err := r.route(tx)
	if err != nil {
		return nil, err
	}
	return h.Check(ctx, db, tx)
}

func (r *Router) Deliver(ctx context.Context, db ledger.KVStore, tx *ledger.Tx) (*ledger.DeliverResult, error) {
	h, err := r.route(tx)
	if err != nil {
		return nil, err
	}
	return h.Deliver(ctx, db, tx)
}

func (r *Router) route(tx *ledger.Tx) (ledger.Handler, error) {
	if tx == nil || ledger.IsEmptyMsg(tx.Msg) {
		return nil, errors.Wrap(errors.ErrEmptyTransactionBody, "no message")
	}
	return r.Handler(tx.Msg.Kind()), nil
}

// notFound is a handler for kinds without a route.
type notFound string

func (kind notFound) Check(context.Context, ledger.ReadOnlyKVStore, *ledger.Tx) (*ledger.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotSupported, "no handler for %q", string(kind))
}

func (kind notFound) Deliver(context.Context, ledger.KVStore, *ledger.Tx) (*ledger.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotSupported, "no handler for %q", string(kind))
}
