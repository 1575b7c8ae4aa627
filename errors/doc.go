/*
Package errors implements the status taxonomy of the ledger.

Every failure that can be observed at the node boundary is a root error
registered in this package with a code that never changes. Clients match on
that code, so once released a code must not be reused or renumbered.

Create runtime errors by wrapping one of the root errors:

	errors.Wrap(errors.ErrInvalidAliasKey, "ecdsa key does not parse")
	errors.ErrInvalidAccountID.Newf("alias %X", alias)

Test for a category with the Is method:

	if errors.ErrInsufficientPayerBalance.Is(err) { ... }

The first wrap attaches a stack trace. Format an error with %+v to print it.
*/
package errors
