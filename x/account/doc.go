/*
Package account keeps the accounts of the ledger and the alias index.

An account is addressed by its numeric id. It may hold a key, an alias
derived from a key or an EVM address, and a list of hooks. An account
without a key is hollow: it was created by a credit to an EVM address alias
and becomes keyed the first time it signs.

The alias index maps alias bytes to the account id. An entry is created once
and never updated.
*/
package account
