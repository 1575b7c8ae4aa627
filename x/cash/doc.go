/*
Package cash moves hbar, fungible token units and NFT serials between
accounts.

A transfer lists balance changes per token. Receivers may be referenced by
alias, in which case the account is created on the fly when it receives a
positive amount. Debits are authorized by the signature of the debited
account, by an allowance granted to the payer or by an allowance hook of the
debited account. Custom fees of the moved tokens are assessed and charged to
the senders within the bounds of the configuration.
*/
package cash
