/*
Package batch executes an ordered list of inner transactions as a single
all or nothing unit.

Every inner transaction carries the batch key of the batch it belongs to and
is never executed on its own. The outer transaction must be signed by that
key and by its payer. Inner transactions run strictly in list order on a
cache wrap of the state. The first inner failure discards every change made
by the inner transactions and fails the batch with INNER_TRANSACTION_FAILED.
Fees of the outer transaction and of every inner transaction that was
attempted are charged even when the batch fails.

Each inner transaction produces a child record with its own status, so that
a client can tell which of them caused the failure.
*/
package batch
