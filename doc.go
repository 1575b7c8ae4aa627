/*
Package ledger defines the common interfaces of the ledger core and the
simple types shared by all of its extensions.

A transaction carries exactly one message. The message kind selects the
handler that executes it. Handlers read and write state through a KVStore;
every write can be grouped in a cache wrap and later either written to the
parent store or discarded.

We pass context through context.Context between the node, the batch
dispatcher and handlers. There should exist two functions for every XYZ of
type T that we want to support in Context:

	WithXYZ(Context, T) Context
	GetXYZ(Context) (val T, ok bool)
*/
package ledger
