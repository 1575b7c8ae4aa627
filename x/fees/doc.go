/*
Package fees prices transactions and collects their fees.

The price of an operation is a base fee for its kind plus a linear term per
extra unit of each countable dimension, ie. accounts touched or signatures.
The first units of a dimension are covered by the base fee. Prices are set
in tinycents and converted to tinybars with the configured exchange rate.

A standalone transaction pays node, network and service fees. An operation
executed inside of a batch pays only its service fee, while the batch pays
the node and network fee once.

Fees are configured via the gconf package under the "fees" key.
*/
package fees
