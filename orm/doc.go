/*
Package orm provides an easy to use db wrapper.

Break state space into prefixed sections called Buckets. Each bucket
contains only one type of model, serialized with the binary codec and
validated before every write.

Sequences provide monotonically increasing counters, used to allocate
entity ids.
*/
package orm
