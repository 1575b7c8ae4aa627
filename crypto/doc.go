/*
Package crypto provides the key types accepted by the ledger, the signature
scheme for each of them and the alias encodings derived from keys.

Two key types are supported. ED25519 keys sign the message directly.
ECDSA secp256k1 keys sign the keccak256 hash of the message and produce a
64 byte r||s signature. An ECDSA key also maps to a 20 byte EVM address,
which is the last 20 bytes of the keccak256 hash of the uncompressed public
key without its format prefix.
*/
package crypto
