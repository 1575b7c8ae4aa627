/*
Package token keeps fungible and non fungible tokens, the relationships
between accounts and tokens and the ownership of NFT serials.

An account can hold a token only over a relationship. A relationship is
created explicitly with an associate message or automatically when the
account receives a token and still has a free auto association slot.
*/
package token
