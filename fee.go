package ledger

// Extra names one countable dimension of an operation that is priced on top
// of its base fee.
type Extra string

const (
	ExtraAccounts   Extra = "accounts"
	ExtraSignatures Extra = "signatures"
	ExtraAllowances Extra = "allowances"
	ExtraTokens     Extra = "tokens"
	ExtraNftSerials Extra = "nft_serials"
	ExtraGas        Extra = "gas"
)

// FeeExtras counts the units of each extra dimension an operation uses. It
// is derived from the operation content and never stored.
type FeeExtras map[Extra]int64

// Add increments the count of given dimension.
func (f FeeExtras) Add(e Extra, n int64) {
	f[e] += n
}
