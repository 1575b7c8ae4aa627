package ledger

import (
	"crypto/sha512"
	"encoding/json"

	"github.com/iov-one/ledger/codec"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
)

// Tx is a signed request to execute a single message.
//
// A transaction with a batch key set is an inner operation. It is only ever
// executed as part of a batch whose authorization key is the same key.
type Tx struct {
	Payer      AccountID
	BatchKey   *crypto.Key
	Memo       string
	Msg        Msg
	Signatures []*crypto.Signature
}

// signEnvelope is what the signatures of a transaction cover.
type signEnvelope struct {
	Payer    AccountID
	BatchKey *crypto.Key
	Memo     string
	Kind     string
	Body     []byte
}

// SignBytes returns the content covered by every signature of this
// transaction. Signatures are not part of it. What is actually signed is
// the content bound to a chain id, see BuildSignBytes.
func (tx *Tx) SignBytes() ([]byte, error) {
	if IsEmptyMsg(tx.Msg) {
		return nil, errors.Wrap(errors.ErrEmptyTransactionBody, "no message")
	}
	var (
		body []byte
		err  error
	)
	if p, ok := tx.Msg.(SignBytesProvider); ok {
		body, err = p.SignBytes()
	} else {
		body, err = codec.Marshal(tx.Msg)
	}
	if err != nil {
		return nil, errors.Wrap(err, "message")
	}
	return codec.Marshal(signEnvelope{
		Payer:    tx.Payer,
		BatchKey: tx.BatchKey,
		Memo:     tx.Memo,
		Kind:     tx.Msg.Kind(),
		Body:     body,
	})
}

// signCodeV1 is the prefix of the bytes a transaction signature covers.
const signCodeV1 = "LDG1"

// BuildSignBytes binds the sign bytes of a transaction to a chain, so that
// a signature made for one ledger is never valid on another. The result is
// the sha512 digest of the prefixed input.
func BuildSignBytes(signBytes []byte, chainID string) []byte {
	output := make([]byte, 0, len(signCodeV1)+1+len(chainID)+len(signBytes))
	output = append(output, signCodeV1...)
	output = append(output, uint8(len(chainID)))
	output = append(output, chainID...)
	output = append(output, signBytes...)
	hashed := sha512.Sum512(output)
	return hashed[:]
}

// Sign appends a signature of s over this transaction, as executed on the
// chain with given id.
func (tx *Tx) Sign(chainID string, s crypto.Signer) error {
	bz, err := tx.SignBytes()
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(s, BuildSignBytes(bz, chainID))
	if err != nil {
		return err
	}
	tx.Signatures = append(tx.Signatures, sig)
	return nil
}

// Validate checks the content of the transaction without consulting state.
func (tx *Tx) Validate() error {
	var errs error
	if tx.Payer <= 0 {
		errs = errors.AppendField(errs, "Payer", errors.ErrInvalidAccountID)
	}
	if IsEmptyMsg(tx.Msg) {
		return errors.Append(errs, errors.Wrap(errors.ErrEmptyTransactionBody, "no message"))
	}
	if tx.BatchKey != nil {
		errs = errors.AppendField(errs, "BatchKey", tx.BatchKey.Validate())
	}
	for _, s := range tx.Signatures {
		if s == nil {
			errs = errors.AppendField(errs, "Signatures", errors.ErrInvalidSignature)
			break
		}
	}
	return errors.Append(errs, tx.Msg.Validate())
}

type txJSON struct {
	Payer      AccountID           `json:"payer"`
	BatchKey   *crypto.Key         `json:"batch_key,omitempty"`
	Memo       string              `json:"memo,omitempty"`
	Msg        json.RawMessage     `json:"msg"`
	Signatures []*crypto.Signature `json:"signatures,omitempty"`
}

func (tx Tx) MarshalJSON() ([]byte, error) {
	var (
		msg []byte
		err error
	)
	if tx.Msg != nil {
		if msg, err = MarshalMsg(tx.Msg); err != nil {
			return nil, err
		}
	}
	return json.Marshal(txJSON{
		Payer:      tx.Payer,
		BatchKey:   tx.BatchKey,
		Memo:       tx.Memo,
		Msg:        msg,
		Signatures: tx.Signatures,
	})
}

func (tx *Tx) UnmarshalJSON(raw []byte) error {
	var t txJSON
	if err := json.Unmarshal(raw, &t); err != nil {
		return errors.Wrap(errors.ErrInvalidTransactionBody, err.Error())
	}
	*tx = Tx{
		Payer:      t.Payer,
		BatchKey:   t.BatchKey,
		Memo:       t.Memo,
		Signatures: t.Signatures,
	}
	if len(t.Msg) == 0 || string(t.Msg) == "null" {
		return nil
	}
	msg, err := UnmarshalMsg(t.Msg)
	if err != nil {
		return err
	}
	tx.Msg = msg
	return nil
}
