package ledgertest

import (
	"github.com/iov-one/ledger"
)

// MsgKind is the kind of Msg.
const MsgKind = "test/msg"

// Msg is a message that routes to MsgKind and carries arbitrary data.
type Msg struct {
	Data []byte `json:"data"`
	// Invalid makes Validate fail.
	Invalid error `json:"-"`
}

var _ ledger.Msg = (*Msg)(nil)

func init() {
	ledger.RegisterMsg(func() ledger.Msg { return &Msg{} })
}

func (m *Msg) Kind() string {
	return MsgKind
}

func (m *Msg) Validate() error {
	return m.Invalid
}

// SignBytes returns the data, so that the message never depends on the
// codec.
func (m *Msg) SignBytes() ([]byte, error) {
	return append([]byte(MsgKind), m.Data...), nil
}
