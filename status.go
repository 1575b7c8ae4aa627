package ledger

import (
	"encoding/json"

	"github.com/iov-one/ledger/errors"
)

// Status is the outcome of a transaction reported to the client. Codes are
// the ones registered in the errors package and never change.
type Status uint32

// StatusSuccess is reported for a transaction that applied all its changes.
const StatusSuccess = Status(errors.SuccessCode)

// StatusOf returns the status a transaction failing with err reports.
func StatusOf(err error) Status {
	return Status(errors.Code(err))
}

func (s Status) String() string {
	return errors.Name(uint32(s))
}

// OK returns true for a successful status.
func (s Status) OK() bool {
	return s == StatusSuccess
}

// MarshalJSON writes the status name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the status name.
func (s *Status) UnmarshalJSON(raw []byte) error {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return errors.Wrap(errors.ErrType, err.Error())
	}
	switch name {
	case "SUCCESS":
		*s = StatusSuccess
		return nil
	case "FAIL_INVALID":
		*s = Status(errors.InternalCode)
		return nil
	}
	e, ok := errors.LookupName(name)
	if !ok {
		return errors.Wrapf(errors.ErrType, "unknown status %q", name)
	}
	*s = Status(e.Code())
	return nil
}
