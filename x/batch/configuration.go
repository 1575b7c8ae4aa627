package batch

import (
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/gconf"
)

// Configuration is stored under the "batch" key.
type Configuration struct {
	MaxBatchSize int32 `json:"max_batch_size"`
}

// DefaultConfiguration is used when the genesis does not configure the
// extension.
func DefaultConfiguration() Configuration {
	return Configuration{MaxBatchSize: 50}
}

func (c *Configuration) Validate() error {
	if c.MaxBatchSize <= 0 {
		return errors.Field("MaxBatchSize", errors.ErrState, "must be positive")
	}
	return nil
}

// LoadConfiguration returns the configuration stored in the database or the
// defaults if none was stored.
func LoadConfiguration(db gconf.ReadStore) (Configuration, error) {
	var conf Configuration
	switch err := gconf.Load(db, "batch", &conf); {
	case errors.ErrNotFound.Is(err):
		return DefaultConfiguration(), nil
	case err != nil:
		return conf, errors.Wrap(err, "load configuration")
	}
	return conf, nil
}
