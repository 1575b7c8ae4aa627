package app

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/ledgertest"
	"github.com/iov-one/ledger/ledgertest/assert"
	"github.com/iov-one/ledger/store"
	"github.com/iov-one/ledger/x/account"
	"github.com/iov-one/ledger/x/batch"
	"github.com/iov-one/ledger/x/cash"
	"github.com/iov-one/ledger/x/fees"
)

// freeFees is a fee configuration that charges nothing.
var freeFees = fees.Configuration{
	NodeAccount:    3,
	FundingAccount: 98,
	Rate:           fees.ExchangeRate{HbarEquiv: 1, CentEquiv: 1},
	Schedule:       []fees.KindSchedule{},
}

// testGenesis returns a genesis with a funded account for every signer,
// numbered from 1000, and the node and funding accounts.
func testGenesis(t testing.TB, conf map[string]interface{}, signers ...crypto.Signer) *Genesis {
	t.Helper()
	accts := []account.GenesisAccount{{ID: 3}, {ID: 98}}
	for i, s := range signers {
		accts = append(accts, account.GenesisAccount{
			ID:      ledger.AccountID(1000 + i),
			Key:     s.PublicKey(),
			Balance: 1000,
		})
	}
	raw := func(v interface{}) json.RawMessage {
		b, err := json.Marshal(v)
		assert.Nil(t, err)
		return b
	}
	return &Genesis{
		ChainID: ledgertest.ChainID,
		AppState: ledger.Options{
			"conf":     raw(conf),
			"accounts": raw(accts),
		},
	}
}

func TestInitializers(t *testing.T) {
	gen := testGenesis(t, map[string]interface{}{
		"fees":  freeFees,
		"batch": batch.Configuration{MaxBatchSize: 3},
	}, ledgertest.NewKey())
	db := store.MemStore()
	assert.Nil(t, Initializers().FromGenesis(gen.AppState, db))

	feeConf, err := fees.LoadConfiguration(db)
	assert.Nil(t, err)
	assert.Equal(t, freeFees, feeConf, cmpopts.EquateEmpty())

	batchConf, err := batch.LoadConfiguration(db)
	assert.Nil(t, err)
	assert.Equal(t, int32(3), batchConf.MaxBatchSize)

	// Not part of the genesis, stored with the defaults.
	cashConf, err := cash.LoadConfiguration(db)
	assert.Nil(t, err)
	assert.Equal(t, cash.DefaultConfiguration(), cashConf)

	acc, err := account.NewBucket().Get(db, 1000)
	assert.Nil(t, err)
	assert.Equal(t, int64(1000), acc.Balance)
}

func TestInitializersStopAtFirstError(t *testing.T) {
	gen := testGenesis(t, map[string]interface{}{
		"batch": batch.Configuration{MaxBatchSize: -1},
	})
	db := store.MemStore()
	err := Initializers().FromGenesis(gen.AppState, db)
	assert.IsErr(t, errors.ErrState, err)

	// Accounts come after the configuration and were never created.
	_, err = account.NewBucket().Get(db, 3)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestLoadGenesis(t *testing.T) {
	dir, err := ioutil.TempDir("", "genesis-")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	want := testGenesis(t, map[string]interface{}{"fees": freeFees}, ledgertest.NewKey())
	raw, err := json.Marshal(want)
	assert.Nil(t, err)
	path := filepath.Join(dir, "genesis.json")
	assert.Nil(t, ioutil.WriteFile(path, raw, 0600))

	got, err := LoadGenesis(path)
	assert.Nil(t, err)
	assert.Equal(t, want.ChainID, got.ChainID)
	assert.Equal(t, len(want.AppState), len(got.AppState))

	_, err = LoadGenesis(filepath.Join(dir, "missing.json"))
	assert.IsErr(t, errors.ErrNotFound, err)

	assert.Nil(t, ioutil.WriteFile(path, []byte("{"), 0600))
	_, err = LoadGenesis(path)
	assert.IsErr(t, errors.ErrInvalidTransactionBody, err)
}

func TestChainID(t *testing.T) {
	db := store.MemStore()
	id, err := loadChainID(db)
	assert.Nil(t, err)
	assert.Equal(t, "", id)

	assert.IsErr(t, errors.ErrInvalidTransactionBody, saveChainID(db, "x"))
	assert.IsErr(t, errors.ErrInvalidTransactionBody, saveChainID(db, "with space"))
	assert.Nil(t, saveChainID(db, "test-chain"))
	assert.IsErr(t, errors.ErrState, saveChainID(db, "other-chain"))

	id, err = loadChainID(db)
	assert.Nil(t, err)
	assert.Equal(t, "test-chain", id)
}
