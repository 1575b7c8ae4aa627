package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/app"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/store/iavl"
	"github.com/iov-one/ledger/x/account"
	"github.com/iov-one/ledger/x/hooks"
	"github.com/tendermint/tendermint/libs/log"
)

// stateName is the name of the database within the home directory.
const stateName = "ledger"

func cmdInit(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Create the state of a new ledger from a genesis file. This command fails if
the state was already initialized.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl    = fl.String("home", env("LEDGER_HOME", os.Getenv("HOME")+"/.ledgerd"), "Directory holding the state.")
		genesisFl = fl.String("genesis", "genesis.json", "Path to the genesis file.")
		logLevFl  = fl.String("log-level", "info", "Logging level.")
	)
	fl.Parse(args)

	gen, err := app.LoadGenesis(*genesisFl)
	if err != nil {
		return fmt.Errorf("cannot load genesis: %s", err)
	}
	node, closeNode, err := openNode(*homeFl, *logLevFl)
	if err != nil {
		return err
	}
	defer closeNode()

	id, err := node.InitChain(gen)
	if err != nil {
		return fmt.Errorf("cannot initialize: %s", err)
	}
	fmt.Fprintf(output, "%s initialized at version %d\n", gen.ChainID, id.Version)
	return nil
}

func cmdSubmit(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Execute a signed transaction read from standard input and commit the outcome.
The record of the transaction is written to standard output. A transaction
that failed after its prechecks passed is still committed, because its fees
are charged. With -check only the prechecks run and nothing is committed.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl   = fl.String("home", env("LEDGER_HOME", os.Getenv("HOME")+"/.ledgerd"), "Directory holding the state.")
		logLevFl = fl.String("log-level", "info", "Logging level.")
		checkFl  = fl.Bool("check", false, "Only run the prechecks, the fee is not charged.")
	)
	fl.Parse(args)

	tx, err := readTx(input)
	if err != nil {
		return err
	}
	node, closeNode, err := openNode(*homeFl, *logLevFl)
	if err != nil {
		return err
	}
	defer closeNode()

	submit := node.Submit
	if *checkFl {
		submit = node.Check
	}
	res, txErr := submit(context.Background(), tx)
	if res == nil {
		return fmt.Errorf("cannot commit: %s", txErr)
	}
	pretty, err := json.MarshalIndent(res, "", "\t")
	if err != nil {
		return fmt.Errorf("cannot serialize result: %s", err)
	}
	if _, err := output.Write(append(pretty, '\n')); err != nil {
		return err
	}
	if !res.Status.OK() {
		return fmt.Errorf("transaction failed: %s", res.Status)
	}
	return nil
}

func cmdAccount(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print out the committed state of an account, given by id or by alias.
`)
		fl.PrintDefaults()
	}
	var (
		homeFl  = fl.String("home", env("LEDGER_HOME", os.Getenv("HOME")+"/.ledgerd"), "Directory holding the state.")
		idFl    = fl.String("id", "", "Account id, ie. 0.0.1000.")
		aliasFl = fl.String("alias", "", "Account alias, hex or bech32 encoded.")
	)
	fl.Parse(args)

	if (*idFl == "") == (*aliasFl == "") {
		return errors.New("exactly one of id and alias must be given")
	}
	node, closeNode, err := openNode(*homeFl, "error")
	if err != nil {
		return err
	}
	defer closeNode()

	var acc *account.Account
	if *idFl != "" {
		id, err := ledger.ParseAccountID(*idFl)
		if err != nil {
			return fmt.Errorf("invalid id: %s", err)
		}
		acc, err = node.Account(id)
		if err != nil {
			return fmt.Errorf("cannot load account: %s", err)
		}
	} else {
		a, err := crypto.ParseAlias(*aliasFl)
		if err != nil {
			return fmt.Errorf("invalid alias: %s", err)
		}
		acc, err = node.AliasedAccount(a)
		if err != nil {
			return fmt.Errorf("cannot load account: %s", err)
		}
	}
	pretty, err := json.MarshalIndent(acc, "", "\t")
	if err != nil {
		return fmt.Errorf("cannot serialize account: %s", err)
	}
	_, err = output.Write(append(pretty, '\n'))
	return err
}

// openNode loads the state kept in home. The returned function releases
// the database.
func openNode(home, logLevel string) (*app.Node, func(), error) {
	logger, err := newLogger(logLevel)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(home, 0700); err != nil {
		return nil, nil, fmt.Errorf("cannot create home: %s", err)
	}
	db, err := iavl.NewCommitStore(home, stateName)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open state: %s", err)
	}
	// Hooks are not executed by a standalone node, every hooked debit is
	// rejected.
	node, err := app.NewNode(db, hooks.NewStatic(hooks.Rejected, 0), logger)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("cannot load state: %s", err)
	}
	return node, db.Close, nil
}

func newLogger(level string) (log.Logger, error) {
	allow, err := log.AllowLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %s", err)
	}
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stderr))
	return log.NewFilter(logger, allow), nil
}
