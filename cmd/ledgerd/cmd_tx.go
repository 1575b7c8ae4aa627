package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/x/batch"
	"github.com/iov-one/ledger/x/cash"
)

func cmdTransfer(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Create a transaction moving hbar or units of a fungible token between two
accounts. The receiver is given either by id or by alias. Crediting an alias
nobody owns yet creates an account for it.
`)
		fl.PrintDefaults()
	}
	var (
		payerFl   = fl.String("payer", "", "Account paying the fee, ie. 0.0.1000.")
		fromFl    = fl.String("from", "", "Sending account. Defaults to the payer.")
		toFl      = fl.String("to", "", "Receiving account.")
		toAliasFl = fl.String("to-alias", "", "Alias of the receiving account.")
		tokenFl   = fl.String("token", "", "Token to transfer. Hbar if not set.")
		amountFl  = fl.Int64("amount", 0, "Amount to transfer.")
		memoFl    = fl.String("memo", "", "Transaction memo.")
	)
	fl.Parse(args)

	payer, err := ledger.ParseAccountID(*payerFl)
	if err != nil {
		return fmt.Errorf("invalid payer: %s", err)
	}
	from := payer
	if *fromFl != "" {
		if from, err = ledger.ParseAccountID(*fromFl); err != nil {
			return fmt.Errorf("invalid sender: %s", err)
		}
	}
	credit := cash.AccountAmount{Amount: *amountFl}
	switch {
	case *toFl != "" && *toAliasFl != "":
		return errors.New("receiver must be given either by id or by alias")
	case *toAliasFl != "":
		if credit.Alias, err = crypto.ParseAlias(*toAliasFl); err != nil {
			return fmt.Errorf("invalid alias: %s", err)
		}
	default:
		if credit.Account, err = ledger.ParseAccountID(*toFl); err != nil {
			return fmt.Errorf("invalid receiver: %s", err)
		}
	}
	list := []cash.AccountAmount{{Account: from, Amount: -*amountFl}, credit}

	var msg cash.TransferMsg
	if *tokenFl == "" {
		msg.Hbar = list
	} else {
		tok, err := ledger.ParseTokenID(*tokenFl)
		if err != nil {
			return fmt.Errorf("invalid token: %s", err)
		}
		msg.Tokens = []cash.TokenTransferList{{Token: tok, Transfers: list}}
	}
	tx := &ledger.Tx{Payer: payer, Memo: *memoFl, Msg: &msg}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid transfer: %s", err)
	}
	return writeTx(output, tx)
}

func cmdAsBatch(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Read any number of unsigned transactions and wrap them in an atomic batch.
Every transaction is tagged with the public key of the batch key, that must
then sign the batch.
`)
		fl.PrintDefaults()
	}
	var (
		payerFl    = fl.String("payer", "", "Account paying the batch fee.")
		batchKeyFl = fl.String("batch-key", "", "Path to the private key authorizing the batch.")
	)
	fl.Parse(args)

	payer, err := ledger.ParseAccountID(*payerFl)
	if err != nil {
		return fmt.Errorf("invalid payer: %s", err)
	}
	key, err := decodePrivateKey(*batchKeyFl)
	if err != nil {
		return fmt.Errorf("cannot load batch key: %s", err)
	}
	inner, err := readTxs(input)
	if err != nil {
		return err
	}
	for i, tx := range inner {
		if len(tx.Signatures) != 0 {
			return fmt.Errorf("transaction %d is already signed", i)
		}
		tx.BatchKey = key.PublicKey()
	}
	msg := &batch.AtomicMsg{BatchKey: key.PublicKey(), Transactions: inner}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid batch: %s", err)
	}
	return writeTx(output, &ledger.Tx{Payer: payer, Msg: msg})
}

func cmdSign(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Sign given transaction. This is decoding a transaction from standard input,
adds a signature and writes back to standard output the signed transaction.
`)
		fl.PrintDefaults()
	}
	var (
		keyPathFl = fl.String("key", env("LEDGER_PRIV_KEY", ""),
			"Path to the private key file. You can use LEDGER_PRIV_KEY environment variable to set it.")
		chainIDFl = fl.String("chain-id", env("LEDGER_CHAIN_ID", ""),
			"Id of the chain the transaction is executed on. You can use LEDGER_CHAIN_ID environment variable to set it.")
		innerFl = fl.Int("inner", -1, "Sign the inner transaction of a batch with given index instead of the batch.")
	)
	fl.Parse(args)

	if *chainIDFl == "" {
		return errors.New("chain id is required")
	}

	key, err := decodePrivateKey(*keyPathFl)
	if err != nil {
		return fmt.Errorf("cannot load private key: %s", err)
	}
	tx, err := readTx(input)
	if err != nil {
		return err
	}
	target := tx
	if *innerFl >= 0 {
		msg, ok := tx.Msg.(*batch.AtomicMsg)
		if !ok || *innerFl >= len(msg.Transactions) {
			return fmt.Errorf("no inner transaction %d", *innerFl)
		}
		target = msg.Transactions[*innerFl]
	}
	if err := target.Sign(*chainIDFl, key); err != nil {
		return fmt.Errorf("cannot sign: %s", err)
	}
	return writeTx(output, tx)
}

func cmdView(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print out a human readable representation of given transaction.
`)
		fl.PrintDefaults()
	}
	fl.Parse(args)

	tx, err := readTx(input)
	if err != nil {
		return err
	}
	pretty, err := json.MarshalIndent(tx, "", "\t")
	if err != nil {
		return fmt.Errorf("cannot serialize: %s", err)
	}
	_, err = output.Write(append(pretty, '\n'))
	return err
}

func writeTx(w io.Writer, tx *ledger.Tx) error {
	if err := json.NewEncoder(w).Encode(tx); err != nil {
		return fmt.Errorf("cannot serialize transaction: %s", err)
	}
	return nil
}

func readTx(r io.Reader) (*ledger.Tx, error) {
	var tx ledger.Tx
	if err := json.NewDecoder(r).Decode(&tx); err != nil {
		if err == io.EOF {
			return nil, errors.New("no input data")
		}
		return nil, fmt.Errorf("cannot deserialize transaction: %s", err)
	}
	return &tx, nil
}

// readTxs reads a stream of transactions until the input is exhausted.
func readTxs(r io.Reader) ([]*ledger.Tx, error) {
	dec := json.NewDecoder(r)
	var txs []*ledger.Tx
	for {
		var tx ledger.Tx
		switch err := dec.Decode(&tx); {
		case err == io.EOF:
			if len(txs) == 0 {
				return nil, errors.New("no input data")
			}
			return txs, nil
		case err != nil:
			return nil, fmt.Errorf("cannot deserialize transaction %d: %s", len(txs), err)
		}
		txs = append(txs, &tx)
	}
}
