package main

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/iov-one/ledger/crypto"
)

// A private key file holds the key type byte followed by the secret: the
// seed of an ed25519 key or the scalar of a secp256k1 key.
const keySecretLen = 32

func cmdKeygen(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Generate a new private key.

When successful a new file with binary content containing private key is
created. This command fails if the private key file already exists.
`)
		fl.PrintDefaults()
	}
	var (
		keyPathFl = fl.String("key", env("LEDGER_PRIV_KEY", os.Getenv("HOME")+"/.ledgerd.priv.key"),
			"Path to the private key file. You can use LEDGER_PRIV_KEY environment variable to set it.")
		ecdsaFl = fl.Bool("ecdsa", false, "Generate a secp256k1 key instead of ed25519.")
	)
	fl.Parse(args)

	if _, err := os.Stat(*keyPathFl); !os.IsNotExist(err) {
		// Never overwrite a private key.
		return fmt.Errorf("private key file %q already exists, delete this file and try again", *keyPathFl)
	}

	var raw []byte
	if *ecdsaFl {
		raw = append([]byte{byte(crypto.KeyECDSASecp256k1)}, crypto.GenSecp256k1().Serialize()...)
	} else {
		raw = append([]byte{byte(crypto.KeyED25519)}, crypto.GenEd25519().Seed()...)
	}
	if err := ioutil.WriteFile(*keyPathFl, raw, 0600); err != nil {
		return fmt.Errorf("cannot write private key: %s", err)
	}
	return nil
}

func cmdKeyaddr(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print out the key alias of your private key and, for a secp256k1 key, its EVM
address alias.
`)
		fl.PrintDefaults()
	}
	var (
		keyPathFl = fl.String("key", env("LEDGER_PRIV_KEY", os.Getenv("HOME")+"/.ledgerd.priv.key"),
			"Path to the private key file. You can use LEDGER_PRIV_KEY environment variable to set it.")
	)
	fl.Parse(args)

	key, err := decodePrivateKey(*keyPathFl)
	if err != nil {
		return fmt.Errorf("cannot load private key: %s", err)
	}
	pub := key.PublicKey()
	fmt.Fprintln(output, crypto.KeyAlias(pub))
	if pub.Type == crypto.KeyECDSASecp256k1 {
		addr, err := pub.EVMAddress()
		if err != nil {
			return fmt.Errorf("cannot compute evm address: %s", err)
		}
		fmt.Fprintln(output, crypto.Alias(addr))
	}
	return nil
}

func decodePrivateKey(path string) (crypto.Signer, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read private key file: %s", err)
	}
	if len(raw) != keySecretLen+1 {
		return nil, fmt.Errorf("invalid private key length: %d", len(raw))
	}
	switch crypto.KeyType(raw[0]) {
	case crypto.KeyED25519:
		return crypto.Ed25519FromSeed(raw[1:]), nil
	case crypto.KeyECDSASecp256k1:
		return crypto.Secp256k1FromBytes(raw[1:]), nil
	default:
		return nil, fmt.Errorf("unknown key type %d", raw[0])
	}
}
