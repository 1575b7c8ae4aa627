package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// commands is a register of all available commands. The name is matched
// with the first argument given.
//
// A command function is given stdin, stdout and the command line arguments
// without the program and command names, which it parses with the flag
// package. Transactions are passed between commands as JSON, so that a
// transaction is built, signed and submitted with a pipeline:
//
//	$ ledgerd transfer -payer 0.0.1000 -from 0.0.1000 -to 0.0.1001 -amount 10 \
//	    | ledgerd sign -chain-id my-ledger -key alice.key \
//	    | ledgerd submit -home ~/.ledgerd
var commands = map[string]func(input io.Reader, output io.Writer, args []string) error{
	"account":  cmdAccount,
	"as-batch": cmdAsBatch,
	"init":     cmdInit,
	"keyaddr":  cmdKeyaddr,
	"keygen":   cmdKeygen,
	"sign":     cmdSign,
	"submit":   cmdSubmit,
	"transfer": cmdTransfer,
	"version":  cmdVersion,
	"view":     cmdView,
}

func main() {
	if len(os.Args) == 1 {
		fmt.Fprintf(os.Stderr, "%s runs a single ledger node.\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s <command> [<flags>]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		fmt.Fprintf(os.Stderr, "Run '%s <command> -help' to learn more about each command.\n", os.Args[0])
		os.Exit(2)
	}
	run, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		os.Exit(2)
	}
	if err := run(os.Stdin, os.Stdout, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func availableCmds() []string {
	available := make([]string, 0, len(commands))
	for name := range commands {
		available = append(available, name)
	}
	sort.Strings(available)
	return available
}

func cmdVersion(in io.Reader, out io.Writer, args []string) error {
	fmt.Fprintln(out, gitHash)
	return nil
}

// gitHash is set during the compilation time.
var gitHash = "dev"

// env returns the value of an environment variable if provided (even if
// empty) or a fallback value.
func env(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return fallback
}
