// Command gensecret prints a random key suitable for SECRET_KEY of sims-authd
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

const defaultKeyLen = 32

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, args []string) error {
	fs := pflag.NewFlagSet("gensecret", pflag.ContinueOnError)
	n := fs.IntP("bytes", "n", defaultKeyLen, "Key length in bytes")
	env := fs.Bool("env", false, "Print as SECRET_KEY=... line for .env file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n < 16 {
		return fmt.Errorf("key must be at least 16 bytes, got %d", *n)
	}

	b := make([]byte, *n)
	if _, err := rand.Read(b); err != nil {
		return err
	}

	key := hex.EncodeToString(b)
	if *env {
		key = "SECRET_KEY=" + key
	}
	_, err := fmt.Fprintln(w, key)
	return err
}
