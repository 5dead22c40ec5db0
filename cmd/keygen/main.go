// Package main generates issuer signing keys for local development.
// Keys are printed once and never stored.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"entangledu/internal/issuer/signer"
)

type keyOutput struct {
	SigningKey string            `json:"signing_key"`
	Identity   string            `json:"identity"`
	Usage      map[string]string `json:"usage"`
}

func main() {
	asEnv := flag.Bool("env", false, "print shell exports instead of JSON")
	flag.Parse()

	key, err := signer.GenerateKeyHex()
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate key: %v\n", err)
		os.Exit(1)
	}
	s, err := signer.NewKeySigner(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load key: %v\n", err)
		os.Exit(1)
	}

	if *asEnv {
		fmt.Printf("export ISSUER_SIGNING_KEY=%s\n", key)
		fmt.Printf("export ENTANGLEDU_ISSUER_IDENTITY=%s\n", s.Identity())
		return
	}

	out := keyOutput{
		SigningKey: key,
		Identity:   s.Identity(),
		Usage: map[string]string{
			"issuer":  "ISSUER_SIGNING_KEY=<signing_key> issuer",
			"learner": "ENTANGLEDU_ISSUER_IDENTITY=<identity> learner pass 1",
		},
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}
