// Package main generates key material for the solver: an x25519 keypair
// for intent decryption and an ed25519 keypair for transaction signing.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"

	"sui-intent-solver/internal/intentcrypto"
	"sui-intent-solver/internal/sui"
)

func main() {
	kind := flag.String("type", "encryption", "Key type to generate: encryption (x25519) or signer (ed25519)")
	flag.Parse()

	logger := log.New(os.Stderr, "[keygen] ", 0)

	switch *kind {
	case "encryption":
		privateKey, publicKey, err := intentcrypto.GenerateKeyPair()
		if err != nil {
			logger.Fatalf("Failed to generate keypair: %v", err)
		}
		fmt.Printf("SOLVER_PRIVATE_KEY=%s\n", privateKey)
		fmt.Printf("# public key (share with traders): %s\n", publicKey)

	case "signer":
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			logger.Fatalf("Failed to generate keypair: %v", err)
		}
		seed := hex.EncodeToString(priv.Seed())
		keypair, err := sui.NewKeypairFromHex(seed)
		if err != nil {
			logger.Fatalf("Failed to derive address: %v", err)
		}
		fmt.Printf("SOLVER_SIGNER_KEY=%s\n", seed)
		fmt.Printf("# solver address: %s\n", keypair.Address())

	default:
		logger.Fatalf("Unknown key type %q (want encryption or signer)", *kind)
	}
}
