// Package main is a trader-side tool: it encrypts an intent JSON file to
// the solver's public key, submits it over WebSocket, and waits for either
// the acceptance acknowledgement or the settlement broadcast.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"sui-intent-solver/internal/domain"
	"sui-intent-solver/internal/intentcrypto"
)

func main() {
	wsURL := flag.String("ws-url", envOr("SOLVER_WS_URL", "ws://localhost:8081"), "Solver WebSocket URL")
	intentPath := flag.String("intent", "", "Path to intent JSON file")
	userAddress := flag.String("user-address", os.Getenv("USER_ADDRESS"), "Submitting trader address")
	publicKey := flag.String("solver-public-key", os.Getenv("SOLVER_PUBLIC_KEY"), "Solver x25519 public key, hex (fetched over WS when empty)")
	waitSettlement := flag.Bool("wait", false, "Block until the settlement broadcast for this intent arrives")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall timeout")

	flag.Parse()

	logger := log.New(os.Stderr, "[submit] ", log.LstdFlags)

	if *intentPath == "" {
		logger.Fatal("--intent is required")
	}
	if *userAddress == "" {
		logger.Fatal("--user-address is required")
	}

	data, err := os.ReadFile(*intentPath)
	if err != nil {
		logger.Fatalf("Failed to read intent file: %v", err)
	}
	var intent domain.Intent
	if err := json.Unmarshal(data, &intent); err != nil {
		logger.Fatalf("Failed to parse intent file: %v", err)
	}
	if err := intent.Validate(); err != nil {
		logger.Fatalf("Invalid intent: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*wsURL, nil)
	if err != nil {
		logger.Fatalf("Failed to connect to solver: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(*timeout))

	solverKey := *publicKey
	if solverKey == "" {
		solverKey, err = fetchPublicKey(conn)
		if err != nil {
			logger.Fatalf("Failed to fetch solver public key: %v", err)
		}
		logger.Printf("Solver public key: %s", solverKey)
	}

	encrypted, err := intentcrypto.Encrypt(intent, solverKey)
	if err != nil {
		logger.Fatalf("Failed to encrypt intent: %v", err)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"ciphertext":         encrypted.Ciphertext,
		"ephemeralPublicKey": encrypted.EphemeralPublicKey,
		"nonce":              encrypted.Nonce,
		"commitment":         encrypted.Commitment,
		"userAddress":        *userAddress,
	})
	if err != nil {
		logger.Fatalf("Failed to marshal payload: %v", err)
	}

	if err := conn.WriteJSON(map[string]interface{}{
		"type":    "submit_intent",
		"payload": json.RawMessage(payload),
	}); err != nil {
		logger.Fatalf("Failed to send intent: %v", err)
	}

	for {
		var msg map[string]string
		if err := conn.ReadJSON(&msg); err != nil {
			logger.Fatalf("Connection error: %v", err)
		}

		switch msg["type"] {
		case "intent_accepted":
			fmt.Printf("accepted commitment=%s\n", msg["commitment"])
			if !*waitSettlement {
				return
			}
			logger.Println("Waiting for settlement...")

		case "intent_rejected":
			logger.Fatalf("Intent rejected: %s", msg["error"])

		case "settlement_complete":
			if msg["commitment"] == encrypted.Commitment {
				fmt.Printf("settled commitment=%s digest=%s\n", msg["commitment"], msg["txDigest"])
				return
			}

		case "error":
			logger.Fatalf("Solver error: %s", msg["message"])
		}
	}
}

// fetchPublicKey asks the solver for its encryption key over the open
// connection.
func fetchPublicKey(conn *websocket.Conn) (string, error) {
	if err := conn.WriteJSON(map[string]string{"type": "get_public_key"}); err != nil {
		return "", err
	}
	var msg map[string]string
	if err := conn.ReadJSON(&msg); err != nil {
		return "", err
	}
	if msg["type"] != "public_key" || msg["publicKey"] == "" {
		return "", fmt.Errorf("unexpected response type %q", msg["type"])
	}
	return msg["publicKey"], nil
}

// envOr returns the env var value or a default when unset.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
