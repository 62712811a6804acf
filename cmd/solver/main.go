// Package main runs the intent solver: encrypted intake over WebSocket and
// HTTP, periodic matching against DeepBook liquidity, proof generation and
// on-chain settlement.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sui-intent-solver/internal/deepbook"
	"sui-intent-solver/internal/intentcrypto"
	"sui-intent-solver/internal/observability"
	"sui-intent-solver/internal/prover"
	"sui-intent-solver/internal/settlement"
	"sui-intent-solver/internal/solver"
	"sui-intent-solver/internal/storage"
	chstore "sui-intent-solver/internal/storage/clickhouse"
	"sui-intent-solver/internal/storage/memory"
	"sui-intent-solver/internal/storage/migrations"
	pgstore "sui-intent-solver/internal/storage/postgres"
	"sui-intent-solver/internal/sui"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	privateKey := flag.String("private-key", os.Getenv("SOLVER_PRIVATE_KEY"), "x25519 decryption private key, hex")
	signerKey := flag.String("signer-key", os.Getenv("SOLVER_SIGNER_KEY"), "ed25519 transaction signing key, hex")
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SUI_RPC_ENDPOINT"), "Sui RPC HTTP endpoint")
	indexerEndpoint := flag.String("indexer-endpoint", os.Getenv("DEEPBOOK_INDEXER_ENDPOINT"), "DeepBook indexer JSON-RPC endpoint")
	proverURL := flag.String("prover-url", os.Getenv("PROVER_URL"), "ZK prover service base URL")
	packageID := flag.String("package-id", os.Getenv("SETTLEMENT_PACKAGE_ID"), "settlement move package ID")
	registryID := flag.String("registry-id", os.Getenv("INTENT_REGISTRY_ID"), "intent registry object ID")
	verifierConfigID := flag.String("verifier-config-id", os.Getenv("VERIFIER_CONFIG_ID"), "verifier config object ID")
	vaultID := flag.String("vault-id", os.Getenv("VAULT_ID"), "settlement vault object ID")
	wsAddr := flag.String("ws-addr", envOr("WS_ADDR", ":8081"), "WebSocket intake listen address")
	httpAddr := flag.String("http-addr", envOr("HTTP_ADDR", ":3000"), "HTTP intake listen address")
	metricsAddr := flag.String("metrics-addr", envOr("METRICS_ADDR", ":9090"), "Prometheus metrics HTTP address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	sweepInterval := flag.Duration("sweep-interval", solver.DefaultSweepInterval, "Pending intent sweep interval")
	workers := flag.Int("workers", solver.DefaultWorkers, "Concurrent intents per sweep")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[solver] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *privateKey == "" {
		logger.Fatal("--private-key is required")
	}
	if *signerKey == "" {
		logger.Fatal("--signer-key is required")
	}
	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if *indexerEndpoint == "" {
		logger.Fatal("--indexer-endpoint is required")
	}
	if *proverURL == "" {
		logger.Fatal("--prover-url is required")
	}
	if *packageID == "" || *registryID == "" || *verifierConfigID == "" || *vaultID == "" {
		logger.Fatal("--package-id, --registry-id, --verifier-config-id and --vault-id are required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	decryptor, err := intentcrypto.NewDecryptor(*privateKey)
	if err != nil {
		logger.Fatalf("Failed to load decryption key: %v", err)
	}

	keypair, err := sui.NewKeypairFromHex(*signerKey)
	if err != nil {
		logger.Fatalf("Failed to load signing key: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create stores
	intents, fills, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	ledger := sui.NewClient(*rpcEndpoint, keypair)
	eng := solver.New(
		solver.Config{
			WSAddr:           *wsAddr,
			HTTPAddr:         *httpAddr,
			SweepInterval:    *sweepInterval,
			Workers:          *workers,
			RegistryID:       *registryID,
			VerifierConfigID: *verifierConfigID,
			VaultID:          *vaultID,
		},
		logger,
		decryptor,
		deepbook.NewClient(*indexerEndpoint),
		prover.NewClient(*proverURL),
		settlement.NewClient(ledger, *packageID),
		intents,
		fills,
	)

	// Prometheus metrics server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		logger.Printf("Metrics server listening on %s", *metricsAddr)
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
			logger.Printf("Metrics server error: %v", err)
		}
	}()

	if err := eng.Start(ctx); err != nil {
		logger.Fatalf("Failed to start solver: %v", err)
	}
	logger.Printf("Encryption public key: %s", eng.PublicKeyHex())

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Printf("Received signal %v, initiating graceful shutdown...", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	cancel()
	if err := eng.Stop(shutdownCtx); err != nil {
		logger.Printf("Shutdown error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates the intent audit and fill analytics stores, running
// migrations for the database-backed pair.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (storage.IntentStore, storage.ExecutionFillStore, func(), error) {
	if useMemory {
		return memory.NewIntentStore(), memory.NewExecutionFillStore(), func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	// ClickHouse
	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return pgstore.NewIntentStore(pool), chstore.NewExecutionFillStore(chConn), cleanup, nil
}

// envOr returns the env var value or a default when unset.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
