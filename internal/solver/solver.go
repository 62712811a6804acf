// Package solver orchestrates the intent lifecycle: encrypted intake over
// WebSocket and HTTP, periodic matching sweeps against venue liquidity,
// proof generation, on-chain settlement, and settlement broadcast.
package solver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"sui-intent-solver/internal/deepbook"
	"sui-intent-solver/internal/domain"
	"sui-intent-solver/internal/intentcrypto"
	"sui-intent-solver/internal/observability"
	"sui-intent-solver/internal/storage"
)

// Default configuration values.
const (
	DefaultSweepInterval = 5 * time.Second
	DefaultWorkers       = 4
)

// Config holds solver orchestration settings.
type Config struct {
	WSAddr        string        // WebSocket listen address
	HTTPAddr      string        // HTTP listen address
	SweepInterval time.Duration // pending-set sweep period
	Workers       int           // concurrent intents per sweep

	// On-chain object IDs passed through to every settlement call.
	RegistryID       string
	VerifierConfigID string
	VaultID          string
}

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	return cfg
}

// BookSource provides venue pool resolution and order book snapshots.
type BookSource interface {
	Pool(tokenA, tokenB string) (deepbook.Pool, bool)
	GetOrderBook(ctx context.Context, tokenA, tokenB string) (*domain.OrderBook, error)
}

// Prover generates execution correctness proofs.
type Prover interface {
	Prove(ctx context.Context, intent *domain.DecryptedIntent, execution *domain.Execution, solverAddress string) (*domain.ProofResult, error)
}

// Settler submits settlements on-chain and reads registry status.
type Settler interface {
	Submit(ctx context.Context, registryID, verifierConfigID, vaultID string, execution *domain.Execution, proof *domain.ProofResult) (string, error)
	GetIntentStatus(ctx context.Context, registryID, commitment string) int
	SolverAddress() string
}

// Solver is the lifecycle orchestrator.
type Solver struct {
	cfg       Config
	logger    *log.Logger
	decryptor *intentcrypto.Decryptor
	books     BookSource
	prover    Prover
	settler   Settler
	intents   storage.IntentStore
	fills     storage.ExecutionFillStore

	pending *pendingSet
	hub     *hub

	wsServer   *http.Server
	httpServer *http.Server

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Solver. All dependencies are required.
func New(cfg Config, logger *log.Logger, decryptor *intentcrypto.Decryptor, books BookSource, prover Prover, settler Settler, intents storage.IntentStore, fills storage.ExecutionFillStore) *Solver {
	return &Solver{
		cfg:       cfg.withDefaults(),
		logger:    logger,
		decryptor: decryptor,
		books:     books,
		prover:    prover,
		settler:   settler,
		intents:   intents,
		fills:     fills,
		pending:   newPendingSet(),
		hub:       newHub(),
	}
}

// PublicKeyHex returns the solver's x25519 encryption public key.
func (s *Solver) PublicKeyHex() string {
	return s.decryptor.PublicKeyHex()
}

// PendingCount returns the number of intents awaiting a match.
func (s *Solver) PendingCount() int {
	return s.pending.Len()
}

// Start launches the WebSocket server, the HTTP server and the sweep loop.
// It returns once the listeners are set up; failures on the listeners are
// logged and terminate only the failing server.
func (s *Solver) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wsServer = &http.Server{
		Addr:    s.cfg.WSAddr,
		Handler: s.wsHandler(ctx),
	}
	s.httpServer = &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.httpHandler(),
	}

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.logger.Printf("WebSocket intake listening on %s", s.cfg.WSAddr)
		if err := s.wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("WebSocket server error: %v", err)
		}
	}()
	go func() {
		defer s.wg.Done()
		s.logger.Printf("HTTP intake listening on %s", s.cfg.HTTPAddr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("HTTP server error: %v", err)
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runSweeper(ctx)
	}()

	s.logger.Printf("solver started: address=%s sweep=%s workers=%d",
		s.settler.SolverAddress(), s.cfg.SweepInterval, s.cfg.Workers)
	return nil
}

// Stop shuts down the servers and waits for the sweep loop to drain. In
// flight settlement attempts finish; pending intents stay in memory and are
// lost with the process.
func (s *Solver) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	var firstErr error
	for _, srv := range []*http.Server{s.wsServer, s.httpServer} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.wg.Wait()
	return firstErr
}

// SubmitIntent decrypts and enqueues an encrypted intent. On success the
// returned commitment identifies the intent for the rest of its lifecycle.
// Rejections carry the reason; the ciphertext of rejected intents is never
// persisted.
func (s *Solver) SubmitIntent(ctx context.Context, encrypted domain.EncryptedIntent, userAddress string) (string, error) {
	observability.RecordIntentReceived()

	if encrypted.Ciphertext == "" || encrypted.EphemeralPublicKey == "" || encrypted.Nonce == "" || encrypted.Commitment == "" {
		observability.RecordIntentRejected("malformed")
		return "", errors.New("missing required encrypted intent fields")
	}
	if userAddress == "" {
		observability.RecordIntentRejected("malformed")
		return "", errors.New("missing user address")
	}

	intent, err := s.decryptor.Decrypt(encrypted, userAddress)
	if err != nil {
		switch {
		case errors.Is(err, intentcrypto.ErrIntegrity):
			observability.RecordIntentRejected("integrity")
		case errors.Is(err, intentcrypto.ErrDecryption):
			observability.RecordIntentRejected("decryption")
		default:
			observability.RecordIntentRejected("invalid")
		}
		return "", err
	}

	if err := s.pending.Insert(intent); err != nil {
		observability.RecordIntentRejected("duplicate")
		return "", err
	}

	now := time.Now().UnixMilli()
	rec := &domain.IntentRecord{
		Commitment:      intent.Commitment,
		UserAddress:     intent.UserAddress,
		InputToken:      intent.Intent.InputToken,
		OutputToken:     intent.Intent.OutputToken,
		InputAmount:     intent.Intent.InputAmount,
		MinOutputAmount: intent.Intent.MinOutputAmount,
		Status:          domain.IntentStatusPending,
		Deadline:        intent.Deadline,
		ReceivedAt:      now,
		UpdatedAt:       now,
	}
	if err := s.intents.Insert(ctx, rec); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		// Audit trail is best effort; the intent still gets processed.
		observability.RecordDBError("postgres", "insert_intent")
		s.logger.Printf("persist intent %s: %v", intent.Commitment, err)
	}

	observability.RecordIntentAccepted()
	observability.UpdatePendingIntents(s.pending.Len())
	s.logger.Printf("intent accepted: commitment=%s pair=%s-%s",
		intent.Commitment, intent.Intent.InputToken, intent.Intent.OutputToken)
	return intent.Commitment, nil
}

// IntentStatus resolves the lifecycle state of a commitment: the in-memory
// pending set first, then the audit store, then the on-chain registry.
func (s *Solver) IntentStatus(ctx context.Context, commitment string) string {
	if _, ok := s.pending.Get(commitment); ok {
		return string(domain.IntentStatusPending)
	}
	if rec, err := s.intents.GetByCommitment(ctx, commitment); err == nil {
		return string(rec.Status)
	}
	return chainStatusName(s.settler.GetIntentStatus(ctx, s.cfg.RegistryID, commitment))
}

func chainStatusName(code int) string {
	switch code {
	case domain.ChainStatusPending:
		return "pending"
	case domain.ChainStatusMatched:
		return "matched"
	case domain.ChainStatusSettled:
		return "settled"
	case domain.ChainStatusCancelled:
		return "cancelled"
	case domain.ChainStatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// markTerminal records a terminal transition in the audit store.
func (s *Solver) markTerminal(ctx context.Context, commitment string, status domain.IntentStatus, reason, txDigest string) {
	if err := s.intents.UpdateStatus(ctx, commitment, status, reason, txDigest); err != nil {
		observability.RecordDBError("postgres", "update_status")
		s.logger.Printf("update intent %s to %s: %v", commitment, status, err)
	}
}
