package solver

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"sui-intent-solver/internal/deepbook"
	"sui-intent-solver/internal/domain"
	"sui-intent-solver/internal/intentcrypto"
	"sui-intent-solver/internal/prover"
	"sui-intent-solver/internal/storage/memory"
)

var testPool = deepbook.Pool{ID: "0xp00l", Base: "SUI", Quote: "USDC"}

// fakeBooks serves a scripted order book for the test pool.
type fakeBooks struct {
	book *domain.OrderBook
	err  error
}

func (f *fakeBooks) Pool(tokenA, tokenB string) (deepbook.Pool, bool) {
	return deepbook.NewRegistry([]deepbook.Pool{testPool}).Lookup(tokenA, tokenB)
}

func (f *fakeBooks) GetOrderBook(ctx context.Context, tokenA, tokenB string) (*domain.OrderBook, error) {
	return f.book, f.err
}

// fakeProver replays a scripted proof result.
type fakeProver struct {
	result *domain.ProofResult
	err    error
	calls  int
}

func (f *fakeProver) Prove(ctx context.Context, intent *domain.DecryptedIntent, execution *domain.Execution, solverAddress string) (*domain.ProofResult, error) {
	f.calls++
	return f.result, f.err
}

// fakeSettler replays a scripted settlement outcome.
type fakeSettler struct {
	digest      string
	err         error
	chainStatus int
	submitted   []*domain.Execution
}

func (f *fakeSettler) Submit(ctx context.Context, registryID, verifierConfigID, vaultID string, execution *domain.Execution, proof *domain.ProofResult) (string, error) {
	f.submitted = append(f.submitted, execution)
	return f.digest, f.err
}

func (f *fakeSettler) GetIntentStatus(ctx context.Context, registryID, commitment string) int {
	return f.chainStatus
}

func (f *fakeSettler) SolverAddress() string {
	return "0xsolver"
}

type testEnv struct {
	solver    *Solver
	decryptor *intentcrypto.Decryptor
	books     *fakeBooks
	prover    *fakeProver
	settler   *fakeSettler
	intents   *memory.IntentStore
	fills     *memory.ExecutionFillStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	priv, _, err := intentcrypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	decryptor, err := intentcrypto.NewDecryptor(priv)
	if err != nil {
		t.Fatalf("NewDecryptor: %v", err)
	}

	env := &testEnv{
		decryptor: decryptor,
		books: &fakeBooks{book: &domain.OrderBook{
			Asks:      []domain.OrderBookLevel{{Price: "1000000000", Quantity: "100"}},
			Bids:      []domain.OrderBookLevel{{Price: "1000000000", Quantity: "100"}},
			Timestamp: time.Now().UnixMilli(),
		}},
		prover: &fakeProver{result: &domain.ProofResult{Proof: []byte{1}}},
		settler: &fakeSettler{
			digest:      "D1gest",
			chainStatus: domain.ChainStatusUnknown,
		},
		intents: memory.NewIntentStore(),
		fills:   memory.NewExecutionFillStore(),
	}
	env.solver = New(
		Config{
			RegistryID:       "0xreg",
			VerifierConfigID: "0xvcfg",
			VaultID:          "0xvault",
			Workers:          2,
		},
		log.New(io.Discard, "", 0),
		decryptor,
		env.books,
		env.prover,
		env.settler,
		env.intents,
		env.fills,
	)
	return env
}

func (e *testEnv) submit(t *testing.T, intent domain.Intent) string {
	t.Helper()
	encrypted, err := intentcrypto.Encrypt(intent, e.decryptor.PublicKeyHex())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	commitment, err := e.solver.SubmitIntent(context.Background(), *encrypted, "0xuser")
	if err != nil {
		t.Fatalf("SubmitIntent: %v", err)
	}
	return commitment
}

func buyIntent() domain.Intent {
	return domain.Intent{
		InputToken:      "USDC",
		OutputToken:     "SUI",
		InputAmount:     "50",
		MinOutputAmount: "40",
		MaxSlippageBps:  50,
		DeadlineSeconds: 300,
	}
}

func TestSubmitIntent(t *testing.T) {
	env := newTestEnv(t)

	commitment := env.submit(t, buyIntent())
	if env.solver.PendingCount() != 1 {
		t.Fatalf("expected 1 pending intent, got %d", env.solver.PendingCount())
	}

	rec, err := env.intents.GetByCommitment(context.Background(), commitment)
	if err != nil {
		t.Fatalf("GetByCommitment: %v", err)
	}
	if rec.Status != domain.IntentStatusPending {
		t.Errorf("record status: got %s, want pending", rec.Status)
	}
	if rec.UserAddress != "0xuser" {
		t.Errorf("record user: got %s", rec.UserAddress)
	}

	if got := env.solver.IntentStatus(context.Background(), commitment); got != "pending" {
		t.Errorf("IntentStatus: got %s, want pending", got)
	}
}

func TestSubmitIntent_Duplicate(t *testing.T) {
	env := newTestEnv(t)

	encrypted, err := intentcrypto.Encrypt(buyIntent(), env.decryptor.PublicKeyHex())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := env.solver.SubmitIntent(context.Background(), *encrypted, "0xuser"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := env.solver.SubmitIntent(context.Background(), *encrypted, "0xuser"); !errors.Is(err, ErrDuplicateIntent) {
		t.Fatalf("expected ErrDuplicateIntent, got %v", err)
	}
}

func TestSubmitIntent_Rejections(t *testing.T) {
	env := newTestEnv(t)

	// Missing fields.
	if _, err := env.solver.SubmitIntent(context.Background(), domain.EncryptedIntent{}, "0xuser"); err == nil {
		t.Error("expected rejection for empty envelope")
	}

	// Missing user address.
	encrypted, _ := intentcrypto.Encrypt(buyIntent(), env.decryptor.PublicKeyHex())
	if _, err := env.solver.SubmitIntent(context.Background(), *encrypted, ""); err == nil {
		t.Error("expected rejection for missing user address")
	}

	// Commitment mismatch.
	other := buyIntent()
	other.InputAmount = "51"
	wrong, _ := intentcrypto.ComputeCommitment(other)
	encrypted.Commitment = wrong
	if _, err := env.solver.SubmitIntent(context.Background(), *encrypted, "0xuser"); !errors.Is(err, intentcrypto.ErrIntegrity) {
		t.Errorf("expected ErrIntegrity, got %v", err)
	}

	if env.solver.PendingCount() != 0 {
		t.Errorf("rejected intents must not enter the pending set, got %d", env.solver.PendingCount())
	}
}

func TestSweep_Settles(t *testing.T) {
	env := newTestEnv(t)
	commitment := env.submit(t, buyIntent())

	events, cancel := env.solver.hub.Subscribe()
	defer cancel()

	env.solver.sweep(context.Background())

	if env.solver.PendingCount() != 0 {
		t.Fatalf("settled intent still pending")
	}
	if len(env.settler.submitted) != 1 {
		t.Fatalf("expected 1 settlement, got %d", len(env.settler.submitted))
	}

	rec, err := env.intents.GetByCommitment(context.Background(), commitment)
	if err != nil {
		t.Fatalf("GetByCommitment: %v", err)
	}
	if rec.Status != domain.IntentStatusSettled {
		t.Errorf("record status: got %s, want settled", rec.Status)
	}
	if rec.TxDigest != "D1gest" {
		t.Errorf("record digest: got %s", rec.TxDigest)
	}

	fill, err := env.fills.GetByCommitment(context.Background(), commitment)
	if err != nil {
		t.Fatalf("fill not recorded: %v", err)
	}
	if fill.ExecutedInputAmount != 50 || fill.ExecutedOutputAmount != 50 {
		t.Errorf("unexpected fill amounts: %+v", fill)
	}
	if fill.TxDigest != "D1gest" {
		t.Errorf("fill digest: got %s", fill.TxDigest)
	}

	select {
	case ev := <-events:
		if ev.Commitment != commitment || ev.TxDigest != "D1gest" {
			t.Errorf("unexpected broadcast %+v", ev)
		}
	default:
		t.Error("settlement event not broadcast")
	}

	if got := env.solver.IntentStatus(context.Background(), commitment); got != "settled" {
		t.Errorf("IntentStatus after settle: got %s", got)
	}
}

func TestSweep_InsufficientLiquidityStaysPending(t *testing.T) {
	env := newTestEnv(t)
	env.books.book.Asks = []domain.OrderBookLevel{{Price: "1000000000", Quantity: "10"}}

	commitment := env.submit(t, buyIntent()) // wants min 40, book has 10

	env.solver.sweep(context.Background())

	if env.solver.PendingCount() != 1 {
		t.Fatalf("intent must stay pending on insufficient liquidity")
	}
	if env.prover.calls != 0 {
		t.Errorf("prover must not be called without a plan")
	}

	// Liquidity arrives; the next sweep settles.
	env.books.book.Asks = []domain.OrderBookLevel{{Price: "1000000000", Quantity: "100"}}
	env.solver.sweep(context.Background())

	if env.solver.PendingCount() != 0 {
		t.Fatal("intent not settled after liquidity arrived")
	}
	rec, _ := env.intents.GetByCommitment(context.Background(), commitment)
	if rec.Status != domain.IntentStatusSettled {
		t.Errorf("record status: got %s, want settled", rec.Status)
	}
}

func TestSweep_BookFetchFailureStaysPending(t *testing.T) {
	env := newTestEnv(t)
	env.books.err = errors.New("indexer down")

	env.submit(t, buyIntent())
	env.solver.sweep(context.Background())

	if env.solver.PendingCount() != 1 {
		t.Fatal("intent must stay pending on market data outage")
	}
}

func TestSweep_ProverUnavailableStaysPending(t *testing.T) {
	env := newTestEnv(t)
	env.prover.result = nil
	env.prover.err = prover.ErrUnavailable

	env.submit(t, buyIntent())
	env.solver.sweep(context.Background())

	if env.solver.PendingCount() != 1 {
		t.Fatal("intent must stay pending on prover outage")
	}
}

func TestSweep_ProofFailureDrops(t *testing.T) {
	env := newTestEnv(t)
	env.prover.result = nil
	env.prover.err = prover.ErrGenerationFailed

	commitment := env.submit(t, buyIntent())
	env.solver.sweep(context.Background())

	if env.solver.PendingCount() != 0 {
		t.Fatal("intent must be dropped on proof failure")
	}
	rec, _ := env.intents.GetByCommitment(context.Background(), commitment)
	if rec.Status != domain.IntentStatusDropped {
		t.Errorf("record status: got %s, want dropped", rec.Status)
	}
	if rec.FailureReason == "" {
		t.Error("dropped intent must carry a failure reason")
	}
}

func TestSweep_SettlementRejectionDrops(t *testing.T) {
	env := newTestEnv(t)
	env.settler.digest = ""
	env.settler.err = errors.New("settlement rejected: MoveAbort(3)")

	commitment := env.submit(t, buyIntent())
	env.solver.sweep(context.Background())

	if env.solver.PendingCount() != 0 {
		t.Fatal("intent must be dropped on settlement rejection")
	}
	rec, _ := env.intents.GetByCommitment(context.Background(), commitment)
	if rec.Status != domain.IntentStatusDropped {
		t.Errorf("record status: got %s, want dropped", rec.Status)
	}

	if _, err := env.fills.GetByCommitment(context.Background(), commitment); err == nil {
		t.Error("no fill may be recorded for a rejected settlement")
	}
}

func TestSweep_ExpiredIntent(t *testing.T) {
	env := newTestEnv(t)

	commitment := env.submit(t, buyIntent())
	// Force the deadline into the past.
	intent, _ := env.solver.pending.Get(commitment)
	intent.Deadline = time.Now().Unix() - 10

	env.solver.sweep(context.Background())

	if env.solver.PendingCount() != 0 {
		t.Fatal("expired intent still pending")
	}
	rec, _ := env.intents.GetByCommitment(context.Background(), commitment)
	if rec.Status != domain.IntentStatusExpired {
		t.Errorf("record status: got %s, want expired", rec.Status)
	}
	if len(env.settler.submitted) != 0 {
		t.Error("expired intent must never reach settlement")
	}
}

func TestSweep_UnknownPairDrops(t *testing.T) {
	env := newTestEnv(t)

	intent := buyIntent()
	intent.InputToken, intent.OutputToken = "BTC", "SUI"
	commitment := env.submit(t, intent)

	env.solver.sweep(context.Background())

	if env.solver.PendingCount() != 0 {
		t.Fatal("unroutable intent still pending")
	}
	rec, _ := env.intents.GetByCommitment(context.Background(), commitment)
	if rec.Status != domain.IntentStatusDropped {
		t.Errorf("record status: got %s, want dropped", rec.Status)
	}
}

func TestSweep_OneFailureDoesNotAffectOthers(t *testing.T) {
	env := newTestEnv(t)

	good := env.submit(t, buyIntent())

	bad := buyIntent()
	bad.InputToken, bad.OutputToken = "BTC", "SUI"
	badCommitment := env.submit(t, bad)

	env.solver.sweep(context.Background())

	goodRec, _ := env.intents.GetByCommitment(context.Background(), good)
	if goodRec.Status != domain.IntentStatusSettled {
		t.Errorf("good intent: got %s, want settled", goodRec.Status)
	}
	badRec, _ := env.intents.GetByCommitment(context.Background(), badCommitment)
	if badRec.Status != domain.IntentStatusDropped {
		t.Errorf("bad intent: got %s, want dropped", badRec.Status)
	}
}

func TestIntentStatus_UnknownFallsBackToChain(t *testing.T) {
	env := newTestEnv(t)
	env.settler.chainStatus = domain.ChainStatusSettled

	if got := env.solver.IntentStatus(context.Background(), "deadbeef"); got != "settled" {
		t.Errorf("IntentStatus: got %s, want chain-reported settled", got)
	}

	env.settler.chainStatus = domain.ChainStatusUnknown
	if got := env.solver.IntentStatus(context.Background(), "deadbeef"); got != "unknown" {
		t.Errorf("IntentStatus: got %s, want unknown", got)
	}
}
