package solver

import (
	"context"
	"errors"
	"sync"
	"time"

	"sui-intent-solver/internal/domain"
	"sui-intent-solver/internal/observability"
	"sui-intent-solver/internal/planner"
	"sui-intent-solver/internal/prover"
	"sui-intent-solver/internal/storage"
)

// runSweeper drives the periodic matching loop until ctx is cancelled.
func (s *Solver) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep claims every unclaimed pending intent and processes each through a
// bounded worker pool. One intent's failure never affects another: each
// outcome is decided independently inside processIntent.
func (s *Solver) sweep(ctx context.Context) {
	start := time.Now()

	claimed := s.pending.Claim()
	if len(claimed) > 0 {
		jobs := make(chan *domain.DecryptedIntent)
		var wg sync.WaitGroup
		for i := 0; i < s.cfg.Workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for intent := range jobs {
					s.processIntent(ctx, intent)
				}
			}()
		}
		for _, intent := range claimed {
			jobs <- intent
		}
		close(jobs)
		wg.Wait()
	}

	observability.RecordSweepDuration(time.Since(start).Seconds())
	observability.UpdatePendingIntents(s.pending.Len())
}

// processIntent advances one claimed intent a single step: expire, stay
// pending (no liquidity or transient upstream failure), drop (terminal
// failure), or settle. The pending-set lock is never held across I/O.
func (s *Solver) processIntent(ctx context.Context, intent *domain.DecryptedIntent) {
	commitment := intent.Commitment

	if intent.Expired(time.Now().Unix()) {
		s.pending.Remove(commitment)
		s.markTerminal(ctx, commitment, domain.IntentStatusExpired, "deadline exceeded", "")
		observability.RecordIntentExpired()
		s.logger.Printf("intent expired: commitment=%s", commitment)
		return
	}

	pool, ok := s.books.Pool(intent.Intent.InputToken, intent.Intent.OutputToken)
	if !ok {
		s.pending.Remove(commitment)
		s.markTerminal(ctx, commitment, domain.IntentStatusDropped, "unknown trading pair", "")
		observability.RecordIntentDropped("pair")
		s.logger.Printf("intent dropped, unknown pair %s-%s: commitment=%s",
			intent.Intent.InputToken, intent.Intent.OutputToken, commitment)
		return
	}

	bookStart := time.Now()
	book, err := s.books.GetOrderBook(ctx, intent.Intent.InputToken, intent.Intent.OutputToken)
	observability.DefaultMetrics.OrderBookLatency.Observe(time.Since(bookStart).Seconds())
	if err != nil {
		// Market data outages are transient: keep the intent pending.
		s.pending.Release(commitment)
		s.logger.Printf("order book fetch failed for %s: %v", commitment, err)
		return
	}

	execution, err := planner.Plan(intent, pool, book)
	if err != nil {
		s.pending.Remove(commitment)
		s.markTerminal(ctx, commitment, domain.IntentStatusDropped, "planning failed: "+err.Error(), "")
		observability.RecordIntentDropped("plan")
		s.logger.Printf("planning failed for %s: %v", commitment, err)
		return
	}
	if execution == nil {
		// Not enough liquidity to beat minOutputAmount right now; the next
		// sweep retries against a fresh book.
		s.pending.Release(commitment)
		return
	}

	proofStart := time.Now()
	proof, err := s.prover.Prove(ctx, intent, execution, s.settler.SolverAddress())
	observability.DefaultMetrics.ProofLatency.Observe(time.Since(proofStart).Seconds())
	if err != nil {
		if errors.Is(err, prover.ErrUnavailable) {
			// Prover outage: retry next sweep until the deadline expires.
			s.pending.Release(commitment)
			s.logger.Printf("prover unavailable for %s: %v", commitment, err)
			return
		}
		s.pending.Remove(commitment)
		s.markTerminal(ctx, commitment, domain.IntentStatusDropped, "proof generation failed", "")
		observability.RecordIntentDropped("proof")
		s.logger.Printf("proof generation failed for %s: %v", commitment, err)
		return
	}

	settleStart := time.Now()
	digest, err := s.settler.Submit(ctx, s.cfg.RegistryID, s.cfg.VerifierConfigID, s.cfg.VaultID, execution, proof)
	observability.DefaultMetrics.SettlementLatency.Observe(time.Since(settleStart).Seconds())
	if err != nil {
		s.pending.Remove(commitment)
		s.markTerminal(ctx, commitment, domain.IntentStatusDropped, "settlement failed: "+err.Error(), "")
		observability.RecordIntentDropped("settlement")
		s.logger.Printf("settlement failed for %s: %v", commitment, err)
		return
	}

	s.pending.Remove(commitment)
	s.markTerminal(ctx, commitment, domain.IntentStatusSettled, "", digest)
	s.recordFill(ctx, execution, digest)
	observability.RecordIntentSettled()
	s.hub.Publish(SettlementEvent{Commitment: commitment, TxDigest: digest})
	s.logger.Printf("intent settled: commitment=%s digest=%s output=%s",
		commitment, digest, execution.ExecutedOutputAmount)
}

// recordFill persists the settled fill to the analytics store. Best effort:
// the settlement already happened on-chain.
func (s *Solver) recordFill(ctx context.Context, execution *domain.Execution, digest string) {
	in, err := domain.ParseAmount(execution.ExecutedInputAmount)
	if err != nil {
		s.logger.Printf("record fill %s: %v", execution.IntentCommitment, err)
		return
	}
	out, err := domain.ParseAmount(execution.ExecutedOutputAmount)
	if err != nil {
		s.logger.Printf("record fill %s: %v", execution.IntentCommitment, err)
		return
	}
	price, err := domain.ParseAmount(execution.ExecutionPrice)
	if err != nil {
		s.logger.Printf("record fill %s: %v", execution.IntentCommitment, err)
		return
	}

	fill := &domain.ExecutionFill{
		Commitment:           execution.IntentCommitment,
		PoolID:               execution.PoolID,
		ExecutedInputAmount:  in,
		ExecutedOutputAmount: out,
		ExecutionPrice:       price,
		TxDigest:             digest,
		Timestamp:            execution.Timestamp,
	}
	if err := s.fills.Insert(ctx, fill); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		observability.RecordDBError("clickhouse", "insert_fill")
		s.logger.Printf("persist fill %s: %v", execution.IntentCommitment, err)
	}
}
