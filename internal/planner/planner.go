// Package planner computes the best feasible execution for a decrypted
// intent against an order book snapshot. Plan is a pure function: the
// prover recomputes the same result from the same public snapshot, so two
// calls with identical inputs must produce identical executions.
package planner

import (
	"fmt"
	"math/big"

	"sui-intent-solver/internal/deepbook"
	"sui-intent-solver/internal/domain"
)

// PriceScale is the fixed-point denominator for prices. All arithmetic is
// integer arithmetic; floating point would drift from the circuit-side
// recomputation.
const PriceScale = 1_000_000_000

var priceScale = big.NewInt(PriceScale)

// Plan walks the relevant book side in priority order, greedily consuming
// levels until the intent's input is exhausted or the book runs out.
//
// Returns (nil, nil) when the accumulated output cannot meet the intent's
// minimum — insufficient liquidity is a result, not an error, and the
// caller is expected to retry on a later snapshot. A non-nil error means
// the intent and book cannot be meaningfully matched at all (unknown
// tokens, malformed amounts).
func Plan(intent *domain.DecryptedIntent, pool deepbook.Pool, book *domain.OrderBook) (*domain.Execution, error) {
	inputAmount, ok := new(big.Int).SetString(intent.Intent.InputAmount, 10)
	if !ok || inputAmount.Sign() <= 0 {
		return nil, fmt.Errorf("invalid input amount %q", intent.Intent.InputAmount)
	}
	minOutput, ok := new(big.Int).SetString(intent.Intent.MinOutputAmount, 10)
	if !ok || minOutput.Sign() < 0 {
		return nil, fmt.Errorf("invalid min output amount %q", intent.Intent.MinOutputAmount)
	}

	// Buying the base consumes asks; selling the base consumes bids.
	var levels []domain.OrderBookLevel
	var buyingBase bool
	switch {
	case intent.Intent.InputToken == pool.Quote && intent.Intent.OutputToken == pool.Base:
		buyingBase = true
		levels = book.Asks
	case intent.Intent.InputToken == pool.Base && intent.Intent.OutputToken == pool.Quote:
		buyingBase = false
		levels = book.Bids
	default:
		return nil, fmt.Errorf("pair %s-%s does not match pool %s (%s/%s)",
			intent.Intent.InputToken, intent.Intent.OutputToken, pool.ID, pool.Base, pool.Quote)
	}

	remaining := new(big.Int).Set(inputAmount)
	totalOutput := new(big.Int)

	for _, level := range levels {
		if remaining.Sign() <= 0 {
			break
		}
		price, ok := new(big.Int).SetString(level.Price, 10)
		if !ok || price.Sign() <= 0 {
			return nil, fmt.Errorf("invalid level price %q", level.Price)
		}
		quantity, ok := new(big.Int).SetString(level.Quantity, 10)
		if !ok || quantity.Sign() < 0 {
			return nil, fmt.Errorf("invalid level quantity %q", level.Quantity)
		}

		fill := new(big.Int).Set(remaining)
		if quantity.Cmp(fill) < 0 {
			fill.Set(quantity)
		}

		output := new(big.Int).Set(fill)
		if !buyingBase {
			// Selling base for quote: output = fill * price / PriceScale.
			output.Mul(fill, price)
			output.Quo(output, priceScale)
		}

		remaining.Sub(remaining, fill)
		totalOutput.Add(totalOutput, output)
	}

	if totalOutput.Cmp(minOutput) < 0 {
		return nil, nil
	}

	executedInput := new(big.Int).Sub(inputAmount, remaining)
	if executedInput.Sign() == 0 {
		return nil, nil
	}

	// Volume-weighted execution price, fixed point.
	price := new(big.Int).Mul(totalOutput, priceScale)
	price.Quo(price, executedInput)

	return &domain.Execution{
		IntentCommitment:     intent.Commitment,
		PoolID:               pool.ID,
		ExecutedInputAmount:  executedInput.String(),
		ExecutedOutputAmount: totalOutput.String(),
		ExecutionPrice:       price.String(),
		Timestamp:            book.Timestamp / 1000,
	}, nil
}
