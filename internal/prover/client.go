// Package prover talks to the external zero-knowledge prover service over
// its /prove and /verify JSON endpoints.
package prover

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"sui-intent-solver/internal/domain"
)

// DefaultTimeout bounds a single prover round trip. Proof generation is
// slow; this is deliberately generous.
const DefaultTimeout = 120 * time.Second

var (
	// ErrUnavailable is returned when the prover cannot be reached or
	// returns an unintelligible response. Transient; a hardened caller may
	// retry with backoff.
	ErrUnavailable = errors.New("prover unavailable")

	// ErrGenerationFailed is returned when the prover reports success=false,
	// e.g. the execution violates circuit constraints. Terminal for the
	// intent being proven.
	ErrGenerationFailed = errors.New("proof generation failed")
)

// Client is an HTTP client for the prover service.
type Client struct {
	baseURL string
	client  *http.Client
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a prover client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Prove requests a correctness proof for an execution of the given intent.
// Amounts are converted from decimal strings to u64 and hashes from hex to
// fixed 32-byte arrays on the way out.
func (c *Client) Prove(ctx context.Context, intent *domain.DecryptedIntent, execution *domain.Execution, solverAddress string) (*domain.ProofResult, error) {
	inputAmount, err := domain.ParseAmount(intent.Intent.InputAmount)
	if err != nil {
		return nil, fmt.Errorf("intent input amount: %w", err)
	}
	minOutput, err := domain.ParseAmount(intent.Intent.MinOutputAmount)
	if err != nil {
		return nil, fmt.Errorf("intent min output amount: %w", err)
	}
	executedInput, err := domain.ParseAmount(execution.ExecutedInputAmount)
	if err != nil {
		return nil, fmt.Errorf("executed input amount: %w", err)
	}
	executedOutput, err := domain.ParseAmount(execution.ExecutedOutputAmount)
	if err != nil {
		return nil, fmt.Errorf("executed output amount: %w", err)
	}
	executionPrice, err := domain.ParseAmount(execution.ExecutionPrice)
	if err != nil {
		return nil, fmt.Errorf("execution price: %w", err)
	}

	req := proveRequest{
		Intent: wireIntent{
			InputToken:      intent.Intent.InputToken,
			OutputToken:     intent.Intent.OutputToken,
			InputAmount:     inputAmount,
			MinOutputAmount: minOutput,
			MaxSlippageBps:  uint16(intent.Intent.MaxSlippageBps),
			Deadline:        uint64(intent.Deadline),
			UserAddress:     intent.UserAddress,
		},
		Execution: wireExecution{
			IntentCommitment:     HexToBytes32(execution.IntentCommitment),
			PoolID:               execution.PoolID,
			ExecutedInputAmount:  executedInput,
			ExecutedOutputAmount: executedOutput,
			ExecutionPrice:       executionPrice,
			Timestamp:            uint64(execution.Timestamp),
			SolverAddress:        solverAddress,
		},
	}

	var resp proveResponse
	if err := c.post(ctx, "/prove", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		detail := resp.Error
		if detail == "" {
			detail = "prover reported failure without detail"
		}
		return nil, fmt.Errorf("%w: %s", ErrGenerationFailed, detail)
	}

	return &domain.ProofResult{
		Proof:        []byte(resp.Proof),
		PublicInputs: fromWirePublicInputs(resp.PublicInputs),
	}, nil
}

// Verify checks a proof against its public inputs via the prover's
// verification endpoint. It is independent of Prove: any party holding a
// proof and its public inputs can call it.
func (c *Client) Verify(ctx context.Context, proof []byte, publicInputs domain.PublicInputs) (bool, error) {
	req := verifyRequest{
		Proof:        byteList(proof),
		PublicInputs: toWirePublicInputs(publicInputs),
	}
	var resp verifyResponse
	if err := c.post(ctx, "/verify", req, &resp); err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// post issues a JSON POST and decodes the response body. The prover
// answers application errors with 400 plus a structured body, so a
// decodable body is accepted regardless of status; everything else is
// ErrUnavailable.
func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("%w: unexpected status %d: %s", ErrUnavailable, resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}
