// Package settlement builds and submits the on-chain settlement call that
// finalizes an execution with its correctness proof, and reads intent
// status from the registry.
package settlement

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"sui-intent-solver/internal/domain"
	"sui-intent-solver/internal/sui"
)

// clockObjectID is the shared on-chain time oracle referenced by every
// settlement call.
const clockObjectID = "0x6"

// ErrRejected is returned when the chain reports a non-success status for
// a submitted settlement. The chain's error detail is wrapped verbatim.
// Not retried by this component.
var ErrRejected = errors.New("settlement rejected")

// Client submits settlements through a Ledger.
type Client struct {
	ledger    sui.Ledger
	packageID string
}

// NewClient creates a settlement client for the move package at packageID.
func NewClient(ledger sui.Ledger, packageID string) *Client {
	return &Client{ledger: ledger, packageID: packageID}
}

// SolverAddress returns the settling solver's ledger address.
func (c *Client) SolverAddress() string {
	return c.ledger.Address()
}

// Submit builds and submits the atomic settlement call and waits for the
// execution result. Returns the transaction digest on success and
// ErrRejected (with the chain's detail) if the chain reports failure.
func (c *Client) Submit(ctx context.Context, registryID, verifierConfigID, vaultID string, execution *domain.Execution, proof *domain.ProofResult) (string, error) {
	commitment, err := hex.DecodeString(strings.TrimPrefix(execution.IntentCommitment, "0x"))
	if err != nil {
		return "", fmt.Errorf("decode intent commitment: %w", err)
	}
	outputAmount, err := domain.ParseAmount(execution.ExecutedOutputAmount)
	if err != nil {
		return "", fmt.Errorf("executed output amount: %w", err)
	}

	call := sui.MoveCall{
		Target: c.packageID + "::settlement::execute_verified_settlement",
		Arguments: []sui.CallArg{
			sui.ObjectArg(registryID),
			sui.ObjectArg(verifierConfigID),
			sui.ObjectArg(vaultID),
			sui.PureBytesArg(commitment),
			sui.PureBytesArg(proof.Proof),
			sui.PureBytesArg(SerializePublicInputs(proof.PublicInputs)),
			sui.PureU64Arg(outputAmount),
			sui.ObjectArg(clockObjectID),
		},
	}

	result, err := c.ledger.ExecuteCall(ctx, call)
	if err != nil {
		return "", fmt.Errorf("execute settlement call: %w", err)
	}
	if result.Status != "success" {
		return "", fmt.Errorf("%w: %s", ErrRejected, result.Error)
	}
	return result.Digest, nil
}

// GetIntentStatus reads the intent's lifecycle code from the on-chain
// registry via a dev-inspect call. Advisory only: any read failure,
// including the intent being absent, yields ChainStatusUnknown.
func (c *Client) GetIntentStatus(ctx context.Context, registryID, commitment string) int {
	raw, err := hex.DecodeString(strings.TrimPrefix(commitment, "0x"))
	if err != nil {
		return domain.ChainStatusUnknown
	}

	call := sui.MoveCall{
		Target: c.packageID + "::intent_registry::get_intent",
		Arguments: []sui.CallArg{
			sui.ObjectArg(registryID),
			sui.PureBytesArg(raw),
		},
	}

	result, err := c.ledger.DevInspect(ctx, call)
	if err != nil || len(result.ReturnValues) == 0 || len(result.ReturnValues[0]) == 0 {
		return domain.ChainStatusUnknown
	}
	return int(result.ReturnValues[0][0])
}

// SerializePublicInputs renders the proof's public inputs in the verifier's
// canonical byte layout:
//
//	commitment (32) ‖ pool_id_hash (32) ‖ output_amount (8, LE) ‖
//	solver_address_hash (32) ‖ timestamp (8, LE)
func SerializePublicInputs(inputs domain.PublicInputs) []byte {
	out := make([]byte, 0, 112)
	out = append(out, inputs.IntentCommitment[:]...)
	out = append(out, inputs.PoolIDHash[:]...)
	out = binary.LittleEndian.AppendUint64(out, inputs.ExecutedOutputAmount)
	out = append(out, inputs.SolverAddressHash[:]...)
	out = binary.LittleEndian.AppendUint64(out, inputs.Timestamp)
	return out
}
