package prover

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"sui-intent-solver/internal/domain"
)

// The prover is a Rust service using serde defaults: fixed-size and
// variable-size byte arrays travel as JSON arrays of numbers, u64 amounts
// as JSON numbers, and all keys are snake_case.

// byteList marshals a byte slice as a JSON number array.
type byteList []byte

func (b byteList) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(b))
	for i, v := range b {
		ints[i] = int(v)
	}
	return json.Marshal(ints)
}

func (b *byteList) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return fmt.Errorf("byte value %d out of range", v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// hash32 marshals a 32-byte array as a JSON number array of length 32.
type hash32 [32]byte

func (h hash32) MarshalJSON() ([]byte, error) {
	return byteList(h[:]).MarshalJSON()
}

func (h *hash32) UnmarshalJSON(data []byte) error {
	var b byteList
	if err := b.UnmarshalJSON(data); err != nil {
		return err
	}
	if len(b) != 32 {
		return fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(h[:], b)
	return nil
}

type wireIntent struct {
	InputToken      string `json:"input_token"`
	OutputToken     string `json:"output_token"`
	InputAmount     uint64 `json:"input_amount"`
	MinOutputAmount uint64 `json:"min_output_amount"`
	MaxSlippageBps  uint16 `json:"max_slippage_bps"`
	Deadline        uint64 `json:"deadline"`
	UserAddress     string `json:"user_address"`
}

type wireExecution struct {
	IntentCommitment     hash32 `json:"intent_commitment"`
	PoolID               string `json:"pool_id"`
	ExecutedInputAmount  uint64 `json:"executed_input_amount"`
	ExecutedOutputAmount uint64 `json:"executed_output_amount"`
	ExecutionPrice       uint64 `json:"execution_price"`
	Timestamp            uint64 `json:"timestamp"`
	SolverAddress        string `json:"solver_address"`
}

type wirePublicInputs struct {
	IntentCommitment     hash32 `json:"intent_commitment"`
	PoolIDHash           hash32 `json:"pool_id_hash"`
	ExecutedOutputAmount uint64 `json:"executed_output_amount"`
	SolverAddressHash    hash32 `json:"solver_address_hash"`
	Timestamp            uint64 `json:"timestamp"`
}

type proveRequest struct {
	Intent    wireIntent    `json:"intent"`
	Execution wireExecution `json:"execution"`
}

type proveResponse struct {
	Proof        byteList         `json:"proof"`
	PublicInputs wirePublicInputs `json:"public_inputs"`
	Success      bool             `json:"success"`
	Error        string           `json:"error"`
}

type verifyRequest struct {
	Proof        byteList         `json:"proof"`
	PublicInputs wirePublicInputs `json:"public_inputs"`
}

type verifyResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error"`
}

func toWirePublicInputs(p domain.PublicInputs) wirePublicInputs {
	return wirePublicInputs{
		IntentCommitment:     p.IntentCommitment,
		PoolIDHash:           p.PoolIDHash,
		ExecutedOutputAmount: p.ExecutedOutputAmount,
		SolverAddressHash:    p.SolverAddressHash,
		Timestamp:            p.Timestamp,
	}
}

func fromWirePublicInputs(w wirePublicInputs) domain.PublicInputs {
	return domain.PublicInputs{
		IntentCommitment:     w.IntentCommitment,
		PoolIDHash:           w.PoolIDHash,
		ExecutedOutputAmount: w.ExecutedOutputAmount,
		SolverAddressHash:    w.SolverAddressHash,
		Timestamp:            w.Timestamp,
	}
}

// HexToBytes32 decodes a hex string into a fixed 32-byte array, padding
// short inputs with trailing zeros and truncating long ones, matching the
// prover's address/hash normalization.
func HexToBytes32(s string) [32]byte {
	var out [32]byte
	clean := strings.TrimPrefix(s, "0x")
	if len(clean)%2 != 0 {
		clean = "0" + clean
	}
	decoded, err := hex.DecodeString(clean)
	if err != nil {
		return out
	}
	copy(out[:], decoded)
	return out
}
