package domain

// Execution is the concrete fill a solver proposes for an intent. It is
// derived deterministically from one DecryptedIntent and one OrderBook
// snapshot and never mutated after creation.
type Execution struct {
	IntentCommitment     string `json:"intentCommitment"`
	PoolID               string `json:"poolId"`
	ExecutedInputAmount  string `json:"executedInputAmount"`
	ExecutedOutputAmount string `json:"executedOutputAmount"`
	ExecutionPrice       string `json:"executionPrice"` // volume-weighted, fixed-point (PriceScale)
	Timestamp            int64  `json:"timestamp"`      // book snapshot time, unix seconds
}

// PublicInputs are the public inputs the prover binds the proof to. The
// on-chain verifier recomputes the settlement decision from exactly these
// values.
type PublicInputs struct {
	IntentCommitment     [32]byte
	PoolIDHash           [32]byte
	ExecutedOutputAmount uint64
	SolverAddressHash    [32]byte
	Timestamp            uint64
}

// ProofResult is the prover's attestation for one execution. The proof
// bytes are opaque to this engine.
type ProofResult struct {
	Proof        []byte
	PublicInputs PublicInputs
}
