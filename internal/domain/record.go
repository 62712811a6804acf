package domain

// IntentRecord is the persisted lifecycle audit row for an accepted intent.
// Corresponds to the intents table in PostgreSQL. The encrypted payload and
// the plaintext amounts of rejected intents are never stored.
type IntentRecord struct {
	Commitment      string       // PRIMARY KEY, hex double SHA-256 of the intent
	UserAddress     string       // submitting trader address
	InputToken      string       // token symbol spent
	OutputToken     string       // token symbol received
	InputAmount     string       // decimal string
	MinOutputAmount string       // decimal string
	Status          IntentStatus // current lifecycle state
	FailureReason   string       // populated for dropped/expired intents
	TxDigest        string       // settlement transaction digest, settled only
	Deadline        int64        // absolute expiry, unix seconds
	ReceivedAt      int64        // unix timestamp in milliseconds
	UpdatedAt       int64        // unix timestamp in milliseconds
}

// ExecutionFill is one settled fill, persisted to ClickHouse for
// analytics. Corresponds to the execution_fills table.
type ExecutionFill struct {
	Commitment           string // intent commitment
	PoolID               string // venue pool object ID
	ExecutedInputAmount  uint64
	ExecutedOutputAmount uint64
	ExecutionPrice       uint64 // fixed-point, PriceScale denominator
	TxDigest             string
	Timestamp            int64 // execution time, unix seconds
}
