package intentcrypto

import "errors"

// Decryption and integrity failures are deliberately distinct: a decryption
// failure means the envelope could not be opened at all (bad key, bad nonce,
// tag mismatch), while an integrity failure means the envelope opened but
// the plaintext does not match its commitment — a tamper signal.
var (
	// ErrDecryption is returned when the AEAD envelope cannot be opened or
	// the opened payload is not a well-formed intent. The caller must reject
	// the intent outright; no partial intent is ever surfaced.
	ErrDecryption = errors.New("intent decryption failed")

	// ErrIntegrity is returned when the recomputed commitment does not equal
	// the commitment carried in the envelope.
	ErrIntegrity = errors.New("intent commitment mismatch")
)
