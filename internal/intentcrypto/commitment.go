package intentcrypto

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"sui-intent-solver/internal/domain"
)

// ComputeCommitment computes the canonical intent commitment:
// SHA256(SHA256(canonical_json(intent))). Canonical JSON is the
// encoding/json marshal of domain.Intent, whose field declaration order
// fixes the key order. Returns the lowercase hex-encoded hash.
func ComputeCommitment(intent domain.Intent) (string, error) {
	data, err := json.Marshal(intent)
	if err != nil {
		return "", fmt.Errorf("marshal intent: %w", err)
	}
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return hex.EncodeToString(second[:]), nil
}

// VerifyCommitment reports whether the intent hashes to expectedCommitment.
// Comparison ignores hex case and a leading 0x prefix.
func VerifyCommitment(intent domain.Intent, expectedCommitment string) bool {
	computed, err := ComputeCommitment(intent)
	if err != nil {
		return false
	}
	return strings.EqualFold(computed, strings.TrimPrefix(expectedCommitment, "0x"))
}
