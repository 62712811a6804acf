package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// Intent is a trader's hidden order specification. It is produced by the
// trader, carried inside the encrypted envelope, and never mutated by the
// solver. Field order is significant: the commitment is the double SHA-256
// of this struct's canonical JSON encoding.
type Intent struct {
	InputToken      string `json:"inputToken"`      // token symbol spent by the trader
	OutputToken     string `json:"outputToken"`     // token symbol received by the trader
	InputAmount     string `json:"inputAmount"`     // base-unit amount, decimal string
	MinOutputAmount string `json:"minOutputAmount"` // base-unit amount, decimal string
	MaxSlippageBps  int    `json:"maxSlippageBps"`  // 0..10000
	DeadlineSeconds int64  `json:"deadlineSeconds"` // relative deadline, > 0
	MevProtection   bool   `json:"mevProtection"`
}

// MaxSlippageBpsLimit is the upper bound for Intent.MaxSlippageBps.
const MaxSlippageBpsLimit = 10000

// Validate checks intent field constraints.
func (i *Intent) Validate() error {
	if i.InputToken == "" || i.OutputToken == "" {
		return errors.New("intent: input and output tokens are required")
	}
	if i.InputToken == i.OutputToken {
		return errors.New("intent: input and output tokens must differ")
	}
	if _, err := ParseAmount(i.InputAmount); err != nil {
		return fmt.Errorf("intent: invalid inputAmount: %w", err)
	}
	if i.MinOutputAmount != "" {
		if _, err := ParseAmount(i.MinOutputAmount); err != nil {
			return fmt.Errorf("intent: invalid minOutputAmount: %w", err)
		}
	}
	if i.MaxSlippageBps < 0 || i.MaxSlippageBps > MaxSlippageBpsLimit {
		return fmt.Errorf("intent: maxSlippageBps %d out of range [0, %d]", i.MaxSlippageBps, MaxSlippageBpsLimit)
	}
	if i.DeadlineSeconds <= 0 {
		return fmt.Errorf("intent: deadlineSeconds must be positive, got %d", i.DeadlineSeconds)
	}
	return nil
}

// ParseAmount parses a non-negative decimal-string amount. Amounts must fit
// in a u64 because that is what the prover circuit and the on-chain verifier
// operate on.
func ParseAmount(s string) (uint64, error) {
	if s == "" {
		return 0, errors.New("empty amount")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a valid u64: %w", s, err)
	}
	return v, nil
}

// FormatAmount renders a u64 amount as its canonical decimal string.
func FormatAmount(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// EncryptedIntent is the unit of transport between trader and solver.
// All fields are hex-encoded byte strings.
type EncryptedIntent struct {
	Ciphertext         string `json:"ciphertext"`
	EphemeralPublicKey string `json:"ephemeralPublicKey"`
	Nonce              string `json:"nonce"`
	Commitment         string `json:"commitment"`
}

// DecryptedIntent is created exactly once per accepted EncryptedIntent, by
// successful decryption. Commitment is carried forward unchanged and is the
// intent's primary key for the remainder of its lifecycle.
type DecryptedIntent struct {
	Intent      Intent `json:"intent"`
	Commitment  string `json:"commitment"`
	UserAddress string `json:"userAddress"`
	Timestamp   int64  `json:"timestamp"` // trader-side creation time, unix ms
	Deadline    int64  `json:"deadline"`  // absolute expiry, unix seconds, fixed at decrypt time
}

// Expired reports whether the intent's deadline has passed at nowUnix.
func (d *DecryptedIntent) Expired(nowUnix int64) bool {
	return d.Deadline > 0 && nowUnix > d.Deadline
}
