package intentcrypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"

	"sui-intent-solver/internal/domain"
)

// Encrypt seals an intent to a solver's x25519 public key using a fresh
// ephemeral keypair and a random XChaCha20-Poly1305 nonce, and derives the
// intent's commitment. This is the trader side of the envelope, used by the
// submit tool and by tests.
func Encrypt(intent domain.Intent, solverPublicKeyHex string) (*domain.EncryptedIntent, error) {
	if err := intent.Validate(); err != nil {
		return nil, err
	}
	solverPub, err := hex.DecodeString(strings.TrimPrefix(solverPublicKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode solver public key: %w", err)
	}
	if len(solverPub) != KeySize {
		return nil, fmt.Errorf("solver public key must be %d bytes, got %d", KeySize, len(solverPub))
	}

	ephemeralPriv := make([]byte, KeySize)
	if _, err := rand.Read(ephemeralPriv); err != nil {
		return nil, fmt.Errorf("generate ephemeral key: %w", err)
	}
	ephemeralPub, err := curve25519.X25519(ephemeralPriv, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("derive ephemeral public key: %w", err)
	}

	shared, err := curve25519.X25519(ephemeralPriv, solverPub)
	if err != nil {
		return nil, fmt.Errorf("key exchange: %w", err)
	}
	key := sha256.Sum256(shared)

	payload, err := json.Marshal(envelopePayload{
		Intent:    intent,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, err
	}
	ciphertext := aead.Seal(nil, nonce, payload, nil)

	commitment, err := ComputeCommitment(intent)
	if err != nil {
		return nil, err
	}

	return &domain.EncryptedIntent{
		Ciphertext:         hex.EncodeToString(ciphertext),
		EphemeralPublicKey: hex.EncodeToString(ephemeralPub),
		Nonce:              hex.EncodeToString(nonce),
		Commitment:         commitment,
	}, nil
}

// GenerateKeyPair creates a fresh x25519 keypair, returned as hex strings.
func GenerateKeyPair() (privateKeyHex, publicKeyHex string, err error) {
	priv := make([]byte, KeySize)
	if _, err := rand.Read(priv); err != nil {
		return "", "", fmt.Errorf("generate private key: %w", err)
	}
	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return "", "", fmt.Errorf("derive public key: %w", err)
	}
	return hex.EncodeToString(priv), hex.EncodeToString(pub), nil
}
