// Package intentcrypto implements the intent envelope: x25519 key exchange,
// XChaCha20-Poly1305 authenticated encryption, and the double-SHA256
// commitment binding a ciphertext to its plaintext intent.
package intentcrypto

import (
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

// KeySize is the x25519 private/public key length in bytes.
const KeySize = 32

// envelopePayload is the plaintext carried inside the AEAD envelope.
type envelopePayload struct {
	Intent    domain.Intent `json:"intent"`
	Timestamp int64         `json:"timestamp,omitempty"` // trader-side creation time, unix ms
}

// Decryptor holds the solver's static x25519 keypair and opens encrypted
// intents addressed to it. The private key never leaves this type.
type Decryptor struct {
	privateKey []byte
	publicKey  []byte
}

// NewDecryptor creates a Decryptor from a hex-encoded 32-byte x25519
// private key.
func NewDecryptor(privateKeyHex string) (*Decryptor, error) {
	priv, err := hex.DecodeString(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	if len(priv) != KeySize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", KeySize, len(priv))
	}
	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}
	return &Decryptor{privateKey: priv, publicKey: pub}, nil
}

// PublicKeyHex returns the solver's static public key as lowercase hex.
// Traders encrypt intents to this key. This is the only key material the
// component ever emits.
func (d *Decryptor) PublicKeyHex() string {
	return hex.EncodeToString(d.publicKey)
}

// Decrypt opens an encrypted intent and verifies its commitment.
//
// The AEAD key is SHA256 of the raw x25519 shared secret, not the shared
// secret itself, so low-order-point structure never reaches the cipher key.
// Any failure to open or parse the envelope returns ErrDecryption; a
// commitment mismatch on an otherwise valid plaintext returns ErrIntegrity.
func (d *Decryptor) Decrypt(encrypted domain.EncryptedIntent, userAddress string) (*domain.DecryptedIntent, error) {
	ephemeralPub, err := hex.DecodeString(strings.TrimPrefix(encrypted.EphemeralPublicKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: decode ephemeral public key: %v", ErrDecryption, err)
	}
	if len(ephemeralPub) != KeySize {
		return nil, fmt.Errorf("%w: ephemeral public key must be %d bytes, got %d", ErrDecryption, KeySize, len(ephemeralPub))
	}
	nonce, err := hex.DecodeString(strings.TrimPrefix(encrypted.Nonce, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: decode nonce: %v", ErrDecryption, err)
	}
	if len(nonce) != chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("%w: nonce must be %d bytes, got %d", ErrDecryption, chacha20poly1305.NonceSizeX, len(nonce))
	}
	ciphertext, err := hex.DecodeString(strings.TrimPrefix(encrypted.Ciphertext, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: decode ciphertext: %v", ErrDecryption, err)
	}

	shared, err := curve25519.X25519(d.privateKey, ephemeralPub)
	if err != nil {
		return nil, fmt.Errorf("%w: key exchange: %v", ErrDecryption, err)
	}
	key := sha256.Sum256(shared)

	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", ErrDecryption)
	}

	var payload envelopePayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, fmt.Errorf("%w: parse payload: %v", ErrDecryption, err)
	}
	if err := payload.Intent.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	if !VerifyCommitment(payload.Intent, encrypted.Commitment) {
		return nil, ErrIntegrity
	}

	now := time.Now()
	ts := payload.Timestamp
	if ts == 0 {
		ts = now.UnixMilli()
	}

	return &domain.DecryptedIntent{
		Intent:      payload.Intent,
		Commitment:  encrypted.Commitment,
		UserAddress: userAddress,
		Timestamp:   ts,
		Deadline:    now.Unix() + payload.Intent.DeadlineSeconds,
	}, nil
}
