package sui

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/blake2b"
)

// ed25519SchemeFlag is the Sui signature-scheme flag byte prepended to the
// public key when deriving an address.
const ed25519SchemeFlag = 0x00

// Keypair is the solver's ed25519 signing identity on the ledger.
type Keypair struct {
	priv    ed25519.PrivateKey
	address string
}

// NewKeypairFromHex creates a Keypair from a hex-encoded ed25519 key:
// either a 32-byte seed or a full 64-byte private key.
func NewKeypairFromHex(privateKeyHex string) (*Keypair, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}

	var priv ed25519.PrivateKey
	switch len(raw) {
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(raw)
	case ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(raw)
	default:
		return nil, fmt.Errorf("private key must be %d or %d bytes, got %d",
			ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}

	pub := priv.Public().(ed25519.PublicKey)

	// Reject non-canonical or off-curve public keys before ever signing.
	if _, err := new(edwards25519.Point).SetBytes(pub); err != nil {
		return nil, fmt.Errorf("public key is not a valid curve point: %w", err)
	}

	addr, err := deriveAddress(pub)
	if err != nil {
		return nil, err
	}

	return &Keypair{priv: priv, address: addr}, nil
}

// deriveAddress computes the Sui address: blake2b-256 over the scheme flag
// byte followed by the public key, hex-encoded with 0x prefix.
func deriveAddress(pub ed25519.PublicKey) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("init blake2b: %w", err)
	}
	h.Write([]byte{ed25519SchemeFlag})
	h.Write(pub)
	return "0x" + hex.EncodeToString(h.Sum(nil)), nil
}

// Address returns the keypair's ledger address.
func (k *Keypair) Address() string {
	return k.address
}

// PublicKey returns the ed25519 public key.
func (k *Keypair) PublicKey() ed25519.PublicKey {
	return k.priv.Public().(ed25519.PublicKey)
}

// Sign signs a message with the private key.
func (k *Keypair) Sign(message []byte) []byte {
	return ed25519.Sign(k.priv, message)
}
