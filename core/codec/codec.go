package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"vault-inventory/core/apperr"
)

const (
	// KeySize is the required key length in bytes (AES-256).
	KeySize = 32
	// NonceSize is the GCM standard nonce length in bytes.
	NonceSize = 12
	// TagSize is the GCM authentication tag length in bytes.
	TagSize = 16
)

// Sealed is an encrypted payload split into its stored parts.
type Sealed struct {
	Ciphertext []byte
	Nonce      []byte
	Tag        []byte
}

// Codec encrypts and decrypts payloads with a single key.
type Codec struct {
	aead cipher.AEAD
	rand io.Reader
}

// New creates a codec from a raw 32-byte key.
func New(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, apperr.Configurationf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperr.Configurationf("invalid encryption key: %v", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, apperr.Configurationf("failed to initialise GCM: %v", err)
	}
	return &Codec{aead: aead, rand: rand.Reader}, nil
}

// NewFromString decodes a base64 or hex key and creates a codec.
func NewFromString(encoded string) (*Codec, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, apperr.Configurationf("encryption key is not configured")
	}
	key, err := DecodeKey(encoded)
	if err != nil {
		return nil, err
	}
	return New(key)
}

// DecodeKey accepts a 64-character hex string or standard base64.
func DecodeKey(encoded string) ([]byte, error) {
	if len(encoded) == hex.EncodedLen(KeySize) {
		if key, err := hex.DecodeString(encoded); err == nil {
			return key, nil
		}
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, apperr.Configurationf("encryption key is neither hex nor base64")
	}
	if len(key) != KeySize {
		return nil, apperr.Configurationf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}
	return key, nil
}

// GenerateKey returns a fresh random key encoded as base64.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to read random key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Seal encrypts plaintext under a fresh nonce.
func (c *Codec) Seal(plaintext []byte) (Sealed, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return Sealed{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := c.aead.Seal(nil, nonce, plaintext, nil)
	split := len(out) - TagSize

	return Sealed{
		Ciphertext: out[:split],
		Nonce:      nonce,
		Tag:        out[split:],
	}, nil
}

// Open authenticates and decrypts a sealed payload.
func (c *Codec) Open(s Sealed) ([]byte, error) {
	if len(s.Nonce) != NonceSize {
		return nil, apperr.Integrityf("nonce must be %d bytes, got %d", NonceSize, len(s.Nonce))
	}
	if len(s.Tag) != TagSize {
		return nil, apperr.Integrityf("tag must be %d bytes, got %d", TagSize, len(s.Tag))
	}

	buf := make([]byte, 0, len(s.Ciphertext)+TagSize)
	buf = append(buf, s.Ciphertext...)
	buf = append(buf, s.Tag...)

	plain, err := c.aead.Open(nil, s.Nonce, buf, nil)
	if err != nil {
		return nil, apperr.Integrityf("payload authentication failed")
	}
	return plain, nil
}

// Hash returns the hex SHA-256 digest of canonical payload bytes.
func Hash(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
