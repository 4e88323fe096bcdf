package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/sys/atomicwriter"
)

const (
	encPrefix    = "enc:"
	SecretKeyEnv = EnvPrefix + "_SECRET_KEY"
)

// SecretKey encrypts config secrets (API keys, signer ids) with AES-256-GCM so
// they can sit in config.yaml as enc: values.
type SecretKey struct {
	key []byte
}

// NewSecretKey derives the key from OPENCLAW_SECRET_KEY, or loads it from
// keyPath, generating and persisting a random key on first use. An empty
// keyPath means ~/.openclaw/secret.key.
func NewSecretKey(keyPath string) (*SecretKey, error) {
	if raw := os.Getenv(SecretKeyEnv); raw != "" {
		h := sha256.Sum256([]byte(raw))
		return &SecretKey{key: h[:]}, nil
	}

	if keyPath == "" {
		keyPath = DefaultKeyPath()
	}
	if data, err := os.ReadFile(keyPath); err == nil && len(data) >= 32 {
		return &SecretKey{key: data[:32]}, nil
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate secret key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(keyPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := atomicwriter.WriteFile(keyPath, key, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write secret key: %w", err)
	}
	return &SecretKey{key: key}, nil
}

func DefaultKeyPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.TempDir()
	}
	return filepath.Join(home, ".openclaw", "secret.key")
}

func (s *SecretKey) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return gcm, nil
}

// Encrypt returns "enc:" + base64(nonce || ciphertext). Empty input stays empty.
func (s *SecretKey) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	gcm, err := s.aead()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return encPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Values without the enc: prefix pass through, so
// plain secrets in env vars keep working.
func (s *SecretKey) Decrypt(value string) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, encPrefix))
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}
	gcm, err := s.aead()
	if err != nil {
		return "", err
	}
	if len(data) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, sealed := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plain), nil
}

// Reveal decrypts each value in place.
func (s *SecretKey) Reveal(values ...*string) error {
	for _, v := range values {
		if v == nil || !IsEncrypted(*v) {
			continue
		}
		plain, err := s.Decrypt(*v)
		if err != nil {
			return err
		}
		*v = plain
	}
	return nil
}

func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, encPrefix)
}

// MaskSecret returns a version safe for logs: "****abcd".
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
