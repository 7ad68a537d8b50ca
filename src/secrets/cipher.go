package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Fallback passphrase used when ENCRYPTION_PASSWORD is unset. Deployments
	// without a real passphrase are misconfigured; the warning at startup is
	// the operator's signal.
	devPassphrase = "DEFAULT_ENCRYPTION_KEY_CHANGE_IN_PRODUCTION"

	saltSize   = 16
	keySize    = 32
	iterations = 210_000
)

// Cipher encrypts and decrypts stored access tokens with AES-256-GCM under a
// key derived per value from the configured passphrase. A fresh salt and nonce
// are drawn for every encryption, so equal plaintexts never produce equal
// ciphertexts.
type Cipher struct {
	passphrase []byte
}

func NewCipher(passphrase string) *Cipher {
	if passphrase == "" {
		log.Println("WARN: Encryption password not set. Using default (INSECURE - FOR DEVELOPMENT ONLY)")
		passphrase = devPassphrase
	}
	return &Cipher{passphrase: []byte(passphrase)}
}

// Encrypt returns base64(salt || nonce || ciphertext). Empty input passes
// through unchanged so optional fields stay optional.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := c.aead(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, saltSize+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. A failure here means the ciphertext was tampered
// with or the passphrase changed; it is never ignored.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}
	if len(data) < saltSize {
		return "", errors.New("ciphertext too short")
	}

	salt := data[:saltSize]
	gcm, err := c.aead(salt)
	if err != nil {
		return "", err
	}

	rest := data[saltSize:]
	if len(rest) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}
	return string(plaintext), nil
}

func (c *Cipher) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(c.passphrase, salt, iterations, keySize, sha512.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
