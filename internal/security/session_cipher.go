package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

var ErrInvalidToken = errors.New("invalid session token")

// SessionCipher encrypts session identifiers for transport to the client.
// Tokens are AES-256-CBC ciphertexts in lowercase hex. With a fixed IV the
// same identifier always encrypts to the same token.
type SessionCipher struct {
	block    cipher.Block
	randomIV bool
}

// NewSessionCipher derives the AES key by hashing secret with SHA-256.
// When randomIV is set, every token carries its own IV as a prefix.
func NewSessionCipher(secret string, randomIV bool) (*SessionCipher, error) {
	if secret == "" {
		return nil, errors.New("session cipher: empty secret")
	}
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("session cipher: %w", err)
	}
	return &SessionCipher{block: block, randomIV: randomIV}, nil
}

// Encrypt returns the hex token for plaintext.
func (s *SessionCipher) Encrypt(plaintext string) (string, error) {
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)

	iv := make([]byte, aes.BlockSize)
	if s.randomIV {
		if _, err := rand.Read(iv); err != nil {
			return "", fmt.Errorf("session cipher: %w", err)
		}
	}

	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(s.block, iv).CryptBlocks(out, padded)

	if s.randomIV {
		out = append(iv, out...)
	}
	return hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Any malformed token yields ErrInvalidToken.
func (s *SessionCipher) Decrypt(token string) (string, error) {
	data, err := hex.DecodeString(token)
	if err != nil {
		return "", ErrInvalidToken
	}

	iv := make([]byte, aes.BlockSize)
	if s.randomIV {
		if len(data) < aes.BlockSize {
			return "", ErrInvalidToken
		}
		copy(iv, data[:aes.BlockSize])
		data = data[aes.BlockSize:]
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return "", ErrInvalidToken
	}

	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(s.block, iv).CryptBlocks(out, data)

	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return "", ErrInvalidToken
	}
	return string(plain), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty data")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("bad padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("bad padding")
		}
	}
	return data[:len(data)-n], nil
}
