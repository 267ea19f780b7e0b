package security

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/blowfish"
)

// DigestLength is the number of leading characters of the bcrypt output
// that are stored and compared.
const DigestLength = 36

const (
	bcryptAlphabet  = "./ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	encodedSaltSize = 22
	maxKeySize      = 72
	minCost         = 4
	maxCost         = 31
)

var (
	bcEncoding      = base64.NewEncoding(bcryptAlphabet)
	magicCipherData = []byte("OrpheanBeholderScryDoubt")

	ErrMalformedSalt = errors.New("malformed bcrypt salt")
)

// PasswordHasher produces bcrypt digests under a single fixed salt and keeps
// only the first DigestLength characters.
type PasswordHasher struct {
	version string
	cost    int
	salt    []byte
}

// NewPasswordHasher parses a bcrypt salt string such as "$2a$10$" followed by
// 22 characters of bcrypt base64.
func NewPasswordHasher(salt string) (*PasswordHasher, error) {
	parts := strings.Split(salt, "$")
	if len(parts) != 4 || parts[0] != "" {
		return nil, ErrMalformedSalt
	}

	version := parts[1]
	switch version {
	case "2a", "2b", "2y":
	default:
		return nil, fmt.Errorf("%w: unsupported version %q", ErrMalformedSalt, version)
	}

	if len(parts[2]) != 2 {
		return nil, fmt.Errorf("%w: cost must have two digits", ErrMalformedSalt)
	}
	cost, err := strconv.Atoi(parts[2])
	if err != nil || cost < minCost || cost > maxCost {
		return nil, fmt.Errorf("%w: invalid cost %q", ErrMalformedSalt, parts[2])
	}

	if len(parts[3]) < encodedSaltSize {
		return nil, fmt.Errorf("%w: salt too short", ErrMalformedSalt)
	}
	decoded, err := base64Decode(parts[3][:encodedSaltSize])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSalt, err)
	}

	return &PasswordHasher{
		version: version,
		cost:    cost,
		salt:    decoded,
	}, nil
}

// Hash returns the truncated digest of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	full, err := h.fullHash([]byte(password))
	if err != nil {
		return "", err
	}
	return full[:DigestLength], nil
}

// Verify recomputes the digest of password and compares it with digest.
func (h *PasswordHasher) Verify(password, digest string) bool {
	computed, err := h.Hash(password)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}

func (h *PasswordHasher) fullHash(password []byte) (string, error) {
	if len(password) > maxKeySize {
		password = password[:maxKeySize]
	}
	// The trailing NUL takes part in key expansion, as in the C implementation.
	ckey := make([]byte, len(password)+1)
	copy(ckey, password)

	c, err := blowfish.NewSaltedCipher(ckey, h.salt)
	if err != nil {
		return "", err
	}
	rounds := uint64(1) << uint(h.cost)
	for i := uint64(0); i < rounds; i++ {
		blowfish.ExpandKey(ckey, c)
		blowfish.ExpandKey(h.salt, c)
	}

	cipherData := make([]byte, len(magicCipherData))
	copy(cipherData, magicCipherData)
	for i := 0; i < len(cipherData); i += 8 {
		for j := 0; j < 64; j++ {
			c.Encrypt(cipherData[i:i+8], cipherData[i:i+8])
		}
	}

	var b strings.Builder
	b.WriteString("$")
	b.WriteString(h.version)
	b.WriteString("$")
	fmt.Fprintf(&b, "%02d", h.cost)
	b.WriteString("$")
	b.WriteString(base64Encode(h.salt))
	// Only 23 of the 24 encrypted bytes are encoded.
	b.WriteString(base64Encode(cipherData[:23]))
	return b.String(), nil
}

func base64Encode(src []byte) string {
	return strings.TrimRight(bcEncoding.EncodeToString(src), "=")
}

func base64Decode(src string) ([]byte, error) {
	if rem := len(src) % 4; rem > 0 {
		src += strings.Repeat("=", 4-rem)
	}
	return bcEncoding.DecodeString(src)
}
