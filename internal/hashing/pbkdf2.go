package hashing

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Prefix     = "$pbkdf2-sha256$"
	pbkdf2SaltLength = 16
	pbkdf2KeyLength  = 32

	DefaultPBKDF2Iterations = 210000
)

// PBKDF2 is the legacy scheme, encoded as
// $pbkdf2-sha256$i=<iterations>$<salt>$<key> with unpadded base64.
type PBKDF2 struct {
	iterations int
}

func NewPBKDF2(iterations int) *PBKDF2 {
	if iterations <= 0 {
		iterations = DefaultPBKDF2Iterations
	}
	return &PBKDF2{iterations: iterations}
}

func (p *PBKDF2) Name() string { return "pbkdf2-sha256" }

func (p *PBKDF2) Hash(plaintext string) (string, error) {
	salt := make([]byte, pbkdf2SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(plaintext), salt, p.iterations, pbkdf2KeyLength, sha256.New)
	return fmt.Sprintf("%si=%d$%s$%s", pbkdf2Prefix, p.iterations,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

func (p *PBKDF2) Compare(plaintext, hash string) (bool, error) {
	iterations, salt, key, err := parsePBKDF2(hash)
	if err != nil {
		return false, err
	}
	candidate := pbkdf2.Key([]byte(plaintext), salt, iterations, len(key), sha256.New)
	return subtle.ConstantTimeCompare(candidate, key) == 1, nil
}

func (p *PBKDF2) IsValidFormat(hash string) bool {
	_, _, _, err := parsePBKDF2(hash)
	return err == nil
}

func (p *PBKDF2) NeedsRehash(hash string) bool {
	iterations, _, _, err := parsePBKDF2(hash)
	return err != nil || iterations < p.iterations
}

func parsePBKDF2(hash string) (int, []byte, []byte, error) {
	if !strings.HasPrefix(hash, pbkdf2Prefix) {
		return 0, nil, nil, ErrUnrecognizedHashFormat
	}
	parts := strings.Split(strings.TrimPrefix(hash, pbkdf2Prefix), "$")
	if len(parts) != 3 || !strings.HasPrefix(parts[0], "i=") {
		return 0, nil, nil, ErrUnrecognizedHashFormat
	}
	iterations, err := strconv.Atoi(strings.TrimPrefix(parts[0], "i="))
	if err != nil || iterations <= 0 {
		return 0, nil, nil, ErrUnrecognizedHashFormat
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil || len(salt) == 0 {
		return 0, nil, nil, ErrUnrecognizedHashFormat
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil || len(key) == 0 {
		return 0, nil, nil, ErrUnrecognizedHashFormat
	}
	return iterations, salt, key, nil
}
