package hashing

import (
	"crypto/sha512"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const DefaultBCryptCost = 12

// BCrypt hashes a base64 SHA-384 digest of the password so inputs longer than
// bcrypt's 72 byte limit still contribute every byte.
type BCrypt struct {
	cost int
}

func NewBCrypt(cost int) *BCrypt {
	if cost < bcrypt.MinCost {
		cost = DefaultBCryptCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &BCrypt{cost: cost}
}

func (b *BCrypt) Name() string { return "bcrypt-sha384" }

func (b *BCrypt) Cost() int { return b.cost }

func (b *BCrypt) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(plaintext), b.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (b *BCrypt) Compare(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), prehash(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// IsValidFormat accepts $2[abxy]$NN$ followed by bcrypt base64 characters,
// 59 or 60 characters in total. NN must be a cost bcrypt can compute.
func (b *BCrypt) IsValidFormat(hash string) bool {
	if len(hash) != 59 && len(hash) != 60 {
		return false
	}
	if hash[0] != '$' || hash[1] != '2' {
		return false
	}
	i := 2
	switch hash[i] {
	case 'a', 'b', 'x', 'y':
		i++
	}
	if hash[i] != '$' {
		return false
	}
	i++
	if !isDigit(hash[i]) || !isDigit(hash[i+1]) {
		return false
	}
	if cost := int(hash[i]-'0')*10 + int(hash[i+1]-'0'); cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return false
	}
	i += 2
	if hash[i] != '$' {
		return false
	}
	for i++; i < len(hash); i++ {
		if !isBCryptChar(hash[i]) {
			return false
		}
	}
	return true
}

func (b *BCrypt) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost < b.cost
}

func prehash(plaintext string) []byte {
	sum := sha512.Sum384([]byte(plaintext))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isBCryptChar(c byte) bool {
	return c == '.' || c == '/' || isDigit(c) || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
