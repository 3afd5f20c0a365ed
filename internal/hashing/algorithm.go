// Package hashing computes and verifies password hashes across several
// algorithms, upgrading hashes produced by old algorithms or weak settings.
package hashing

import "errors"

var (
	ErrUnrecognizedHashFormat = errors.New("hash function not recognized")
	ErrAmbiguousHashFormat    = errors.New("hash matched by more than one hash function")
	ErrPoolClosed             = errors.New("hashing pool is shut down")
)

// Algorithm is one password hashing scheme. Formats accepted by
// IsValidFormat must not overlap between registered algorithms.
type Algorithm interface {
	Name() string
	Hash(plaintext string) (string, error)
	Compare(plaintext, hash string) (bool, error)
	IsValidFormat(hash string) bool
	NeedsRehash(hash string) bool
}
