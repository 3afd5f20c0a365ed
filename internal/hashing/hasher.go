package hashing

import (
	"context"
	"fmt"
)

// Result is the outcome of Verify. Rehash is set only on a match whose
// stored hash should be replaced; persisting it is the caller's job.
type Result struct {
	Match  bool
	Rehash string
}

type Hasher struct {
	current    Algorithm
	algorithms []Algorithm
	pool       *Pool
}

// NewHasher builds a hasher that writes with current and can still verify
// any of legacy. A nil pool runs hashing on the calling goroutine.
func NewHasher(current Algorithm, pool *Pool, legacy ...Algorithm) *Hasher {
	algorithms := make([]Algorithm, 0, len(legacy)+1)
	algorithms = append(algorithms, current)
	algorithms = append(algorithms, legacy...)
	return &Hasher{current: current, algorithms: algorithms, pool: pool}
}

func (h *Hasher) Current() Algorithm {
	return h.current
}

func (h *Hasher) ComputeHash(ctx context.Context, plaintext string) (string, error) {
	var hash string
	err := h.run(ctx, func() error {
		var err error
		hash, err = h.current.Hash(plaintext)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("compute hash: %w", err)
	}
	return hash, nil
}

func (h *Hasher) Verify(ctx context.Context, plaintext, hash string) (Result, error) {
	alg, err := h.detect(hash)
	if err != nil {
		return Result{}, err
	}

	var res Result
	err = h.run(ctx, func() error {
		match, err := alg.Compare(plaintext, hash)
		if err != nil || !match {
			return err
		}
		res.Match = true
		if alg != h.current || alg.NeedsRehash(hash) {
			res.Rehash, err = h.current.Hash(plaintext)
		}
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("verify %s hash: %w", alg.Name(), err)
	}
	return res, nil
}

// detect returns the single algorithm that recognises hash.
func (h *Hasher) detect(hash string) (Algorithm, error) {
	var found Algorithm
	for _, alg := range h.algorithms {
		if !alg.IsValidFormat(hash) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %s and %s", ErrAmbiguousHashFormat, found.Name(), alg.Name())
		}
		found = alg
	}
	if found == nil {
		return nil, ErrUnrecognizedHashFormat
	}
	return found, nil
}

func (h *Hasher) run(ctx context.Context, fn func() error) error {
	if h.pool == nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn()
	}
	return h.pool.Do(ctx, fn)
}
