package hashing_test

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/frahmantamala/rogue-contacts/internal/hashing"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func TestHashing(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Hashing Suite")
}

const testCost = bcrypt.MinCost + 1

var _ = Describe("BCrypt", func() {
	alg := hashing.NewBCrypt(testCost)

	DescribeTable("IsValidFormat",
		func(hash string, valid bool) {
			Expect(alg.IsValidFormat(hash)).To(Equal(valid))
		},
		Entry("2a", "$2a$10$"+strings.Repeat("a", 53), true),
		Entry("2b", "$2b$12$"+strings.Repeat("./Zz09", 8)+"abcde", true),
		Entry("2y", "$2y$04$"+strings.Repeat("A", 53), true),
		Entry("bare 2", "$2$10$"+strings.Repeat("a", 53), true),
		Entry("unknown version", "$2c$10$"+strings.Repeat("a", 53), false),
		Entry("single digit cost", "$2a$1$"+strings.Repeat("a", 53), false),
		Entry("lowest cost", "$2a$04$"+strings.Repeat("a", 53), true),
		Entry("highest cost", "$2a$31$"+strings.Repeat("a", 53), true),
		Entry("cost below minimum", "$2a$03$"+strings.Repeat("a", 53), false),
		Entry("cost above maximum", "$2a$32$"+strings.Repeat("a", 53), false),
		Entry("cost 99", "$2a$99$"+strings.Repeat("a", 53), false),
		Entry("invalid character", "$2a$10$"+strings.Repeat("a", 52)+"!", false),
		Entry("too short", "$2a$10$abc", false),
		Entry("too long", "$2a$10$"+strings.Repeat("a", 54), false),
		Entry("empty", "", false),
	)

	It("round-trips a password", func() {
		hash, err := alg.Hash("correct horse")
		Expect(err).NotTo(HaveOccurred())
		Expect(alg.IsValidFormat(hash)).To(BeTrue())

		ok, err := alg.Compare("correct horse", hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		ok, err = alg.Compare("wrong horse", hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("distinguishes passwords that only differ after 72 bytes", func() {
		base := strings.Repeat("x", 80)
		hash, err := alg.Hash(base + "1")
		Expect(err).NotTo(HaveOccurred())

		ok, err := alg.Compare(base+"2", hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("asks for a rehash when the stored cost is below the target", func() {
		weak := hashing.NewBCrypt(bcrypt.MinCost)
		hash, err := weak.Hash("secret")
		Expect(err).NotTo(HaveOccurred())

		Expect(alg.NeedsRehash(hash)).To(BeTrue())
		Expect(weak.NeedsRehash(hash)).To(BeFalse())
	})
})

var _ = Describe("PBKDF2", func() {
	alg := hashing.NewPBKDF2(1000)

	It("round-trips a password", func() {
		hash, err := alg.Hash("secret")
		Expect(err).NotTo(HaveOccurred())
		Expect(hash).To(HavePrefix("$pbkdf2-sha256$i=1000$"))
		Expect(alg.IsValidFormat(hash)).To(BeTrue())

		ok, err := alg.Compare("secret", hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("rejects malformed encodings", func() {
		Expect(alg.IsValidFormat("$pbkdf2-sha256$i=x$abc$def")).To(BeFalse())
		Expect(alg.IsValidFormat("$pbkdf2-sha256$i=10$abc")).To(BeFalse())
	})
})

var _ = Describe("Hasher", func() {
	var (
		ctx     context.Context
		current *hashing.BCrypt
		legacy  *hashing.PBKDF2
		pool    *hashing.Pool
		hasher  *hashing.Hasher
	)

	BeforeEach(func() {
		ctx = context.Background()
		current = hashing.NewBCrypt(testCost)
		legacy = hashing.NewPBKDF2(1000)
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		pool = hashing.NewPool(hashing.PoolConfig{MaxWorkers: 2, JobQueueSize: 4}, lg)
		hasher = hashing.NewHasher(current, pool, legacy)
	})

	AfterEach(func() {
		pool.Shutdown()
	})

	It("never lets two algorithms claim the same hash", func() {
		bHash, err := current.Hash("p")
		Expect(err).NotTo(HaveOccurred())
		pHash, err := legacy.Hash("p")
		Expect(err).NotTo(HaveOccurred())

		Expect(legacy.IsValidFormat(bHash)).To(BeFalse())
		Expect(current.IsValidFormat(pHash)).To(BeFalse())
	})

	It("computes hashes with the current algorithm", func() {
		hash, err := hasher.ComputeHash(ctx, "secret")
		Expect(err).NotTo(HaveOccurred())
		Expect(current.IsValidFormat(hash)).To(BeTrue())
	})

	It("matches a current hash without asking for a rehash", func() {
		hash, err := hasher.ComputeHash(ctx, "secret")
		Expect(err).NotTo(HaveOccurred())

		res, err := hasher.Verify(ctx, "secret", hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Match).To(BeTrue())
		Expect(res.Rehash).To(BeEmpty())
	})

	It("reports a mismatch without a rehash", func() {
		hash, err := hasher.ComputeHash(ctx, "secret")
		Expect(err).NotTo(HaveOccurred())

		res, err := hasher.Verify(ctx, "guess", hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(hashing.Result{}))
	})

	It("upgrades a legacy hash on match", func() {
		old, err := legacy.Hash("secret")
		Expect(err).NotTo(HaveOccurred())

		res, err := hasher.Verify(ctx, "secret", old)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Match).To(BeTrue())
		Expect(current.IsValidFormat(res.Rehash)).To(BeTrue())

		again, err := hasher.Verify(ctx, "secret", res.Rehash)
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Match).To(BeTrue())
		Expect(again.Rehash).To(BeEmpty())
	})

	It("upgrades a current-algorithm hash with a weak cost", func() {
		weak, err := hashing.NewBCrypt(bcrypt.MinCost).Hash("secret")
		Expect(err).NotTo(HaveOccurred())

		res, err := hasher.Verify(ctx, "secret", weak)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Match).To(BeTrue())
		Expect(res.Rehash).NotTo(BeEmpty())
		Expect(current.NeedsRehash(res.Rehash)).To(BeFalse())
	})

	It("fails on a hash no algorithm recognises", func() {
		_, err := hasher.Verify(ctx, "secret", "plaintext-password")
		Expect(err).To(MatchError(hashing.ErrUnrecognizedHashFormat))
	})

	It("does not claim a bcrypt hash whose cost cannot be computed", func() {
		_, err := hasher.Verify(ctx, "secret", "$2b$99$"+strings.Repeat("a", 53))
		Expect(err).To(MatchError(hashing.ErrUnrecognizedHashFormat))
	})

	It("fails when two algorithms claim the hash", func() {
		dup := hashing.NewHasher(current, nil, hashing.NewBCrypt(testCost))
		hash, err := current.Hash("secret")
		Expect(err).NotTo(HaveOccurred())

		_, err = dup.Verify(ctx, "secret", hash)
		Expect(err).To(MatchError(hashing.ErrAmbiguousHashFormat))
	})

	It("stops waiting when the caller's context is cancelled", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := hasher.ComputeHash(cancelled, "secret")
		Expect(err).To(MatchError(context.Canceled))
	})

	It("rejects work after shutdown", func() {
		pool.Shutdown()
		err := pool.Do(ctx, func() error { return nil })
		Expect(err).To(MatchError(hashing.ErrPoolClosed))
	})
})
