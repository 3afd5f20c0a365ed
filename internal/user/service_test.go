package user_test

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/frahmantamala/rogue-contacts/internal"
	"github.com/frahmantamala/rogue-contacts/internal/auth"
	"github.com/frahmantamala/rogue-contacts/internal/core/datamodel/datamodeltest"
	userDatamodel "github.com/frahmantamala/rogue-contacts/internal/core/datamodel/user"
	"github.com/frahmantamala/rogue-contacts/internal/core/events"
	"github.com/frahmantamala/rogue-contacts/internal/hashing"
	"github.com/frahmantamala/rogue-contacts/internal/observability"
	"github.com/frahmantamala/rogue-contacts/internal/user"
	userPostgres "github.com/frahmantamala/rogue-contacts/internal/user/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Suite")
}

var quietLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1}))

const testSecret = "test-secret-that-is-long-enough-for-hs256"

func conflictFields(err error) []string {
	appErr, ok := internal.IsAppError(err)
	Expect(ok).To(BeTrue())
	out := make([]string, 0)
	for _, fe := range appErr.FieldErrors() {
		out = append(out, fe.Field)
	}
	return out
}

var _ = Describe("User service", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		fx      datamodeltest.Fixtures
		legacy  *hashing.PBKDF2
		weak    *hashing.BCrypt
		metrics *observability.Metrics
		tokens  *auth.JWTTokenGenerator
		service *user.Service
	)

	storedHash := func(id int64) string {
		var row userDatamodel.User
		Expect(db.Where("id = ?", id).Take(&row).Error).To(Succeed())
		return row.PasswordHash
	}

	BeforeEach(func() {
		ctx = context.Background()
		db, _ = datamodeltest.Open()
		fx = datamodeltest.Fixtures{DB: db}

		legacy = hashing.NewPBKDF2(1000)
		weak = hashing.NewBCrypt(4)
		hasher := hashing.NewHasher(hashing.NewBCrypt(5), nil, legacy)
		metrics = observability.NewMetrics()
		tokens = auth.NewJWTTokenGenerator(testSecret, 0)
		issuer := auth.NewService(tokens, auth.NewMemoryRevocationStore(), quietLogger)

		service = user.NewService(userPostgres.NewUserRepository(db), hasher, issuer, events.NewEventBus(quietLogger), metrics, quietLogger)
	})

	register := func(username, email string) (*user.AuthResponse, error) {
		return service.Register(ctx, user.RegisterDTO{
			Username:    username,
			DisplayName: "Alice A.",
			Email:       email,
			Password:    "correct-horse",
		})
	}

	Describe("Register", func() {
		It("stores the user and issues a token for the new id", func() {
			resp, err := register("Alice", "Alice@Example.com")
			Expect(err).NotTo(HaveOccurred())

			Expect(resp.User.Username).To(Equal("Alice"))
			Expect(resp.User.Email).To(Equal("Alice@Example.com"))
			claims, err := tokens.ValidateToken(resp.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal(resp.User.ID))
			Expect(claims.TokenType).To(Equal(auth.TokenTypeAccess))

			refresh, err := tokens.ValidateToken(resp.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(refresh.UserID).To(Equal(resp.User.ID))
			Expect(refresh.TokenType).To(Equal(auth.TokenTypeRefresh))
			Expect(storedHash(resp.User.ID)).To(HavePrefix("$2a$05$"))
		})

		It("treats usernames case-insensitively for uniqueness", func() {
			_, err := register("alice", "alice@example.com")
			Expect(err).NotTo(HaveOccurred())

			_, err = register("Alice", "other@example.com")
			Expect(internal.IsType(err, internal.ErrorTypeConflict)).To(BeTrue())
			Expect(conflictFields(err)).To(ConsistOf("username"))
		})

		It("reports username and email conflicts together", func() {
			_, err := register("alice", "alice@example.com")
			Expect(err).NotTo(HaveOccurred())

			_, err = register("ALICE", "ALICE@example.com")
			Expect(conflictFields(err)).To(ConsistOf("username", "email"))
		})

		It("rejects a username held by an organization", func() {
			fx.Organization("guild", fx.User("owner"))

			_, err := register("Guild", "g@example.com")
			Expect(conflictFields(err)).To(ConsistOf("username"))
		})

		It("aggregates validation failures", func() {
			_, err := service.Register(ctx, user.RegisterDTO{Username: "bad name", Email: "nope", Password: "short"})
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
			Expect(conflictFields(err)).To(ConsistOf("username", "email", "password"))
		})
	})

	Describe("Login", func() {
		BeforeEach(func() {
			_, err := register("alice", "alice@example.com")
			Expect(err).NotTo(HaveOccurred())
		})

		It("accepts the username in any case", func() {
			resp, err := service.Login(ctx, user.LoginDTO{UsernameOrEmail: "ALICE", Password: "correct-horse"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.User.Username).To(Equal("alice"))
			Expect(testutil.ToFloat64(metrics.Logins().WithLabelValues("success"))).To(Equal(1.0))
		})

		It("accepts the email address", func() {
			_, err := service.Login(ctx, user.LoginDTO{UsernameOrEmail: "Alice@Example.com", Password: "correct-horse"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports an unknown account on the identifier field", func() {
			_, err := service.Login(ctx, user.LoginDTO{UsernameOrEmail: "nobody", Password: "correct-horse"})

			Expect(internal.IsType(err, internal.ErrorTypeUnauthorized)).To(BeTrue())
			Expect(conflictFields(err)).To(ConsistOf("username_or_email"))
		})

		It("reports a wrong password on the password field", func() {
			_, err := service.Login(ctx, user.LoginDTO{UsernameOrEmail: "alice", Password: "wrong-horse"})

			Expect(internal.IsType(err, internal.ErrorTypeUnauthorized)).To(BeTrue())
			Expect(conflictFields(err)).To(ConsistOf("password"))
			Expect(testutil.ToFloat64(metrics.Logins().WithLabelValues("incorrect_password"))).To(Equal(1.0))
		})

		It("requires both fields", func() {
			_, err := service.Login(ctx, user.LoginDTO{})
			Expect(conflictFields(err)).To(ConsistOf("username_or_email", "password"))
		})
	})

	Describe("rehash on login", func() {
		It("upgrades a legacy hash to the current algorithm", func() {
			old, err := legacy.Hash("legacy-secret")
			Expect(err).NotTo(HaveOccurred())
			id := fx.UserWithHash("bob", old)

			_, err = service.Login(ctx, user.LoginDTO{UsernameOrEmail: "bob", Password: "legacy-secret"})
			Expect(err).NotTo(HaveOccurred())

			upgraded := storedHash(id)
			Expect(upgraded).NotTo(Equal(old))
			Expect(upgraded).To(HavePrefix("$2a$05$"))
			Expect(testutil.ToFloat64(metrics.PasswordRehashes())).To(Equal(1.0))

			_, err = service.Login(ctx, user.LoginDTO{UsernameOrEmail: "bob", Password: "legacy-secret"})
			Expect(err).NotTo(HaveOccurred())
			Expect(storedHash(id)).To(Equal(upgraded))
		})

		It("upgrades a bcrypt hash below the configured cost", func() {
			old, err := weak.Hash("weak-secret")
			Expect(err).NotTo(HaveOccurred())
			id := fx.UserWithHash("carol", old)

			_, err = service.Login(ctx, user.LoginDTO{UsernameOrEmail: "carol", Password: "weak-secret"})
			Expect(err).NotTo(HaveOccurred())
			Expect(storedHash(id)).To(HavePrefix("$2a$05$"))
		})

		It("refuses a stored bcrypt hash with an out-of-range cost without failing", func() {
			corrupt := "$2a$99$" + strings.Repeat("a", 53)
			id := fx.UserWithHash("erin", corrupt)

			_, err := service.Login(ctx, user.LoginDTO{UsernameOrEmail: "erin", Password: "whatever-1"})

			Expect(internal.IsType(err, internal.ErrorTypeUnauthorized)).To(BeTrue())
			Expect(conflictFields(err)).To(ConsistOf("password"))
			Expect(testutil.ToFloat64(metrics.Logins().WithLabelValues("unusable_hash"))).To(Equal(1.0))
			Expect(storedHash(id)).To(Equal(corrupt))
		})

		It("leaves the stored hash alone on a wrong password", func() {
			old, err := legacy.Hash("legacy-secret")
			Expect(err).NotTo(HaveOccurred())
			id := fx.UserWithHash("dave", old)

			_, err = service.Login(ctx, user.LoginDTO{UsernameOrEmail: "dave", Password: "nope-nope"})
			Expect(err).To(HaveOccurred())
			Expect(storedHash(id)).To(Equal(old))
		})
	})

	Describe("GetByID", func() {
		It("returns the current user", func() {
			resp, err := register("alice", "alice@example.com")
			Expect(err).NotTo(HaveOccurred())

			got, err := service.GetByID(ctx, resp.User.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Email).To(Equal("alice@example.com"))
		})

		It("reports a missing user", func() {
			_, err := service.GetByID(ctx, 999)
			Expect(internal.IsType(err, internal.ErrorTypeNotFound)).To(BeTrue())
		})
	})
})
