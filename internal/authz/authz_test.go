package authz_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/frahmantamala/rogue-contacts/internal"
	"github.com/frahmantamala/rogue-contacts/internal/authz"
	"github.com/frahmantamala/rogue-contacts/internal/observability"
	"github.com/frahmantamala/rogue-contacts/internal/permission"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAuthz(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Authorization Suite")
}

type stubResolver struct {
	perms permission.Set
	err   error
	calls int
}

func (s *stubResolver) GetEffectivePermissions(_ context.Context, _ int64, _, _ string) (permission.Set, error) {
	s.calls++
	return s.perms, s.err
}

var _ = Describe("Gate", func() {
	const (
		ownerID  int64 = 1
		callerID int64 = 2
	)

	var (
		ctx        context.Context
		userRes    *stubResolver
		orgRes     *stubResolver
		metrics    *observability.Metrics
		gate       *authz.Gate
		userTarget authz.Target
		orgTarget  authz.Target
	)

	BeforeEach(func() {
		ctx = context.Background()
		userRes = &stubResolver{perms: permission.NewSet()}
		orgRes = &stubResolver{perms: permission.NewSet()}
		metrics = observability.NewMetrics()
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1}))
		gate = authz.NewGate(userRes, orgRes, metrics, lg)

		userTarget = authz.Target{BusinessID: 10, BusinessName: "acme", OwnerKind: authz.OwnerUser, OwnerID: ownerID, OwnerName: "alice", OwnerUserID: ownerID}
		orgTarget = authz.Target{BusinessID: 11, BusinessName: "shop", OwnerKind: authz.OwnerOrganization, OwnerID: 50, OwnerName: "guild", OwnerUserID: ownerID}
	})

	It("lets the owner through without resolving permissions", func() {
		for _, action := range []authz.Action{authz.ActionView, authz.ActionManageRoles, authz.ActionDeleteBusiness} {
			Expect(gate.Check(ctx, ownerID, userTarget, action)).To(Succeed())
		}
		Expect(userRes.calls).To(BeZero())
		Expect(testutil.ToFloat64(metrics.AuthzDecisions().WithLabelValues("view", "owner"))).To(Equal(1.0))
	})

	It("hides the business from callers without any permission", func() {
		for _, action := range []authz.Action{authz.ActionView, authz.ActionManageRoles, authz.ActionDeleteBusiness} {
			err := gate.Check(ctx, callerID, userTarget, action)
			Expect(internal.IsType(err, internal.ErrorTypeNotFound)).To(BeTrue())
		}
	})

	It("hides the business when the caller can manage roles but not view", func() {
		userRes.perms = permission.NewSet(permission.BusinessManageRoles)

		err := gate.Check(ctx, callerID, userTarget, authz.ActionManageRoles)
		Expect(internal.IsType(err, internal.ErrorTypeNotFound)).To(BeTrue())
	})

	It("allows viewing with the view permission", func() {
		userRes.perms = permission.NewSet(permission.BusinessView)

		Expect(gate.Check(ctx, callerID, userTarget, authz.ActionView)).To(Succeed())
	})

	It("forbids managing roles with only the view permission", func() {
		userRes.perms = permission.NewSet(permission.BusinessView)

		err := gate.Check(ctx, callerID, userTarget, authz.ActionManageRoles)
		Expect(internal.IsType(err, internal.ErrorTypeForbidden)).To(BeTrue())
		Expect(testutil.ToFloat64(metrics.AuthzDecisions().WithLabelValues("manage_roles", "forbidden"))).To(Equal(1.0))
	})

	It("allows managing roles with both permissions", func() {
		userRes.perms = permission.NewSet(permission.BusinessView, permission.BusinessManageRoles)

		Expect(gate.Check(ctx, callerID, userTarget, authz.ActionManageRoles)).To(Succeed())
	})

	It("keeps deleting a user-owned business owner-only", func() {
		userRes.perms = permission.NewSet(permission.BusinessView, permission.BusinessManageRoles)

		err := gate.Check(ctx, callerID, userTarget, authz.ActionDeleteBusiness)
		Expect(internal.IsType(err, internal.ErrorTypeForbidden)).To(BeTrue())
	})

	It("dispatches organization-owned businesses to the organization resolver", func() {
		orgRes.perms = permission.NewSet(permission.OrganizationView, permission.OrganizationManageBusinesses)

		Expect(gate.Check(ctx, callerID, orgTarget, authz.ActionDeleteBusiness)).To(Succeed())
		Expect(orgRes.calls).To(Equal(1))
		Expect(userRes.calls).To(BeZero())
	})

	It("lets the organization owner through", func() {
		Expect(gate.Check(ctx, ownerID, orgTarget, authz.ActionManageRoles)).To(Succeed())
		Expect(orgRes.calls).To(BeZero())
	})

	It("surfaces resolver failures as internal errors", func() {
		userRes.err = errors.New("connection reset")

		err := gate.Check(ctx, callerID, userTarget, authz.ActionView)
		Expect(internal.IsType(err, internal.ErrorTypeInternal)).To(BeTrue())
	})
})

var _ = Describe("BusinessResolver", func() {
	var (
		mock     sqlmock.Sqlmock
		resolver *authz.BusinessResolver
	)

	BeforeEach(func() {
		db, m, err := sqlmock.New()
		Expect(err).NotTo(HaveOccurred())
		mock = m
		resolver = authz.NewBusinessResolver(sqlx.NewDb(db, "pgx"))
	})

	AfterEach(func() {
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	It("returns the distinct permissions of the caller's roles", func() {
		mock.ExpectQuery(`SELECT DISTINCT rp.permission_id\s+FROM user_business_roles`).
			WithArgs(int64(7), "alice", "acme").
			WillReturnRows(sqlmock.NewRows([]string{"permission_id"}).AddRow(1).AddRow(2))

		perms, err := resolver.GetEffectivePermissions(context.Background(), 7, "Alice", "acme")
		Expect(err).NotTo(HaveOccurred())
		Expect(perms.IDs()).To(Equal([]permission.ID{permission.BusinessView, permission.BusinessManageRoles}))
	})

	It("returns an empty set for callers without roles", func() {
		mock.ExpectQuery(`SELECT DISTINCT rp.permission_id`).
			WithArgs(int64(9), "alice", "acme").
			WillReturnRows(sqlmock.NewRows([]string{"permission_id"}))

		perms, err := resolver.GetEffectivePermissions(context.Background(), 9, "alice", "acme")
		Expect(err).NotTo(HaveOccurred())
		Expect(perms.Len()).To(BeZero())
	})

	It("uses postgres placeholders for the pgx driver", func() {
		mock.ExpectQuery(`b\.name = \$3`).
			WithArgs(int64(1), "alice", "acme").
			WillReturnRows(sqlmock.NewRows([]string{"permission_id"}))

		_, err := resolver.GetEffectivePermissions(context.Background(), 1, "alice", "acme")
		Expect(err).NotTo(HaveOccurred())
	})

	It("wraps query failures", func() {
		mock.ExpectQuery(`SELECT DISTINCT rp.permission_id`).WillReturnError(errors.New("boom"))

		_, err := resolver.GetEffectivePermissions(context.Background(), 1, "alice", "acme")
		Expect(err).To(MatchError(ContainSubstring("select effective permissions")))
	})
})

var _ = Describe("OrganizationResolver", func() {
	It("reads organization role permissions", func() {
		db, mock, err := sqlmock.New()
		Expect(err).NotTo(HaveOccurred())
		resolver := authz.NewOrganizationResolver(sqlx.NewDb(db, "pgx"))

		mock.ExpectQuery(`FROM user_organization_roles`).
			WithArgs(int64(3), "guild", "shop").
			WillReturnRows(sqlmock.NewRows([]string{"permission_id"}).AddRow(1).AddRow(3))

		perms, err := resolver.GetEffectivePermissions(context.Background(), 3, "guild", "shop")
		Expect(err).NotTo(HaveOccurred())
		Expect(perms.Has(permission.OrganizationManageBusinesses)).To(BeTrue())
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})
})

var _ = Describe("Locator", func() {
	var (
		mock    sqlmock.Sqlmock
		locator *authz.Locator
		columns = []string{"business_id", "business_name", "owner_kind", "owner_id", "owner_name", "owner_user_id"}
	)

	BeforeEach(func() {
		db, m, err := sqlmock.New()
		Expect(err).NotTo(HaveOccurred())
		mock = m
		locator = authz.NewLocator(sqlx.NewDb(db, "pgx"))
	})

	AfterEach(func() {
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	It("resolves the owner of an organization-owned business to the organization owner", func() {
		mock.ExpectQuery(`LEFT JOIN organizations o`).
			WithArgs("guild", "shop").
			WillReturnRows(sqlmock.NewRows(columns).AddRow(11, "shop", "organization", 50, "Guild", 1))

		target, err := locator.Locate(context.Background(), "GUILD", "shop")
		Expect(err).NotTo(HaveOccurred())
		Expect(target).To(Equal(authz.Target{
			BusinessID:   11,
			BusinessName: "shop",
			OwnerKind:    authz.OwnerOrganization,
			OwnerID:      50,
			OwnerName:    "Guild",
			OwnerUserID:  1,
		}))
	})

	It("reports a missing business as not found", func() {
		mock.ExpectQuery(`WHERE b.id = \$1`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows(columns))

		_, err := locator.LocateByID(context.Background(), 99)
		Expect(err).To(MatchError(internal.ErrBusinessNotFound))
	})
})
