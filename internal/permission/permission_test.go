package permission_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frahmantamala/rogue-contacts/internal"
	"github.com/frahmantamala/rogue-contacts/internal/permission"
	"github.com/frahmantamala/rogue-contacts/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPermission(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Permission Catalog Suite")
}

var _ = Describe("Catalog", func() {
	Describe("All", func() {
		It("lists business permissions ordered by id", func() {
			Expect(permission.All(permission.KindBusiness)).To(Equal([]permission.Permission{
				{ID: 1, Name: "ViewBusiness"},
				{ID: 2, Name: "ManageRoles"},
			}))
		})

		It("lists organization permissions ordered by id", func() {
			Expect(permission.All(permission.KindOrganization)).To(Equal([]permission.Permission{
				{ID: 1, Name: "ViewOrganization"},
				{ID: 2, Name: "ManageRoles"},
				{ID: 3, Name: "ManageBusinesses"},
			}))
		})

		It("returns a copy the caller cannot use to mutate the catalog", func() {
			perms := permission.All(permission.KindBusiness)
			perms[0].Name = "Hacked"

			Expect(permission.All(permission.KindBusiness)[0].Name).To(Equal("ViewBusiness"))
		})
	})

	Describe("Parse", func() {
		It("matches the exact name", func() {
			p, err := permission.Parse(permission.KindBusiness, "ManageRoles")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.ID).To(Equal(permission.BusinessManageRoles))
		})

		It("is case-sensitive", func() {
			_, err := permission.Parse(permission.KindBusiness, "manageroles")
			Expect(err).To(MatchError(permission.ErrInvalidPermissionName))
		})

		It("rejects names from another kind", func() {
			_, err := permission.Parse(permission.KindBusiness, "ManageBusinesses")
			Expect(err).To(MatchError(permission.ErrInvalidPermissionName))
		})
	})

	Describe("ParseAll", func() {
		It("de-duplicates valid names and reports every invalid one", func() {
			set, invalid := permission.ParseAll(permission.KindBusiness, []string{"ViewBusiness", "Fly", "ViewBusiness", "Swim"})

			Expect(set.IDs()).To(Equal([]permission.ID{permission.BusinessView}))
			Expect(invalid).To(Equal([]string{"Fly", "Swim"}))
		})
	})

	Describe("ParseNames", func() {
		It("aggregates invalid names into one validation error", func() {
			_, err := permission.ParseNames(permission.KindBusiness, "permissions", []string{"Fly", "ManageRoles", "Swim"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			Expect(appErr.FieldErrors()).To(HaveLen(2))
			Expect(appErr.FieldErrors()[0].Message).To(ContainSubstring("Fly"))
			Expect(appErr.FieldErrors()[1].Message).To(ContainSubstring("Swim"))
		})

		It("returns the set when every name is valid", func() {
			set, err := permission.ParseNames(permission.KindBusiness, "permissions", []string{"ManageRoles", "ViewBusiness"})
			Expect(err).NotTo(HaveOccurred())
			Expect(set.Names(permission.KindBusiness)).To(Equal([]string{"ViewBusiness", "ManageRoles"}))
		})
	})

	Describe("Set", func() {
		It("compares as a set", func() {
			Expect(permission.NewSet(2, 1, 1).Equal(permission.NewSet(1, 2))).To(BeTrue())
			Expect(permission.NewSet(1).Equal(permission.NewSet(1, 2))).To(BeFalse())
		})
	})
})

var _ = Describe("Handler", func() {
	var router *chi.Mux

	BeforeEach(func() {
		h := permission.NewHandler(transport.NewBaseHandler(nil))
		router = chi.NewRouter()
		router.Get("/permissions/{kind}", h.List)
	})

	It("lists the catalog for a known kind", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/permissions/organization", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		var perms []permission.Permission
		Expect(json.NewDecoder(w.Body).Decode(&perms)).To(Succeed())
		Expect(perms).To(HaveLen(3))
	})

	It("returns 404 for an unknown kind", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/permissions/planet", nil))

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
