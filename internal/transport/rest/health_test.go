package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frahmantamala/rogue-contacts/internal/transport/rest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Rest Suite")
}

var _ = Describe("HealthHandler", func() {
	healthy := func(context.Context) error { return nil }

	check := func(h *rest.HealthHandler) (int, rest.HealthResponse) {
		w := httptest.NewRecorder()
		h.Health(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

		var resp rest.HealthResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		return w.Code, resp
	}

	It("reports healthy when every check passes", func() {
		code, resp := check(rest.NewHealthHandler(map[string]rest.CheckFunc{
			"postgres": healthy,
			"redis":    healthy,
		}))

		Expect(code).To(Equal(http.StatusOK))
		Expect(resp.Status).To(Equal(rest.HealthHealthy))
		Expect(resp.Components).To(HaveLen(2))
	})

	It("returns 503 and names the failing component", func() {
		code, resp := check(rest.NewHealthHandler(map[string]rest.CheckFunc{
			"postgres": healthy,
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		}))

		Expect(code).To(Equal(http.StatusServiceUnavailable))
		Expect(resp.Status).To(Equal(rest.HealthUnhealthy))
		Expect(resp.Components["postgres"].Status).To(Equal(rest.HealthHealthy))
		Expect(resp.Components["redis"].Message).To(Equal("connection refused"))
	})

	It("answers ping without running checks", func() {
		called := false
		h := rest.NewHealthHandler(map[string]rest.CheckFunc{
			"postgres": func(context.Context) error { called = true; return nil },
		})

		w := httptest.NewRecorder()
		h.Ping(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"OK"`))
		Expect(called).To(BeFalse())
	})
})
