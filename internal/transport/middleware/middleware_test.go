package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chiMiddleware "github.com/go-chi/chi/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Middleware Suite")
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

var _ = Describe("RecoveryMiddleware", func() {
	It("turns a panic into an internal error response", func() {
		var logs bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&logs, nil))
		h := RecoveryMiddleware(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).To(ContainSubstring(`"type":"INTERNAL_ERROR"`))
		Expect(w.Body.String()).NotTo(ContainSubstring("boom"))
		Expect(logs.String()).To(ContainSubstring("panic recovered"))
	})

	It("lets http.ErrAbortHandler through", func() {
		logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		h := RecoveryMiddleware(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(http.ErrAbortHandler)
		}))

		Expect(func() {
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		}).To(PanicWith(http.ErrAbortHandler))
	})
})

var _ = Describe("RequestID", func() {
	It("keeps an incoming request id", func() {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = chiMiddleware.GetReqID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		Expect(seen).To(Equal("req-123"))
		Expect(w.Header().Get(RequestIDHeader)).To(Equal("req-123"))
	})

	It("mints one when missing", func() {
		w := httptest.NewRecorder()
		RequestID(okHandler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(w.Header().Get(RequestIDHeader)).To(HaveLen(36))
	})
})

var _ = Describe("CORS", func() {
	preflight := func(origin string) *http.Request {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/users/login", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		return req
	}

	It("answers preflight for allowed origins", func() {
		w := httptest.NewRecorder()
		CORS("https://app.example.com, https://admin.example.com")(okHandler).ServeHTTP(w, preflight("https://admin.example.com"))

		Expect(w.Code).To(Equal(http.StatusNoContent))
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://admin.example.com"))
	})

	It("omits headers for other origins", func() {
		w := httptest.NewRecorder()
		CORS("https://app.example.com")(okHandler).ServeHTTP(w, preflight("https://evil.example.com"))

		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})

	It("accepts any origin with a wildcard", func() {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://anywhere.example.com")
		CORS("*")(okHandler).ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://anywhere.example.com"))
	})
})

var _ = Describe("SecurityHeaders", func() {
	It("sets hardening headers", func() {
		w := httptest.NewRecorder()
		SecurityHeaders(false)(okHandler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(w.Header().Get("X-Frame-Options")).To(Equal("DENY"))
		Expect(w.Header().Get("X-Content-Type-Options")).To(Equal("nosniff"))
		Expect(w.Header().Get("Referrer-Policy")).To(Equal("no-referrer"))
	})
})

var _ = Describe("RateLimitByIP", func() {
	It("rejects requests beyond the limit", func() {
		h := RateLimitByIP(2, time.Minute)(okHandler)

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/users/login", nil))
			codes = append(codes, w.Code)
		}

		Expect(codes).To(Equal([]int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}))
	})

	It("is disabled with a non-positive limit", func() {
		h := RateLimitByIP(0, time.Minute)(okHandler)
		for i := 0; i < 5; i++ {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			Expect(w.Code).To(Equal(http.StatusOK))
		}
	})
})

var _ = Describe("LoggingMiddleware", func() {
	It("masks sensitive fields in logged bodies at debug level", func() {
		var logs bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

		h := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
			Expect(body["password"]).To(Equal("correct-horse"))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"token":"abc.def.ghi"}`))
		}))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register",
			strings.NewReader(`{"username":"alice","password":"correct-horse"}`))
		req.Header.Set("Authorization", "Bearer abc.def.ghi")
		h.ServeHTTP(httptest.NewRecorder(), req)

		Expect(logs.String()).To(ContainSubstring("alice"))
		Expect(logs.String()).NotTo(ContainSubstring("correct-horse"))
		Expect(logs.String()).NotTo(ContainSubstring("abc.def.ghi"))
		Expect(logs.String()).To(ContainSubstring(`"status_code":201`))
	})

	It("skips bodies above debug level", func() {
		var logs bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&logs, nil))

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"alice"}`))
		LoggingMiddleware(logger)(okHandler).ServeHTTP(httptest.NewRecorder(), req)

		Expect(logs.String()).To(ContainSubstring("incoming request"))
		Expect(logs.String()).NotTo(ContainSubstring("alice"))
	})

	It("filters nested keys", func() {
		filtered := filterSensitiveJSON(map[string]interface{}{
			"items": []interface{}{map[string]interface{}{"api_secret": "x", "name": "y"}},
		})

		out, err := json.Marshal(filtered)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal(`{"items":[{"api_secret":"[FILTERED]","name":"y"}]}`))
	})
})
