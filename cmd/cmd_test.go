package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cmd Suite")
}

var _ = Describe("loadConfig", func() {
	var dir string

	writeConfig := func(body string) {
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600)).To(Succeed())
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		GinkgoT().Setenv("APP_ENV", "")
		GinkgoT().Setenv("DOCKER_ENV", "")
	})

	It("fills unset values with defaults", func() {
		writeConfig(`
database:
  source: postgres://localhost/rogue
security:
  jwt_secret: 0123456789abcdef0123456789abcdef
`)

		cfg, err := loadConfig(dir)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Port).To(Equal(8080))
		Expect(cfg.Security.TokenTTL).To(Equal(168 * time.Hour))
		Expect(cfg.Security.RefreshTTL).To(Equal(720 * time.Hour))
		Expect(cfg.Security.BCryptCost).To(Equal(12))
		Expect(cfg.RateLimit.Window).To(Equal(time.Minute))
		Expect(cfg.Observability.Metrics.Path).To(Equal("/metrics"))
		Expect(cfg.IsProduction()).To(BeFalse())
	})

	It("lets ENV_ variables override the file", func() {
		writeConfig(`
database:
  source: postgres://localhost/rogue
security:
  jwt_secret: 0123456789abcdef0123456789abcdef
`)
		GinkgoT().Setenv("ENV_HTTP_SERVER_PORT", "9090")

		cfg, err := loadConfig(dir)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Port).To(Equal(9090))
	})

	It("rejects a short jwt secret", func() {
		writeConfig(`
database:
  source: postgres://localhost/rogue
security:
  jwt_secret: short
`)

		_, err := loadConfig(dir)

		Expect(err).To(MatchError(ContainSubstring("jwt_secret")))
	})

	It("reads ROGUE_ variables in docker mode", func() {
		GinkgoT().Setenv("DOCKER_ENV", "true")
		GinkgoT().Setenv("ROGUE_DATABASE_SOURCE", "postgres://db/rogue")
		GinkgoT().Setenv("ROGUE_SECURITY_JWT_SECRET", "0123456789abcdef0123456789abcdef")

		cfg, err := loadConfig(dir)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Database.Source).To(Equal("postgres://db/rogue"))
		Expect(cfg.Security.TokenTTL).To(Equal(168 * time.Hour))
	})
})

var _ = Describe("publishTestEvent", func() {
	It("rejects unknown event types", func() {
		Expect(publishTestEvent(context.Background(), "payment.done")).To(MatchError(ContainSubstring("unknown event type")))
	})

	It("publishes a known event type", func() {
		Expect(publishTestEvent(context.Background(), "role.created")).To(Succeed())
	})
})
