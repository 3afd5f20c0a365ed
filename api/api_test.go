package api_test

import (
	"context"
	"testing"

	"github.com/frahmantamala/rogue-contacts/api"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Document Suite")
}

var _ = Describe("OpenAPI document", func() {
	It("is a valid document describing the role endpoints", func() {
		doc, err := api.Load(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(doc.Paths.Find("/businesses/{owner}/{business}/roles")).NotTo(BeNil())
		Expect(doc.Paths.Find("/users/login")).NotTo(BeNil())
		Expect(doc.Paths.Find("/users/refresh")).NotTo(BeNil())
	})
})
