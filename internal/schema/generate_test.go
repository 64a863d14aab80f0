package schema_test

import (
	"encoding/json"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smykla-skalski/tmplcheck/internal/schema"
	"github.com/smykla-skalski/tmplcheck/internal/store"
	"github.com/smykla-skalski/tmplcheck/pkg/rules"
	"github.com/smykla-skalski/tmplcheck/pkg/tree"
)

func TestSchema(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Schema Suite")
}

const template = `
[server.host]
type = "str"
regex = "[a-z]+"
nmin = 3
nmax = 63
explanation = "Host name"

[server.port]
type = "int"
nmin = 1
nmax = 65535
default = "8080"

[mode]
options = ["dev", "prod"]
example = "dev"

[nickname]
optional = true
`

var _ = Describe("Generate", func() {
	var s map[string]any

	BeforeEach(func() {
		tmpl, err := store.Decode([]byte(template))
		Expect(err).NotTo(HaveOccurred())

		data, err := schema.GenerateJSON(tmpl, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(HaveSuffix("}\n"))
		Expect(json.Unmarshal(data, &s)).To(Succeed())
	})

	prop := func(m map[string]any, path ...string) map[string]any {
		GinkgoHelper()

		cur := m
		for _, key := range path {
			props, ok := cur["properties"].(map[string]any)
			Expect(ok).To(BeTrue(), "no properties above %s", key)

			cur, ok = props[key].(map[string]any)
			Expect(ok).To(BeTrue(), "missing property %s", key)
		}

		return cur
	}

	It("sets the $schema URI and title", func() {
		Expect(s["$schema"]).To(Equal("https://json-schema.org/draft/2020-12/schema"))
		Expect(s["title"]).To(Equal("tmplcheck configuration"))
		Expect(s["type"]).To(Equal("object"))
	})

	It("requires non-optional leaves and branches holding them", func() {
		Expect(s["required"]).To(Equal([]any{"server", "mode"}))
		Expect(prop(s, "server")["required"]).To(Equal([]any{"host", "port"}))
	})

	It("maps string rules", func() {
		host := prop(s, "server", "host")

		Expect(host["type"]).To(Equal("string"))
		Expect(host["pattern"]).To(Equal("^(?:[a-z]+)"))
		Expect(host["minLength"]).To(BeEquivalentTo(3))
		Expect(host["maxLength"]).To(BeEquivalentTo(63))
		Expect(host).NotTo(HaveKey("minimum"))
		Expect(host["description"]).To(Equal("Host name"))
	})

	It("maps numeric rules and coerces defaults", func() {
		port := prop(s, "server", "port")

		Expect(port["type"]).To(Equal("integer"))
		Expect(port["minimum"]).To(BeEquivalentTo(1))
		Expect(port["maximum"]).To(BeEquivalentTo(65535))
		Expect(port["default"]).To(BeEquivalentTo(8080))
		Expect(port).NotTo(HaveKey("maxLength"))
	})

	It("maps options and examples", func() {
		mode := prop(s, "mode")

		Expect(mode).NotTo(HaveKey("type"))
		Expect(mode["enum"]).To(Equal([]any{"dev", "prod"}))
		Expect(mode["examples"]).To(Equal([]any{"dev"}))
	})

	It("keeps template order", func() {
		tmpl, err := store.Decode([]byte(template))
		Expect(err).NotTo(HaveOccurred())

		data, err := schema.GenerateJSON(tmpl, false)
		Expect(err).NotTo(HaveOccurred())

		text := string(data)
		Expect(strings.Index(text, `"server"`)).To(BeNumerically("<", strings.Index(text, `"mode"`)))
		Expect(strings.Index(text, `"mode"`)).To(BeNumerically("<", strings.Index(text, `"nickname"`)))
	})

	It("rejects invalid rule sets", func() {
		tmpl := tree.New()
		tmpl.SetPath(tree.Path{"port", "type"}, "complex")

		_, err := schema.Generate(tmpl)
		Expect(err).To(MatchError(rules.ErrInvalidRuleSet))
	})
})
