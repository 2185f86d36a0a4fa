//go:build property
// +build property

package tags

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestTagProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	identifier := gen.Identifier().SuchThat(func(s string) bool {
		return s != "true" && s != "false"
	})

	properties.Property("parsed name matches the tag name", prop.ForAll(
		func(name string) bool {
			return Parse("{{"+name+"}}").Name == name
		},
		identifier,
	))

	properties.Property("quoted values round trip", prop.ForAll(
		func(key, value string) bool {
			got := Parse(fmt.Sprintf(`{{c %s="%s"}}`, key, value))
			return got.Props[key] == value
		},
		identifier,
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" && s != "true" && s != "false" }),
	))

	properties.Property("integers coerce to numbers", prop.ForAll(
		func(key string, n int) bool {
			got := Parse(fmt.Sprintf("{{c %s=%d}}", key, n))
			return got.Props[key] == float64(n)
		},
		identifier,
		gen.IntRange(0, 1<<20),
	))

	properties.Property("interpolation removes every supplied placeholder", prop.ForAll(
		func(key, value string) bool {
			text := "<p>${" + key + "}</p><span>${" + key + "}</span>"
			out := Interpolate(text, Props{key: value})
			return !strings.Contains(out, "${"+key+"}") && strings.Count(out, value) >= 2
		},
		identifier,
		gen.AlphaString(),
	))

	properties.Property("discovery is unique", prop.ForAll(
		func(names []string) bool {
			var b strings.Builder
			for _, n := range names {
				b.WriteString("{{" + n + "}}{{" + n + "}}")
			}
			found := Find(b.String())
			seen := map[string]bool{}
			for _, f := range found {
				if seen[f] {
					return false
				}
				seen[f] = true
			}
			return true
		},
		gen.SliceOf(identifier),
	))

	properties.TestingRun(t)
}
