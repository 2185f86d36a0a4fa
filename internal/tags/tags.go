// Package tags implements the placeholder grammar of mtb pages.
//
// A placeholder tag references a registered component and may pass it
// properties:
//
//	{{Hero}}
//	{{ui/Button text="Click me" size=3 disabled=false}}
//
// Inside a component body, ${key} is replaced with the value of property key.
package tags

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

var (
	// tagPattern discovers placeholder tags: a name made of letters, digits,
	// '_', '-' and '/', optionally followed by a whitespace-led props clause.
	tagPattern = regexp.MustCompile(`\{\{[A-Za-z0-9_/-]+(?:\s[^{}]*)?\}\}`)

	// propPattern matches key="v", key='v' and key=bareword pairs.
	propPattern = regexp.MustCompile(`(\w+)=(?:"([^"]*)"|'([^']*)'|(\w+))`)
)

// Props maps property names to coerced values: bool, float64 or string.
type Props map[string]interface{}

// Tag is a parsed placeholder.
type Tag struct {
	Name  string
	Props Props
}

// Parse splits a placeholder such as `{{btn text="Go"}}` into its component
// name and properties. Text in the props clause that does not form a
// key=value pair is ignored.
func Parse(tag string) Tag {
	inner := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(tag, "{{"), "}}"))

	i := strings.IndexFunc(inner, unicode.IsSpace)
	if i < 0 {
		return Tag{Name: inner, Props: Props{}}
	}

	return Tag{Name: inner[:i], Props: ParseProps(inner[i:])}
}

// ParseProps scans s for key=value pairs and coerces each value.
func ParseProps(s string) Props {
	props := Props{}

	for _, m := range propPattern.FindAllStringSubmatchIndex(s, -1) {
		key := s[m[2]:m[3]]

		var value string
		switch {
		case m[4] >= 0:
			value = s[m[4]:m[5]]
		case m[6] >= 0:
			value = s[m[6]:m[7]]
		default:
			value = s[m[8]:m[9]]
		}

		props[key] = Coerce(value)
	}

	return props
}

// Coerce converts the literals true and false to bool and any string that
// parses entirely as a finite number to float64. Unsigned 0x, 0o and 0b
// integer literals count as numbers. Everything else stays a string.
func Coerce(value string) interface{} {
	switch value {
	case "true":
		return true
	case "false":
		return false
	case "":
		return value
	}

	lower := strings.ToLower(value)
	if base := radix(lower); base != 0 {
		if n, err := strconv.ParseUint(lower[2:], base, 64); err == nil && !strings.Contains(value, "_") {
			return float64(n)
		}
		return value
	}

	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.Contains(value, "_") {
		return value
	}

	if n, err := strconv.ParseFloat(value, 64); err == nil && !math.IsInf(n, 0) {
		return n
	}

	return value
}

// radix returns the base of a prefixed integer literal, or 0.
func radix(lower string) int {
	if len(lower) < 3 || lower[0] != '0' {
		return 0
	}
	switch lower[1] {
	case 'x':
		return 16
	case 'o':
		return 8
	case 'b':
		return 2
	}
	return 0
}

// FormatValue renders a property value the way it is interpolated: booleans
// as true/false, numbers in their shortest decimal form.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		if abs := math.Abs(val); abs == 0 || (abs >= 1e-6 && abs < 1e21) {
			return strconv.FormatFloat(val, 'f', -1, 64)
		}
		return trimExponent(strconv.FormatFloat(val, 'g', -1, 64))
	case int:
		return strconv.Itoa(val)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// trimExponent drops the zero padding of an exponent: 1e-07 becomes 1e-7.
func trimExponent(s string) string {
	i := strings.IndexByte(s, 'e')
	if i < 0 || i+2 >= len(s) {
		return s
	}
	digits := strings.TrimLeft(s[i+2:], "0")
	if digits == "" {
		digits = "0"
	}
	return s[:i+2] + digits
}

// Interpolate replaces every ${key} in text with the matching property value.
// Substitution is a single pass: values inserted here are never scanned again.
func Interpolate(text string, props Props) string {
	if len(props) == 0 {
		return text
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "${"+k+"}", FormatValue(props[k]))
	}

	return strings.NewReplacer(pairs...).Replace(text)
}

// HasProps reports whether a placeholder carries a props clause.
func HasProps(tag string) bool {
	inner := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(tag, "{{"), "}}"))
	return strings.IndexFunc(inner, unicode.IsSpace) >= 0 && strings.Contains(inner, "=")
}

// Find returns the distinct placeholder tags in text, in order of first
// appearance.
func Find(text string) []string {
	matches := tagPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	unique := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		unique = append(unique, m)
	}

	return unique
}

// Contains reports whether text holds at least one placeholder tag.
func Contains(text string) bool {
	return tagPattern.MatchString(text)
}

// Names returns the distinct component names referenced in text, in order of
// first appearance.
func Names(text string) []string {
	found := Find(text)
	names := make([]string, 0, len(found))
	seen := make(map[string]struct{}, len(found))

	for _, t := range found {
		name := Parse(t).Name
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	return names
}
