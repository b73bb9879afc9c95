//go:build property
// +build property

package templater

import (
	"regexp"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var identRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func genPathSegment() gopter.Gen {
	return gen.RegexMatch(`[a-z][a-z0-9_]{0,7}`)
}

// TestMarkerProperties tests invariant properties of the marker scanner.
func TestMarkerProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("scanning is deterministic", prop.ForAll(
		func(text string) bool {
			first := ScanMarkers(text)
			second := ScanMarkers(text)
			if len(first) != len(second) {
				return false
			}
			for i := range first {
				if first[i] != second[i] {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.Property("every recorded span reproduces its raw text", prop.ForAll(
		func(text string) bool {
			for _, m := range ScanMarkers(text) {
				if text[m.Start:m.End()] != m.Raw {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.Property("spans never overlap and arrive ordered", prop.ForAll(
		func(text string) bool {
			markers := ScanMarkers(text)
			for i := 1; i < len(markers); i++ {
				if markers[i].Start < markers[i-1].End() {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.Property("a well-formed standard marker is always found", prop.ForAll(
		func(seg, prefix, suffix string) bool {
			if !identRe.MatchString(seg) {
				return true
			}
			if strings.ContainsAny(prefix, "()") || strings.ContainsAny(suffix, "()") {
				return true
			}
			text := prefix + "(((" + seg + ")))" + suffix
			markers := ScanMarkers(text)
			if len(markers) != 1 {
				return false
			}
			m := markers[0]
			return m.Kind == MarkerStandard && m.Path == seg && m.Start == len(prefix)
		},
		genPathSegment(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// TestSubstituteProperties tests invariant properties of the rewrite pass.
func TestSubstituteProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("rendering marker-free text is the identity", prop.ForAll(
		func(text string) bool {
			if len(ScanMarkers(text)) != 0 {
				return true
			}
			pr := Parse([]Part{{Path: "word/document.xml", Text: text}})
			result, err := Substitute(pr, TemplateData{}, DefaultOptions())
			if err != nil {
				return false
			}
			return result.Parts[0].Text == text
		},
		gen.AnyString(),
	))

	properties.Property("resolved standard markers never survive", prop.ForAll(
		func(seg, value string) bool {
			if !identRe.MatchString(seg) {
				return true
			}
			text := "a (((" + seg + "))) b"
			pr := Parse([]Part{{Path: "word/document.xml", Text: text}})
			result, err := Substitute(pr, TemplateData{seg: value}, DefaultOptions())
			if err != nil {
				return false
			}
			return result.Parts[0].Text == "a "+value+" b"
		},
		genPathSegment(),
		gen.AlphaString(),
	))

	properties.Property("total always equals success plus fail", prop.ForAll(
		func(segs []string) bool {
			var b strings.Builder
			data := TemplateData{}
			for i, seg := range segs {
				if !identRe.MatchString(seg) {
					return true
				}
				b.WriteString("(((" + seg + "))) ")
				if i%2 == 0 {
					data[seg] = "v"
				}
			}
			pr := Parse([]Part{{Path: "word/document.xml", Text: b.String()}})
			result, err := Substitute(pr, data, DefaultOptions())
			if err != nil {
				return false
			}
			s := result.Stats
			return s.Total == s.Success+s.Fail
		},
		gen.SliceOf(genPathSegment()),
	))

	properties.TestingRun(t)
}

// TestCacheKeyProperties tests invariant properties of content hashing.
func TestCacheKeyProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("template key ignores part order", prop.ForAll(
		func(paths []string) bool {
			parts := make([]Part, len(paths))
			for i, p := range paths {
				parts[i] = Part{Path: p, Text: "content-" + p}
			}
			reversed := make([]Part, len(parts))
			for i, p := range parts {
				reversed[len(parts)-1-i] = p
			}
			return TemplateKey(parts) == TemplateKey(reversed)
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("document key is stable per input", prop.ForAll(
		func(key, value string) bool {
			data := TemplateData{key: value}
			a := DocumentKey("tpl_x", data, DefaultOptions())
			b := DocumentKey("tpl_x", TemplateData{key: value}, DefaultOptions())
			return a == b
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
