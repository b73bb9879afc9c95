package templater

import (
	"regexp"
	"strings"
)

// MarkerKind classifies a recognized placeholder occurrence.
type MarkerKind int

const (
	// MarkerStandard is a bare dotted path replaced inline with the
	// resolved value.
	MarkerStandard MarkerKind = iota
	// MarkerNumeric carries a literal placeholder number that is later
	// replaced corpus-wide inside recognized value tags.
	MarkerNumeric
	// MarkerDelete is a structural deletion directive such as
	// DeletePageIfEmpty.
	MarkerDelete
)

func (k MarkerKind) String() string {
	switch k {
	case MarkerStandard:
		return "standard"
	case MarkerNumeric:
		return "numeric"
	case MarkerDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// DeleteTarget is the structural region a deletion directive acts on.
type DeleteTarget int

const (
	TargetUnknown DeleteTarget = iota
	TargetPage
	TargetSlide
	TargetRow
	TargetSection
)

func (t DeleteTarget) String() string {
	switch t {
	case TargetPage:
		return "page"
	case TargetSlide:
		return "slide"
	case TargetRow:
		return "row"
	case TargetSection:
		return "section"
	default:
		return "unknown"
	}
}

// Marker is one matched placeholder occurrence in a part's text.
// Start and Length describe the raw span [Start, Start+Length) covering
// the full delimited sequence including the delimiters. Markers are
// immutable once produced.
type Marker struct {
	Kind   MarkerKind
	Start  int
	Length int
	Raw    string
	Path   string

	// Number is the literal placeholder number (MarkerNumeric only).
	Number string
	// Directive is the directive word including the IfEmpty suffix,
	// e.g. "DeletePageIfEmpty" (MarkerDelete only).
	Directive string
	// Target is the structural target derived from the directive word
	// (MarkerDelete only).
	Target DeleteTarget
}

// End returns the exclusive end offset of the marker's raw span.
func (m Marker) End() int {
	return m.Start + m.Length
}

var (
	// A marker is three opening parentheses, a body free of parentheses,
	// and three closing parentheses. Unterminated, nested, or empty
	// sequences do not match and stay literal text. The body must then
	// fit one of the three shapes below; anything else stays literal too.
	markerPattern = regexp.MustCompile(`\(\(\(([^()]+)\)\)\)`)

	standardBodyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*$`)
	numericBodyPattern  = regexp.MustCompile(`^(\d+)=([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)$`)
	deleteBodyPattern   = regexp.MustCompile(`^([A-Za-z]+)IfEmpty=([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)$`)
)

// ScanMarkers scans one part's text and returns its markers ordered by
// ascending start offset. Delimited sequences whose body fits none of
// the three marker shapes are not markers and stay literal text. Each
// call owns fresh scan state; re-running on byte-identical input yields
// byte-identical marker lists, which the cache key derivation depends
// on.
func ScanMarkers(text string) []Marker {
	matches := markerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	var markers []Marker
	claimedEnd := 0
	for _, match := range matches {
		start, end := match[0], match[1]
		if start < claimedEnd {
			// Byte range already claimed by an earlier match.
			continue
		}
		body := text[match[2]:match[3]]
		marker, ok := classifyMarker(body)
		if !ok {
			continue
		}
		marker.Start = start
		marker.Length = end - start
		marker.Raw = text[start:end]
		markers = append(markers, marker)
		claimedEnd = end
	}
	return markers
}

// classifyMarker resolves the marker kind for a delimiter body in
// priority order: numeric, then delete, then standard. It reports false
// for bodies fitting none of the shapes.
func classifyMarker(body string) (Marker, bool) {
	if parts := numericBodyPattern.FindStringSubmatch(body); parts != nil {
		return Marker{
			Kind:   MarkerNumeric,
			Path:   parts[2],
			Number: parts[1],
		}, true
	}
	if parts := deleteBodyPattern.FindStringSubmatch(body); parts != nil {
		return Marker{
			Kind:      MarkerDelete,
			Path:      parts[2],
			Directive: parts[1] + "IfEmpty",
			Target:    deleteTargetFromWord(parts[1]),
		}, true
	}
	if standardBodyPattern.MatchString(body) {
		return Marker{
			Kind: MarkerStandard,
			Path: body,
		}, true
	}
	return Marker{}, false
}

// deleteTargetFromWord derives the structural target from the directive
// word minus its IfEmpty suffix, e.g. "DeletePage" -> TargetPage.
func deleteTargetFromWord(word string) DeleteTarget {
	switch {
	case strings.HasSuffix(word, "Page"):
		return TargetPage
	case strings.HasSuffix(word, "Slide"):
		return TargetSlide
	case strings.HasSuffix(word, "Row"):
		return TargetRow
	case strings.HasSuffix(word, "Section"):
		return TargetSection
	default:
		return TargetUnknown
	}
}
