package templater

import "sort"

// NumericRef identifies one distinct numeric placeholder by its literal
// number and dotted path. The global sweep is keyed on this pair, not on
// the marker occurrence, because a single number may recur in several
// generated chart caches.
type NumericRef struct {
	Number string
	Path   string
}

// DeleteRef ties a deletion directive marker to its owning part.
type DeleteRef struct {
	PartPath string
	Marker   Marker
}

// ParseResult is the output of Parse: per-part marker lists plus the
// cross-part indexes the substitution and deletion passes consume.
type ParseResult struct {
	Parts          []Part
	MarkersByPart  map[string][]Marker
	NumericMarkers []NumericRef
	DeleteMarkers  []DeleteRef
	UniquePaths    []string
}

// Parse scans every part and classifies its markers. It is a pure
// function of the part text: identical input yields an identical result,
// in input part order.
func Parse(parts []Part) *ParseResult {
	result := &ParseResult{
		Parts:         make([]Part, len(parts)),
		MarkersByPart: make(map[string][]Marker, len(parts)),
	}
	copy(result.Parts, parts)

	seenNumeric := make(map[NumericRef]bool)
	seenPaths := make(map[string]bool)

	for _, part := range parts {
		markers := ScanMarkers(part.Text)
		result.MarkersByPart[part.Path] = markers

		for _, marker := range markers {
			if !seenPaths[marker.Path] {
				seenPaths[marker.Path] = true
				result.UniquePaths = append(result.UniquePaths, marker.Path)
			}
			switch marker.Kind {
			case MarkerNumeric:
				ref := NumericRef{Number: marker.Number, Path: marker.Path}
				if !seenNumeric[ref] {
					seenNumeric[ref] = true
					result.NumericMarkers = append(result.NumericMarkers, ref)
				}
			case MarkerDelete:
				result.DeleteMarkers = append(result.DeleteMarkers, DeleteRef{
					PartPath: part.Path,
					Marker:   marker,
				})
			}
		}
	}

	sort.Strings(result.UniquePaths)
	return result
}

// Clone returns a deep copy of the parse result. The cache returns
// clones so a hit can never leak shared mutable state to the caller.
func (pr *ParseResult) Clone() *ParseResult {
	if pr == nil {
		return nil
	}
	clone := &ParseResult{
		Parts:          append([]Part(nil), pr.Parts...),
		MarkersByPart:  make(map[string][]Marker, len(pr.MarkersByPart)),
		NumericMarkers: append([]NumericRef(nil), pr.NumericMarkers...),
		DeleteMarkers:  append([]DeleteRef(nil), pr.DeleteMarkers...),
		UniquePaths:    append([]string(nil), pr.UniquePaths...),
	}
	for path, markers := range pr.MarkersByPart {
		clone.MarkersByPart[path] = append([]Marker(nil), markers...)
	}
	return clone
}

// MarkerCount returns the total number of markers across all parts.
func (pr *ParseResult) MarkerCount() int {
	count := 0
	for _, markers := range pr.MarkersByPart {
		count += len(markers)
	}
	return count
}
