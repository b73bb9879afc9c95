package templater

import (
	"reflect"
	"testing"
)

func TestScanMarkers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Marker
	}{
		{
			name:  "plain text",
			input: "Hello World",
			want:  nil,
		},
		{
			name:  "standard marker",
			input: "Hello (((user.name)))!",
			want: []Marker{
				{Kind: MarkerStandard, Start: 6, Length: 15, Raw: "(((user.name)))", Path: "user.name"},
			},
		},
		{
			name:  "numeric marker",
			input: "(((100000=sales.q1)))",
			want: []Marker{
				{Kind: MarkerNumeric, Start: 0, Length: 21, Raw: "(((100000=sales.q1)))", Path: "sales.q1", Number: "100000"},
			},
		},
		{
			name:  "delete page marker",
			input: "x(((DeletePageIfEmpty=report.appendix)))y",
			want: []Marker{
				{
					Kind: MarkerDelete, Start: 1, Length: 39,
					Raw: "(((DeletePageIfEmpty=report.appendix)))", Path: "report.appendix",
					Directive: "DeletePageIfEmpty", Target: TargetPage,
				},
			},
		},
		{
			name:  "delete slide and row markers",
			input: "(((DeleteSlideIfEmpty=a)))(((DeleteRowIfEmpty=b)))",
			want: []Marker{
				{
					Kind: MarkerDelete, Start: 0, Length: 26,
					Raw: "(((DeleteSlideIfEmpty=a)))", Path: "a",
					Directive: "DeleteSlideIfEmpty", Target: TargetSlide,
				},
				{
					Kind: MarkerDelete, Start: 26, Length: 24,
					Raw: "(((DeleteRowIfEmpty=b)))", Path: "b",
					Directive: "DeleteRowIfEmpty", Target: TargetRow,
				},
			},
		},
		{
			name:  "section directive",
			input: "(((DeleteSectionIfEmpty=s)))",
			want: []Marker{
				{
					Kind: MarkerDelete, Start: 0, Length: 28,
					Raw: "(((DeleteSectionIfEmpty=s)))", Path: "s",
					Directive: "DeleteSectionIfEmpty", Target: TargetSection,
				},
			},
		},
		{
			name:  "unrecognized directive word",
			input: "(((DeleteChartIfEmpty=c)))",
			want: []Marker{
				{
					Kind: MarkerDelete, Start: 0, Length: 26,
					Raw: "(((DeleteChartIfEmpty=c)))", Path: "c",
					Directive: "DeleteChartIfEmpty", Target: TargetUnknown,
				},
			},
		},
		{
			name:  "unterminated stays literal",
			input: "start (((user.name and no close",
			want:  nil,
		},
		{
			name:  "empty body stays literal",
			input: "((()))",
			want:  nil,
		},
		{
			name:  "nested opener matches innermost",
			input: "(((a(((inner)))",
			want: []Marker{
				{Kind: MarkerStandard, Start: 4, Length: 11, Raw: "(((inner)))", Path: "inner"},
			},
		},
		{
			name:  "multiple markers ordered by offset",
			input: "(((b.second))) text (((a.first)))",
			want: []Marker{
				{Kind: MarkerStandard, Start: 0, Length: 14, Raw: "(((b.second)))", Path: "b.second"},
				{Kind: MarkerStandard, Start: 20, Length: 13, Raw: "(((a.first)))", Path: "a.first"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScanMarkers(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ScanMarkers(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestScanMarkersRejectsMalformedBodies(t *testing.T) {
	// A delimited body fitting none of the three shapes is not a marker.
	inputs := []string{
		"(((hello world!)))",
		"(((a<w:p>b)))",
		"(((junk<row>B)))",
		"(((.leading)))",
		"(((trailing.)))",
		"(((two..dots)))",
		"(((123)))",
		"(((a-b)))",
		"((( user.name )))",
	}
	for _, input := range inputs {
		if got := ScanMarkers(input); got != nil {
			t.Errorf("ScanMarkers(%q) = %+v, want none", input, got)
		}
	}
}

func TestScanMarkersMixedValidity(t *testing.T) {
	input := "(((bad body))) then (((good.path)))"
	markers := ScanMarkers(input)
	if len(markers) != 1 {
		t.Fatalf("expected 1 marker, got %d: %+v", len(markers), markers)
	}
	if markers[0].Path != "good.path" || markers[0].Raw != "(((good.path)))" {
		t.Errorf("wrong marker survived: %+v", markers[0])
	}
}

func TestScanMarkersPrecedence(t *testing.T) {
	// A numeric-shaped body must never be claimed as standard, and a
	// delete-shaped body must never be claimed as numeric.
	markers := ScanMarkers("(((42=chart.value)))(((DeleteRowIfEmpty=x)))(((just.a.path)))")
	if len(markers) != 3 {
		t.Fatalf("expected 3 markers, got %d", len(markers))
	}
	if markers[0].Kind != MarkerNumeric {
		t.Errorf("expected numeric first, got %s", markers[0].Kind)
	}
	if markers[1].Kind != MarkerDelete {
		t.Errorf("expected delete second, got %s", markers[1].Kind)
	}
	if markers[2].Kind != MarkerStandard {
		t.Errorf("expected standard third, got %s", markers[2].Kind)
	}
}

func TestScanMarkersIdempotent(t *testing.T) {
	input := `<w:p>(((a.b))) (((7=c.d))) (((DeletePageIfEmpty=e.f)))</w:p>`
	first := ScanMarkers(input)
	second := ScanMarkers(input)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("marker lists differ across runs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestScanMarkersSpansMatchText(t *testing.T) {
	input := "pre (((a.b))) mid (((9=c))) post (((DeleteRowIfEmpty=d)))"
	for _, m := range ScanMarkers(input) {
		if input[m.Start:m.End()] != m.Raw {
			t.Errorf("span [%d:%d) = %q, want %q", m.Start, m.End(), input[m.Start:m.End()], m.Raw)
		}
	}
}

func TestDeleteTargetFromWord(t *testing.T) {
	tests := []struct {
		word string
		want DeleteTarget
	}{
		{"DeletePage", TargetPage},
		{"RemovePage", TargetPage},
		{"DeleteSlide", TargetSlide},
		{"DeleteRow", TargetRow},
		{"DeleteSection", TargetSection},
		{"DeleteChart", TargetUnknown},
		{"Page", TargetPage},
	}
	for _, tt := range tests {
		if got := deleteTargetFromWord(tt.word); got != tt.want {
			t.Errorf("deleteTargetFromWord(%q) = %v, want %v", tt.word, got, tt.want)
		}
	}
}
