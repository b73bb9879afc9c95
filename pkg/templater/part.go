package templater

import "strings"

// DocumentKind identifies the document family a part belongs to, derived
// from its container path. It drives the fallback resolution of deletion
// directives whose declared target is unknown.
type DocumentKind int

const (
	DocumentUnknown DocumentKind = iota
	DocumentWord
	DocumentPresentation
	DocumentSpreadsheet
)

func (k DocumentKind) String() string {
	switch k {
	case DocumentWord:
		return "word"
	case DocumentPresentation:
		return "presentation"
	case DocumentSpreadsheet:
		return "spreadsheet"
	default:
		return "unknown"
	}
}

// Part is one named text buffer belonging to the document container.
// The path uses the container-internal form, e.g. "word/document.xml" or
// "ppt/slides/slide1.xml".
type Part struct {
	Path string
	Text string
}

// Kind returns the document family of the part.
func (p Part) Kind() DocumentKind {
	return DetectDocumentKind(p.Path)
}

// RenderedPart is a part after substitution and structural deletion.
// Deleted parts (whole slides) must be omitted by the container writer.
type RenderedPart struct {
	Path    string
	Text    string
	Deleted bool
}

// DetectDocumentKind maps a container path to its document family.
func DetectDocumentKind(path string) DocumentKind {
	normalized := strings.ToLower(strings.TrimPrefix(path, "/"))
	switch {
	case strings.HasPrefix(normalized, "word/"):
		return DocumentWord
	case strings.HasPrefix(normalized, "ppt/"):
		return DocumentPresentation
	case strings.HasPrefix(normalized, "xl/"):
		return DocumentSpreadsheet
	default:
		return DocumentUnknown
	}
}
