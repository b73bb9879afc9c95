package templater

import "strings"

// DeletionCandidate is a deletion directive whose driving value resolved
// empty, together with the boundary span to excise from its part. Slides
// carry no span; the whole part is dropped.
type DeletionCandidate struct {
	PartPath string
	Marker   Marker
	Target   DeleteTarget

	// Boundary span [Start, End) in the part's original text.
	Start int
	End   int
}

const (
	pageBreakToken  = `<w:br w:type="page"`
	sectionPrToken  = `<w:sectPr`
	bodyOpenToken   = `<w:body`
	bodyCloseToken  = `</w:body>`
	wordParagraph   = "w:p"
	wordTableRow    = "w:tr"
	spreadsheetRow  = "row"
	wordSectionProp = "w:sectPr"
)

// resolveTargetKind maps an unknown or section target onto the owning
// part's document family before giving up as a no-op.
func resolveTargetKind(target DeleteTarget, kind DocumentKind) DeleteTarget {
	if target != TargetUnknown && target != TargetSection {
		return target
	}
	switch kind {
	case DocumentWord:
		return TargetPage
	case DocumentPresentation:
		return TargetSlide
	case DocumentSpreadsheet:
		return TargetRow
	default:
		return TargetUnknown
	}
}

// resolveDeletionCandidate computes the boundary span for a deletion
// directive against the part's original (pre-splice) text. The second
// return value reports a benign miss (row directive with no enclosing
// row); the error reports a page whose enclosing paragraph cannot be
// located.
func resolveDeletionCandidate(part Part, marker Marker) (DeletionCandidate, bool, error) {
	candidate := DeletionCandidate{
		PartPath: part.Path,
		Marker:   marker,
		Target:   resolveTargetKind(marker.Target, part.Kind()),
	}

	switch candidate.Target {
	case TargetPage:
		start, end, err := pageBounds(part.Text, marker.Start)
		if err != nil {
			return candidate, false, NewBoundaryError(part.Path, marker.Directive, err.Error())
		}
		candidate.Start, candidate.End = start, end
		return candidate, true, nil
	case TargetRow:
		start, end, ok := rowBounds(part.Text, marker.Start)
		if !ok {
			// No enclosing row element: benign miss, text unchanged.
			return candidate, false, nil
		}
		candidate.Start, candidate.End = start, end
		return candidate, true, nil
	case TargetSlide:
		candidate.Start, candidate.End = 0, len(part.Text)
		return candidate, true, nil
	default:
		return candidate, false, nil
	}
}

// pageBounds locates the page region containing offset: the span from
// the nearest preceding page-break-equivalent (or body start) to the
// nearest following one (or body end). The preceding break survives the
// excision; the following break is removed with the page, so exactly one
// break separates the remaining neighbours. Absent explicit breaks the
// region extends to the body bounds, which can delete more than a single
// visual page; that matches the original product behavior.
func pageBounds(text string, offset int) (int, int, error) {
	paraStart, paraEnd, ok := enclosingElement(text, offset, wordParagraph)
	if !ok {
		return 0, 0, NewBoundaryError("", "", "no enclosing paragraph for offset")
	}

	bodyStart, bodyEnd := bodyBounds(text)

	pageStart := bodyStart
	if idx := lastBreakToken(text[:paraStart]); idx >= 0 {
		pageStart = breakAnchorEnd(text, idx)
	}

	pageEnd := bodyEnd
	if idx := firstBreakToken(text[paraEnd:]); idx >= 0 {
		pageEnd = breakAnchorEnd(text, paraEnd+idx)
	}

	if pageStart > offset || pageEnd < paraEnd {
		return 0, 0, NewBoundaryError("", "", "page boundary out of range")
	}
	return pageStart, pageEnd, nil
}

// rowBounds locates the smallest enclosing row-equivalent element:
// a Word table row or a spreadsheet row.
func rowBounds(text string, offset int) (int, int, bool) {
	if start, end, ok := enclosingElement(text, offset, wordTableRow); ok {
		return start, end, true
	}
	if start, end, ok := enclosingElement(text, offset, spreadsheetRow); ok {
		return start, end, true
	}
	return 0, 0, false
}

// bodyBounds returns the content bounds of the <w:body> element, or the
// whole text when no body element is present.
func bodyBounds(text string) (int, int) {
	start := 0
	if idx := strings.Index(text, bodyOpenToken); idx >= 0 {
		if gt := strings.Index(text[idx:], ">"); gt >= 0 {
			start = idx + gt + 1
		}
	}
	end := len(text)
	if idx := strings.LastIndex(text, bodyCloseToken); idx >= 0 && idx >= start {
		end = idx
	}
	return start, end
}

func lastBreakToken(text string) int {
	br := strings.LastIndex(text, pageBreakToken)
	sect := strings.LastIndex(text, sectionPrToken)
	if br > sect {
		return br
	}
	return sect
}

func firstBreakToken(text string) int {
	br := strings.Index(text, pageBreakToken)
	sect := strings.Index(text, sectionPrToken)
	switch {
	case br < 0:
		return sect
	case sect < 0:
		return br
	case br < sect:
		return br
	default:
		return sect
	}
}

// breakAnchorEnd returns the end offset of the element anchoring a
// page-break-equivalent token: the enclosing paragraph when there is
// one, otherwise the section-properties element itself (a body-level
// sectPr has no paragraph), otherwise the token position.
func breakAnchorEnd(text string, tokenIdx int) int {
	if _, end, ok := enclosingElement(text, tokenIdx, wordParagraph); ok {
		return end
	}
	if _, end, ok := enclosingElement(text, tokenIdx, wordSectionProp); ok {
		return end
	}
	return tokenIdx
}

// enclosingElement finds the smallest element named name whose span
// contains offset, by scanning backward for candidate opening tags and
// validating containment. This is a scoped boundary scan over raw text,
// not XML parsing; elements of the same name are assumed not to nest,
// which holds for paragraphs and rows in practice.
func enclosingElement(text string, offset int, name string) (int, int, bool) {
	if offset < 0 || offset > len(text) {
		return 0, 0, false
	}
	open := "<" + name
	closeTag := "</" + name + ">"
	search := offset + 1
	if search > len(text) {
		search = len(text)
	}

	for {
		start := strings.LastIndex(text[:search], open)
		if start < 0 {
			return 0, 0, false
		}
		search = start

		// The tag name must end here, not be a prefix of a longer name
		// (e.g. <w:p vs <w:pPr).
		boundary := start + len(open)
		if boundary < len(text) {
			c := text[boundary]
			if c != ' ' && c != '\t' && c != '\r' && c != '\n' && c != '>' && c != '/' {
				continue
			}
		}

		rel := strings.Index(text[start:], closeTag)
		if rel < 0 {
			continue
		}
		end := start + rel + len(closeTag)
		if end > offset {
			return start, end, true
		}
	}
}
