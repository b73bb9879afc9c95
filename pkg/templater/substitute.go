package templater

import (
	"sort"
	"strings"
)

// Options controls substitution behavior.
type Options struct {
	// Strict raises an error for any missing standard or numeric path.
	Strict bool
	// PreserveUnmatched leaves the literal marker text in place when a
	// path does not resolve (ignored in strict mode). When false the
	// marker is stripped.
	PreserveUnmatched bool
	// LogMissing logs every unresolved path at warn level.
	LogMissing bool
	// DeleteEmpty enables structural deletion for directives whose
	// driving value is empty.
	DeleteEmpty bool
}

// DefaultOptions returns the default substitution options.
func DefaultOptions() Options {
	return Options{
		PreserveUnmatched: true,
		DeleteEmpty:       true,
	}
}

// Stats accumulates per-render resolution counters. It is threaded
// through the pipeline explicitly rather than stored on a shared
// instance, so concurrent renders never share counters.
type Stats struct {
	Total        int
	Success      int
	Fail         int
	DeletedCount int
}

// RenderResult is the output of Substitute: rewritten parts, counters,
// and the per-part, per-directive errors collected along the way.
// Partial-failure semantics apply: one part's failure never blocks the
// others.
type RenderResult struct {
	Parts  []RenderedPart
	Stats  Stats
	Errors []error
}

// Clone returns a deep copy of the render result.
func (rr *RenderResult) Clone() *RenderResult {
	if rr == nil {
		return nil
	}
	return &RenderResult{
		Parts:  append([]RenderedPart(nil), rr.Parts...),
		Stats:  rr.Stats,
		Errors: append([]error(nil), rr.Errors...),
	}
}

// edit is one (span, replacement) splice against a part's original
// text. Structural edits excise deletion regions and win over inline
// edits they contain.
type edit struct {
	start       int
	end         int
	replacement string
	structural  bool
}

// Substitute resolves every marker in the parse result against the data
// tree and rewrites the part texts. After all parts are rewritten it
// runs the corpus-wide numeric sweep. In strict mode the returned error
// aggregates all missing-path failures; the result is still populated.
func Substitute(pr *ParseResult, data TemplateData, opts Options) (*RenderResult, error) {
	result := &RenderResult{Parts: make([]RenderedPart, 0, len(pr.Parts))}
	errs := NewMultiError()

	for _, part := range pr.Parts {
		rendered := rewritePart(part, pr.MarkersByPart[part.Path], data, opts, &result.Stats, errs)
		result.Parts = append(result.Parts, rendered)
	}

	runNumericSweep(pr.NumericMarkers, result.Parts, data, &result.Stats, errs, opts)

	result.Errors = errs.Errors()
	if opts.Strict {
		if err := errs.Err(); err != nil {
			return result, WithContext(err, "strict substitution", map[string]interface{}{
				"failed": result.Stats.Fail,
			})
		}
	}
	return result, nil
}

// rewritePart resolves all of one part's markers and splices the text.
// All spans are resolved against the original text before any splice
// executes; the collected edits then apply in a single descending-offset
// pass so earlier splices never invalidate recorded offsets.
func rewritePart(part Part, markers []Marker, data TemplateData, opts Options, stats *Stats, errs *MultiError) RenderedPart {
	rendered := RenderedPart{Path: part.Path, Text: part.Text}
	if len(markers) == 0 {
		return rendered
	}

	logger := GetLogger()

	for _, m := range markers {
		if m.Start < 0 || m.End() > len(part.Text) || part.Text[m.Start:m.End()] != m.Raw {
			// Programming-fatal for this part, not user data: surface a
			// structured error and leave the part untouched.
			errs.Add(NewInvariantError(part.Path, m.Start, "recorded marker span does not match part text"))
			return rendered
		}
	}

	if logger.IsDebugMode() {
		logger.WithFields(Fields{"part": part.Path, "markers": len(markers)}).Debug("rewriting part")
	}

	edits := make([]edit, 0, len(markers))
	slideDeleted := false

	for _, m := range markers {
		switch m.Kind {
		case MarkerStandard:
			stats.Total++
			value, ok := Resolve(data, m.Path)
			if ok {
				stats.Success++
				edits = append(edits, edit{start: m.Start, end: m.End(), replacement: formatScalar(value)})
				continue
			}
			stats.Fail++
			if opts.LogMissing {
				logger.WithFields(Fields{"part": part.Path, "path": m.Path}).Warn("placeholder path not found")
			}
			if opts.Strict {
				errs.Add(NewDataMissingError(m.Path, part.Path))
				continue
			}
			if opts.PreserveUnmatched {
				continue
			}
			edits = append(edits, edit{start: m.Start, end: m.End(), replacement: ""})

		case MarkerNumeric:
			// Never resolved inline: the marker only tattoos the spot
			// where a chart value used to be. Resolution happens in the
			// global sweep.
			edits = append(edits, edit{start: m.Start, end: m.End(), replacement: ""})

		case MarkerDelete:
			// The directive text must not survive into output.
			edits = append(edits, edit{start: m.Start, end: m.End(), replacement: ""})
			if !opts.DeleteEmpty {
				continue
			}
			// A missing path counts as empty, never as a failure.
			value, ok := Resolve(data, m.Path)
			if ok && !IsEmpty(value) {
				continue
			}
			candidate, apply, err := resolveDeletionCandidate(part, m)
			if err != nil {
				errs.Add(err)
				continue
			}
			if !apply {
				continue
			}
			if candidate.Target == TargetSlide {
				slideDeleted = true
				continue
			}
			stats.DeletedCount++
			edits = append(edits, edit{start: candidate.Start, end: candidate.End, structural: true})
		}
	}

	if slideDeleted {
		// The whole unit is dropped; its text is not spliced. The
		// container writer must omit the part and its cross-references.
		stats.DeletedCount++
		rendered.Deleted = true
		return rendered
	}

	rendered.Text = applyEdits(part.Text, normalizeEdits(edits))
	if logger.IsDebugMode() {
		logger.WithFields(Fields{"part": part.Path, "edits": len(edits)}).Debug("part rewritten")
	}
	return rendered
}

// normalizeEdits merges overlapping structural spans, drops inline
// edits that intersect a structural region (the excision supersedes
// them, and a surviving partial overlap would corrupt the splice walk),
// and orders the survivors by descending start offset.
func normalizeEdits(edits []edit) []edit {
	var structural, inline []edit
	for _, e := range edits {
		if e.structural {
			structural = append(structural, e)
		} else {
			inline = append(inline, e)
		}
	}

	if len(structural) > 1 {
		sort.Slice(structural, func(i, j int) bool { return structural[i].start < structural[j].start })
		merged := structural[:1]
		for _, e := range structural[1:] {
			last := &merged[len(merged)-1]
			if e.start <= last.end {
				if e.end > last.end {
					last.end = e.end
				}
				continue
			}
			merged = append(merged, e)
		}
		structural = merged
	}

	kept := structural
	for _, e := range inline {
		swallowed := false
		for _, s := range structural {
			if e.start < s.end && e.end > s.start {
				swallowed = true
				break
			}
		}
		if !swallowed {
			kept = append(kept, e)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].start > kept[j].start })
	return kept
}

// applyEdits splices the edits over the original text in one pass.
// The list arrives in descending offset order; walking it tail-first
// emits the output left to right without rescanning.
func applyEdits(text string, edits []edit) string {
	if len(edits) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		b.WriteString(text[last:e.start])
		b.WriteString(e.replacement)
		last = e.end
	}
	b.WriteString(text[last:])
	return b.String()
}
