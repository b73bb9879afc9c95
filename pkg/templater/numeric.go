package templater

import "strings"

// valueTagDialect is one recognized numeric value-tag pattern. The set
// is fixed: interoperability with the host document readers depends on
// the exact tag names, so these are not configurable.
type valueTagDialect struct {
	open  string
	close string
}

var valueTagDialects = []valueTagDialect{
	{open: "<v>", close: "</v>"},     // spreadsheet and chart cache values
	{open: "<c:v>", close: "</c:v>"}, // namespaced chart values
}

// sweepNumericValue replaces every occurrence of the literal placeholder
// number inside a recognized value tag with the replacement, across all
// dialects. It returns the rewritten text and the replacement count.
func sweepNumericValue(text, number, replacement string) (string, int) {
	count := 0
	for _, dialect := range valueTagDialects {
		needle := dialect.open + number + dialect.close
		if !strings.Contains(text, needle) {
			continue
		}
		count += strings.Count(text, needle)
		text = strings.ReplaceAll(text, needle, dialect.open+replacement+dialect.close)
	}
	return text, count
}

// runNumericSweep performs the corpus-wide second pass: for every
// distinct (number, path) pair, resolve the path once and replace the
// literal number in every part, not just the part the marker came from.
// Charts live in separate parts referencing the same literal number.
func runNumericSweep(refs []NumericRef, parts []RenderedPart, data TemplateData, stats *Stats, errs *MultiError, opts Options) {
	for _, ref := range refs {
		stats.Total++
		value, ok := Resolve(data, ref.Path)
		if !ok {
			stats.Fail++
			if opts.Strict {
				errs.Add(NewDataMissingError(ref.Path, ""))
			}
			if opts.LogMissing {
				GetLogger().WithField("path", ref.Path).Warn("numeric placeholder path not found")
			}
			continue
		}
		stats.Success++
		replacement := formatScalar(value)
		for i := range parts {
			if parts[i].Deleted {
				continue
			}
			rewritten, n := sweepNumericValue(parts[i].Text, ref.Number, replacement)
			if n > 0 {
				parts[i].Text = rewritten
			}
		}
	}
}
