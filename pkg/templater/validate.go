package templater

import (
	"fmt"
	"sort"
)

// ValidationReport is the output of Validate: a read-only pre-check of
// a parse result against a data tree.
type ValidationReport struct {
	Valid        bool
	MissingPaths []string
	TypeErrors   []string
	CoveragePct  float64
}

// Validate checks every unique path in the parse result against the
// data tree without mutating either. Paths referenced only by deletion
// directives may legitimately be absent (absence means delete) and are
// not reported missing, but still count toward coverage. A traversal
// that hits a scalar before the path is exhausted is a type error
// regardless of marker kind.
func Validate(pr *ParseResult, data TemplateData) ValidationReport {
	report := ValidationReport{}
	if len(pr.UniquePaths) == 0 {
		report.Valid = true
		report.CoveragePct = 100
		return report
	}

	deleteOnly := deleteOnlyPaths(pr)

	resolved := 0
	for _, path := range pr.UniquePaths {
		_, failure := resolvePath(data, path)
		switch failure {
		case resolveOK:
			resolved++
		case resolveMissing:
			if !deleteOnly[path] {
				report.MissingPaths = append(report.MissingPaths, path)
			}
		case resolveNotTraversable:
			report.TypeErrors = append(report.TypeErrors,
				fmt.Sprintf("path '%s' crosses a non-traversable value", path))
		}
	}

	sort.Strings(report.MissingPaths)
	sort.Strings(report.TypeErrors)
	report.CoveragePct = float64(resolved) / float64(len(pr.UniquePaths)) * 100
	report.Valid = len(report.MissingPaths) == 0 && len(report.TypeErrors) == 0
	return report
}

// deleteOnlyPaths returns the paths referenced exclusively by deletion
// directives.
func deleteOnlyPaths(pr *ParseResult) map[string]bool {
	kinds := make(map[string]map[MarkerKind]bool)
	for _, markers := range pr.MarkersByPart {
		for _, m := range markers {
			if kinds[m.Path] == nil {
				kinds[m.Path] = make(map[MarkerKind]bool)
			}
			kinds[m.Path][m.Kind] = true
		}
	}
	deleteOnly := make(map[string]bool)
	for path, seen := range kinds {
		if len(seen) == 1 && seen[MarkerDelete] {
			deleteOnly[path] = true
		}
	}
	return deleteOnly
}
