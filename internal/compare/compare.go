// Package compare checks a produced output set against a stored baseline.
//
// Files are compared according to their extension: structured formats
// (JSON, YAML, TOML) are decoded and compared as values, CSV files cell by
// cell with a numeric tolerance, and everything else byte for byte.
package compare

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"snapkit/internal/fileset"
)

// Default tolerances, matching the template's original snapshot helpers.
const (
	DefaultAbsTol = 1e-8
	DefaultRelTol = 0
)

// DefaultIgnore lists extensions never stored or compared. HTML reports
// embed generated identifiers that change on every run.
var DefaultIgnore = []string{"html"}

// Kind classifies a difference between baseline and actual outputs.
type Kind string

const (
	KindMissing    Kind = "missing"    // in baseline, not produced
	KindUnexpected Kind = "unexpected" // produced, not in baseline
	KindChanged    Kind = "changed"
)

// Diff describes one differing file.
type Diff struct {
	Path   string `json:"path"`
	Kind   Kind   `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

func (d Diff) String() string {
	if d.Detail == "" {
		return fmt.Sprintf("%s: %s", d.Path, d.Kind)
	}
	return fmt.Sprintf("%s: %s\n%s", d.Path, d.Kind, indent(d.Detail, "    "))
}

// Comparator compares output sets. The zero value compares with zero
// tolerance and ignores nothing; use New for the defaults.
type Comparator struct {
	AbsTol float64
	RelTol float64
	Ignore []string // extensions without the leading dot
}

// New returns a Comparator with the default tolerances and ignore list.
func New() *Comparator {
	return &Comparator{
		AbsTol: DefaultAbsTol,
		RelTol: DefaultRelTol,
		Ignore: append([]string(nil), DefaultIgnore...),
	}
}

// Ignored reports whether files at path p are excluded from comparison.
func (c *Comparator) Ignored(p string) bool {
	ext := fileset.Ext(p)
	for _, ig := range c.Ignore {
		if strings.EqualFold(strings.TrimPrefix(ig, "."), ext) && ext != "" {
			return true
		}
	}
	return false
}

// Filter returns the subset of set that is not ignored. Baselines are
// written through Filter so ignored files never enter version control.
func (c *Comparator) Filter(set fileset.FileSet) fileset.FileSet {
	out := make(fileset.FileSet, len(set))
	for p, data := range set {
		if !c.Ignored(p) {
			out[p] = data
		}
	}
	return out
}

// Compare returns every difference between expected and actual, ordered by
// path. An empty result means the sets are equal.
func (c *Comparator) Compare(expected, actual fileset.FileSet) []Diff {
	var diffs []Diff
	for _, p := range expected.Paths() {
		if c.Ignored(p) {
			continue
		}
		got, ok := actual[p]
		if !ok {
			diffs = append(diffs, Diff{Path: p, Kind: KindMissing})
			continue
		}
		if detail := c.compareFile(p, expected[p], got); detail != "" {
			diffs = append(diffs, Diff{Path: p, Kind: KindChanged, Detail: detail})
		}
	}
	for _, p := range actual.Paths() {
		if c.Ignored(p) {
			continue
		}
		if _, ok := expected[p]; !ok {
			diffs = append(diffs, Diff{Path: p, Kind: KindUnexpected})
		}
	}
	sortDiffs(diffs)
	return diffs
}

// compareFile returns a description of how got differs from want, or "" if
// they are equal under the rules for p's extension.
func (c *Comparator) compareFile(p string, want, got []byte) string {
	if bytes.Equal(want, got) {
		return ""
	}
	switch fileset.Ext(p) {
	case "json":
		return c.compareStructured(want, got, decodeJSON)
	case "yaml", "yml":
		return c.compareStructured(want, got, decodeYAML)
	case "toml":
		return c.compareStructured(want, got, decodeTOML)
	case "csv":
		return c.compareCSV(want, got)
	default:
		return lineDiff(string(want), string(got))
	}
}

// withinTol reports whether a and b are equal within the comparator's
// tolerances. The relative term scales with the larger magnitude so the
// relation is symmetric.
func (c *Comparator) withinTol(a, b float64) bool {
	if a == b {
		return true
	}
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return false
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= c.AbsTol+c.RelTol*scale
}

func sortDiffs(diffs []Diff) {
	sort.SliceStable(diffs, func(i, j int) bool { return diffs[i].Path < diffs[j].Path })
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
