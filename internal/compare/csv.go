package compare

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// maxCellDiffs bounds the per-file detail so a wholesale change stays readable.
const maxCellDiffs = 20

// compareCSV compares two CSV documents. The first row is the header and
// must match exactly; other cells are compared as numbers within tolerance
// when both parse as floats, and as strings otherwise.
func (c *Comparator) compareCSV(want, got []byte) string {
	wantRows, err := readCSV(want)
	if err != nil {
		return fmt.Sprintf("baseline does not parse (%v); text diff:\n%s", err, lineDiff(string(want), string(got)))
	}
	gotRows, err := readCSV(got)
	if err != nil {
		return fmt.Sprintf("output does not parse (%v); text diff:\n%s", err, lineDiff(string(want), string(got)))
	}

	var b strings.Builder
	if len(wantRows) == 0 || len(gotRows) == 0 {
		if len(wantRows) != len(gotRows) {
			fmt.Fprintf(&b, "expected %d rows, got %d rows\n", len(wantRows), len(gotRows))
		}
		return b.String()
	}

	header := wantRows[0]
	if !equalStrings(header, gotRows[0]) {
		fmt.Fprintf(&b, "header:\n  expected: %q\n  actual:   %q\n", header, gotRows[0])
		return b.String()
	}

	if len(wantRows) != len(gotRows) {
		fmt.Fprintf(&b, "expected %d data rows, got %d data rows\n", len(wantRows)-1, len(gotRows)-1)
	}

	n := 0
	rows := min(len(wantRows), len(gotRows))
	for i := 1; i < rows; i++ {
		cols := max(len(header), len(wantRows[i]), len(gotRows[i]))
		for j := 0; j < cols; j++ {
			w, g := cell(wantRows[i], j), cell(gotRows[i], j)
			if c.cellsEqual(w, g) {
				continue
			}
			n++
			if n <= maxCellDiffs {
				fmt.Fprintf(&b, "row %d, column %q: expected %q, got %q\n", i, columnName(header, j), w, g)
			}
		}
	}
	if n > maxCellDiffs {
		fmt.Fprintf(&b, "... and %d more differing cells\n", n-maxCellDiffs)
	}
	return b.String()
}

func (c *Comparator) cellsEqual(want, got string) bool {
	if want == got {
		return true
	}
	wf, errW := strconv.ParseFloat(strings.TrimSpace(want), 64)
	gf, errG := strconv.ParseFloat(strings.TrimSpace(got), 64)
	if errW != nil || errG != nil {
		return false
	}
	return c.withinTol(wf, gf)
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func columnName(header []string, i int) string {
	if i < len(header) {
		return header[i]
	}
	return "#" + strconv.Itoa(i+1)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
