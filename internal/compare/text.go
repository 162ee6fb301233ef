package compare

import (
	"fmt"
	"strings"
)

// maxLineDiffs bounds the number of differing lines reported per file.
const maxLineDiffs = 20

// lineDiff produces a simple line-by-line diff between two strings.
func lineDiff(expected, actual string) string {
	expLines := strings.Split(expected, "\n")
	actLines := strings.Split(actual, "\n")

	var b strings.Builder
	n := 0
	for i := 0; i < max(len(expLines), len(actLines)); i++ {
		expLine, actLine := "", ""
		if i < len(expLines) {
			expLine = expLines[i]
		}
		if i < len(actLines) {
			actLine = actLines[i]
		}
		if expLine == actLine {
			continue
		}
		n++
		if n <= maxLineDiffs {
			fmt.Fprintf(&b, "line %d:\n  expected: %q\n  actual:   %q\n", i+1, expLine, actLine)
		}
	}
	if n > maxLineDiffs {
		fmt.Fprintf(&b, "... and %d more differing lines\n", n-maxLineDiffs)
	}

	if len(expLines) != len(actLines) {
		fmt.Fprintf(&b, "expected %d lines, got %d lines\n", len(expLines), len(actLines))
	}
	return b.String()
}
