package e2etests

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Normalizer rewrites command output so it compares equal across machines.
type Normalizer struct {
	replacer *strings.Replacer
}

// NewNormalizer creates a Normalizer that replaces the sandbox path with
// $SANDBOX.
func NewNormalizer(sandbox string) *Normalizer {
	pairs := []string{}
	if resolved, err := filepath.EvalSymlinks(sandbox); err == nil && resolved != sandbox {
		pairs = append(pairs, resolved, "$SANDBOX")
	}
	pairs = append(pairs, sandbox, "$SANDBOX")
	return &Normalizer{replacer: strings.NewReplacer(pairs...)}
}

var ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*m")

// Normalize strips color codes, replaces sandbox paths, trims trailing
// whitespace from every line and drops trailing blank lines.
func (n *Normalizer) Normalize(s string) string {
	s = ansiPattern.ReplaceAllString(s, "")
	s = n.replacer.Replace(s)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
