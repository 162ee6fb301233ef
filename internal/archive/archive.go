// Package archive packs a case's file sets into a single txtar archive and
// back, so cases can be shared, reviewed and re-imported as plain text.
//
// Files are stored under "Inputs/" and "ExpectedOutputs/". Contents that
// txtar cannot hold verbatim (no trailing newline, or a line that looks like
// a file marker) are base64-encoded and listed in the archive comment. Paths
// that a file marker would not preserve (surrounding spaces, control
// characters) are written Go-quoted and listed the same way.
package archive

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/tools/txtar"

	"snapkit/internal/casestore"
	"snapkit/internal/fileset"
)

const (
	encodedPrefix = "base64: "
	quotedPrefix  = "quoted: "
	emptyBaseline = "baseline: empty"
)

// ErrMalformed is returned for archives that don't follow the case layout.
var ErrMalformed = errors.New("malformed case archive")

// Marshal returns the txtar form of a case. expected may be nil for a case
// without a baseline.
func Marshal(name string, inputs, expected fileset.FileSet) []byte {
	a := &txtar.Archive{}
	var encoded, quoted []string
	add := func(dir string, set fileset.FileSet) {
		for _, p := range set.Paths() {
			full := dir + "/" + p
			if needsQuote(full) {
				full = strconv.Quote(full)
				quoted = append(quoted, full)
			}
			data := set[p]
			if !verbatim(data) {
				encoded = append(encoded, full)
				data = []byte(base64.StdEncoding.EncodeToString(data) + "\n")
			}
			a.Files = append(a.Files, txtar.File{Name: full, Data: data})
		}
	}
	add(casestore.DirInputs, inputs)
	add(casestore.DirExpectedOutputs, expected)

	var comment bytes.Buffer
	if name != "" {
		fmt.Fprintf(&comment, "case: %s\n", name)
	}
	if expected != nil && len(expected) == 0 {
		fmt.Fprintln(&comment, emptyBaseline)
	}
	for _, p := range encoded {
		fmt.Fprintf(&comment, "%s%s\n", encodedPrefix, p)
	}
	for _, p := range quoted {
		fmt.Fprintf(&comment, "%s%s\n", quotedPrefix, p)
	}
	a.Comment = comment.Bytes()
	return txtar.Format(a)
}

// Case is the decoded content of an archive.
type Case struct {
	Name     string // from the archive comment, may be empty
	Inputs   fileset.FileSet
	Expected fileset.FileSet // nil if the archive holds no baseline
}

// Unmarshal parses an archive produced by Marshal.
func Unmarshal(data []byte) (*Case, error) {
	a := txtar.Parse(data)
	c := &Case{Inputs: fileset.FileSet{}}
	encoded := map[string]bool{}
	quoted := map[string]bool{}

	sc := bufio.NewScanner(bytes.NewReader(a.Comment))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "case: "):
			c.Name = strings.TrimSpace(strings.TrimPrefix(line, "case: "))
		case line == emptyBaseline:
			c.Expected = fileset.FileSet{}
		case strings.HasPrefix(line, encodedPrefix):
			encoded[strings.TrimPrefix(line, encodedPrefix)] = true
		case strings.HasPrefix(line, quotedPrefix):
			quoted[strings.TrimPrefix(line, quotedPrefix)] = true
		}
	}

	for _, f := range a.Files {
		name := f.Name
		if quoted[f.Name] {
			unq, err := strconv.Unquote(f.Name)
			if err != nil {
				return nil, fmt.Errorf("%w: bad quoted name %s", ErrMalformed, f.Name)
			}
			name = unq
		}
		dir, p, ok := strings.Cut(name, "/")
		if !ok {
			return nil, fmt.Errorf("%w: %s is outside %s/ and %s/", ErrMalformed, name, casestore.DirInputs, casestore.DirExpectedOutputs)
		}
		if err := fileset.ValidatePath(p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		content := f.Data
		if content == nil {
			content = []byte{}
		}
		if encoded[f.Name] {
			decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(content)))
			if err != nil {
				return nil, fmt.Errorf("%w: decoding %s: %v", ErrMalformed, f.Name, err)
			}
			content = decoded
		}
		switch dir {
		case casestore.DirInputs:
			c.Inputs[p] = content
		case casestore.DirExpectedOutputs:
			if c.Expected == nil {
				c.Expected = fileset.FileSet{}
			}
			c.Expected[p] = content
		default:
			return nil, fmt.Errorf("%w: unknown section %s", ErrMalformed, dir)
		}
	}
	return c, nil
}

// verbatim reports whether txtar round-trips data unchanged.
func verbatim(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	if data[len(data)-1] != '\n' {
		return false
	}
	for _, line := range bytes.SplitAfter(data, []byte("\n")) {
		if bytes.HasPrefix(line, []byte("-- ")) {
			return false
		}
	}
	return true
}

// needsQuote reports whether a txtar file marker would alter name.
func needsQuote(name string) bool {
	if name != strings.TrimSpace(name) || strings.HasPrefix(name, `"`) {
		return true
	}
	return strings.IndexFunc(name, unicode.IsControl) >= 0
}
