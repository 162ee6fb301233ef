package fileset

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteThenRead(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tree")
	want := FileSet{
		"settings.json":   []byte(`{"a": 3}`),
		"nested/df.csv":   []byte("total\n2\n"),
		"nested/deep/x.y": []byte{},
	}

	if err := Write(dir, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(dir)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Read(missing) error = %v, want fs.ErrNotExist", err)
	}
}

func TestReadEmptyDir(t *testing.T) {
	got, err := Read(t.TempDir())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Read(empty) = %v, want empty non-nil set", got)
	}
}

func TestReadFileNotDir(t *testing.T) {
	p := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(p); err == nil {
		t.Error("Read(file) should fail")
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path string
		ok   bool
	}{
		{"a.txt", true},
		{"dir/a.txt", true},
		{"", false},
		{".", false},
		{"..", false},
		{"../a", false},
		{"/abs", false},
		{"a//b", false},
		{"a/./b", false},
		{`a\b`, false},
	}
	for _, tt := range tests {
		err := ValidatePath(tt.path)
		if (err == nil) != tt.ok {
			t.Errorf("ValidatePath(%q) error = %v, want ok=%v", tt.path, err, tt.ok)
		}
	}
}

func TestWriteRejectsEscapingPath(t *testing.T) {
	err := Write(t.TempDir(), FileSet{"../escape": []byte("x")})
	if !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("Write error = %v, want ErrInvalidPath", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := FileSet{"a": []byte("one")}
	cp := orig.Clone()
	cp["a"][0] = 'X'
	if string(orig["a"]) != "one" {
		t.Errorf("Clone shares backing arrays: orig = %q", orig["a"])
	}
}

func TestPathsSortedAndExt(t *testing.T) {
	set := FileSet{"b.CSV": nil, "a.json": nil, "c": nil}
	if diff := cmp.Diff([]string{"a.json", "b.CSV", "c"}, set.Paths()); diff != "" {
		t.Errorf("Paths() mismatch (-want +got):\n%s", diff)
	}
	if got := Ext("b.CSV"); got != "csv" {
		t.Errorf("Ext(b.CSV) = %q, want csv", got)
	}
	if got := Ext("c"); got != "" {
		t.Errorf("Ext(c) = %q, want empty", got)
	}
}
