package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"

	"snapkit/internal/casestore"
	"snapkit/internal/fileset"

	"github.com/google/go-cmp/cmp"
)

func newTestStore(t *testing.T) *FilesystemStorage {
	t.Helper()
	store := New(filepath.Join(t.TempDir(), "tests", "snapshots"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return store
}

func staging() fileset.FileSet {
	return fileset.FileSet{"settings.json": []byte(`{"a": 3, "b": 1}`)}
}

func caseNames(cases []casestore.Case) []string {
	names := make([]string, len(cases))
	for i, c := range cases {
		names[i] = c.Name
	}
	return names
}

func TestListEmptyStore(t *testing.T) {
	store := newTestStore(t)
	cases, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if cases == nil || len(cases) != 0 {
		t.Errorf("List() = %v, want empty non-nil slice", cases)
	}
}

func TestListMissingRoot(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "does-not-exist"))
	cases, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List on missing root should not fail: %v", err)
	}
	if len(cases) != 0 {
		t.Errorf("List() = %v, want empty", cases)
	}
}

func TestListOrdersByNumberAndSkipsOthers(t *testing.T) {
	store := newTestStore(t)
	for _, name := range []string{"Case10", "Case02", "Case01", "Case1", "notes", "CaseXY"} {
		if err := os.MkdirAll(filepath.Join(store.Root(), name), 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(store.Root(), "Case03"), []byte("file"), 0644); err != nil {
		t.Fatal(err)
	}

	cases, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{"Case01", "Case02", "Case10"}, caseNames(cases)); diff != "" {
		t.Errorf("List() names mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateAllocatesLowestFreeNumber(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.Create(ctx, staging()); err != nil {
			t.Fatalf("Create #%d: %v", i+1, err)
		}
	}
	if err := os.RemoveAll(filepath.Join(store.Root(), "Case02")); err != nil {
		t.Fatal(err)
	}

	c, err := store.Create(ctx, staging())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Name != "Case02" || c.Number != 2 {
		t.Errorf("Create() = %+v, want Case02", c)
	}

	c, err = store.Create(ctx, staging())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Name != "Case04" {
		t.Errorf("Create() = %s, want Case04", c.Name)
	}
}

func TestCreateCopiesInputsAndLeavesBaselineAbsent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	c, err := store.Create(ctx, staging())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	inputs, err := store.ReadInputs(ctx, c)
	if err != nil {
		t.Fatalf("ReadInputs: %v", err)
	}
	if diff := cmp.Diff(staging(), inputs); diff != "" {
		t.Errorf("ReadInputs mismatch (-want +got):\n%s", diff)
	}

	_, err = store.ReadExpectedOutputs(ctx, c)
	if !errors.Is(err, casestore.ErrBaselineAbsent) {
		t.Errorf("ReadExpectedOutputs error = %v, want ErrBaselineAbsent", err)
	}
}

func TestCreateEmptyStagingAddsNoCase(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, set := range []fileset.FileSet{nil, {}} {
		_, err := store.Create(ctx, set)
		if !errors.Is(err, casestore.ErrNoStagingInputs) {
			t.Errorf("Create(%v) error = %v, want ErrNoStagingInputs", set, err)
		}
	}
	cases, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) != 0 {
		t.Errorf("store has %d cases after failed creates, want 0", len(cases))
	}
}

func TestCreateAtExistingCaseIsDuplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	c, err := store.Create(ctx, staging())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.WriteExpectedOutputs(ctx, c, fileset.FileSet{"df.csv": []byte("total\n2\n")}); err != nil {
		t.Fatal(err)
	}

	got, err := store.createAt(c.Number, fileset.FileSet{"other.json": []byte("{}")})
	if !errors.Is(err, casestore.ErrDuplicateCase) {
		t.Fatalf("createAt(existing) error = %v, want ErrDuplicateCase", err)
	}
	if got.Name != c.Name {
		t.Errorf("duplicate error case = %q, want %q", got.Name, c.Name)
	}

	inputs, err := store.ReadInputs(ctx, c)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(staging(), inputs); diff != "" {
		t.Errorf("existing case inputs were modified (-want +got):\n%s", diff)
	}
}

func TestConcurrentCreateAllocatesDistinctCases(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	names := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := store.Create(ctx, staging())
			names[i], errs[i] = c.Name, err
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	created := 0
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			if !errors.Is(errs[i], casestore.ErrDuplicateCase) {
				t.Errorf("Create #%d: unexpected error %v", i, errs[i])
			}
			continue
		}
		if seen[names[i]] {
			t.Errorf("case %s allocated twice", names[i])
		}
		seen[names[i]] = true
		created++
	}

	cases, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) != created {
		t.Errorf("List() has %d cases, want %d", len(cases), created)
	}
}

func TestGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created, err := store.Create(ctx, staging())
	if err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "Case01")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != created {
		t.Errorf("Get() = %+v, want %+v", got, created)
	}

	for _, name := range []string{"Case02", "Case1", "bogus"} {
		if _, err := store.Get(ctx, name); !errors.Is(err, casestore.ErrCaseNotFound) {
			t.Errorf("Get(%q) error = %v, want ErrCaseNotFound", name, err)
		}
	}
}

func TestWriteExpectedOutputsReplacesWholeSet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	c, err := store.Create(ctx, staging())
	if err != nil {
		t.Fatal(err)
	}

	first := fileset.FileSet{"df.csv": []byte("total\n2\n"), "extra/stale.json": []byte("{}")}
	if err := store.WriteExpectedOutputs(ctx, c, first); err != nil {
		t.Fatalf("WriteExpectedOutputs: %v", err)
	}
	second := fileset.FileSet{"df.csv": []byte("total\n5\n")}
	if err := store.WriteExpectedOutputs(ctx, c, second); err != nil {
		t.Fatalf("WriteExpectedOutputs: %v", err)
	}

	got, err := store.ReadExpectedOutputs(ctx, c)
	if err != nil {
		t.Fatalf("ReadExpectedOutputs: %v", err)
	}
	if diff := cmp.Diff(second, got); diff != "" {
		t.Errorf("baseline mismatch (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if diff := cmp.Diff([]string{casestore.DirExpectedOutputs, casestore.DirInputs}, names); diff != "" {
		t.Errorf("case dir should hold only Inputs and ExpectedOutputs (-want +got):\n%s", diff)
	}
}

func TestEmptyBaselineIsDistinctFromAbsent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	c, err := store.Create(ctx, staging())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.WriteExpectedOutputs(ctx, c, fileset.FileSet{}); err != nil {
		t.Fatal(err)
	}
	got, err := store.ReadExpectedOutputs(ctx, c)
	if err != nil {
		t.Fatalf("ReadExpectedOutputs on empty baseline: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ReadExpectedOutputs() = %v, want empty", got)
	}
}

func TestInitRestoresInterruptedSwap(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	c, err := store.Create(ctx, staging())
	if err != nil {
		t.Fatal(err)
	}
	baseline := fileset.FileSet{"df.csv": []byte("total\n2\n")}
	if err := store.WriteExpectedOutputs(ctx, c, baseline); err != nil {
		t.Fatal(err)
	}

	// Simulate a crash after the old baseline was moved aside and before the
	// new one was renamed into place.
	target := filepath.Join(c.Dir, casestore.DirExpectedOutputs)
	if err := os.Rename(target, backupPath(c.Dir)); err != nil {
		t.Fatal(err)
	}
	tmp, err := tempPath(c.Dir, casestore.DirExpectedOutputs)
	if err != nil {
		t.Fatal(err)
	}
	if err := fileset.Write(tmp, fileset.FileSet{"df.csv": []byte("half")}); err != nil {
		t.Fatal(err)
	}

	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	got, err := store.ReadExpectedOutputs(ctx, c)
	if err != nil {
		t.Fatalf("ReadExpectedOutputs after recovery: %v", err)
	}
	if diff := cmp.Diff(baseline, got); diff != "" {
		t.Errorf("recovered baseline mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Errorf("temp dir %s should have been removed", tmp)
	}
	if _, err := os.Stat(backupPath(c.Dir)); !os.IsNotExist(err) {
		t.Error("backup should have been consumed")
	}
}

func TestInitDropsBackupAfterCompletedSwap(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	c, err := store.Create(ctx, staging())
	if err != nil {
		t.Fatal(err)
	}
	current := fileset.FileSet{"df.csv": []byte("total\n3\n")}
	if err := store.WriteExpectedOutputs(ctx, c, current); err != nil {
		t.Fatal(err)
	}
	if err := fileset.Write(backupPath(c.Dir), fileset.FileSet{"df.csv": []byte("old")}); err != nil {
		t.Fatal(err)
	}

	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	got, err := store.ReadExpectedOutputs(ctx, c)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(current, got); diff != "" {
		t.Errorf("baseline mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(backupPath(c.Dir)); !os.IsNotExist(err) {
		t.Error("stale backup should have been removed")
	}
}

func TestConcurrentWriteAndRead(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	c, err := store.Create(ctx, fileset.FileSet{"settings.json": []byte("{}")})
	if err != nil {
		t.Fatal(err)
	}

	sets := []fileset.FileSet{
		{"a.csv": []byte("x\n1\n"), "b.csv": []byte("y\n1\n")},
		{"a.csv": []byte("x\n2\n"), "b.csv": []byte("y\n2\n")},
	}
	if err := store.WriteExpectedOutputs(ctx, c, sets[0]); err != nil {
		t.Fatal(err)
	}

	const rounds = 50
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if err := store.WriteExpectedOutputs(ctx, c, sets[i%2]); err != nil {
				t.Errorf("write %d: %v", i, err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			got, err := store.ReadExpectedOutputs(ctx, c)
			if err != nil {
				t.Errorf("read %d: %v", i, err)
				return
			}
			if !cmp.Equal(got, sets[0]) && !cmp.Equal(got, sets[1]) {
				t.Errorf("read %d saw a partial baseline: %v", i, got.Paths())
				return
			}
		}
	}()
	wg.Wait()
}

func TestListWaitsForCaseBeingCreated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if _, err := store.Create(ctx, staging()); err != nil {
		t.Fatal(err)
	}

	// Hold the allocation lock with Case02 reserved but not yet filled in.
	lock, err := lockDir(store.Root(), syscall.LOCK_EX)
	if err != nil {
		t.Fatal(err)
	}
	reserved := filepath.Join(store.Root(), "Case02")
	if err := os.Mkdir(reserved, 0755); err != nil {
		t.Fatal(err)
	}

	done := make(chan []casestore.Case, 1)
	go func() {
		cases, err := store.List(ctx)
		if err != nil {
			t.Errorf("List: %v", err)
		}
		done <- cases
	}()

	select {
	case cases := <-done:
		lock.release()
		t.Fatalf("List returned %v while a case was being created", caseNames(cases))
	case <-time.After(100 * time.Millisecond):
	}

	if err := fileset.Write(filepath.Join(reserved, casestore.DirInputs), staging()); err != nil {
		t.Fatal(err)
	}
	lock.release()

	cases := <-done
	if diff := cmp.Diff([]string{"Case01", "Case02"}, caseNames(cases)); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
	inputs, err := store.ReadInputs(ctx, cases[1])
	if err != nil || len(inputs) == 0 {
		t.Errorf("ReadInputs(Case02) = %v, %v; want the staged inputs", inputs, err)
	}
}
