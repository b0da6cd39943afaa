package datasource

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSplitPaths(t *testing.T) {
	got := splitPaths("  /var/log/syslog \n\n/tmp/a.txt\n   \n")
	want := []string{"/var/log/syslog", "/tmp/a.txt"}
	if len(got) != len(want) {
		t.Fatalf("splitPaths = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitPaths[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if splitPaths("   \n \n") != nil {
		t.Error("blank input must yield no paths")
	}
}

func TestListDirFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.log", "b.log"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nested", "c.log"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := listDirFiles(dir)
	if err != nil {
		t.Fatalf("listDirFiles: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("listed %d files, want 2 (non-recursive, files only): %v", len(got), got)
	}
}

func TestCanonicalPathResolvesSymlinks(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real.txt")
	if err := os.WriteFile(real, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlink: %v", err)
	}

	got, err := canonicalPath(link)
	if err != nil {
		t.Fatalf("canonicalPath: %v", err)
	}
	want, err := canonicalPath(real)
	if err != nil {
		t.Fatalf("canonicalPath: %v", err)
	}
	if got != want {
		t.Errorf("canonicalPath(link) = %q, want %q", got, want)
	}
}

func TestFindLockHoldersEmptyInput(t *testing.T) {
	report, err := FindLockHolders("  \n \n")
	if err != nil {
		t.Fatalf("FindLockHolders: %v", err)
	}
	if len(report.Holders) != 0 || report.IsDirectory || report.FilesScanned != 0 {
		t.Errorf("empty input produced %+v", *report)
	}
}

func TestFindLockHoldersMissingPath(t *testing.T) {
	_, err := FindLockHolders(filepath.Join(t.TempDir(), "nope.txt"))
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("err = %v, want *IOError", err)
	}
}

func TestFindLockHoldersDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	report, err := FindLockHolders(dir)
	if err != nil {
		t.Fatalf("FindLockHolders: %v", err)
	}
	if !report.IsDirectory {
		t.Error("directory input not flagged")
	}
	if report.FilesScanned != 3 {
		t.Errorf("FilesScanned = %d, want 3", report.FilesScanned)
	}
	// Nothing holds these files open, so no holders are expected.
	if len(report.Holders) != 0 {
		t.Errorf("unexpected holders: %v", report.Holders)
	}
}

func TestFindLockHoldersSeesOwnOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "held.txt")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })

	report, err := FindLockHolders(path)
	if err != nil {
		t.Fatalf("FindLockHolders: %v", err)
	}
	self := int32(os.Getpid())
	for _, h := range report.Holders {
		if h.PID == self {
			return
		}
	}
	t.Errorf("test process (pid %d) not reported among holders %v", self, report.Holders)
}
