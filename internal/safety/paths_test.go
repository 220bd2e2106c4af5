package safety_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/petasbytes/localmind/internal/safety"
)

func TestCleanRoots_StripsQuotesAndDropsMissing(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	if err := os.Mkdir(a, 0o755); err != nil {
		t.Fatalf("prep: %v", err)
	}

	got := safety.CleanRoots([]string{` "` + a + `" `, "'" + a + "'", filepath.Join(root, "missing")}, "/")
	if len(got) != 1 || got[0] != a {
		t.Fatalf("want [%s], got %v", a, got)
	}
}

func TestCleanRoots_DedupesCaseInsensitively(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("case-sensitive filesystem required")
	}
	root := t.TempDir()
	upper := filepath.Join(root, "Docs")
	lower := filepath.Join(root, "docs")
	for _, d := range []string{upper, lower} {
		if err := os.Mkdir(d, 0o755); err != nil {
			t.Fatalf("prep: %v", err)
		}
	}

	got := safety.CleanRoots([]string{upper, lower}, "/")
	if len(got) != 1 || got[0] != upper {
		t.Fatalf("want first spelling only, got %v", got)
	}
}

func TestCleanRoots_AnchorsRelativeToSystemRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "Users", "me"), 0o755); err != nil {
		t.Fatalf("prep: %v", err)
	}

	got := safety.CleanRoots([]string{"Users/me", `\me-missing`, "/Users/"}, root)
	want := []string{filepath.Join(root, "Users", "me"), filepath.Join(root, "Users")}
	if len(got) != len(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("at %d: want %q, got %q", i, want[i], got[i])
		}
	}
}

func TestCleanRoots_BareDriveLetterIsNotReanchored(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("drive letters resolve on Windows")
	}
	root := t.TempDir()
	got := safety.CleanRoots([]string{"C:", `C:\`}, root)
	if len(got) != 0 {
		t.Fatalf("drive roots must not resolve under %s: %v", root, got)
	}
}

func TestPruned(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{filepath.Join("C:", "$Recycle.Bin"), true},
		{filepath.Join("D:", "System Volume Information"), true},
		{filepath.Join("x", "Windows", "WinSxS"), true},
		{filepath.Join("x", "windows", "SoftwareDistribution"), true},
		{filepath.Join("x", "Windows", "System32"), false},
		{filepath.Join("home", "me", "Documents"), false},
	}
	for _, tc := range cases {
		if got := safety.Pruned(tc.path); got != tc.want {
			t.Errorf("Pruned(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
	if runtime.GOOS != "windows" && !safety.Pruned("/proc") {
		t.Errorf("expected /proc to be pruned")
	}
}

func TestSystemRoot(t *testing.T) {
	got := safety.SystemRoot()
	if runtime.GOOS == "windows" {
		if !strings.HasSuffix(got, `\`) {
			t.Fatalf("want drive root, got %q", got)
		}
		return
	}
	if got != "/" {
		t.Fatalf("want /, got %q", got)
	}
}
