// Package safety cleans model-supplied filesystem roots and decides which
// subtrees a scan must never descend into.
package safety

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

// bareDriveRe matches a drive letter with no separator, e.g. "C:".
var bareDriveRe = regexp.MustCompile(`^[A-Za-z]:$`)

// SystemRoot returns the directory relative roots are anchored to:
// %SystemDrive%\ on Windows, "/" elsewhere.
func SystemRoot() string {
	if runtime.GOOS == "windows" {
		drive := os.Getenv("SystemDrive")
		if drive == "" {
			drive = "C:"
		}
		return drive + `\`
	}
	return "/"
}

// CleanRoots turns loosely formatted root entries into absolute, existing
// directories. Entries are stripped of quotes and whitespace, bare drive
// letters gain a trailing separator, relative entries are anchored to
// sysRoot, and the result is cleaned. Duplicates are removed
// case-insensitively, keeping the first spelling. Entries that do not
// resolve to an existing directory are dropped.
func CleanRoots(entries []string, sysRoot string) []string {
	out := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		r, ok := cleanRoot(e, sysRoot)
		if !ok {
			continue
		}
		key := strings.ToLower(r)
		if _, dup := seen[key]; dup {
			continue
		}
		fi, err := os.Stat(r)
		if err != nil || !fi.IsDir() {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

func cleanRoot(raw, sysRoot string) (string, bool) {
	r := strings.TrimSpace(raw)
	r = strings.TrimSpace(strings.Trim(r, `"'`))
	if r == "" {
		return "", false
	}

	switch r {
	case `\Users\`, `\Users`, "/Users/", "/Users":
		r = filepath.Join(sysRoot, "Users")
	}
	if bareDriveRe.MatchString(r) {
		r += `\`
	}
	if !isAbs(r) {
		r = filepath.Join(sysRoot, strings.TrimLeft(r, `\/`))
	}
	return filepath.Clean(r), true
}

// isAbs treats drive-qualified paths as absolute on every platform so a
// Windows-style root is never re-anchored under the unix root.
func isAbs(p string) bool {
	if filepath.IsAbs(p) {
		return true
	}
	return len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/') && isLetter(p[0])
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
