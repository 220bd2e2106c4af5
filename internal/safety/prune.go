package safety

import (
	"path/filepath"
	"runtime"
	"strings"
)

// prunedNames are directory base names never worth descending into.
var prunedNames = map[string]struct{}{
	"$recycle.bin":              {},
	"system volume information": {},
}

// prunedSuffixes are slash-separated, lower-cased path tails of OS component stores.
var prunedSuffixes = []string{
	"/windows/winsxs",
	"/windows/softwaredistribution",
}

// prunedUnix are pseudo filesystems that would otherwise dominate a walk from "/".
var prunedUnix = map[string]struct{}{
	"/proc": {},
	"/sys":  {},
	"/dev":  {},
	"/run":  {},
}

// Pruned reports whether a scan must skip the directory at path.
func Pruned(path string) bool {
	low := strings.ToLower(filepath.ToSlash(path))
	if _, ok := prunedNames[strings.ToLower(filepath.Base(path))]; ok {
		return true
	}
	for _, suf := range prunedSuffixes {
		if strings.HasSuffix(low, suf) {
			return true
		}
	}
	if runtime.GOOS != "windows" {
		if _, ok := prunedUnix[filepath.Clean(path)]; ok {
			return true
		}
	}
	return false
}
