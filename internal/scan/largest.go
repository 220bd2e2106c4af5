package scan

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/petasbytes/localmind/internal/safety"
)

// Sized is a file or directory with its (possibly partial) size.
type Sized struct {
	Path        string    `json:"path"`
	SizeBytes   int64     `json:"size_bytes"`
	ModifiedUTC string    `json:"modified_utc,omitempty"`
	Modified    time.Time `json:"-"`
}

// Largest returns the n largest regular files reachable within the budget.
func Largest(ctx context.Context, b Budget, n int) ([]Sized, Stats) {
	var files []Sized
	st := Walk(ctx, b, func(e Entry) bool {
		mod := e.Info.ModTime()
		files = append(files, Sized{
			Path:        e.Path,
			SizeBytes:   e.Info.Size(),
			ModifiedUTC: FormatUTC(mod),
			Modified:    mod,
		})
		if n > 0 && len(files) >= n*compactFactor {
			sortBySize(files)
			files = files[:n]
		}
		return true
	})
	sortBySize(files)
	return topN(files, n), st
}

// LargestDirs estimates the n largest immediate subdirectories of the
// budget's roots by summing the files beneath each one. Every nested walk
// shares the parent deadline, so late candidates may be undercounted or
// missing when time runs out.
func LargestDirs(ctx context.Context, b Budget, n int) ([]Sized, Stats) {
	start := time.Now()
	var st Stats

	var candidates []string
	for _, root := range b.Roots {
		if b.done(ctx) {
			st.TimedOut = true
			break
		}
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			p := filepath.Join(root, e.Name())
			if safety.Pruned(p) {
				continue
			}
			candidates = append(candidates, p)
		}
	}

	var dirs []Sized
	for _, dir := range candidates {
		if b.done(ctx) {
			st.TimedOut = true
			break
		}
		var total int64
		sub := Walk(ctx, Budget{Deadline: b.Deadline, Roots: []string{dir}}, func(e Entry) bool {
			total += e.Info.Size()
			return true
		})
		st.ScannedDirs += sub.ScannedDirs
		st.TimedOut = st.TimedOut || sub.TimedOut

		d := Sized{Path: dir, SizeBytes: total}
		if fi, err := os.Stat(dir); err == nil {
			d.Modified = fi.ModTime()
			d.ModifiedUTC = FormatUTC(d.Modified)
		}
		dirs = append(dirs, d)
	}

	sortBySize(dirs)
	st.Elapsed = time.Since(start)
	return topN(dirs, n), st
}

func sortBySize(items []Sized) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].SizeBytes != items[j].SizeBytes {
			return items[i].SizeBytes > items[j].SizeBytes
		}
		return items[i].Path < items[j].Path
	})
}

func topN(items []Sized, n int) []Sized {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
