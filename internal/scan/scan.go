// Package scan walks directory trees under a wall-clock deadline.
//
// A walk never fails: unreadable entries and unresolvable roots are skipped,
// and when the deadline passes the walk stops at the next entry and returns
// what it has gathered. Stats tells callers whether the result is partial.
package scan

import (
	"context"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/petasbytes/localmind/internal/safety"
)

// Budget bounds a single scan. Deadline is taken from time.Now, so
// comparisons against it use the monotonic clock.
type Budget struct {
	Deadline time.Time
	Roots    []string
}

// NewBudget returns a Budget that expires timeout from now.
func NewBudget(timeout time.Duration, roots []string) Budget {
	return Budget{Deadline: time.Now().Add(timeout), Roots: roots}
}

// Expired reports whether the deadline has passed.
func (b Budget) Expired() bool {
	return !time.Now().Before(b.Deadline)
}

func (b Budget) done(ctx context.Context) bool {
	return ctx.Err() != nil || b.Expired()
}

// Stats describes how much of the tree a walk covered.
type Stats struct {
	ScannedDirs int
	Elapsed     time.Duration
	TimedOut    bool
}

// ElapsedSeconds is Elapsed rounded to milliseconds.
func (s Stats) ElapsedSeconds() float64 {
	return math.Round(s.Elapsed.Seconds()*1000) / 1000
}

// Entry is a regular file reached by Walk.
type Entry struct {
	Path string
	Name string
	Info fs.FileInfo
}

// Visit receives each regular file. Returning false ends the walk early.
type Visit func(Entry) bool

// Walk visits regular files under each root in order. Symlinks are not
// followed and pruned directories are not entered. A directory that is itself
// one of the roots is only walked as that root, so nested roots are not
// visited twice. The deadline is checked before every entry.
func Walk(ctx context.Context, b Budget, visit Visit) Stats {
	start := time.Now()
	var st Stats
	stopped := false

	rootSet := make(map[string]bool, len(b.Roots))
	for _, r := range b.Roots {
		rootSet[filepath.Clean(r)] = true
	}

	for _, root := range b.Roots {
		if stopped {
			break
		}
		if b.done(ctx) {
			st.TimedOut = true
			break
		}
		fi, err := os.Stat(root)
		if err != nil || !fi.IsDir() {
			continue
		}

		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if b.done(ctx) {
				st.TimedOut = true
				return fs.SkipAll
			}
			if err != nil {
				// Permission or transient I/O error on this entry; keep going.
				return nil
			}
			if d.IsDir() {
				if safety.Pruned(path) || (path != root && rootSet[filepath.Clean(path)]) {
					return filepath.SkipDir
				}
				st.ScannedDirs++
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			if !visit(Entry{Path: path, Name: d.Name(), Info: info}) {
				stopped = true
				return fs.SkipAll
			}
			return nil
		})
	}

	st.Elapsed = time.Since(start)
	return st
}

// FormatUTC renders t as an ISO-8601 UTC timestamp with a trailing Z.
func FormatUTC(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
