package scan

import (
	"context"
	"math"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/match"
)

// Hit is one file matching a search query.
type Hit struct {
	Path        string    `json:"path"`
	SizeBytes   int64     `json:"size_bytes"`
	ModifiedUTC string    `json:"modified_utc"`
	Confidence  float64   `json:"confidence"`
	Modified    time.Time `json:"-"`
}

// SearchOptions configures Search.
//   - UseGlob: match Query as a case-insensitive glob; otherwise as a substring.
//   - Limit: maximum number of ranked hits returned (<= 0 means unlimited).
type SearchOptions struct {
	Query   string
	UseGlob bool
	Limit   int
}

// SearchResult is the ranked outcome of a bounded search.
type SearchResult struct {
	Hits  []Hit
	Stats Stats
}

// compactFactor controls how far the hit buffer may grow past Limit before
// it is re-ranked and trimmed.
const compactFactor = 4

// Search walks the budget's roots and returns files whose names match the
// query, ranked by confidence then recency.
func Search(ctx context.Context, b Budget, opts SearchOptions) SearchResult {
	var hits []Hit
	st := Walk(ctx, b, func(e Entry) bool {
		if !MatchName(e.Name, opts.Query, opts.UseGlob) {
			return true
		}
		mod := e.Info.ModTime()
		hits = append(hits, Hit{
			Path:        e.Path,
			SizeBytes:   e.Info.Size(),
			ModifiedUTC: FormatUTC(mod),
			Confidence:  Confidence(e.Name, opts.Query, opts.UseGlob),
			Modified:    mod,
		})
		// Ranking is a total order, so trimming a sorted buffer never drops
		// a hit that would have made the final cut.
		if opts.Limit > 0 && len(hits) >= opts.Limit*compactFactor {
			RankHits(hits)
			hits = hits[:opts.Limit]
		}
		return true
	})

	RankHits(hits)
	if opts.Limit > 0 && len(hits) > opts.Limit {
		hits = hits[:opts.Limit]
	}
	return SearchResult{Hits: hits, Stats: st}
}

// MatchName reports whether name matches query, case-insensitively. Glob
// queries follow fnmatch: *, ? and [seq] or [!seq] classes.
func MatchName(name, query string, useGlob bool) bool {
	n, q := strings.ToLower(name), strings.ToLower(query)
	if !useGlob {
		return strings.Contains(n, q)
	}
	if strings.ContainsRune(q, '[') {
		// An unterminated class is matched literally below.
		if ok, err := path.Match(classPattern(q), n); err == nil {
			return ok
		}
	}
	return match.Match(n, q)
}

// classPattern rewrites an fnmatch pattern for path.Match, which treats a
// backslash as an escape and negates with "[^".
func classPattern(q string) string {
	q = strings.ReplaceAll(q, `\`, `\\`)
	return strings.ReplaceAll(q, "[!", "[^")
}

// Confidence scores how well name matches query, in [0,1]:
//   - 1.0 exact (case-insensitive) match
//   - 0.9 suffix glob such as "*.xlsx" in glob mode
//   - max(0.6, 1 - 0.01*(len(name)-len(query))) when query is a substring
//   - 0.5 otherwise
func Confidence(name, query string, useGlob bool) float64 {
	n, q := strings.ToLower(name), strings.ToLower(query)
	if n == q {
		return 1.0
	}
	if useGlob && strings.HasPrefix(q, "*.") && strings.HasSuffix(n, q[1:]) {
		return 0.9
	}
	if strings.Contains(n, q) {
		return math.Max(0.6, 1.0-0.01*float64(len(n)-len(q)))
	}
	return 0.5
}

// RankHits orders hits by confidence desc, modification time desc, path asc.
func RankHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Confidence != hits[j].Confidence {
			return hits[i].Confidence > hits[j].Confidence
		}
		if !hits[i].Modified.Equal(hits[j].Modified) {
			return hits[i].Modified.After(hits[j].Modified)
		}
		return hits[i].Path < hits[j].Path
	})
}
