package callshape

import (
	"sort"
	"strings"
)

const (
	// maxScan caps how much message text is searched for embedded objects.
	maxScan = 64 << 10
	// maxCandidates caps how many balanced spans are returned.
	maxCandidates = 64
)

// embeddedObjects returns brace-balanced substrings of s that contain
// needle, ordered by their opening brace so an enclosing object comes
// before the objects nested in it. Braces inside JSON strings within an
// open object are ignored.
// A single pass with a stack finds every span.
func embeddedObjects(s, needle string) []string {
	if len(s) > maxScan {
		s = s[:maxScan]
	}

	type span struct{ start, end int }
	var (
		spans    []span
		stack    []int
		inString bool
		escaped  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			// Quotes in prose outside any object are plain text.
			if len(stack) > 0 {
				inString = true
			}
		case '{':
			stack = append(stack, i)
		case '}':
			if len(stack) == 0 {
				continue
			}
			start := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			spans = append(spans, span{start, i})
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	// Needle offsets, ascending, so each span is tested with a binary search.
	var hits []int
	for off := 0; ; {
		k := strings.Index(s[off:], needle)
		if k < 0 {
			break
		}
		hits = append(hits, off+k)
		off += k + 1
	}

	var out []string
	for _, sp := range spans {
		k := sort.SearchInts(hits, sp.start)
		if k == len(hits) || hits[k]+len(needle)-1 > sp.end {
			continue
		}
		out = append(out, s[sp.start:sp.end+1])
		if len(out) == maxCandidates {
			break
		}
	}
	return out
}
