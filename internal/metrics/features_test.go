package metrics_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petasbytes/localmind/internal/metrics"
)

func TestCountFeatures(t *testing.T) {
	cases := map[string]struct {
		in   string
		want metrics.Features
	}{
		"empty":            {"", metrics.Features{}},
		"question":         {"which process uses port 8080?", metrics.Features{Bytes: 29, Runes: 29, Words: 5, Lines: 1}},
		"multibyte":        {"héllö 世界", metrics.Features{Bytes: 14, Runes: 8, Words: 2, Lines: 1}},
		"trailing newline": {"a\nb\n", metrics.Features{Bytes: 4, Runes: 4, Words: 2, Lines: 3}},
		"crlf":             {"a\r\nb", metrics.Features{Bytes: 4, Runes: 4, Words: 2, Lines: 2}},
		"nbsp splits":      {"foo\u00A0bar", metrics.Features{Bytes: 8, Runes: 7, Words: 2, Lines: 1}},
		"zero width joins": {"foo\u200Bbar", metrics.Features{Bytes: 9, Runes: 7, Words: 1, Lines: 1}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, metrics.CountFeatures(tc.in))
		})
	}
}

func TestFeatures_JSONHasNoText(t *testing.T) {
	b, err := json.Marshal(metrics.CountFeatures("my secret folder"))
	require.NoError(t, err)
	require.JSONEq(t, `{"bytes":16,"runes":16,"words":3,"lines":1}`, string(b))
	require.False(t, strings.Contains(string(b), "secret"))
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"héllo wörld", 4, "héll"},
		{"世界世界", 2, "世界"},
		{"abc", 0, ""},
		{"abc", -1, ""},
	}
	for _, c := range cases {
		require.Equal(t, c.want, metrics.Truncate(c.in, c.n), "Truncate(%q, %d)", c.in, c.n)
	}
}
