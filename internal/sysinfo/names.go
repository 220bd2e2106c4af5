package sysinfo

import (
	"sync"
	"time"
)

// processNames maps pid to process name for the life of the process.
// Entries are never evicted; a recycled pid can report a stale name.
var processNames sync.Map

func cachedName(pid int, lookup func(int) string) string {
	if v, ok := processNames.Load(pid); ok {
		return v.(string)
	}
	name := lookup(pid)
	if name != "" {
		processNames.Store(pid, name)
	}
	return name
}

func formatUTC(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
