//go:build windows

package sysinfo

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strconv"

	"golang.org/x/sys/windows"
)

type windowsHost struct{}

// New returns the collector for the running OS.
func New() Host { return windowsHost{} }

func (windowsHost) System(ctx context.Context) (SystemInfo, error) {
	hostname, _ := os.Hostname()
	v := windows.RtlGetVersion()
	return SystemInfo{
		Hostname:      hostname,
		OS:            "Windows",
		Release:       fmt.Sprintf("%d.%d", v.MajorVersion, v.MinorVersion),
		Version:       strconv.FormatUint(uint64(v.BuildNumber), 10),
		Arch:          runtime.GOARCH,
		CPUCount:      runtime.NumCPU(),
		UptimeSeconds: int64(windows.DurationSinceBoot().Seconds()),
	}, nil
}

func (windowsHost) Processes(ctx context.Context) ([]Process, error) {
	out, err := run(ctx, "tasklist", "/V", "/FO", "CSV", "/NH")
	if err != nil {
		return nil, err
	}
	procs := ParseTasklistCSV(out)
	sort.Slice(procs, func(i, j int) bool { return procs[i].PID < procs[j].PID })
	return procs, nil
}

func (h windowsHost) Process(ctx context.Context, pid int) (ProcessDetail, error) {
	out, err := run(ctx, "tasklist", "/V", "/FO", "CSV", "/NH", "/FI", fmt.Sprintf("PID eq %d", pid))
	if err != nil {
		return ProcessDetail{}, err
	}
	for _, p := range ParseTasklistCSV(out) {
		if p.PID == pid {
			return ProcessDetail{Process: p}, nil
		}
	}
	return ProcessDetail{}, fmt.Errorf("no process with pid %d: %w", pid, os.ErrNotExist)
}

func (windowsHost) Disks(ctx context.Context) (map[string]DiskUsage, error) {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil, err
	}
	out := map[string]DiskUsage{}
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		root := string(rune('A'+i)) + `:\`
		p, err := windows.UTF16PtrFromString(root)
		if err != nil {
			continue
		}
		var avail, total, free uint64
		if err := windows.GetDiskFreeSpaceEx(p, &avail, &total, &free); err != nil || total == 0 {
			continue
		}
		used := total - free
		out[root] = DiskUsage{BytesTotal: total, BytesUsed: used, BytesFree: free, PercentUsed: percent(used, total)}
	}
	return out, nil
}

func (h windowsHost) Connections(ctx context.Context) ([]Connection, error) {
	out, err := run(ctx, "netstat", "-ano")
	if err != nil {
		return nil, err
	}
	conns := ParseNetstat(out)
	var names map[int]string
	for i := range conns {
		pid := conns[i].PID
		conns[i].ProcessName = cachedName(pid, func(pid int) string {
			if names == nil {
				names = map[int]string{}
				if procs, err := h.Processes(ctx); err == nil {
					for _, p := range procs {
						names[p.PID] = p.Name
					}
				}
			}
			return names[pid]
		})
	}
	return conns, nil
}

var runKeys = []string{
	`HKCU\Software\Microsoft\Windows\CurrentVersion\Run`,
	`HKLM\Software\Microsoft\Windows\CurrentVersion\Run`,
	`HKLM\Software\WOW6432Node\Microsoft\Windows\CurrentVersion\Run`,
}

func (windowsHost) StartupItems(ctx context.Context) ([]StartupItem, error) {
	var items []StartupItem
	for _, key := range runKeys {
		out, err := run(ctx, "reg", "query", key)
		if err != nil {
			continue
		}
		items = append(items, ParseRegRun(out, key)...)
	}
	return items, nil
}

func (windowsHost) WiFi(ctx context.Context) ([]WiFiNetwork, error) {
	out, err := run(ctx, "netsh", "wlan", "show", "networks", "mode=bssid")
	if err != nil {
		return nil, err
	}
	return ParseNetsh(out), nil
}

func (windowsHost) ScheduledTasks(ctx context.Context) ([]ScheduledTask, error) {
	out, err := run(ctx, "schtasks", "/Query", "/V", "/FO", "CSV")
	if err != nil {
		return nil, err
	}
	return ParseSchtasksCSV(out)
}
