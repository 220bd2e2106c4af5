//go:build linux

package sysinfo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// clockTicks is USER_HZ, fixed at 100 on every mainstream Linux build.
const clockTicks = 100

type linuxHost struct {
	proc           string
	sampleInterval time.Duration
}

// New returns the collector for the running OS.
func New() Host {
	return &linuxHost{proc: "/proc", sampleInterval: 250 * time.Millisecond}
}

func (h *linuxHost) path(elems ...string) string {
	return filepath.Join(append([]string{h.proc}, elems...)...)
}

func (h *linuxHost) System(ctx context.Context) (SystemInfo, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return SystemInfo{}, fmt.Errorf("uname: %w", err)
	}
	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err != nil {
		return SystemInfo{}, fmt.Errorf("sysinfo: %w", err)
	}
	hostname, _ := os.Hostname()
	info := SystemInfo{
		Hostname:      hostname,
		OS:            unix.ByteSliceToString(u.Sysname[:]),
		Release:       unix.ByteSliceToString(u.Release[:]),
		Version:       unix.ByteSliceToString(u.Version[:]),
		Arch:          unix.ByteSliceToString(u.Machine[:]),
		CPUCount:      runtime.NumCPU(),
		UptimeSeconds: int64(si.Uptime),
	}
	info.BootTimeUTC = formatUTC(time.Now().Add(-time.Duration(info.UptimeSeconds) * time.Second))

	unit := uint64(si.Unit)
	if unit == 0 {
		unit = 1
	}
	info.MemoryTotal = uint64(si.Totalram) * unit
	info.MemoryAvailable = uint64(si.Freeram) * unit
	if mi := h.meminfo(); mi != nil {
		if v, ok := mi["MemTotal"]; ok {
			info.MemoryTotal = v
		}
		if v, ok := mi["MemAvailable"]; ok {
			info.MemoryAvailable = v
		}
	}
	info.MemoryPercent = percent(info.MemoryTotal-info.MemoryAvailable, info.MemoryTotal)

	const loadScale = 1 << 16 // SI_LOAD_SHIFT
	for _, l := range si.Loads {
		info.Load = append(info.Load, math.Round(float64(l)/loadScale*100)/100)
	}
	return info, nil
}

func (h *linuxHost) meminfo() map[string]uint64 {
	f, err := os.Open(h.path("meminfo"))
	if err != nil {
		return nil
	}
	defer f.Close()
	return parseMeminfo(f)
}

// snapshot reads stat for every pid plus the machine-wide tick total.
func (h *linuxHost) snapshot(ctx context.Context) (map[int]procStat, uint64, error) {
	entries, err := os.ReadDir(h.proc)
	if err != nil {
		return nil, 0, err
	}
	stats := make(map[int]procStat, len(entries))
	for _, e := range entries {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		b, err := os.ReadFile(h.path(e.Name(), "stat"))
		if err != nil {
			continue // exited
		}
		if st, err := parseStat(b); err == nil {
			stats[pid] = st
		}
	}
	b, err := os.ReadFile(h.path("stat"))
	if err != nil {
		return nil, 0, err
	}
	return stats, cpuTotalTicks(b), nil
}

func (h *linuxHost) pause(ctx context.Context) error {
	t := time.NewTimer(h.sampleInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (h *linuxHost) Processes(ctx context.Context) ([]Process, error) {
	first, total1, err := h.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.pause(ctx); err != nil {
		return nil, err
	}
	second, total2, err := h.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var memTotal uint64
	if mi := h.meminfo(); mi != nil {
		memTotal = mi["MemTotal"]
	}
	users := map[string]string{}
	out := make([]Process, 0, len(second))
	for pid, st := range second {
		p := h.process(pid, st, memTotal, users)
		if prev, ok := first[pid]; ok {
			p.CPUPercent = cpuPercent(prev.Ticks, st.Ticks, total1, total2)
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out, nil
}

func (h *linuxHost) process(pid int, st procStat, memTotal uint64, users map[string]string) Process {
	rss := st.RSSPages * uint64(os.Getpagesize())
	return Process{
		PID:           pid,
		Name:          st.Name,
		User:          h.owner(pid, users),
		MemoryBytes:   rss,
		MemoryPercent: percent(rss, memTotal),
		Status:        procStates[st.State],
	}
}

// cpuPercent is per-core usage between two samples, as top reports it.
func cpuPercent(ticks1, ticks2, total1, total2 uint64) float64 {
	if total2 <= total1 || ticks2 < ticks1 {
		return 0
	}
	return round1(float64(ticks2-ticks1) / float64(total2-total1) * 100 * float64(runtime.NumCPU()))
}

func (h *linuxHost) owner(pid int, cache map[string]string) string {
	b, err := os.ReadFile(h.path(strconv.Itoa(pid), "status"))
	if err != nil {
		return ""
	}
	uid := uidFromStatus(b)
	if name, ok := cache[uid]; ok {
		return name
	}
	name := uid
	if u, err := user.LookupId(uid); err == nil {
		name = u.Username
	}
	cache[uid] = name
	return name
}

func (h *linuxHost) Process(ctx context.Context, pid int) (ProcessDetail, error) {
	dir := strconv.Itoa(pid)
	read := func() (procStat, uint64, error) {
		b, err := os.ReadFile(h.path(dir, "stat"))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return procStat{}, 0, fmt.Errorf("no process with pid %d: %w", pid, fs.ErrNotExist)
			}
			return procStat{}, 0, err
		}
		st, err := parseStat(b)
		if err != nil {
			return procStat{}, 0, err
		}
		sb, err := os.ReadFile(h.path("stat"))
		if err != nil {
			return procStat{}, 0, err
		}
		return st, cpuTotalTicks(sb), nil
	}
	first, total1, err := read()
	if err != nil {
		return ProcessDetail{}, err
	}
	if err := h.pause(ctx); err != nil {
		return ProcessDetail{}, err
	}
	st, total2, err := read()
	if err != nil {
		return ProcessDetail{}, err
	}

	var memTotal uint64
	if mi := h.meminfo(); mi != nil {
		memTotal = mi["MemTotal"]
	}
	d := ProcessDetail{
		Process: h.process(pid, st, memTotal, map[string]string{}),
		PPID:    st.PPID,
		Threads: st.Threads,
	}
	d.CPUPercent = cpuPercent(first.Ticks, st.Ticks, total1, total2)
	d.Exe, _ = os.Readlink(h.path(dir, "exe"))
	d.Cwd, _ = os.Readlink(h.path(dir, "cwd"))
	if raw, err := os.ReadFile(h.path(dir, "cmdline")); err == nil {
		if s := strings.TrimRight(string(raw), "\x00"); s != "" {
			d.Cmdline = strings.Split(s, "\x00")
		}
	}
	if fds, err := os.ReadDir(h.path(dir, "fd")); err == nil {
		d.OpenFiles = len(fds)
	}
	if sb, err := os.ReadFile(h.path("stat")); err == nil {
		if bt := bootTime(sb); bt > 0 {
			d.StartedUTC = formatUTC(time.Unix(bt+int64(st.StartTick/clockTicks), 0))
		}
	}
	return d, nil
}

func (h *linuxHost) Disks(ctx context.Context) (map[string]DiskUsage, error) {
	f, err := os.Open(h.path("self", "mounts"))
	if err != nil {
		return nil, err
	}
	mounts := parseMounts(f)
	f.Close()

	out := make(map[string]DiskUsage, len(mounts))
	for _, m := range mounts {
		if ctx.Err() != nil {
			break
		}
		var st unix.Statfs_t
		if err := unix.Statfs(m.MountPoint, &st); err != nil {
			continue
		}
		bsize := uint64(st.Bsize)
		total := uint64(st.Blocks) * bsize
		if total == 0 {
			continue
		}
		free := uint64(st.Bavail) * bsize
		used := (uint64(st.Blocks) - uint64(st.Bfree)) * bsize
		out[m.MountPoint] = DiskUsage{BytesTotal: total, BytesUsed: used, BytesFree: free, PercentUsed: percent(used, used+free)}
	}
	return out, nil
}

func (h *linuxHost) Connections(ctx context.Context) ([]Connection, error) {
	var socks []socketEntry
	for _, proto := range []string{"tcp", "tcp6", "udp", "udp6"} {
		f, err := os.Open(h.path("net", proto))
		if err != nil {
			continue
		}
		socks = append(socks, parseProcNet(f, proto)...)
		f.Close()
	}
	owners := h.socketOwners(ctx)
	out := make([]Connection, 0, len(socks))
	for _, s := range socks {
		c := s.Conn
		if pid, ok := owners[s.Inode]; ok {
			c.PID = pid
			c.ProcessName = cachedName(pid, h.comm)
		}
		out = append(out, c)
	}
	return out, nil
}

// socketOwners maps socket inodes to the pid holding them. Processes owned
// by other users are skipped when their fd table is unreadable.
func (h *linuxHost) socketOwners(ctx context.Context) map[uint64]int {
	owners := map[uint64]int{}
	entries, err := os.ReadDir(h.proc)
	if err != nil {
		return owners
	}
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		fds, err := os.ReadDir(h.path(e.Name(), "fd"))
		if err != nil {
			continue
		}
		for _, fd := range fds {
			link, err := os.Readlink(h.path(e.Name(), "fd", fd.Name()))
			if err != nil {
				continue
			}
			if v, ok := strings.CutPrefix(link, "socket:["); ok {
				if inode, err := strconv.ParseUint(strings.TrimSuffix(v, "]"), 10, 64); err == nil {
					owners[inode] = pid
				}
			}
		}
	}
	return owners
}

func (h *linuxHost) comm(pid int) string {
	b, err := os.ReadFile(h.path(strconv.Itoa(pid), "comm"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func (h *linuxHost) StartupItems(ctx context.Context) ([]StartupItem, error) {
	var items []StartupItem
	for _, dir := range autostartDirs() {
		matches, _ := filepath.Glob(filepath.Join(dir, "*.desktop"))
		for _, p := range matches {
			b, err := os.ReadFile(p)
			if err != nil {
				continue
			}
			e := parseDesktopEntry(b)
			if e.Name == "" {
				e.Name = strings.TrimSuffix(filepath.Base(p), ".desktop")
			}
			items = append(items, StartupItem{Name: e.Name, Command: e.Exec, Location: p, Enabled: e.Enabled})
		}
	}
	for _, pattern := range systemdWantsGlobs() {
		if ctx.Err() != nil {
			break
		}
		matches, _ := filepath.Glob(pattern)
		for _, p := range matches {
			b, err := os.ReadFile(p)
			if err != nil {
				continue
			}
			items = append(items, StartupItem{Name: filepath.Base(p), Command: unitExecStart(b), Location: p, Enabled: true})
		}
	}
	return items, nil
}

func configHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

func autostartDirs() []string {
	dirs := []string{filepath.Join(configHome(), "autostart")}
	sys := os.Getenv("XDG_CONFIG_DIRS")
	if sys == "" {
		sys = "/etc/xdg"
	}
	for _, d := range filepath.SplitList(sys) {
		dirs = append(dirs, filepath.Join(d, "autostart"))
	}
	return dirs
}

func systemdWantsGlobs() []string {
	return []string{
		"/etc/systemd/system/*.target.wants/*.service",
		filepath.Join(configHome(), "systemd", "user", "*.target.wants", "*.service"),
	}
}

func (h *linuxHost) WiFi(ctx context.Context) ([]WiFiNetwork, error) {
	out, err := run(ctx, "nmcli", nmcliWiFiArgs...)
	if err != nil {
		return nil, err
	}
	return ParseNmcli(out), nil
}

var crontabSources = []struct {
	glob   string
	system bool
}{
	{"/etc/crontab", true},
	{"/etc/cron.d/*", true},
	{"/var/spool/cron/crontabs/*", false},
	{"/var/spool/cron/*", false},
}

func (h *linuxHost) ScheduledTasks(ctx context.Context) ([]ScheduledTask, error) {
	var tasks []ScheduledTask
	for _, src := range crontabSources {
		matches, _ := filepath.Glob(src.glob)
		for _, p := range matches {
			if ctx.Err() != nil {
				return tasks, ctx.Err()
			}
			b, err := os.ReadFile(p)
			if err != nil {
				continue // directories and root-only tables
			}
			tasks = append(tasks, ParseCrontab(p, b, src.system)...)
		}
	}
	return tasks, nil
}
