package sysinfo

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
)

// procStat holds the /proc/<pid>/stat fields the collectors use.
type procStat struct {
	Name      string
	State     string
	PPID      int
	Ticks     uint64 // utime + stime
	Threads   int
	StartTick uint64
	RSSPages  uint64
}

// parseStat parses /proc/<pid>/stat. The command name may contain spaces and
// parentheses, so fields are located from the last ')'.
func parseStat(b []byte) (procStat, error) {
	s := string(b)
	open, closing := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || closing < open {
		return procStat{}, errors.New("malformed stat line")
	}
	f := strings.Fields(s[closing+1:])
	if len(f) < 22 {
		return procStat{}, fmt.Errorf("stat: %d fields", len(f))
	}
	num := func(i int) uint64 {
		v, _ := strconv.ParseUint(f[i], 10, 64)
		return v
	}
	return procStat{
		Name:      s[open+1 : closing],
		State:     f[0],
		PPID:      int(num(1)),
		Ticks:     num(11) + num(12),
		Threads:   int(num(17)),
		StartTick: num(19),
		RSSPages:  num(21),
	}, nil
}

var procStates = map[string]string{
	"R": "running", "S": "sleeping", "D": "disk-sleep", "Z": "zombie",
	"T": "stopped", "t": "tracing-stop", "X": "dead", "I": "idle",
}

// parseMeminfo returns /proc/meminfo values in bytes keyed by field name.
func parseMeminfo(r io.Reader) map[string]uint64 {
	out := map[string]uint64{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, rest, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		f := strings.Fields(rest)
		if len(f) == 0 {
			continue
		}
		v, err := strconv.ParseUint(f[0], 10, 64)
		if err != nil {
			continue
		}
		if len(f) > 1 && f[1] == "kB" {
			v *= 1024
		}
		out[key] = v
	}
	return out
}

// cpuTotalTicks sums the aggregate "cpu" line of /proc/stat.
func cpuTotalTicks(b []byte) uint64 {
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		f := strings.Fields(sc.Text())
		if len(f) == 0 || f[0] != "cpu" {
			continue
		}
		var total uint64
		for _, x := range f[1:] {
			v, _ := strconv.ParseUint(x, 10, 64)
			total += v
		}
		return total
	}
	return 0
}

// bootTime reads the btime line of /proc/stat.
func bootTime(b []byte) int64 {
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		if v, ok := strings.CutPrefix(sc.Text(), "btime "); ok {
			n, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			return n
		}
	}
	return 0
}

// uidFromStatus reads the real uid from /proc/<pid>/status.
func uidFromStatus(b []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		if v, ok := strings.CutPrefix(sc.Text(), "Uid:"); ok {
			if f := strings.Fields(v); len(f) > 0 {
				return f[0]
			}
		}
	}
	return ""
}

var tcpStates = map[string]string{
	"01": "ESTABLISHED", "02": "SYN_SENT", "03": "SYN_RECV", "04": "FIN_WAIT1",
	"05": "FIN_WAIT2", "06": "TIME_WAIT", "07": "CLOSE", "08": "CLOSE_WAIT",
	"09": "LAST_ACK", "0A": "LISTEN", "0B": "CLOSING",
}

// socketEntry is one row of /proc/net/{tcp,udp}[6].
type socketEntry struct {
	Conn  Connection
	Inode uint64
}

// parseProcNet parses a /proc/net socket table. proto is "tcp", "tcp6",
// "udp" or "udp6".
func parseProcNet(r io.Reader, proto string) []socketEntry {
	var out []socketEntry
	udp := strings.HasPrefix(proto, "udp")
	sc := bufio.NewScanner(r)
	sc.Scan() // header
	for sc.Scan() {
		f := strings.Fields(sc.Text())
		if len(f) < 10 {
			continue
		}
		laddr, err1 := decodeSocketAddr(f[1])
		raddr, err2 := decodeSocketAddr(f[2])
		if err1 != nil || err2 != nil {
			continue
		}
		status := tcpStates[strings.ToUpper(f[3])]
		if udp {
			status = "NONE"
		}
		inode, _ := strconv.ParseUint(f[9], 10, 64)
		out = append(out, socketEntry{
			Conn:  Connection{LAddr: laddr, RAddr: raddr, Status: status, Proto: strings.TrimSuffix(proto, "6")},
			Inode: inode,
		})
	}
	return out
}

// decodeSocketAddr converts "0100007F:0CEA" into "127.0.0.1:3306". The
// address is stored as host-order 32-bit words. An unset peer yields "".
func decodeSocketAddr(s string) (string, error) {
	hexIP, hexPort, ok := strings.Cut(s, ":")
	if !ok {
		return "", fmt.Errorf("bad socket address %q", s)
	}
	raw, err := hex.DecodeString(hexIP)
	if err != nil || (len(raw) != 4 && len(raw) != 16) {
		return "", fmt.Errorf("bad socket address %q", s)
	}
	port, err := strconv.ParseUint(hexPort, 16, 16)
	if err != nil {
		return "", fmt.Errorf("bad socket port %q", s)
	}
	ip := make(net.IP, len(raw))
	for w := 0; w < len(raw); w += 4 {
		ip[w], ip[w+1], ip[w+2], ip[w+3] = raw[w+3], raw[w+2], raw[w+1], raw[w]
	}
	if port == 0 && ip.IsUnspecified() {
		return "", nil
	}
	return net.JoinHostPort(ip.String(), strconv.FormatUint(port, 10)), nil
}

// mount is one line of /proc/self/mounts.
type mount struct {
	Device     string
	MountPoint string
	FSType     string
}

var diskFSTypes = map[string]bool{
	"ext2": true, "ext3": true, "ext4": true, "xfs": true, "btrfs": true, "zfs": true,
	"vfat": true, "exfat": true, "ntfs": true, "ntfs3": true, "fuseblk": true, "f2fs": true,
	"nfs": true, "nfs4": true, "cifs": true, "hfsplus": true, "9p": true, "virtiofs": true,
}

// parseMounts returns the disk-backed mounts, one per device.
func parseMounts(r io.Reader) []mount {
	var out []mount
	seen := map[string]bool{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		f := strings.Fields(sc.Text())
		if len(f) < 3 {
			continue
		}
		m := mount{Device: f[0], MountPoint: unescapeMount(f[1]), FSType: f[2]}
		if !diskFSTypes[m.FSType] || seen[m.Device] {
			continue
		}
		seen[m.Device] = true
		out = append(out, m)
	}
	return out
}

// unescapeMount decodes the octal escapes (\040 for space) used in mounts.
func unescapeMount(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// desktopEntry is the subset of an XDG .desktop file used for autostart.
type desktopEntry struct {
	Name    string
	Exec    string
	Enabled bool
}

// parseDesktopEntry reads the [Desktop Entry] group of a .desktop file.
func parseDesktopEntry(b []byte) desktopEntry {
	e := desktopEntry{Enabled: true}
	inGroup := false
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "[") {
			inGroup = line == "[Desktop Entry]"
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !inGroup || !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "Name":
			e.Name = strings.TrimSpace(val)
		case "Exec":
			e.Exec = strings.TrimSpace(val)
		case "Hidden":
			if strings.EqualFold(strings.TrimSpace(val), "true") {
				e.Enabled = false
			}
		case "X-GNOME-Autostart-enabled":
			if strings.EqualFold(strings.TrimSpace(val), "false") {
				e.Enabled = false
			}
		}
	}
	return e
}

// unitExecStart returns the first ExecStart= command of a systemd unit.
func unitExecStart(b []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		if v, ok := strings.CutPrefix(strings.TrimSpace(sc.Text()), "ExecStart="); ok {
			return strings.TrimLeft(strings.TrimSpace(v), "-@+!:")
		}
	}
	return ""
}
