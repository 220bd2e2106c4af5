package sysinfo

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"regexp"
	"strconv"
	"strings"
)

// ParseTasklistCSV parses `tasklist /V /FO CSV /NH`.
func ParseTasklistCSV(out []byte) []Process {
	r := csv.NewReader(bytes.NewReader(out))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	var procs []Process
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		if len(row) < 5 {
			continue
		}
		pid, err := strconv.Atoi(row[1])
		if err != nil {
			continue
		}
		p := Process{PID: pid, Name: row[0], MemoryBytes: parseKB(row[4])}
		if len(row) >= 7 {
			p.Status = strings.ToLower(row[5])
			if row[6] != "N/A" {
				p.User = row[6]
			}
		}
		procs = append(procs, p)
	}
	return procs
}

// parseKB reads sizes such as "150,123 K".
func parseKB(s string) uint64 {
	var digits strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	v, _ := strconv.ParseUint(digits.String(), 10, 64)
	return v * 1024
}

var netstatStates = map[string]string{
	"LISTENING": "LISTEN", "SYN_RECEIVED": "SYN_RECV", "FIN_WAIT_1": "FIN_WAIT1",
	"FIN_WAIT_2": "FIN_WAIT2", "CLOSED": "CLOSE",
}

// ParseNetstat parses `netstat -ano`.
func ParseNetstat(out []byte) []Connection {
	var conns []Connection
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		f := strings.Fields(sc.Text())
		if len(f) < 4 {
			continue
		}
		proto := strings.ToLower(f[0])
		var c Connection
		switch {
		case proto == "tcp" && len(f) >= 5:
			c.Status = f[3]
			if s, ok := netstatStates[c.Status]; ok {
				c.Status = s
			}
			c.PID, _ = strconv.Atoi(f[4])
		case proto == "udp":
			c.Status = "NONE"
			c.PID, _ = strconv.Atoi(f[3])
		default:
			continue
		}
		c.Proto = proto
		c.LAddr = f[1]
		if f[2] != "*:*" && f[2] != "0.0.0.0:0" && f[2] != "[::]:0" {
			c.RAddr = f[2]
		}
		conns = append(conns, c)
	}
	return conns
}

var regValueLine = regexp.MustCompile(`^\s+(.+?)\s+(REG_[A-Z_]+)\s*(.*)$`)

// ParseRegRun parses `reg query <Run key>` output into startup items.
func ParseRegRun(out []byte, location string) []StartupItem {
	var items []StartupItem
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		m := regValueLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		items = append(items, StartupItem{Name: m[1], Command: strings.TrimSpace(m[3]), Location: location, Enabled: true})
	}
	return items
}
