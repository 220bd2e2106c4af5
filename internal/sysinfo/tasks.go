package sysinfo

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// ParseSchtasksCSV parses `schtasks /Query /V /FO CSV`. Header rows that
// schtasks repeats per folder are skipped.
func ParseSchtasksCSV(out []byte) ([]ScheduledTask, error) {
	r := csv.NewReader(bytes.NewReader(out))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("schtasks csv: %w", err)
	}
	var (
		cols  map[string]int
		tasks []ScheduledTask
	)
	for _, row := range rows {
		if len(row) > 1 && row[1] == "TaskName" {
			cols = make(map[string]int, len(row))
			for i, name := range row {
				cols[name] = i
			}
			continue
		}
		if cols == nil {
			continue
		}
		get := func(name string) string {
			if i, ok := cols[name]; ok && i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		path := get("TaskName")
		if path == "" {
			continue
		}
		triggers := get("Schedule Type")
		if start := get("Start Time"); start != "" && start != "N/A" {
			triggers += " at " + start
		}
		tasks = append(tasks, ScheduledTask{
			Name:     path[strings.LastIndex(path, `\`)+1:],
			Path:     path,
			Enabled:  !strings.EqualFold(get("Scheduled Task State"), "Disabled"),
			State:    get("Status"),
			NextRun:  get("Next Run Time"),
			LastRun:  get("Last Run Time"),
			Triggers: triggers,
			Actions:  get("Task To Run"),
		})
	}
	return tasks, nil
}

var (
	cronTimeField = regexp.MustCompile(`^[0-9*][0-9*/,\-]*$`)
	cronDateField = regexp.MustCompile(`^([0-9*][0-9*/,\-]*|[A-Za-z]{3}(-[A-Za-z]{3})?)$`)
)

// ParseCrontab parses one crontab file. System tables (/etc/crontab,
// /etc/cron.d) carry a user column.
func ParseCrontab(path string, data []byte, system bool) []ScheduledTask {
	var tasks []ScheduledTask
	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		schedule, command, ok := splitCronLine(line, system)
		if !ok {
			continue
		}
		tasks = append(tasks, ScheduledTask{
			Name:     fmt.Sprintf("%s:%d", filepath.Base(path), lineNo),
			Path:     path,
			Enabled:  true,
			State:    "Ready",
			NextRun:  "N/A",
			LastRun:  "N/A",
			Triggers: schedule,
			Actions:  command,
		})
	}
	return tasks
}

func splitCronLine(line string, system bool) (schedule, command string, ok bool) {
	fields := strings.Fields(line)
	width := 5
	switch {
	case strings.HasPrefix(fields[0], "@"):
		width = 1
	case !validCronTimes(fields):
		return "", "", false
	}
	schedule = strings.Join(fields[:width], " ")
	rest := fields[width:]
	if system {
		if len(rest) == 0 {
			return "", "", false
		}
		schedule += " (as " + rest[0] + ")"
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return "", "", false
	}
	return schedule, strings.Join(rest, " "), true
}

// validCronTimes reports whether fields starts with five schedule fields.
// Lines such as NAME=value environment settings fail this check.
func validCronTimes(fields []string) bool {
	if len(fields) < 5 || !cronTimeField.MatchString(fields[0]) || !cronTimeField.MatchString(fields[1]) {
		return false
	}
	for _, f := range fields[2:5] {
		if !cronDateField.MatchString(f) {
			return false
		}
	}
	return true
}
