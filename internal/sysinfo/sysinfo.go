package sysinfo

import (
	"context"
	"errors"
)

// ErrUnsupported reports a collector the running OS cannot serve.
var ErrUnsupported = errors.New("not supported on this platform")

// Host is the set of read-only collectors the tools call.
type Host interface {
	System(ctx context.Context) (SystemInfo, error)
	Processes(ctx context.Context) ([]Process, error)
	Process(ctx context.Context, pid int) (ProcessDetail, error)
	Disks(ctx context.Context) (map[string]DiskUsage, error)
	Connections(ctx context.Context) ([]Connection, error)
	StartupItems(ctx context.Context) ([]StartupItem, error)
	WiFi(ctx context.Context) ([]WiFiNetwork, error)
	ScheduledTasks(ctx context.Context) ([]ScheduledTask, error)
}

// SystemInfo describes the machine and its memory.
type SystemInfo struct {
	Hostname        string    `json:"hostname"`
	OS              string    `json:"os"`
	Release         string    `json:"release"`
	Version         string    `json:"version,omitempty"`
	Arch            string    `json:"arch"`
	CPUCount        int       `json:"cpu_count"`
	UptimeSeconds   int64     `json:"uptime_seconds"`
	BootTimeUTC     string    `json:"boot_time_utc,omitempty"`
	MemoryTotal     uint64    `json:"memory_total_bytes"`
	MemoryAvailable uint64    `json:"memory_available_bytes"`
	MemoryPercent   float64   `json:"memory_percent_used"`
	Load            []float64 `json:"load_average,omitempty"`
}

// Process is one running process.
type Process struct {
	PID           int     `json:"pid"`
	Name          string  `json:"name"`
	User          string  `json:"user,omitempty"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryBytes   uint64  `json:"memory_bytes"`
	MemoryPercent float64 `json:"memory_percent"`
	Status        string  `json:"status,omitempty"`
}

// ProcessDetail extends Process with fields only worth reading for one pid.
type ProcessDetail struct {
	Process
	PPID       int      `json:"ppid"`
	Exe        string   `json:"exe,omitempty"`
	Cmdline    []string `json:"cmdline,omitempty"`
	Cwd        string   `json:"cwd,omitempty"`
	Threads    int      `json:"threads"`
	OpenFiles  int      `json:"open_files"`
	StartedUTC string   `json:"started_utc,omitempty"`
}

// DiskUsage is the usage of one mounted volume.
type DiskUsage struct {
	BytesTotal  uint64  `json:"bytes_total"`
	BytesUsed   uint64  `json:"bytes_used"`
	BytesFree   uint64  `json:"bytes_free"`
	PercentUsed float64 `json:"percent_used"`
}

// Connection is one socket with its owning process, when known.
type Connection struct {
	PID         int    `json:"pid"`
	ProcessName string `json:"process_name"`
	LAddr       string `json:"laddr"`
	RAddr       string `json:"raddr"`
	Status      string `json:"status"`
	Proto       string `json:"proto"`
}

// StartupItem is a program configured to start at login or boot.
type StartupItem struct {
	Name     string `json:"name"`
	Command  string `json:"command"`
	Location string `json:"location"`
	Enabled  bool   `json:"enabled"`
}

// WiFiNetwork is one visible wireless network.
type WiFiNetwork struct {
	SSID           string  `json:"ssid"`
	Authentication string  `json:"authentication"`
	Encryption     string  `json:"encryption"`
	BSSIDs         []BSSID `json:"bssids"`
}

// BSSID is one access point advertising a network.
type BSSID struct {
	BSSID         string `json:"bssid"`
	SignalPercent int    `json:"signal_percent"`
	Channel       int    `json:"channel"`
}

// ScheduledTask is one scheduled job.
type ScheduledTask struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Enabled  bool   `json:"enabled"`
	State    string `json:"state"`
	NextRun  string `json:"next_run"`
	LastRun  string `json:"last_run"`
	Triggers string `json:"triggers"`
	Actions  string `json:"actions"`
}

func percent(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(part) * 100 / float64(total))
}

func round1(f float64) float64 {
	return float64(int64(f*10+0.5)) / 10
}
