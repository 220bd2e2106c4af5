//go:build !linux && !windows

package sysinfo

import (
	"context"
	"os"
	"runtime"
)

type otherHost struct{}

// New returns the collector for the running OS. Only System is available
// here.
func New() Host { return otherHost{} }

func (otherHost) System(ctx context.Context) (SystemInfo, error) {
	hostname, _ := os.Hostname()
	return SystemInfo{Hostname: hostname, OS: runtime.GOOS, Arch: runtime.GOARCH, CPUCount: runtime.NumCPU()}, nil
}

func (otherHost) Processes(context.Context) ([]Process, error) { return nil, ErrUnsupported }

func (otherHost) Process(context.Context, int) (ProcessDetail, error) {
	return ProcessDetail{}, ErrUnsupported
}

func (otherHost) Disks(context.Context) (map[string]DiskUsage, error) { return nil, ErrUnsupported }

func (otherHost) Connections(context.Context) ([]Connection, error) { return nil, ErrUnsupported }

func (otherHost) StartupItems(context.Context) ([]StartupItem, error) { return nil, ErrUnsupported }

func (otherHost) WiFi(context.Context) ([]WiFiNetwork, error) { return nil, ErrUnsupported }

func (otherHost) ScheduledTasks(context.Context) ([]ScheduledTask, error) { return nil, ErrUnsupported }
