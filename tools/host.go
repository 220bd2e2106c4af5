package tools

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/petasbytes/localmind/internal/argnorm"
	"github.com/petasbytes/localmind/internal/sysinfo"
)

type SystemOverviewInput struct {
	TopN int `json:"top_n,omitempty" jsonschema:"minimum=1,maximum=50,default=5" jsonschema_description:"How many top CPU and memory processes to include."`
}

type ListProcessesInput struct {
	SortBy string `json:"sort_by,omitempty" jsonschema:"enum=cpu,enum=mem,enum=name,default=cpu" jsonschema_description:"Sort key: cpu, mem or name."`
	TopN   int    `json:"top_n,omitempty" jsonschema:"minimum=1,maximum=100,default=10" jsonschema_description:"Maximum processes to return."`
}

type ProcessDetailInput struct {
	PID int `json:"pid" jsonschema:"minimum=0" jsonschema_description:"Process id to inspect."`
}

type NoInput struct{}

type SystemOverview struct {
	CPUPercent      float64                      `json:"cpu_percent"`
	Memory          MemorySummary                `json:"memory"`
	Disks           map[string]sysinfo.DiskUsage `json:"disks"`
	TopCPUProcesses []sysinfo.Process            `json:"top_cpu_processes"`
	TopMemProcesses []sysinfo.Process            `json:"top_mem_processes"`
}

type MemorySummary struct {
	TotalMB float64 `json:"total_mb"`
	UsedMB  float64 `json:"used_mb"`
	Percent float64 `json:"percent"`
}

func systemOverviewTool(env Env) ToolDefinition {
	return define[SystemOverviewInput](
		"get_system_overview",
		"Snapshot of CPU, memory, disks and the busiest processes.",
		func(ctx context.Context, args argnorm.Args) (any, error) {
			topN, err := args.Int("top_n")
			if err != nil {
				return nil, err
			}
			info, err := env.Host.System(ctx)
			if err != nil {
				return nil, err
			}
			procs, err := optional(env.Host.Processes(ctx))
			if err != nil {
				return nil, err
			}
			disks, err := optional(env.Host.Disks(ctx))
			if err != nil {
				return nil, err
			}
			used := info.MemoryTotal - info.MemoryAvailable
			out := SystemOverview{
				CPUPercent: totalCPU(procs, info.CPUCount),
				Memory: MemorySummary{
					TotalMB: toMB(info.MemoryTotal),
					UsedMB:  toMB(used),
					Percent: info.MemoryPercent,
				},
				Disks:           disks,
				TopCPUProcesses: topProcesses(procs, "cpu", topN),
				TopMemProcesses: topProcesses(procs, "mem", topN),
			}
			return out, nil
		},
	)
}

// optional drops ErrUnsupported so composite tools report what they can.
func optional[T any](v T, err error) (T, error) {
	if errors.Is(err, sysinfo.ErrUnsupported) {
		var zero T
		return zero, nil
	}
	return v, err
}

func totalCPU(procs []sysinfo.Process, cpus int) float64 {
	if cpus <= 0 {
		return 0
	}
	var sum float64
	for _, p := range procs {
		sum += p.CPUPercent
	}
	return round1(min(sum/float64(cpus), 100))
}

func toMB(b uint64) float64 { return round1(float64(b) / (1 << 20)) }

func round1(f float64) float64 { return float64(int64(f*10+0.5)) / 10 }

// topProcesses sorts a copy of procs by key and keeps the first n.
func topProcesses(procs []sysinfo.Process, key string, n int) []sysinfo.Process {
	out := append([]sysinfo.Process(nil), procs...)
	sort.SliceStable(out, func(i, j int) bool {
		switch key {
		case "mem":
			return out[i].MemoryBytes > out[j].MemoryBytes
		case "name":
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		default:
			return out[i].CPUPercent > out[j].CPUPercent
		}
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func listProcessesTool(env Env) ToolDefinition {
	return define[ListProcessesInput](
		"list_processes",
		"List running processes sorted by CPU, memory or name.",
		func(ctx context.Context, args argnorm.Args) (any, error) {
			topN, err := args.Int("top_n")
			if err != nil {
				return nil, err
			}
			sortBy := args.String("sort_by")
			switch sortBy {
			case "cpu", "mem", "name":
			default:
				return nil, &argnorm.ArgumentError{Tool: "list_processes", Field: "sort_by", Reason: "must be one of cpu, mem, name"}
			}
			procs, err := env.Host.Processes(ctx)
			if err != nil {
				return nil, err
			}
			return topProcesses(procs, sortBy, topN), nil
		},
	)
}

func processDetailTool(env Env) ToolDefinition {
	return define[ProcessDetailInput](
		"process_detail",
		"Details for one process: executable, command line, threads, open files, start time.",
		func(ctx context.Context, args argnorm.Args) (any, error) {
			pid, err := args.Int("pid")
			if err != nil {
				return nil, err
			}
			return env.Host.Process(ctx, pid)
		},
	)
}

func diskUsageTool(env Env) ToolDefinition {
	return define[NoInput](
		"disk_usage",
		"Total, used and free bytes for every mounted disk volume.",
		func(ctx context.Context, _ argnorm.Args) (any, error) {
			return env.Host.Disks(ctx)
		},
	)
}

func startupItemsTool(env Env) ToolDefinition {
	return define[NoInput](
		"startup_items",
		"Programs configured to start automatically at login or boot.",
		func(ctx context.Context, _ argnorm.Args) (any, error) {
			return env.Host.StartupItems(ctx)
		},
	)
}

func systemInfoTool(env Env) ToolDefinition {
	return define[NoInput](
		"get_system_info",
		"Operating system, hardware, memory and uptime facts.",
		func(ctx context.Context, _ argnorm.Args) (any, error) {
			return env.Host.System(ctx)
		},
	)
}
