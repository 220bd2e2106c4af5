package tools

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/petasbytes/localmind/internal/argnorm"
	"github.com/petasbytes/localmind/internal/sysinfo"
)

type ScheduledTasksInput struct {
	NamePattern     string `json:"name_pattern,omitempty" jsonschema_description:"Case-insensitive substring the task name must contain."`
	IncludeDisabled bool   `json:"include_disabled,omitempty" jsonschema:"default=true" jsonschema_description:"Include disabled tasks."`
	Folder          string `json:"folder,omitempty" jsonschema_description:"Only tasks whose path starts with this folder."`
	MaxResults      int    `json:"max_results,omitempty" jsonschema:"minimum=1,maximum=1000,default=200" jsonschema_description:"Maximum tasks to return."`
	TimeoutSeconds  int    `json:"timeout_seconds,omitempty" jsonschema:"minimum=2,maximum=30,default=6" jsonschema_description:"Seconds to wait for the task scheduler."`
}

type ScheduledTasksParams struct {
	NamePattern     string `json:"name_pattern"`
	IncludeDisabled bool   `json:"include_disabled"`
	Folder          string `json:"folder"`
	MaxResults      int    `json:"max_results"`
	TimeoutSeconds  int    `json:"timeout_seconds"`
}

type ScheduledTasksResult struct {
	Params       ScheduledTasksParams    `json:"params"`
	ResultsCount int                     `json:"results_count"`
	Tasks        []sysinfo.ScheduledTask `json:"tasks"`
}

func scheduledTasksTool(env Env) ToolDefinition {
	return define[ScheduledTasksInput](
		"list_scheduled_tasks",
		"Scheduled jobs (Task Scheduler on Windows, cron tables elsewhere), optionally filtered by name or folder.",
		func(ctx context.Context, args argnorm.Args) (any, error) {
			p := ScheduledTasksParams{
				NamePattern: args.String("name_pattern"),
				Folder:      args.String("folder"),
			}
			var err error
			if p.IncludeDisabled, err = args.Bool("include_disabled"); err != nil {
				return nil, err
			}
			if p.MaxResults, err = args.Int("max_results"); err != nil {
				return nil, err
			}
			if p.TimeoutSeconds, err = args.Int("timeout_seconds"); err != nil {
				return nil, err
			}

			ctx, cancel := context.WithTimeout(ctx, time.Duration(p.TimeoutSeconds)*time.Second)
			defer cancel()
			all, err := env.Host.ScheduledTasks(ctx)
			if errors.Is(err, context.DeadlineExceeded) {
				return Failure("timeout"), nil
			}
			if err != nil {
				return nil, err
			}

			tasks := filterTasks(all, p)
			return ScheduledTasksResult{Params: p, ResultsCount: len(tasks), Tasks: tasks}, nil
		},
	)
}

func filterTasks(all []sysinfo.ScheduledTask, p ScheduledTasksParams) []sysinfo.ScheduledTask {
	pattern := strings.ToLower(p.NamePattern)
	folder := strings.ToLower(strings.Trim(p.Folder, `\/`))
	out := []sysinfo.ScheduledTask{}
	for _, t := range all {
		if pattern != "" && !strings.Contains(strings.ToLower(t.Name), pattern) {
			continue
		}
		if folder != "" {
			path := strings.ToLower(strings.TrimLeft(t.Path, `\/`))
			if !strings.HasPrefix(path, folder) {
				continue
			}
		}
		if !p.IncludeDisabled && !t.Enabled {
			continue
		}
		out = append(out, t)
		if len(out) >= p.MaxResults {
			break
		}
	}
	return out
}
