package tools

import (
	"context"
	"sync"
	"time"

	"github.com/petasbytes/localmind/internal/argnorm"
	"github.com/petasbytes/localmind/internal/scan"
)

type FindFilesInput struct {
	Query          string   `json:"query" jsonschema_description:"File name, substring or glob such as *.xlsx."`
	Roots          []string `json:"roots,omitempty" jsonschema_description:"Directories to search. Defaults to the common user folders."`
	MaxResults     int      `json:"max_results,omitempty" jsonschema:"minimum=1,maximum=1000,default=50" jsonschema_description:"Maximum matches to return."`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty" jsonschema:"minimum=1,maximum=60,default=8" jsonschema_description:"Search time limit; partial results are returned when it passes."`
	UseGlob        bool     `json:"use_glob,omitempty" jsonschema:"default=true" jsonschema_description:"Treat query as a glob; otherwise as a substring."`
}

type ListLargeFilesInput struct {
	TopN           int      `json:"top_n,omitempty" jsonschema:"minimum=1,maximum=200,default=20" jsonschema_description:"How many files (and folders) to return."`
	IncludeFolders bool     `json:"include_folders,omitempty" jsonschema:"default=false" jsonschema_description:"Also estimate the largest folders one level below each root."`
	Roots          []string `json:"roots,omitempty" jsonschema_description:"Directories to scan. Defaults to the common user folders."`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty" jsonschema:"minimum=2,maximum=60,default=10" jsonschema_description:"Scan time limit; partial results are returned when it passes."`
}

type FindFilesResult struct {
	Query          string     `json:"query"`
	Roots          []string   `json:"roots"`
	ElapsedSeconds float64    `json:"elapsed_seconds"`
	ScannedDirs    int        `json:"scanned_dirs"`
	TimedOut       bool       `json:"timed_out"`
	ResultsCount   int        `json:"results_count"`
	Results        []scan.Hit `json:"results"`
}

type LargeFilesParams struct {
	TopN           int      `json:"top_n"`
	IncludeFolders bool     `json:"include_folders"`
	Roots          []string `json:"roots"`
	TimeoutSeconds int      `json:"timeout_seconds"`
}

type LargeFilesResult struct {
	Params         LargeFilesParams `json:"params"`
	ElapsedSeconds float64          `json:"elapsed_seconds"`
	ScannedDirs    int              `json:"scanned_dirs"`
	TimedOut       bool             `json:"timed_out"`
	Files          []scan.Sized     `json:"files"`
	Folders        []scan.Sized     `json:"folders"`
}

// rootsOrDefault returns the cleaned roots from args, or the defaults when
// none survived cleaning.
func rootsOrDefault(env Env, args argnorm.Args) []string {
	if roots := args.Strings("roots"); len(roots) > 0 {
		return roots
	}
	return env.DefaultRoots()
}

func findFilesTool(env Env) ToolDefinition {
	return define[FindFilesInput](
		"find_files",
		"Search files by name under a time limit, ranked by match confidence then recency.",
		func(ctx context.Context, args argnorm.Args) (any, error) {
			query := args.String("query")
			limit, err := args.Int("max_results")
			if err != nil {
				return nil, err
			}
			timeout, err := args.Int("timeout_seconds")
			if err != nil {
				return nil, err
			}
			useGlob, err := args.Bool("use_glob")
			if err != nil {
				return nil, err
			}
			roots := rootsOrDefault(env, args)

			res := scan.Search(ctx, scan.NewBudget(time.Duration(timeout)*time.Second, roots), scan.SearchOptions{
				Query:   query,
				UseGlob: useGlob,
				Limit:   limit,
			})
			hits := res.Hits
			if hits == nil {
				hits = []scan.Hit{}
			}
			return FindFilesResult{
				Query:          query,
				Roots:          roots,
				ElapsedSeconds: res.Stats.ElapsedSeconds(),
				ScannedDirs:    res.Stats.ScannedDirs,
				TimedOut:       res.Stats.TimedOut,
				ResultsCount:   len(hits),
				Results:        hits,
			}, nil
		},
		"roots",
	)
}

func listLargeFilesTool(env Env) ToolDefinition {
	return define[ListLargeFilesInput](
		"list_large_files",
		"Largest files (and optionally folders) under the given roots, found within a time limit.",
		func(ctx context.Context, args argnorm.Args) (any, error) {
			p := LargeFilesParams{Roots: rootsOrDefault(env, args)}
			var err error
			if p.TopN, err = args.Int("top_n"); err != nil {
				return nil, err
			}
			if p.IncludeFolders, err = args.Bool("include_folders"); err != nil {
				return nil, err
			}
			if p.TimeoutSeconds, err = args.Int("timeout_seconds"); err != nil {
				return nil, err
			}

			start := time.Now()
			budget := scan.NewBudget(time.Duration(p.TimeoutSeconds)*time.Second, p.Roots)
			var (
				wg                    sync.WaitGroup
				files, folders        []scan.Sized
				fileStats, folderStat scan.Stats
				panics                [2]any
			)
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { panics[0] = recover() }()
				files, fileStats = scan.Largest(ctx, budget, p.TopN)
			}()
			if p.IncludeFolders {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer func() { panics[1] = recover() }()
					folders, folderStat = scan.LargestDirs(ctx, budget, p.TopN)
				}()
			}
			wg.Wait()
			// Re-raise on the handler goroutine, where the dispatcher recovers.
			for _, v := range panics {
				if v != nil {
					panic(v)
				}
			}

			if files == nil {
				files = []scan.Sized{}
			}
			if folders == nil {
				folders = []scan.Sized{}
			}
			elapsed := scan.Stats{Elapsed: time.Since(start)}
			return LargeFilesResult{
				Params:         p,
				ElapsedSeconds: elapsed.ElapsedSeconds(),
				ScannedDirs:    fileStats.ScannedDirs,
				TimedOut:       fileStats.TimedOut || folderStat.TimedOut,
				Files:          files,
				Folders:        folders,
			}, nil
		},
		"roots",
	)
}
