package tools

import (
	"os"
	"path/filepath"

	"github.com/petasbytes/localmind/internal/safety"
	"github.com/petasbytes/localmind/internal/sysinfo"
)

// Env carries what the handlers need from the outside world.
type Env struct {
	Host sysinfo.Host
	// DefaultRoots supplies scan roots when a call names none or none survive
	// cleaning. Defaults to HomeRoots.
	DefaultRoots func() []string
}

// Registry returns every tool definition, in catalog order.
func Registry(env Env) []ToolDefinition {
	if env.Host == nil {
		env.Host = sysinfo.New()
	}
	if env.DefaultRoots == nil {
		env.DefaultRoots = HomeRoots
	}
	return []ToolDefinition{
		systemOverviewTool(env),
		listProcessesTool(env),
		processDetailTool(env),
		diskUsageTool(env),
		networkActivityTool(env),
		startupItemsTool(env),
		findFilesTool(env),
		listLargeFilesTool(env),
		wifiInfoTool(env),
		systemInfoTool(env),
		scheduledTasksTool(env),
	}
}

// HomeRoots lists the common user folders, then the home directory itself,
// keeping only those that exist. Without a home directory it falls back to
// the system root.
func HomeRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return []string{safety.SystemRoot()}
	}
	candidates := []string{
		filepath.Join(home, "Desktop"),
		filepath.Join(home, "Documents"),
		filepath.Join(home, "Downloads"),
		filepath.Join(home, "Pictures"),
		filepath.Join(home, "OneDrive"),
		home,
	}
	return safety.CleanRoots(candidates, safety.SystemRoot())
}
