//go:build linux

package sysinfo

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testHost() *linuxHost {
	return &linuxHost{proc: "/proc", sampleInterval: 10 * time.Millisecond}
}

func TestLinuxHost_System(t *testing.T) {
	info, err := testHost().System(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Linux", info.OS)
	require.Positive(t, info.CPUCount)
	require.Positive(t, info.MemoryTotal)
	require.Len(t, info.Load, 3)
}

func TestLinuxHost_ProcessesIncludesSelf(t *testing.T) {
	procs, err := testHost().Processes(context.Background())
	require.NoError(t, err)

	self := os.Getpid()
	found := false
	for _, p := range procs {
		if p.PID == self {
			found = true
			require.NotEmpty(t, p.Name)
		}
	}
	require.True(t, found, "own pid %d missing", self)
}

func TestLinuxHost_ProcessDetail(t *testing.T) {
	d, err := testHost().Process(context.Background(), os.Getpid())
	require.NoError(t, err)
	require.Equal(t, os.Getpid(), d.PID)
	require.Positive(t, d.Threads)
	require.NotEmpty(t, d.Cmdline)

	_, err = testHost().Process(context.Background(), 1<<30)
	require.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)
}

func TestLinuxHost_CancelledSampling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testHost().Processes(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
