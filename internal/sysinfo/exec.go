package sysinfo

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// run executes an external command bound by ctx. A missing binary is
// reported as ErrUnsupported.
func run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err == nil {
		return out, nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupported)
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%s: %w", name, ctx.Err())
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) && len(ee.Stderr) > 0 {
		return nil, fmt.Errorf("%s: %w: %s", name, err, ee.Stderr)
	}
	return nil, fmt.Errorf("%s: %w", name, err)
}
