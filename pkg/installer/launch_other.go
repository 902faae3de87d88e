//go:build !windows

package installer

import (
	"context"
	"os/exec"
)

func launch(ctx context.Context, target, params, workDir string, wait bool) error {
	cmd := exec.CommandContext(ctx, target, splitArgs(params)...)
	cmd.Dir = workDir
	if wait {
		return cmd.Run()
	}
	return cmd.Start()
}
