//go:build windows

package installer

import (
	"context"
	"os/exec"

	"github.com/gonutz/w32"
)

// launch starts a postinstall program. Waited launches go through
// exec so the exit status is observable; fire-and-forget launches use
// ShellExecute so non-executable targets (documents, URLs) open too.
func launch(ctx context.Context, target, params, workDir string, wait bool) error {
	if wait {
		cmd := exec.CommandContext(ctx, target, splitArgs(params)...)
		cmd.Dir = workDir
		return cmd.Run()
	}
	return w32.ShellExecute(0, "open", target, params, workDir, w32.SW_SHOWNORMAL)
}
