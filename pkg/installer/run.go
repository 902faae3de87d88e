// pkg/installer/run.go - postinstall program launches.

package installer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/windowsadmins/packforge/pkg/logging"
	"github.com/windowsadmins/packforge/pkg/manifest"
)

// PostInstallRuns returns the run entries this install should launch,
// honoring silent mode, each entry's default, and the interactive
// confirmation callback.
func (e *Engine) PostInstallRuns() []manifest.RunEntry {
	if e.opts.NoRun {
		return nil
	}
	var out []manifest.RunEntry
	for _, r := range e.rec.Manifest.Run {
		if e.opts.Silent {
			if r.SkipIfSilent || r.Unchecked {
				continue
			}
		} else if e.opts.ConfirmRun != nil {
			if !e.opts.ConfirmRun(r) {
				continue
			}
		} else if r.Unchecked {
			// Opt-in entries stay off without a user to opt in.
			continue
		}
		out = append(out, r)
	}
	return out
}

// ExecuteRuns launches every selected run entry. Launch failures are
// reported but never undo the install.
func (e *Engine) ExecuteRuns(ctx context.Context) error {
	for _, r := range e.PostInstallRuns() {
		if err := checkCancelled(ctx); err != nil {
			return err
		}
		if err := e.executeRun(ctx, r); err != nil {
			logging.Warn("Postinstall program failed", "target", r.Target, "error", err)
		}
	}
	return nil
}

func (e *Engine) executeRun(ctx context.Context, r manifest.RunEntry) error {
	target, err := e.res.Expand(r.Target)
	if err != nil {
		return err
	}
	target = filepath.FromSlash(strings.ReplaceAll(target, `\`, "/"))
	params, err := e.res.Expand(r.Parameters)
	if err != nil {
		return err
	}
	logging.Info("Launching", "target", target, "params", params, "wait", !r.NoWait)
	if err := launch(ctx, target, params, filepath.Dir(target), !r.NoWait); err != nil {
		return fmt.Errorf("failed to launch %s: %w", target, err)
	}
	return nil
}

// splitArgs breaks a parameter string into argv fields, honoring
// double quotes.
func splitArgs(s string) []string {
	var args []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			args = append(args, cur.String())
			cur.Reset()
		}
	}
	for _, c := range s {
		switch {
		case c == '"':
			inQuote = !inQuote
		case c == ' ' && !inQuote:
			flush()
		default:
			cur.WriteRune(c)
		}
	}
	flush()
	return args
}
