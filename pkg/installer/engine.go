// pkg/installer/engine.go - the sequential install engine.
//
// The engine executes one install: resolve the target directory, copy
// payload files, create shortcuts, write registry entries, write the
// receipt. Every side effect lands in the rollback journal first; any
// failure or cancellation unwinds the whole run.

package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	goversion "github.com/hashicorp/go-version"

	"github.com/windowsadmins/packforge/pkg/blocking"
	"github.com/windowsadmins/packforge/pkg/consts"
	"github.com/windowsadmins/packforge/pkg/logging"
	"github.com/windowsadmins/packforge/pkg/manifest"
	"github.com/windowsadmins/packforge/pkg/payload"
	"github.com/windowsadmins/packforge/pkg/regstore"
	"github.com/windowsadmins/packforge/pkg/sfx"
	"github.com/windowsadmins/packforge/pkg/shortcut"
	"github.com/windowsadmins/packforge/pkg/sysinfo"
	"github.com/windowsadmins/packforge/pkg/utils"
)

// Options selects how one install runs.
type Options struct {
	// InstallDir overrides the manifest's default directory template.
	InstallDir string
	// Silent suppresses interaction; skipifsilent run entries are skipped.
	Silent bool
	// Tasks is the final set of selected task names.
	Tasks []string
	// NoRun suppresses postinstall run entries.
	NoRun bool
	// ConfirmRun decides each run entry when interactive. Nil leaves
	// the entry's own default: checked entries launch, unchecked stay
	// off.
	ConfirmRun func(manifest.RunEntry) bool
	// SkipBlockingCheck disables the running-application check.
	SkipBlockingCheck bool
}

// Engine executes installs from one opened artifact.
type Engine struct {
	rec         sfx.Record
	payload     io.ReaderAt
	payloadSize int64
	res         *consts.Resolver
	reg         regstore.Store
	shortcuts   shortcut.Creator
	opts        Options
}

// New builds an Engine from an opened artifact and the platform
// services it installs through.
func New(a *sfx.Archive, res *consts.Resolver, reg regstore.Store, sc shortcut.Creator, opts Options) *Engine {
	return NewFromParts(a.Record, a.Payload(), a.PayloadSize, res, reg, sc, opts)
}

// NewFromParts builds an Engine from its raw pieces (tests, inspection
// tools).
func NewFromParts(rec sfx.Record, pl io.ReaderAt, size int64, res *consts.Resolver, reg regstore.Store, sc shortcut.Creator, opts Options) *Engine {
	return &Engine{
		rec:         rec,
		payload:     pl,
		payloadSize: size,
		res:         res,
		reg:         reg,
		shortcuts:   sc,
		opts:        opts,
	}
}

// Manifest returns the artifact's manifest.
func (e *Engine) Manifest() manifest.Manifest { return e.rec.Manifest }

// plannedFile pairs an archive member with its resolved destination.
type plannedFile struct {
	member payload.Member
	entry  manifest.FileEntry
	dest   string
	skip   bool
	reason string
}

// Install runs the whole install. On error or context cancellation it
// rolls back everything already done and reports why.
func (e *Engine) Install(ctx context.Context) (*Receipt, error) {
	m := e.rec.Manifest

	if err := sysinfo.CheckMinVersion(m.MinVersion); err != nil {
		return nil, err
	}

	installDir, err := e.resolveInstallDir()
	if err != nil {
		return nil, err
	}
	logging.Info("Installing", "app", m.AppName, "version", m.AppVersion, "dir", installDir)

	prev, err := LoadReceipt(installDir)
	if err != nil {
		logging.Warn("Ignoring unreadable previous receipt", "error", err)
	}

	plan, err := e.planFiles(installDir, prev)
	if err != nil {
		return nil, err
	}

	if !e.opts.SkipBlockingCheck {
		if err := e.checkBlocking(plan); err != nil {
			return nil, err
		}
	}

	j := &journal{}
	var backups []string
	receipt, err := e.run(ctx, j, &backups, installDir, plan)
	if err != nil {
		logging.Error("Install failed, rolling back", "error", err)
		j.rollback()
		removeBackups(backups)
		return nil, err
	}

	removeBackups(backups)
	logging.Info("Install complete", "app", m.AppName, "files", len(receipt.Files), "session", receipt.SessionID)
	return receipt, nil
}

func (e *Engine) run(ctx context.Context, j *journal, backups *[]string, installDir string, plan []plannedFile) (*Receipt, error) {
	m := e.rec.Manifest

	receipt := &Receipt{
		AppName:     m.AppName,
		AppVersion:  m.AppVersion,
		SessionID:   uuid.NewString(),
		InstalledAt: time.Now().UTC(),
		InstallDir:  installDir,
	}

	dirs, err := ensureDir(j, installDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCopyFailure, err)
	}
	receipt.Dirs = append(receipt.Dirs, dirs...)

	if err := e.copyFiles(ctx, j, backups, plan, receipt); err != nil {
		return nil, err
	}
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	if err := e.installUninstaller(j, backups, receipt, installDir); err != nil {
		return nil, err
	}
	if err := e.createShortcuts(j, receipt); err != nil {
		return nil, err
	}
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	if err := e.writeRegistry(j, receipt); err != nil {
		return nil, err
	}
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	if err := receipt.Save(); err != nil {
		return nil, err
	}
	j.fileCopied(ReceiptPath(installDir))
	return receipt, nil
}

// resolveInstallDir picks the install directory and binds the {app} and
// {group} constants.
func (e *Engine) resolveInstallDir() (string, error) {
	m := e.rec.Manifest

	dir := e.opts.InstallDir
	if dir == "" {
		expanded, err := e.res.Expand(m.DefaultDirName)
		if err != nil {
			return "", err
		}
		dir = expanded
	}
	dir = filepath.Clean(filepath.FromSlash(strings.ReplaceAll(dir, `\`, "/")))
	e.res.Bind("app", dir)

	if m.DefaultGroupName != "" {
		if programs, ok := e.res.Lookup("commonprograms"); ok {
			e.res.Bind("group", filepath.Join(programs, m.DefaultGroupName))
		}
	}
	return dir, nil
}

// planFiles resolves every member's destination and applies the
// overwrite policy against what is already on disk.
func (e *Engine) planFiles(installDir string, prev *Receipt) ([]plannedFile, error) {
	m := e.rec.Manifest

	entryByName := make(map[string]manifest.FileEntry, len(m.Files))
	for _, f := range m.Files {
		entryByName[strings.ToLower(utils.ToArchivePath(f.DestPath()))] = f
	}

	var prevVersion *goversion.Version
	if prev != nil {
		if v, err := goversion.NewVersion(prev.AppVersion); err == nil {
			prevVersion = v
		}
	}
	newVersion, err := goversion.NewVersion(m.AppVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid app version %q: %w", m.AppVersion, err)
	}

	plan := make([]plannedFile, 0, len(e.rec.Members))
	for _, member := range e.rec.Members {
		entry, ok := entryByName[strings.ToLower(member.Name)]
		if !ok {
			return nil, fmt.Errorf("payload member %s has no file entry", member.Name)
		}
		resolved, err := e.res.Expand(member.Name)
		if err != nil {
			return nil, err
		}
		dest := filepath.Clean(filepath.FromSlash(strings.ReplaceAll(resolved, `\`, "/")))

		p := plannedFile{member: member, entry: entry, dest: dest}
		if _, statErr := os.Stat(dest); statErr == nil {
			switch {
			case entry.OnlyIfDoesntExist:
				p.skip = true
				p.reason = "exists"
			case entry.IgnoreVersion:
				// Always overwrite.
			case prevVersion != nil && !prevVersion.LessThan(newVersion):
				p.skip = true
				p.reason = fmt.Sprintf("installed version %s is not older", prevVersion)
			}
		}
		plan = append(plan, p)
	}
	return plan, nil
}

// checkBlocking refuses to overwrite executables that are running.
func (e *Engine) checkBlocking(plan []plannedFile) error {
	var targets []string
	for _, p := range plan {
		if p.skip || !strings.EqualFold(filepath.Ext(p.dest), ".exe") {
			continue
		}
		if _, err := os.Stat(p.dest); err == nil {
			targets = append(targets, p.dest)
		}
	}
	if len(targets) == 0 {
		return nil
	}
	if running := blocking.RunningTargets(targets); len(running) > 0 {
		return fmt.Errorf("%w: close %s and retry", ErrBlockedByRunningApp, strings.Join(running, ", "))
	}
	return nil
}

// copyFiles extracts the payload into place. Skipped members are still
// drained so their digests verify.
func (e *Engine) copyFiles(ctx context.Context, j *journal, backups *[]string, plan []plannedFile, receipt *Receipt) error {
	byName := make(map[string]plannedFile, len(plan))
	for _, p := range plan {
		byName[p.member.Name] = p
	}

	err := payload.Extract(e.payload, e.payloadSize, e.rec.Format, e.rec.Members, func(m payload.Member, contents io.Reader) error {
		if err := checkCancelled(ctx); err != nil {
			return err
		}
		p := byName[m.Name]
		if p.skip {
			logging.Debug("Skipping file", "dest", p.dest, "reason", p.reason)
			_, err := io.Copy(io.Discard, contents)
			return err
		}
		if err := e.placeFile(j, backups, receipt, p, contents); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrCopyFailure, p.dest, err)
		}
		receipt.Files = append(receipt.Files, InstalledFile{Path: p.dest, SHA256: m.SHA256})
		logging.Debug("Installed file", "dest", p.dest, "bytes", m.Size)
		return nil
	})
	return err
}

// placeFile writes one member to its destination via a temp file,
// backing up any file it replaces.
func (e *Engine) placeFile(j *journal, backups *[]string, receipt *Receipt, p plannedFile, contents io.Reader) error {
	dirs, err := ensureDir(j, filepath.Dir(p.dest))
	if err != nil {
		return err
	}
	receipt.Dirs = append(receipt.Dirs, dirs...)

	tmp := p.dest + ".pkforge-tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, contents); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if _, err := os.Stat(p.dest); err == nil {
		// Make sure a read-only file from a previous install can be replaced.
		_ = os.Chmod(p.dest, 0755)
		bak := p.dest + ".pkforge-bak"
		os.Remove(bak)
		if err := os.Rename(p.dest, bak); err != nil {
			os.Remove(tmp)
			return err
		}
		*backups = append(*backups, bak)
		j.fileBackedUp(p.dest, bak)
	}

	if err := os.Rename(tmp, p.dest); err != nil {
		os.Remove(tmp)
		return err
	}
	j.fileCopied(p.dest)

	if p.entry.ReadOnly {
		if err := os.Chmod(p.dest, 0444); err != nil {
			return err
		}
	}
	return nil
}

// installUninstaller copies the running stub into the install
// directory so the application can be removed without the original
// artifact. A copy named unins*.exe runs in uninstall mode.
func (e *Engine) installUninstaller(j *journal, backups *[]string, receipt *Receipt, installDir string) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCopyFailure, err)
	}
	src, err := os.Open(self)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCopyFailure, err)
	}
	defer src.Close()

	dest := filepath.Join(installDir, UninstallerName)
	if err := e.placeFile(j, backups, receipt, plannedFile{dest: dest}, src); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCopyFailure, dest, err)
	}
	sum, err := utils.FileSHA256(dest)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCopyFailure, dest, err)
	}
	receipt.Files = append(receipt.Files, InstalledFile{Path: dest, SHA256: sum})
	logging.Debug("Installed uninstaller", "dest", dest)
	return nil
}

// createShortcuts builds every shortcut whose task gate passed.
func (e *Engine) createShortcuts(j *journal, receipt *Receipt) error {
	for _, ic := range e.rec.Manifest.Icons {
		if !e.tasksSelected(ic.Tasks) {
			logging.Debug("Skipping shortcut, task not selected", "name", ic.Name)
			continue
		}

		namePath, err := e.res.Expand(ic.Name)
		if err != nil {
			return err
		}
		target, err := e.res.Expand(ic.Target)
		if err != nil {
			return err
		}
		iconFile := ""
		if ic.IconFile != "" {
			if iconFile, err = e.res.Expand(ic.IconFile); err != nil {
				return err
			}
		}
		workDir := ""
		if ic.WorkingDir != "" {
			if workDir, err = e.res.Expand(ic.WorkingDir); err != nil {
				return err
			}
		}

		spec := shortcut.Spec{
			Path:        filepath.FromSlash(strings.ReplaceAll(namePath, `\`, "/")),
			Target:      filepath.FromSlash(strings.ReplaceAll(target, `\`, "/")),
			Arguments:   ic.Parameters,
			WorkingDir:  workDir,
			Description: e.rec.Manifest.AppName,
			IconPath:    iconFile,
		}
		dirs, err := ensureDir(j, filepath.Dir(spec.Path))
		if err != nil {
			return fmt.Errorf("failed to create shortcut directory for %s: %w", ic.Name, err)
		}
		receipt.Dirs = append(receipt.Dirs, dirs...)

		created, err := e.shortcuts.Create(spec)
		if err != nil {
			return fmt.Errorf("failed to create shortcut %s: %w", ic.Name, err)
		}
		j.shortcutCreated(e.shortcuts, created)
		receipt.Shortcuts = append(receipt.Shortcuts, created)
		logging.Debug("Created shortcut", "path", created, "target", spec.Target)
	}
	return nil
}

// tasksSelected reports whether a task-gated item should be processed.
// Items with no task gate always are.
func (e *Engine) tasksSelected(gates []string) bool {
	if len(gates) == 0 {
		return true
	}
	for _, gate := range gates {
		for _, sel := range e.opts.Tasks {
			if strings.EqualFold(gate, sel) {
				return true
			}
		}
	}
	return false
}

// writeRegistry applies every registry entry, journaling enough state
// to undo each one.
func (e *Engine) writeRegistry(j *journal, receipt *Receipt) error {
	touchedClasses := false
	for _, r := range e.rec.Manifest.Registry {
		subkey, err := e.res.Expand(r.Subkey)
		if err != nil {
			return err
		}
		data, err := e.res.Expand(r.ValueData)
		if err != nil {
			return err
		}

		existed, err := e.reg.KeyExists(r.Root, subkey)
		if err != nil {
			return wrapRegistryErr(err)
		}

		var prev string
		prevExpand := false
		hadPrev := false
		if existed && (r.ValueType == manifest.RegString || r.ValueType == manifest.RegExpandSZ) {
			if v, exp, err := e.reg.GetString(r.Root, subkey, r.ValueName); err == nil {
				prev, prevExpand, hadPrev = v, exp, true
			}
		}

		switch r.ValueType {
		case manifest.RegNone, "":
			err = e.reg.CreateKey(r.Root, subkey)
		case manifest.RegString:
			err = e.reg.SetString(r.Root, subkey, r.ValueName, data, false)
		case manifest.RegExpandSZ:
			err = e.reg.SetString(r.Root, subkey, r.ValueName, data, true)
		case manifest.RegDWord:
			var n uint64
			if n, err = strconv.ParseUint(strings.TrimPrefix(data, "$"), 0, 32); err == nil {
				err = e.reg.SetDWord(r.Root, subkey, r.ValueName, uint32(n))
			}
		default:
			err = fmt.Errorf("unknown registry value type %q", r.ValueType)
		}
		if err != nil {
			return wrapRegistryErr(err)
		}

		if existed {
			if r.ValueType != manifest.RegNone && r.ValueType != "" {
				j.registryValueWritten(e.reg, r.Root, subkey, r.ValueName, prev, prevExpand, hadPrev)
			}
		} else {
			j.registryKeyCreated(e.reg, r.Root, subkey)
		}

		receipt.Registry = append(receipt.Registry, ReceiptRegistry{
			Root:      r.Root,
			Subkey:    subkey,
			ValueName: r.ValueName,
			DeleteKey: r.UninsDeleteKey,
		})
		if r.Root == manifest.HiveClassesRoot {
			touchedClasses = true
		}
		logging.Debug("Wrote registry entry", "root", string(r.Root), "subkey", subkey)
	}

	if touchedClasses {
		regstore.NotifyAssocChanged()
	}
	return nil
}

func wrapRegistryErr(err error) error {
	if errors.Is(err, regstore.ErrAccessDenied) {
		return fmt.Errorf("%w: %v", ErrInsufficientPrivilege, err)
	}
	return fmt.Errorf("%w: %v", ErrRegistryWrite, err)
}

func checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ErrCancelled
	default:
		return nil
	}
}

// ensureDir creates path and journals every directory level that did
// not exist before, so rollback removes exactly what the install made.
// It returns the created levels, parents first.
func ensureDir(j *journal, path string) ([]string, error) {
	if path == "" || path == "." {
		return nil, nil
	}
	if info, err := os.Stat(path); err == nil {
		if !info.IsDir() {
			return nil, fmt.Errorf("%s exists and is not a directory", path)
		}
		return nil, nil
	}
	var missing []string
	p := filepath.Clean(path)
	for {
		if _, err := os.Stat(p); err == nil {
			break
		}
		missing = append(missing, p)
		parent := filepath.Dir(p)
		if parent == p {
			break
		}
		p = parent
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, err
	}
	// Journal parents before children so the reverse-order undo removes
	// the deepest level first.
	created := make([]string, 0, len(missing))
	for i := len(missing) - 1; i >= 0; i-- {
		j.dirCreated(missing[i])
		created = append(created, missing[i])
	}
	return created, nil
}

func removeBackups(backups []string) {
	for _, b := range backups {
		if err := os.Remove(b); err != nil && !os.IsNotExist(err) {
			logging.Warn("Failed to remove backup file", "path", b, "error", err)
		}
	}
}
