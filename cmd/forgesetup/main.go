// cmd/forgesetup/main.go
//
// The runtime stub. forgebuild appends a payload archive and build
// record to this executable; running the result installs the
// application it carries. The same binary doubles as the uninstaller
// when renamed unins*.exe or invoked with --uninstall.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/windowsadmins/packforge/pkg/consts"
	"github.com/windowsadmins/packforge/pkg/installer"
	"github.com/windowsadmins/packforge/pkg/logging"
	"github.com/windowsadmins/packforge/pkg/manifest"
	"github.com/windowsadmins/packforge/pkg/regstore"
	"github.com/windowsadmins/packforge/pkg/sfx"
	"github.com/windowsadmins/packforge/pkg/shortcut"
	"github.com/windowsadmins/packforge/pkg/utils"
	"github.com/windowsadmins/packforge/pkg/version"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitCancelled = 2
)

var logger *logging.Logger

func main() {
	os.Exit(run())
}

func run() int {
	utils.PatchWindowsArgs()

	silent := pflag.BoolP("silent", "s", false, "Install without prompting; defaults apply.")
	dir := pflag.String("dir", "", "Override the install directory.")
	tasks := pflag.String("tasks", "", "Comma-separated task names to enable (implies their selection).")
	noRun := pflag.Bool("no-run", false, "Skip postinstall program launches.")
	uninstall := pflag.Bool("uninstall", false, "Uninstall instead of install.")
	logFile := pflag.String("log", "", "Also write the log to this file.")
	versionFlag := pflag.Bool("version", false, "Print the version and exit.")

	var verbosity int
	pflag.CountVarP(&verbosity, "verbose", "v", "Increase verbosity (e.g. -v, -vv).")
	pflag.Parse()

	if *versionFlag {
		version.Print()
		return exitOK
	}

	level := logging.LevelInfo
	if verbosity >= 1 {
		level = logging.LevelDebug
	}
	logger = logging.New(verbosity > 0)
	if err := logging.Init(logging.Options{Level: level, LogFile: *logFile, Console: true}); err != nil {
		logger.Fatal("Error initializing logger: %v", err)
	}
	defer logging.CloseLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warning("Interrupted, cancelling...")
		cancel()
	}()

	if *uninstall || uninstallByName() {
		return runUninstall(ctx, *dir)
	}
	return runInstall(ctx, *dir, *silent, *tasks, *noRun)
}

// uninstallByName makes a copy of the stub named unins*.exe behave as
// the uninstaller without flags, the way installed copies are named.
func uninstallByName() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	base := strings.ToLower(filepath.Base(exe))
	return strings.HasPrefix(base, "unins")
}

func runInstall(ctx context.Context, dir string, silent bool, taskList string, noRun bool) int {
	a, err := sfx.OpenSelf()
	if err != nil {
		if errors.Is(err, sfx.ErrNoPayload) {
			logger.Error("This executable carries no payload; build one with forgebuild.")
		} else {
			logger.Error("Failed to open payload: %v", err)
		}
		return exitFailure
	}
	defer a.Close()

	m := a.Record.Manifest
	logger.Printf("%s %s Setup", m.AppName, m.AppVersion)
	if m.Publisher != "" {
		logger.Printf("Publisher: %s", m.Publisher)
	}

	stdin := bufio.NewReader(os.Stdin)
	selected := selectTasks(stdin, &m, silent, taskList)

	eng := installer.New(a, consts.New(), regstore.NewSystemStore(), shortcut.NewSystemCreator(), installer.Options{
		InstallDir: dir,
		Silent:     silent,
		Tasks:      selected,
		NoRun:      noRun,
		ConfirmRun: func(r manifest.RunEntry) bool {
			desc := r.Description
			if desc == "" {
				desc = "Run " + r.Target
			}
			return promptYesNo(stdin, desc, !r.Unchecked)
		},
	})

	receipt, err := eng.Install(ctx)
	if err != nil {
		if errors.Is(err, installer.ErrCancelled) {
			logger.Warning("Installation cancelled; no changes were kept.")
			return exitCancelled
		}
		logger.Error("Installation failed: %v", err)
		if errors.Is(err, installer.ErrInsufficientPrivilege) {
			logger.Printf("Re-run this installer from an elevated prompt.")
		}
		return exitFailure
	}

	if err := eng.ExecuteRuns(ctx); err != nil {
		if errors.Is(err, installer.ErrCancelled) {
			return exitCancelled
		}
	}

	logger.Success("%s %s installed to %s", receipt.AppName, receipt.AppVersion, receipt.InstallDir)
	return exitOK
}

func runUninstall(ctx context.Context, dir string) int {
	if dir == "" {
		exe, err := os.Executable()
		if err != nil {
			logger.Error("Cannot determine install directory: %v", err)
			return exitFailure
		}
		dir = filepath.Dir(exe)
	}

	err := installer.Uninstall(ctx, dir, regstore.NewSystemStore(), shortcut.NewSystemCreator())
	if err != nil {
		if errors.Is(err, installer.ErrCancelled) {
			logger.Warning("Uninstall cancelled.")
			return exitCancelled
		}
		logger.Error("Uninstall failed: %v", err)
		return exitFailure
	}
	logger.Success("Uninstall complete.")
	return exitOK
}

// selectTasks resolves the final task set: defaults from the manifest,
// overridden by --tasks, confirmed interactively unless silent.
func selectTasks(reader *bufio.Reader, m *manifest.Manifest, silent bool, taskList string) []string {
	if taskList != "" {
		var out []string
		for _, t := range strings.Split(taskList, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
		return out
	}

	var selected []string
	for _, t := range m.Tasks {
		pick := t.CheckedByDefault()
		if !silent {
			pick = promptYesNo(reader, t.Description, pick)
		}
		if pick {
			selected = append(selected, t.Name)
		}
	}
	return selected
}

func promptYesNo(reader *bufio.Reader, question string, def bool) bool {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Printf("%s [%s]: ", question, hint)
	line, err := reader.ReadString('\n')
	if err != nil {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}
