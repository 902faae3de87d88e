// cmd/forgebuild/main.go

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/windowsadmins/packforge/pkg/builder"
	"github.com/windowsadmins/packforge/pkg/config"
	"github.com/windowsadmins/packforge/pkg/logging"
	"github.com/windowsadmins/packforge/pkg/manifest"
	"github.com/windowsadmins/packforge/pkg/script"
	"github.com/windowsadmins/packforge/pkg/utils"
	"github.com/windowsadmins/packforge/pkg/version"
)

var logger *logging.Logger

func main() {
	utils.PatchWindowsArgs()

	configPath := pflag.String("config", "", "Builder configuration file (default: packforge.yaml if present).")
	stubPath := pflag.String("stub", "", "Runtime stub executable to prepend to the payload.")
	outputDir := pflag.StringP("output-dir", "o", "", "Directory receiving the built installer.")
	check := pflag.Bool("check", false, "Validate the script and sources, then exit without building.")
	versionFlag := pflag.Bool("version", false, "Print the version and exit.")

	var verbosity int
	pflag.CountVarP(&verbosity, "verbose", "v", "Increase verbosity (e.g. -v, -vv).")
	pflag.Parse()

	if *versionFlag {
		version.Print()
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *stubPath != "" {
		cfg.StubPath = *stubPath
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	level := logging.ParseLevel(cfg.LogLevel)
	switch {
	case verbosity >= 2 || cfg.Debug:
		level = logging.LevelDebug
	case verbosity == 1 || cfg.Verbose:
		level = logging.LevelInfo
	}

	logger = logging.New(verbosity > 0)
	if err := logging.Init(logging.Options{Level: level, LogFile: cfg.LogFile, Console: true}); err != nil {
		logger.Fatal("Error initializing logger: %v", err)
	}
	defer logging.CloseLogger()

	if pflag.NArg() != 1 {
		logger.Error("Usage: forgebuild [flags] <script.iss|manifest.yaml>")
		os.Exit(1)
	}
	scriptPath := pflag.Arg(0)

	m, err := loadManifest(scriptPath)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	if m.Compression == "" {
		m.Compression = manifest.Compression(cfg.DefaultCompression)
	}

	if *check {
		m.ApplyDefaults()
		if err := m.Validate(filepath.Dir(scriptPath)); err != nil {
			logger.Error("Validation failed:\n%v", err)
			os.Exit(1)
		}
		logger.Success("%s is valid", scriptPath)
		return
	}

	if cfg.StubPath == "" {
		cfg.StubPath = defaultStubPath()
	}

	artifact, err := builder.Build(m, builder.Options{
		BaseDir:   filepath.Dir(scriptPath),
		StubPath:  cfg.StubPath,
		OutputDir: cfg.OutputDir,
	})
	if err != nil {
		logger.Error("Build failed: %v", err)
		os.Exit(1)
	}
	logger.Success("Built %s", artifact)
}

// loadManifest reads either an installer script or a YAML manifest,
// decided by extension.
func loadManifest(path string) (*manifest.Manifest, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return manifest.Load(path)
	default:
		m, warnings, err := script.ParseFile(path)
		if err != nil {
			return nil, err
		}
		for _, w := range warnings {
			logger.Warning("%s", w)
		}
		return m, nil
	}
}

// defaultStubPath looks for the stub next to the builder binary.
func defaultStubPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "forgesetup.exe"
	}
	return filepath.Join(filepath.Dir(exe), "forgesetup.exe")
}
