// cmd/forgescript/main.go
//
// Script utility: validate installer scripts, convert between script
// and YAML manifest form, and inspect built artifacts.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/windowsadmins/packforge/pkg/logging"
	"github.com/windowsadmins/packforge/pkg/manifest"
	"github.com/windowsadmins/packforge/pkg/script"
	"github.com/windowsadmins/packforge/pkg/sfx"
	"github.com/windowsadmins/packforge/pkg/utils"
	"github.com/windowsadmins/packforge/pkg/version"
)

var logger *logging.Logger

func main() {
	utils.PatchWindowsArgs()

	validate := pflag.Bool("validate", false, "Validate the script and its source files, then exit.")
	toYAML := pflag.String("to-yaml", "", "Write the parsed manifest as YAML to this path.")
	toISS := pflag.String("to-iss", "", "Write the manifest back out as a script to this path.")
	inspect := pflag.Bool("inspect", false, "Treat the argument as a built installer and print its build record.")
	versionFlag := pflag.Bool("version", false, "Print the version and exit.")

	var verbosity int
	pflag.CountVarP(&verbosity, "verbose", "v", "Increase verbosity.")
	pflag.Parse()

	if *versionFlag {
		version.Print()
		os.Exit(0)
	}

	logger = logging.New(verbosity > 0)
	if err := logging.Init(logging.Options{Level: logging.LevelWarn, Console: true}); err != nil {
		logger.Fatal("Error initializing logger: %v", err)
	}
	defer logging.CloseLogger()

	if pflag.NArg() != 1 {
		logger.Error("Usage: forgescript [flags] <script.iss|manifest.yaml|installer.exe>")
		os.Exit(1)
	}
	path := pflag.Arg(0)

	if *inspect {
		if err := inspectArtifact(path); err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
		return
	}

	m, err := loadManifest(path)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	m.ApplyDefaults()

	if *validate {
		if err := m.Validate(filepath.Dir(path)); err != nil {
			logger.Error("Validation failed:\n%v", err)
			os.Exit(1)
		}
		logger.Success("%s is valid", path)
		return
	}

	if *toYAML != "" {
		if err := manifest.Save(*toYAML, m); err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
		logger.Success("Wrote %s", *toYAML)
		return
	}

	if *toISS != "" {
		if err := os.WriteFile(*toISS, []byte(script.Write(m)), 0644); err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
		logger.Success("Wrote %s", *toISS)
		return
	}

	show(m)
}

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

func show(m *manifest.Manifest) {
	fmt.Printf("%s %s", m.AppName, m.AppVersion)
	if m.Publisher != "" {
		fmt.Printf(" (%s)", m.Publisher)
	}
	fmt.Println()
	fmt.Printf("  install dir: %s\n", m.DefaultDirName)
	if m.DefaultGroupName != "" {
		fmt.Printf("  group:       %s\n", m.DefaultGroupName)
	}
	fmt.Printf("  compression: %s solid=%t\n", m.Compression, m.SolidCompression)
	if m.MinVersion != "" {
		fmt.Printf("  min version: %s\n", m.MinVersion)
	}
	fmt.Printf("  files:       %d\n", len(m.Files))
	for _, f := range m.Files {
		fmt.Printf("    %s -> %s\n", f.Source, f.DestPath())
	}
	if len(m.Tasks) > 0 {
		fmt.Printf("  tasks:\n")
		for _, t := range m.Tasks {
			def := "on"
			if t.Unchecked {
				def = "off"
			}
			fmt.Printf("    %s (%s, default %s)\n", t.Name, t.Description, def)
		}
	}
	if len(m.Icons) > 0 {
		fmt.Printf("  shortcuts:   %d\n", len(m.Icons))
	}
	if len(m.Registry) > 0 {
		fmt.Printf("  registry:    %d\n", len(m.Registry))
	}
	if len(m.Run) > 0 {
		fmt.Printf("  run:         %d\n", len(m.Run))
	}
}

func inspectArtifact(path string) error {
	a, err := sfx.Open(path)
	if err != nil {
		return err
	}
	defer a.Close()

	rec := a.Record
	fmt.Printf("%s %s\n", rec.Manifest.AppName, rec.Manifest.AppVersion)
	fmt.Printf("  build id:    %s\n", rec.BuildID)
	fmt.Printf("  created:     %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  builder:     %s\n", rec.BuilderVersion)
	fmt.Printf("  format:      %s\n", rec.Format)
	fmt.Printf("  payload:     %d bytes, sha256 %s\n", a.PayloadSize, rec.PayloadSHA256)
	if len(rec.WizardImageBMP) > 0 {
		fmt.Printf("  wizard bmp:  %d bytes\n", len(rec.WizardImageBMP))
	}
	fmt.Printf("  members:\n")
	for _, mem := range rec.Members {
		fmt.Printf("    %-40s %10d  %s\n", mem.Name, mem.Size, mem.SHA256[:12])
	}
	return nil
}
