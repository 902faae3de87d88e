// pkg/builder/builder.go - compiles an install manifest into a
// self-contained installer executable.

package builder

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/windowsadmins/packforge/pkg/assets"
	"github.com/windowsadmins/packforge/pkg/logging"
	"github.com/windowsadmins/packforge/pkg/manifest"
	"github.com/windowsadmins/packforge/pkg/payload"
	"github.com/windowsadmins/packforge/pkg/sfx"
	"github.com/windowsadmins/packforge/pkg/utils"
	"github.com/windowsadmins/packforge/pkg/version"
)

// Options configures a build.
type Options struct {
	// BaseDir is the directory relative source paths resolve against,
	// normally the script's directory.
	BaseDir string
	// StubPath locates the prebuilt runtime stub executable.
	StubPath string
	// OutputDir receives the built artifact.
	OutputDir string
}

// Build validates the manifest, packs the payload, and emits one
// self-contained installer executable. It returns the artifact path.
// Constants like {app} stay opaque: the builder only records them for
// the runtime to resolve.
func Build(m *manifest.Manifest, opts Options) (string, error) {
	m.ApplyDefaults()
	if err := m.Validate(opts.BaseDir); err != nil {
		return "", fmt.Errorf("manifest validation failed: %w", err)
	}
	if opts.StubPath == "" {
		return "", fmt.Errorf("no runtime stub configured")
	}
	if _, err := os.Stat(opts.StubPath); err != nil {
		return "", fmt.Errorf("runtime stub not found at %s: %w", opts.StubPath, err)
	}

	specs, err := payloadSpecs(m, opts.BaseDir)
	if err != nil {
		return "", err
	}

	var wizardBMP []byte
	if m.WizardImageFile != "" {
		p := m.WizardImageFile
		if !filepath.IsAbs(p) {
			p = filepath.Join(opts.BaseDir, filepath.FromSlash(strings.ReplaceAll(p, `\`, "/")))
		}
		wizardBMP, err = assets.ConvertWizardImage(p)
		if err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	artifactPath := filepath.Join(opts.OutputDir, m.OutputBaseFilename+".exe")

	w, err := sfx.NewWriter(artifactPath, opts.StubPath)
	if err != nil {
		return "", err
	}

	format := payload.FormatFor(m)
	hasher := sha256.New()
	members, err := payload.Pack(io.MultiWriter(w, hasher), specs, format, m.Compression)
	if err != nil {
		w.Abort()
		return "", fmt.Errorf("failed to pack payload: %w", err)
	}

	rec := sfx.Record{
		Manifest:       *m,
		Format:         format,
		Members:        members,
		BuildID:        uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
		PayloadSHA256:  hex.EncodeToString(hasher.Sum(nil)),
		WizardImageBMP: wizardBMP,
		BuilderVersion: version.Version().Version,
	}
	if err := w.Finalize(rec); err != nil {
		return "", err
	}

	logging.Info("Built installer artifact",
		"app", m.AppName,
		"version", m.AppVersion,
		"artifact", artifactPath,
		"files", len(members),
		"format", string(format),
		"build_id", rec.BuildID)
	return artifactPath, nil
}

// payloadSpecs maps manifest file entries to archive members. The
// member name is the unresolved destination path in forward-slash form,
// so {app}/Viewer.exe resolves only on the target machine.
func payloadSpecs(m *manifest.Manifest, baseDir string) ([]payload.Spec, error) {
	specs := make([]payload.Spec, 0, len(m.Files))
	seen := make(map[string]bool, len(m.Files))
	for _, f := range m.Files {
		src := f.Source
		if !filepath.IsAbs(src) {
			src = filepath.Join(baseDir, filepath.FromSlash(strings.ReplaceAll(f.Source, `\`, "/")))
		}
		name := utils.ToArchivePath(f.DestPath())
		if seen[strings.ToLower(name)] {
			return nil, fmt.Errorf("duplicate destination %s", f.DestPath())
		}
		seen[strings.ToLower(name)] = true
		specs = append(specs, payload.Spec{Path: src, Name: name})
	}
	return specs, nil
}
