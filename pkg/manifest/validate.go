// pkg/manifest/validate.go - authoring-time validation of install manifests.

package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	goversion "github.com/hashicorp/go-version"
)

// ErrMissingSourceFile marks a declared source that does not exist or
// cannot be read at build time.
var ErrMissingSourceFile = errors.New("missing source file")

// Validate checks the manifest for the authoring bug classes the builder
// refuses to compile. Source paths are resolved relative to baseDir.
// All violations are collected, not just the first.
func (m *Manifest) Validate(baseDir string) error {
	var result *multierror.Error

	if m.AppName == "" {
		result = multierror.Append(result, fmt.Errorf("app_name is required"))
	}
	if m.AppVersion == "" {
		result = multierror.Append(result, fmt.Errorf("app_version is required"))
	} else if _, err := goversion.NewVersion(m.AppVersion); err != nil {
		result = multierror.Append(result, fmt.Errorf("app_version %q is not a valid version: %w", m.AppVersion, err))
	}
	if m.DefaultDirName == "" {
		result = multierror.Append(result, fmt.Errorf("default_dir_name is required"))
	}
	if m.OutputBaseFilename == "" {
		result = multierror.Append(result, fmt.Errorf("output_base_filename is required"))
	}
	if m.Compression != "" && !m.Compression.Valid() {
		result = multierror.Append(result, fmt.Errorf("unknown compression policy %q", m.Compression))
	}
	if m.MinVersion != "" {
		if _, err := goversion.NewVersion(m.MinVersion); err != nil {
			result = multierror.Append(result, fmt.Errorf("min_version %q is not a valid version: %w", m.MinVersion, err))
		}
	}

	if len(m.Files) == 0 {
		result = multierror.Append(result, fmt.Errorf("manifest ships no files"))
	}
	for i, f := range m.Files {
		if f.Source == "" {
			result = multierror.Append(result, fmt.Errorf("files[%d]: source is required", i))
			continue
		}
		if f.DestDir == "" {
			result = multierror.Append(result, fmt.Errorf("files[%d] (%s): dest_dir is required", i, f.Source))
		}
		if err := checkSourceReadable(baseDir, f.Source); err != nil {
			result = multierror.Append(result, err)
		}
	}

	seenTasks := make(map[string]bool)
	for i, t := range m.Tasks {
		name := strings.ToLower(t.Name)
		if name == "" {
			result = multierror.Append(result, fmt.Errorf("tasks[%d]: name is required", i))
			continue
		}
		if seenTasks[name] {
			result = multierror.Append(result, fmt.Errorf("duplicate task %q", t.Name))
		}
		seenTasks[name] = true
	}

	appFiles := m.AppFiles()
	checkAppRefs := func(section string, i int, s string) {
		for _, ref := range AppReferences(s) {
			if _, ok := appFiles[strings.ToLower(ref)]; !ok {
				result = multierror.Append(result,
					fmt.Errorf("%s[%d] references {app}\\%s which no file entry installs", section, i, ref))
			}
		}
	}

	for i, ic := range m.Icons {
		if ic.Name == "" {
			result = multierror.Append(result, fmt.Errorf("icons[%d]: name is required", i))
		}
		if ic.Target == "" {
			result = multierror.Append(result, fmt.Errorf("icons[%d]: target is required", i))
		}
		checkAppRefs("icons", i, ic.Target)
		checkAppRefs("icons", i, ic.IconFile)
		for _, taskRef := range ic.Tasks {
			if _, ok := m.TaskByName(taskRef); !ok {
				result = multierror.Append(result, fmt.Errorf("icons[%d] references undeclared task %q", i, taskRef))
			}
		}
	}

	for i, r := range m.Registry {
		if !r.Root.Valid() {
			result = multierror.Append(result, fmt.Errorf("registry[%d]: unknown root hive %q", i, r.Root))
		}
		if r.Subkey == "" {
			result = multierror.Append(result, fmt.Errorf("registry[%d]: subkey is required", i))
		}
		checkAppRefs("registry", i, r.ValueData)
	}

	for i, r := range m.Run {
		if r.Target == "" {
			result = multierror.Append(result, fmt.Errorf("run[%d]: target is required", i))
		}
		checkAppRefs("run", i, r.Target)
	}

	return result.ErrorOrNil()
}

// checkSourceReadable verifies the source exists and is a readable
// regular file.
func checkSourceReadable(baseDir, source string) error {
	p := source
	if !filepath.IsAbs(p) {
		p = filepath.Join(baseDir, filepath.FromSlash(strings.ReplaceAll(source, `\`, "/")))
	}
	info, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMissingSourceFile, source)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrMissingSourceFile, source)
	}
	f, err := os.Open(p)
	if err != nil {
		return fmt.Errorf("%w: %s is not readable", ErrMissingSourceFile, source)
	}
	f.Close()
	return nil
}

// AppReferences extracts the file names referenced below {app} in a path
// or command template. The reference ends at a closing quote, or at the
// end of the string for bare paths, so quoted command lines like
// "{app}\Viewer.exe" "%1" resolve to Viewer.exe.
func AppReferences(s string) []string {
	var refs []string
	rest := s
	for {
		idx := strings.Index(strings.ToLower(rest), `{app}\`)
		if idx < 0 {
			break
		}
		tail := rest[idx+len(`{app}\`):]
		end := strings.IndexAny(tail, `";`)
		if end < 0 {
			end = len(tail)
		}
		ref := strings.TrimSpace(tail[:end])
		// The reference is the final path element below {app}.
		if slash := strings.LastIndexAny(ref, `\/`); slash >= 0 {
			ref = ref[slash+1:]
		}
		if ref != "" {
			refs = append(refs, ref)
		}
		rest = tail
	}
	return refs
}
