// pkg/script/script.go - parser for setup definition scripts.
//
// The script format is sectioned key-value text: [Setup] holds
// Key=Value directives, the remaining sections hold parameter lines of
// the form `Key: "value"; Key2: value; Flags: a b c`. A semicolon in
// column context starts a comment; doubled quotes escape a quote inside
// a quoted value.

package script

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/windowsadmins/packforge/pkg/manifest"
)

type section int

const (
	sectionNone section = iota
	sectionSetup
	sectionTasks
	sectionFiles
	sectionIcons
	sectionRegistry
	sectionRun
)

var sectionNames = map[string]section{
	"setup":    sectionSetup,
	"tasks":    sectionTasks,
	"files":    sectionFiles,
	"icons":    sectionIcons,
	"registry": sectionRegistry,
	"run":      sectionRun,
}

// Setup directives that are accepted but have no manifest counterpart.
// They produce a warning instead of an error so real-world scripts
// still compile.
var ignoredSetupKeys = map[string]bool{
	"outputdir":               true,
	"disableprogramgrouppage": true,
	"setupiconfile":           true,
	"uninstalldisplayicon":    true,
	"appid":                   true,
}

// ParseFile parses a setup script from disk.
func ParseFile(path string) (*manifest.Manifest, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse parses a setup script and returns the manifest it describes,
// plus warnings for accepted-but-unsupported directives.
func Parse(r io.Reader) (*manifest.Manifest, []string, error) {
	m := &manifest.Manifest{}
	var warnings []string

	current := sectionNone
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			name := strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			sec, ok := sectionNames[name]
			if !ok {
				return nil, warnings, fmt.Errorf("line %d: unknown section [%s]", lineNo, name)
			}
			current = sec
			continue
		}

		var err error
		switch current {
		case sectionNone:
			err = fmt.Errorf("directive outside any section")
		case sectionSetup:
			var w string
			w, err = parseSetupDirective(m, line)
			if w != "" {
				warnings = append(warnings, w)
			}
		case sectionTasks:
			err = parseTaskLine(m, line)
		case sectionFiles:
			err = parseFileLine(m, line)
		case sectionIcons:
			err = parseIconLine(m, line)
		case sectionRegistry:
			err = parseRegistryLine(m, line)
		case sectionRun:
			err = parseRunLine(m, line)
		}
		if err != nil {
			return nil, warnings, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, warnings, fmt.Errorf("failed to read script: %w", err)
	}
	return m, warnings, nil
}

func parseSetupDirective(m *manifest.Manifest, line string) (string, error) {
	eq := strings.Index(line, "=")
	if eq < 0 {
		return "", fmt.Errorf("malformed [Setup] directive %q", line)
	}
	key := strings.TrimSpace(line[:eq])
	value := strings.TrimSpace(line[eq+1:])

	switch strings.ToLower(key) {
	case "appname":
		m.AppName = value
	case "appversion":
		m.AppVersion = value
	case "apppublisher":
		m.Publisher = value
	case "defaultdirname":
		m.DefaultDirName = value
	case "defaultgroupname":
		m.DefaultGroupName = value
	case "outputbasefilename":
		m.OutputBaseFilename = value
	case "compression":
		switch strings.ToLower(value) {
		case "lzma", "lzma2", "lzma/max", "lzma2/max", "max", "best":
			m.Compression = manifest.CompressionBest
		case "zip", "fast":
			m.Compression = manifest.CompressionFast
		case "none":
			m.Compression = manifest.CompressionNone
		default:
			return "", fmt.Errorf("unknown Compression value %q", value)
		}
	case "solidcompression":
		b, err := parseYesNo(value)
		if err != nil {
			return "", fmt.Errorf("SolidCompression: %w", err)
		}
		m.SolidCompression = b
	case "privilegesrequired":
		m.PrivilegesRequired = strings.ToLower(value)
	case "minversion":
		m.MinVersion = value
	case "wizardimagefile":
		m.WizardImageFile = value
	default:
		if ignoredSetupKeys[strings.ToLower(key)] {
			return fmt.Sprintf("ignoring [Setup] directive %s", key), nil
		}
		return "", fmt.Errorf("unknown [Setup] directive %q", key)
	}
	return "", nil
}

func parseTaskLine(m *manifest.Manifest, line string) error {
	params, err := parseParams(line)
	if err != nil {
		return err
	}
	t := manifest.TaskEntry{
		Name:             params.take("name"),
		Description:      params.take("description"),
		GroupDescription: params.take("groupdescription"),
	}
	flags := params.takeFlags()
	for _, f := range flags {
		switch f {
		case "unchecked":
			t.Unchecked = true
		case "checkedonce":
			// checked on first install only; treated as checked
		default:
			return fmt.Errorf("unknown task flag %q", f)
		}
	}
	if err := params.remaining("Tasks"); err != nil {
		return err
	}
	if t.Name == "" {
		return fmt.Errorf("task entry needs a Name")
	}
	m.Tasks = append(m.Tasks, t)
	return nil
}

func parseFileLine(m *manifest.Manifest, line string) error {
	params, err := parseParams(line)
	if err != nil {
		return err
	}
	f := manifest.FileEntry{
		Source:   params.take("source"),
		DestDir:  params.take("destdir"),
		DestName: params.take("destname"),
	}
	for _, fl := range params.takeFlags() {
		switch fl {
		case "ignoreversion":
			f.IgnoreVersion = true
		case "onlyifdoesntexist":
			f.OnlyIfDoesntExist = true
		case "readonly":
			f.ReadOnly = true
		default:
			return fmt.Errorf("unknown file flag %q", fl)
		}
	}
	if err := params.remaining("Files"); err != nil {
		return err
	}
	if f.Source == "" {
		return fmt.Errorf("file entry needs a Source")
	}
	m.Files = append(m.Files, f)
	return nil
}

func parseIconLine(m *manifest.Manifest, line string) error {
	params, err := parseParams(line)
	if err != nil {
		return err
	}
	ic := manifest.ShortcutEntry{
		Name:       params.take("name"),
		Target:     params.take("filename"),
		Parameters: params.take("parameters"),
		WorkingDir: params.take("workingdir"),
		IconFile:   params.take("iconfilename"),
	}
	if tasks := params.take("tasks"); tasks != "" {
		ic.Tasks = strings.Fields(tasks)
	}
	if err := params.remaining("Icons"); err != nil {
		return err
	}
	if ic.Name == "" || ic.Target == "" {
		return fmt.Errorf("icon entry needs Name and Filename")
	}
	m.Icons = append(m.Icons, ic)
	return nil
}

func parseRegistryLine(m *manifest.Manifest, line string) error {
	params, err := parseParams(line)
	if err != nil {
		return err
	}
	r := manifest.RegistryEntry{
		Root:      manifest.Hive(strings.ToUpper(params.take("root"))),
		Subkey:    params.take("subkey"),
		ValueName: params.take("valuename"),
		ValueData: params.take("valuedata"),
	}
	switch vt := strings.ToLower(params.take("valuetype")); vt {
	case "", "none":
		r.ValueType = manifest.RegNone
	case "string":
		r.ValueType = manifest.RegString
	case "expandsz":
		r.ValueType = manifest.RegExpandSZ
	case "dword":
		r.ValueType = manifest.RegDWord
	default:
		return fmt.Errorf("unknown ValueType %q", vt)
	}
	for _, fl := range params.takeFlags() {
		switch fl {
		case "uninsdeletekey":
			r.UninsDeleteKey = true
		default:
			return fmt.Errorf("unknown registry flag %q", fl)
		}
	}
	if err := params.remaining("Registry"); err != nil {
		return err
	}
	if r.Subkey == "" {
		return fmt.Errorf("registry entry needs a Subkey")
	}
	m.Registry = append(m.Registry, r)
	return nil
}

func parseRunLine(m *manifest.Manifest, line string) error {
	params, err := parseParams(line)
	if err != nil {
		return err
	}
	r := manifest.RunEntry{
		Target:      params.take("filename"),
		Parameters:  params.take("parameters"),
		Description: params.take("description"),
	}
	for _, fl := range params.takeFlags() {
		switch fl {
		case "nowait":
			r.NoWait = true
		case "postinstall":
			r.PostInstall = true
		case "skipifsilent":
			r.SkipIfSilent = true
		case "unchecked":
			r.Unchecked = true
		default:
			return fmt.Errorf("unknown run flag %q", fl)
		}
	}
	if err := params.remaining("Run"); err != nil {
		return err
	}
	if r.Target == "" {
		return fmt.Errorf("run entry needs a Filename")
	}
	m.Run = append(m.Run, r)
	return nil
}

func parseYesNo(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected yes or no, got %q", s)
}
