// pkg/script/write.go - renders a manifest back into script form.

package script

import (
	"fmt"
	"strings"

	"github.com/windowsadmins/packforge/pkg/manifest"
)

// Write renders the manifest as a setup script. Round-tripping a parsed
// script through Write produces an equivalent manifest.
func Write(m *manifest.Manifest) string {
	var b strings.Builder

	b.WriteString("[Setup]\n")
	setup := func(key, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s=%s\n", key, value)
		}
	}
	setup("AppName", m.AppName)
	setup("AppVersion", m.AppVersion)
	setup("AppPublisher", m.Publisher)
	setup("DefaultDirName", m.DefaultDirName)
	setup("DefaultGroupName", m.DefaultGroupName)
	setup("OutputBaseFilename", m.OutputBaseFilename)
	switch m.Compression {
	case manifest.CompressionBest:
		setup("Compression", "lzma")
	case manifest.CompressionFast:
		setup("Compression", "zip")
	case manifest.CompressionNone:
		setup("Compression", "none")
	}
	if m.SolidCompression {
		setup("SolidCompression", "yes")
	}
	setup("PrivilegesRequired", m.PrivilegesRequired)
	setup("MinVersion", m.MinVersion)
	setup("WizardImageFile", m.WizardImageFile)

	if len(m.Tasks) > 0 {
		b.WriteString("\n[Tasks]\n")
		for _, t := range m.Tasks {
			line := []string{param("Name", t.Name), param("Description", t.Description)}
			if t.GroupDescription != "" {
				line = append(line, param("GroupDescription", t.GroupDescription))
			}
			if t.Unchecked {
				line = append(line, "Flags: unchecked")
			}
			b.WriteString(strings.Join(line, "; ") + "\n")
		}
	}

	if len(m.Files) > 0 {
		b.WriteString("\n[Files]\n")
		for _, f := range m.Files {
			line := []string{param("Source", f.Source), param("DestDir", f.DestDir)}
			if f.DestName != "" {
				line = append(line, param("DestName", f.DestName))
			}
			var flags []string
			if f.IgnoreVersion {
				flags = append(flags, "ignoreversion")
			}
			if f.OnlyIfDoesntExist {
				flags = append(flags, "onlyifdoesntexist")
			}
			if f.ReadOnly {
				flags = append(flags, "readonly")
			}
			if len(flags) > 0 {
				line = append(line, "Flags: "+strings.Join(flags, " "))
			}
			b.WriteString(strings.Join(line, "; ") + "\n")
		}
	}

	if len(m.Icons) > 0 {
		b.WriteString("\n[Icons]\n")
		for _, ic := range m.Icons {
			line := []string{param("Name", ic.Name), param("Filename", ic.Target)}
			if ic.Parameters != "" {
				line = append(line, param("Parameters", ic.Parameters))
			}
			if ic.WorkingDir != "" {
				line = append(line, param("WorkingDir", ic.WorkingDir))
			}
			if ic.IconFile != "" {
				line = append(line, param("IconFilename", ic.IconFile))
			}
			if len(ic.Tasks) > 0 {
				line = append(line, "Tasks: "+strings.Join(ic.Tasks, " "))
			}
			b.WriteString(strings.Join(line, "; ") + "\n")
		}
	}

	if len(m.Registry) > 0 {
		b.WriteString("\n[Registry]\n")
		for _, r := range m.Registry {
			line := []string{
				fmt.Sprintf("Root: %s", r.Root),
				param("Subkey", r.Subkey),
			}
			if r.ValueType != "" && r.ValueType != manifest.RegNone {
				line = append(line, fmt.Sprintf("ValueType: %s", r.ValueType))
			}
			if r.ValueName != "" {
				line = append(line, param("ValueName", r.ValueName))
			}
			if r.ValueData != "" {
				line = append(line, param("ValueData", r.ValueData))
			}
			if r.UninsDeleteKey {
				line = append(line, "Flags: uninsdeletekey")
			}
			b.WriteString(strings.Join(line, "; ") + "\n")
		}
	}

	if len(m.Run) > 0 {
		b.WriteString("\n[Run]\n")
		for _, r := range m.Run {
			line := []string{param("Filename", r.Target)}
			if r.Description != "" {
				line = append(line, param("Description", r.Description))
			}
			if r.Parameters != "" {
				line = append(line, param("Parameters", r.Parameters))
			}
			var flags []string
			if r.NoWait {
				flags = append(flags, "nowait")
			}
			if r.PostInstall {
				flags = append(flags, "postinstall")
			}
			if r.SkipIfSilent {
				flags = append(flags, "skipifsilent")
			}
			if r.Unchecked {
				flags = append(flags, "unchecked")
			}
			if len(flags) > 0 {
				line = append(line, "Flags: "+strings.Join(flags, " "))
			}
			b.WriteString(strings.Join(line, "; ") + "\n")
		}
	}

	return b.String()
}

// param renders a quoted Key: "value" parameter, escaping embedded quotes.
func param(key, value string) string {
	escaped := strings.ReplaceAll(value, `"`, `""`)
	return fmt.Sprintf(`%s: "%s"`, key, escaped)
}
