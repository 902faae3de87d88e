// pkg/script/params.go - tokenizer for parameter lines.

package script

import (
	"fmt"
	"strings"
)

// paramSet holds the Key: value pairs of one parameter line. Handlers
// take the keys they understand; whatever is left over is an error.
type paramSet struct {
	values map[string]string
}

// take removes and returns the value for key (lowercase), or "".
func (p *paramSet) take(key string) string {
	v, ok := p.values[key]
	if ok {
		delete(p.values, key)
	}
	return v
}

// takeFlags removes the Flags parameter and splits it into lowercase words.
func (p *paramSet) takeFlags() []string {
	raw := p.take("flags")
	if raw == "" {
		return nil
	}
	fields := strings.Fields(strings.ToLower(raw))
	return fields
}

// remaining errors if any unconsumed parameters are left.
func (p *paramSet) remaining(section string) error {
	if len(p.values) == 0 {
		return nil
	}
	var keys []string
	for k := range p.values {
		keys = append(keys, k)
	}
	return fmt.Errorf("unknown [%s] parameter(s): %s", section, strings.Join(keys, ", "))
}

// parseParams splits a parameter line into key/value pairs. Semicolons
// separate parameters except inside quoted values; doubled quotes
// escape a quote character.
func parseParams(line string) (*paramSet, error) {
	parts, err := splitParams(line)
	if err != nil {
		return nil, err
	}

	set := &paramSet{values: make(map[string]string, len(parts))}
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		colon := strings.Index(part, ":")
		if colon < 0 {
			return nil, fmt.Errorf("malformed parameter %q", part)
		}
		key := strings.ToLower(strings.TrimSpace(part[:colon]))
		value := strings.TrimSpace(part[colon+1:])
		unquoted, err := unquote(value)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", key, err)
		}
		if _, dup := set.values[key]; dup {
			return nil, fmt.Errorf("duplicate parameter %q", key)
		}
		set.values[key] = unquoted
	}
	return set, nil
}

// splitParams splits on top-level semicolons, honoring quotes.
func splitParams(line string) ([]string, error) {
	var parts []string
	var current strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			// A doubled quote inside a quoted region stays part of it.
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteString(`""`)
				i++
				continue
			}
			inQuotes = !inQuotes
			current.WriteByte(c)
		case c == ';' && !inQuotes:
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("unterminated quote in %q", line)
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts, nil
}

// unquote strips surrounding quotes and collapses doubled quotes. A
// value may mix quoted and bare segments, as in command templates like
// """{app}\Viewer.exe"" ""%1""" which unquotes to "{app}\Viewer.exe" "%1".
func unquote(s string) (string, error) {
	if !strings.Contains(s, `"`) {
		return s, nil
	}
	if !strings.HasPrefix(s, `"`) || !strings.HasSuffix(s, `"`) || len(s) < 2 {
		return "", fmt.Errorf("malformed quoted value %q", s)
	}
	inner := s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '"' {
			if i+1 < len(inner) && inner[i+1] == '"' {
				b.WriteByte('"')
				i++
				continue
			}
			return "", fmt.Errorf("stray quote in value %q", s)
		}
		b.WriteByte(inner[i])
	}
	return b.String(), nil
}
