// pkg/consts/consts.go - resolution of {...} path constants.
//
// Constants are opaque strings up to the moment the installer runs;
// the builder never expands them. The Resolver is seeded with the
// machine's folder layout plus the chosen install directory and group.

package consts

import (
	"fmt"
	"strings"
)

// Resolver expands {...} constants in path and command templates.
type Resolver struct {
	values map[string]string
}

// New builds a Resolver from the standard machine folders. The {app}
// and {group} values are bound later, once the user has confirmed them.
func New() *Resolver {
	r := &Resolver{values: make(map[string]string)}
	for k, v := range systemFolders() {
		r.values[k] = v
	}
	return r
}

// NewWithValues builds a Resolver from an explicit token table (tests,
// dry runs).
func NewWithValues(values map[string]string) *Resolver {
	r := &Resolver{values: make(map[string]string, len(values))}
	for k, v := range values {
		r.values[strings.ToLower(k)] = v
	}
	return r
}

// Bind sets or replaces a single constant, e.g. app or group.
func (r *Resolver) Bind(name, value string) {
	r.values[strings.ToLower(name)] = value
}

// Lookup returns the bound value of a constant.
func (r *Resolver) Lookup(name string) (string, bool) {
	v, ok := r.values[strings.ToLower(name)]
	return v, ok
}

// Expand replaces every {name} constant in s. A doubled brace {{
// produces a literal brace. Tokens that are not constants, such as %1,
// pass through untouched. Unknown constants are an error: a template
// referencing a constant nobody bound is an authoring bug surfacing at
// install time.
func (r *Resolver) Expand(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if c != '{' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(s) && s[i+1] == '{' {
			b.WriteByte('{')
			i += 2
			continue
		}
		end := strings.IndexByte(s[i:], '}')
		if end < 0 {
			return "", fmt.Errorf("unterminated constant in %q", s)
		}
		name := s[i+1 : i+end]
		v, ok := r.values[strings.ToLower(name)]
		if !ok {
			return "", fmt.Errorf("unknown constant {%s} in %q", name, s)
		}
		b.WriteString(v)
		i += end + 1
	}
	return b.String(), nil
}

// MustExpand is Expand for templates already validated upstream.
func (r *Resolver) MustExpand(s string) string {
	v, err := r.Expand(s)
	if err != nil {
		panic(err)
	}
	return v
}
