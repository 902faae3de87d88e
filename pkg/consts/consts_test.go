package consts

import (
	"strings"
	"testing"
)

func testResolver() *Resolver {
	return NewWithValues(map[string]string{
		"pf":            `C:\Program Files`,
		"commondesktop": `C:\Users\Public\Desktop`,
	})
}

func TestExpand(t *testing.T) {
	r := testResolver()
	r.Bind("app", `C:\Program Files\Viewer`)

	tests := []struct {
		in, want string
	}{
		{`{pf}\Viewer`, `C:\Program Files\Viewer`},
		{`{app}\Viewer.exe`, `C:\Program Files\Viewer\Viewer.exe`},
		{`"{app}\Viewer.exe" "%1"`, `"C:\Program Files\Viewer\Viewer.exe" "%1"`},
		{`no constants here`, `no constants here`},
		{`{{literal}`, `{literal}`},
		{`{APP}\upper`, `C:\Program Files\Viewer\upper`},
	}
	for _, tt := range tests {
		got, err := r.Expand(tt.in)
		if err != nil {
			t.Errorf("Expand(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Expand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExpandErrors(t *testing.T) {
	r := testResolver()

	if _, err := r.Expand(`{nosuch}\x`); err == nil || !strings.Contains(err.Error(), "unknown constant") {
		t.Errorf("unknown constant: got %v", err)
	}
	// {app} is only bound once the install directory is chosen.
	if _, err := r.Expand(`{app}\Viewer.exe`); err == nil {
		t.Error("expected error for unbound {app}")
	}
	if _, err := r.Expand(`{unterminated`); err == nil || !strings.Contains(err.Error(), "unterminated") {
		t.Errorf("unterminated constant: got %v", err)
	}
}

func TestBindReplaces(t *testing.T) {
	r := testResolver()
	r.Bind("app", `C:\old`)
	r.Bind("app", `C:\new`)
	got, err := r.Expand(`{app}`)
	if err != nil {
		t.Fatal(err)
	}
	if got != `C:\new` {
		t.Errorf("got %q", got)
	}
}

func TestSystemFoldersPopulated(t *testing.T) {
	r := New()
	for _, name := range []string{"pf", "commondesktop", "userdesktop", "commonprograms", "tmp"} {
		if v, ok := r.Lookup(name); !ok || v == "" {
			t.Errorf("constant {%s} not populated", name)
		}
	}
}
