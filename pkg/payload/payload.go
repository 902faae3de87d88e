// pkg/payload/payload.go - payload archive packing for built installers.
//
// Solid compression packs every file into a single tar stream and
// compresses it as a whole; non-solid payloads are zip archives with
// per-file deflate. Either way each member's SHA256 is recorded at pack
// time and verified again at extraction.

package payload

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/windowsadmins/packforge/pkg/manifest"
	"github.com/windowsadmins/packforge/pkg/utils"
)

// Format identifies the archive layout of a payload.
type Format string

const (
	FormatSolid Format = "tar.gz"
	FormatZip   Format = "zip"
)

// FormatFor maps the manifest's compression policy to a payload format.
func FormatFor(m *manifest.Manifest) Format {
	if m.SolidCompression {
		return FormatSolid
	}
	return FormatZip
}

// Spec names one file to pack: where it lives on disk and the
// forward-slash relative name it gets inside the archive.
type Spec struct {
	Path string
	Name string
}

// Member records one packed file.
type Member struct {
	Name   string `json:"name" yaml:"name"`
	Size   int64  `json:"size" yaml:"size"`
	Mode   uint32 `json:"mode" yaml:"mode"`
	SHA256 string `json:"sha256" yaml:"sha256"`
}

// Pack writes the payload archive for the given files to w.
func Pack(w io.Writer, files []Spec, format Format, level manifest.Compression) ([]Member, error) {
	for _, f := range files {
		if err := utils.ValidateArchivePath(f.Name); err != nil {
			return nil, err
		}
	}
	switch format {
	case FormatSolid:
		return packSolid(w, files, level)
	case FormatZip:
		return packZip(w, files, level)
	}
	return nil, fmt.Errorf("unknown payload format %q", format)
}

// Extract walks the payload archive, verifying each member's digest
// against the pack-time manifest and handing its contents to fn.
func Extract(r io.ReaderAt, size int64, format Format, members []Member, fn func(m Member, contents io.Reader) error) error {
	want := make(map[string]Member, len(members))
	for _, m := range members {
		want[m.Name] = m
	}

	seen := make(map[string]bool, len(members))
	visit := func(name string, contents io.Reader) error {
		m, ok := want[name]
		if !ok {
			return fmt.Errorf("payload contains undeclared member %s", name)
		}
		seen[name] = true

		h := sha256.New()
		if err := fn(m, io.TeeReader(contents, h)); err != nil {
			return err
		}
		if got := hex.EncodeToString(h.Sum(nil)); got != m.SHA256 {
			return fmt.Errorf("payload member %s is corrupt: digest mismatch", name)
		}
		return nil
	}

	var err error
	switch format {
	case FormatSolid:
		err = extractSolid(r, size, visit)
	case FormatZip:
		err = extractZip(r, size, visit)
	default:
		err = fmt.Errorf("unknown payload format %q", format)
	}
	if err != nil {
		return err
	}

	for name := range want {
		if !seen[name] {
			return fmt.Errorf("payload is missing member %s", name)
		}
	}
	return nil
}

// hashAndStat prepares the Member record for one source file.
func hashAndStat(spec Spec) (Member, error) {
	info, err := os.Stat(spec.Path)
	if err != nil {
		return Member{}, fmt.Errorf("failed to stat %s: %w", spec.Path, err)
	}
	sum, err := utils.FileSHA256(spec.Path)
	if err != nil {
		return Member{}, fmt.Errorf("failed to hash %s: %w", spec.Path, err)
	}
	return Member{
		Name:   spec.Name,
		Size:   info.Size(),
		Mode:   uint32(info.Mode().Perm()),
		SHA256: sum,
	}, nil
}
