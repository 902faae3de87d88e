// pkg/payload/zip.go - non-solid payloads with per-file compression.

package payload

import (
	"archive/zip"
	"compress/flate"
	"fmt"
	"io"
	"os"

	"github.com/windowsadmins/packforge/pkg/manifest"
)

func packZip(w io.Writer, files []Spec, level manifest.Compression) ([]Member, error) {
	zw := zip.NewWriter(w)

	method := zip.Deflate
	flateLevel := flate.BestCompression
	switch level {
	case manifest.CompressionNone:
		method = zip.Store
	case manifest.CompressionFast:
		flateLevel = flate.BestSpeed
	}
	if method == zip.Deflate {
		zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(out, flateLevel)
		})
	}

	members := make([]Member, 0, len(files))
	for _, spec := range files {
		m, err := hashAndStat(spec)
		if err != nil {
			return nil, err
		}

		hdr := &zip.FileHeader{Name: m.Name, Method: method}
		hdr.SetMode(os.FileMode(m.Mode))
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("failed to write payload header for %s: %w", m.Name, err)
		}

		f, err := os.Open(spec.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", spec.Path, err)
		}
		_, err = io.Copy(fw, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to pack %s: %w", m.Name, err)
		}
		members = append(members, m)
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return members, nil
}

func extractZip(r io.ReaderAt, size int64, visit func(name string, contents io.Reader) error) error {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return fmt.Errorf("failed to open payload archive: %w", err)
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open payload member %s: %w", f.Name, err)
		}
		err = visit(f.Name, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
