// pkg/payload/solid.go - solid (single-stream) payloads.

package payload

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/windowsadmins/packforge/pkg/manifest"
)

func gzipLevel(level manifest.Compression) int {
	switch level {
	case manifest.CompressionNone:
		return gzip.NoCompression
	case manifest.CompressionFast:
		return gzip.BestSpeed
	default:
		return gzip.BestCompression
	}
}

func packSolid(w io.Writer, files []Spec, level manifest.Compression) ([]Member, error) {
	gz, err := gzip.NewWriterLevel(w, gzipLevel(level))
	if err != nil {
		return nil, err
	}
	tw := tar.NewWriter(gz)

	members := make([]Member, 0, len(files))
	for _, spec := range files {
		m, err := hashAndStat(spec)
		if err != nil {
			return nil, err
		}

		hdr := &tar.Header{
			Name: m.Name,
			Size: m.Size,
			Mode: int64(m.Mode),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, fmt.Errorf("failed to write payload header for %s: %w", m.Name, err)
		}

		f, err := os.Open(spec.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", spec.Path, err)
		}
		_, err = io.Copy(tw, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to pack %s: %w", m.Name, err)
		}
		members = append(members, m)
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return members, nil
}

func extractSolid(r io.ReaderAt, size int64, visit func(name string, contents io.Reader) error) error {
	gz, err := gzip.NewReader(io.NewSectionReader(r, 0, size))
	if err != nil {
		return fmt.Errorf("failed to open payload stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read payload: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if err := visit(hdr.Name, tr); err != nil {
			return err
		}
	}
}
