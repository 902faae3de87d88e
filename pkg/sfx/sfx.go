// pkg/sfx/sfx.go - the self-contained artifact format.
//
// A built installer is the runtime stub executable with three things
// appended: the payload archive, a JSON build record, and a fixed-size
// trailer (payload length, record length, magic). The stub locates its
// own payload by reading the trailer from the end of its executable.

package sfx

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/windowsadmins/packforge/pkg/manifest"
	"github.com/windowsadmins/packforge/pkg/payload"
)

const (
	// Magic closes every built artifact. Its absence means the stub is
	// running bare, without an appended payload.
	Magic       = "PKFORGE1"
	trailerSize = 8 + 8 + len(Magic)
)

// Record is the build metadata carried inside every artifact.
type Record struct {
	Manifest       manifest.Manifest `json:"manifest"`
	Format         payload.Format    `json:"format"`
	Members        []payload.Member  `json:"members"`
	BuildID        string            `json:"build_id"`
	CreatedAt      time.Time         `json:"created_at"`
	PayloadSHA256  string            `json:"payload_sha256"`
	WizardImageBMP []byte            `json:"wizard_image_bmp,omitempty"`
	BuilderVersion string            `json:"builder_version,omitempty"`
}

// Writer assembles an artifact: stub first, then payload bytes written
// through it, then Finalize with the build record.
type Writer struct {
	out         *os.File
	payloadSize int64
	finalized   bool
}

// NewWriter creates the artifact file and copies the stub into it.
func NewWriter(artifactPath, stubPath string) (*Writer, error) {
	stub, err := os.Open(stubPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open runtime stub: %w", err)
	}
	defer stub.Close()

	out, err := os.OpenFile(artifactPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact: %w", err)
	}
	if _, err := io.Copy(out, stub); err != nil {
		out.Close()
		os.Remove(artifactPath)
		return nil, fmt.Errorf("failed to copy runtime stub: %w", err)
	}
	return &Writer{out: out}, nil
}

// Write appends payload bytes after the stub.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.out.Write(p)
	w.payloadSize += int64(n)
	return n, err
}

// Finalize appends the build record and trailer and closes the file.
func (w *Writer) Finalize(rec Record) error {
	if w.finalized {
		return fmt.Errorf("artifact already finalized")
	}
	w.finalized = true

	recData, err := json.Marshal(rec)
	if err != nil {
		w.abort()
		return fmt.Errorf("failed to encode build record: %w", err)
	}
	if _, err := w.out.Write(recData); err != nil {
		w.abort()
		return fmt.Errorf("failed to write build record: %w", err)
	}

	trailer := make([]byte, 0, trailerSize)
	trailer = binary.LittleEndian.AppendUint64(trailer, uint64(w.payloadSize))
	trailer = binary.LittleEndian.AppendUint64(trailer, uint64(len(recData)))
	trailer = append(trailer, Magic...)
	if _, err := w.out.Write(trailer); err != nil {
		w.abort()
		return fmt.Errorf("failed to write trailer: %w", err)
	}
	return w.out.Close()
}

// Abort discards a partially written artifact.
func (w *Writer) Abort() {
	if !w.finalized {
		w.abort()
	}
}

func (w *Writer) abort() {
	name := w.out.Name()
	w.out.Close()
	os.Remove(name)
}

// Archive is an opened artifact.
type Archive struct {
	Record      Record
	PayloadSize int64

	f             *os.File
	payloadOffset int64
}

// Open reads the trailer and build record of an artifact on disk.
// It returns os.ErrNotExist-style wrapped errors for missing files and
// ErrNoPayload when the file carries no trailer.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}

	a, err := fromFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return a, nil
}

// ErrNoPayload reports a file without the artifact trailer.
var ErrNoPayload = fmt.Errorf("no payload attached")

func fromFile(f *os.File) (*Archive, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size < int64(trailerSize) {
		return nil, ErrNoPayload
	}

	trailer := make([]byte, trailerSize)
	if _, err := f.ReadAt(trailer, size-int64(trailerSize)); err != nil {
		return nil, fmt.Errorf("failed to read trailer: %w", err)
	}
	if !bytes.Equal(trailer[16:], []byte(Magic)) {
		return nil, ErrNoPayload
	}

	payloadSize := int64(binary.LittleEndian.Uint64(trailer[0:8]))
	recordSize := int64(binary.LittleEndian.Uint64(trailer[8:16]))
	dataEnd := size - int64(trailerSize)
	if payloadSize < 0 || recordSize < 0 || payloadSize+recordSize > dataEnd {
		return nil, fmt.Errorf("corrupt artifact trailer")
	}

	recData := make([]byte, recordSize)
	if _, err := f.ReadAt(recData, dataEnd-recordSize); err != nil {
		return nil, fmt.Errorf("failed to read build record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(recData, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse build record: %w", err)
	}

	return &Archive{
		Record:        rec,
		PayloadSize:   payloadSize,
		f:             f,
		payloadOffset: dataEnd - recordSize - payloadSize,
	}, nil
}

// Payload returns a ReaderAt over the payload archive bytes.
func (a *Archive) Payload() io.ReaderAt {
	return io.NewSectionReader(a.f, a.payloadOffset, a.PayloadSize)
}

// Close releases the underlying file.
func (a *Archive) Close() error {
	return a.f.Close()
}

// OpenSelf opens the running executable as an artifact. This is how the
// stub finds the payload it carries.
func OpenSelf() (*Archive, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate own executable: %w", err)
	}
	return Open(exe)
}
