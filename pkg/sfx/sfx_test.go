package sfx

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/windowsadmins/packforge/pkg/manifest"
	"github.com/windowsadmins/packforge/pkg/payload"
)

func fakeStub(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "stub.exe")
	if err := os.WriteFile(p, []byte("MZ fake stub executable"), 0755); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestWriteOpenRoundTrip(t *testing.T) {
	stub := fakeStub(t)
	artifact := filepath.Join(t.TempDir(), "Setup.exe")

	w, err := NewWriter(artifact, stub)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	payloadBytes := []byte("pretend this is an archive")
	if _, err := w.Write(payloadBytes); err != nil {
		t.Fatal(err)
	}

	rec := Record{
		Manifest: manifest.Manifest{
			AppName:    "Viewer",
			AppVersion: "1.0.0",
		},
		Format:        payload.FormatSolid,
		Members:       []payload.Member{{Name: "{app}/Viewer.exe", Size: 5, SHA256: "abc"}},
		BuildID:       "build-1",
		CreatedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		PayloadSHA256: "deadbeef",
	}
	if err := w.Finalize(rec); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	a, err := Open(artifact)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	if diff := cmp.Diff(rec, a.Record); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
	if a.PayloadSize != int64(len(payloadBytes)) {
		t.Errorf("PayloadSize = %d, want %d", a.PayloadSize, len(payloadBytes))
	}

	got := make([]byte, a.PayloadSize)
	if _, err := a.Payload().ReadAt(got, 0); err != nil && err != io.EOF {
		t.Fatalf("Payload read: %v", err)
	}
	if string(got) != string(payloadBytes) {
		t.Errorf("payload = %q, want %q", got, payloadBytes)
	}

	// The stub bytes stay at the front, so the artifact still starts
	// like the original executable.
	head := make([]byte, 2)
	f, err := os.Open(artifact)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := io.ReadFull(f, head); err != nil {
		t.Fatal(err)
	}
	if string(head) != "MZ" {
		t.Errorf("artifact head = %q, want MZ", head)
	}
}

func TestOpenBareStub(t *testing.T) {
	stub := fakeStub(t)
	_, err := Open(stub)
	if !errors.Is(err, ErrNoPayload) {
		t.Errorf("got %v, want ErrNoPayload", err)
	}
}

func TestOpenCorruptTrailer(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.exe")
	// Valid magic but impossible sizes.
	data := make([]byte, 40)
	for i := range data {
		data[i] = 0xFF
	}
	copy(data[len(data)-len(Magic):], Magic)
	if err := os.WriteFile(p, data, 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(p); err == nil {
		t.Error("expected corrupt trailer error")
	}
}

func TestAbortRemovesArtifact(t *testing.T) {
	stub := fakeStub(t)
	artifact := filepath.Join(t.TempDir(), "Setup.exe")
	w, err := NewWriter(artifact, stub)
	if err != nil {
		t.Fatal(err)
	}
	w.Abort()
	if _, err := os.Stat(artifact); !os.IsNotExist(err) {
		t.Errorf("artifact still exists after Abort: %v", err)
	}
}
