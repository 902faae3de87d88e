package assets

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		img.Set(x, x, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestConvertPNG(t *testing.T) {
	p := filepath.Join(t.TempDir(), "wizard.png")
	writePNG(t, p)

	out, err := ConvertWizardImage(p)
	if err != nil {
		t.Fatalf("ConvertWizardImage: %v", err)
	}
	img, err := bmp.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not BMP: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 16 {
		t.Errorf("converted bounds = %v", img.Bounds())
	}
}

func TestBMPPassthrough(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "src.png")
	writePNG(t, pngPath)
	converted, err := ConvertWizardImage(pngPath)
	if err != nil {
		t.Fatal(err)
	}

	bmpPath := filepath.Join(dir, "wizard.bmp")
	if err := os.WriteFile(bmpPath, converted, 0644); err != nil {
		t.Fatal(err)
	}
	out, err := ConvertWizardImage(bmpPath)
	if err != nil {
		t.Fatalf("ConvertWizardImage(bmp): %v", err)
	}
	if !bytes.Equal(out, converted) {
		t.Error("BMP input was modified instead of passed through")
	}
}

func TestConvertRejectsGarbage(t *testing.T) {
	p := filepath.Join(t.TempDir(), "wizard.png")
	if err := os.WriteFile(p, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ConvertWizardImage(p); err == nil {
		t.Error("expected decode error")
	}
}

func TestConvertMissingFile(t *testing.T) {
	if _, err := ConvertWizardImage(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Error("expected error for missing file")
	}
}
