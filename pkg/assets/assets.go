// pkg/assets/assets.go - wizard image handling for built installers.

package assets

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
)

// ConvertWizardImage loads the setup banner image and returns it as BMP
// bytes, the format the setup banner is stored in. PNG input is
// converted; BMP input passes through after a decode check.
func ConvertWizardImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read wizard image: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".bmp") {
		if _, err := bmp.Decode(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("invalid BMP wizard image: %w", err)
		}
		return data, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode wizard image: %w", err)
	}
	if format != "png" {
		return nil, fmt.Errorf("unsupported wizard image format %q (want png or bmp)", format)
	}

	var out bytes.Buffer
	if err := bmp.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("failed to encode wizard image: %w", err)
	}
	return out.Bytes(), nil
}
