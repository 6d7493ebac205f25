// Package loader finds and decodes source color-plate images. Decoding
// always lands in top-down RGBA8 with straight alpha, whatever the
// container was.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/AnyUserName/bitmapc-cli/internal/pixel"
)

// ErrInputNotFound means no image with a supported extension exists for
// the tag path under the data directory.
var ErrInputNotFound = errors.New("no supported input image found")

// supportedExtensions lists recognized source formats in search order.
var supportedExtensions = []string{".tif", ".tiff", ".png", ".tga", ".bmp"}

// SupportedExtensions returns the recognized source extensions.
func SupportedExtensions() []string {
	return append([]string(nil), supportedExtensions...)
}

// Find locates the source image for a tag path under the data
// directory, trying each supported extension in order.
func Find(dataDir, tagPath string) (string, error) {
	base := filepath.Join(dataDir, filepath.FromSlash(tagPath))
	for _, ext := range supportedExtensions {
		path := base + ext
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s under %s", ErrInputNotFound, tagPath, dataDir)
}

// Decode loads an image file into a pixel buffer.
func Decode(path string) ([]pixel.Pixel, int, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("open %s: %w", path, err)
	}

	var img image.Image
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		img, err = decodeTGA(data)
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode %s: %w", path, err)
	}

	return fromImage(img)
}

// fromImage converts any decoded image to the pipeline's pixel layout.
// imaging.Clone lands in NRGBA, which keeps alpha straight.
func fromImage(img image.Image) ([]pixel.Pixel, int, int, error) {
	nrgba := imaging.Clone(img)
	w := nrgba.Rect.Dx()
	h := nrgba.Rect.Dy()
	if w <= 0 || h <= 0 {
		return nil, 0, 0, fmt.Errorf("image has no pixels")
	}

	pixels := make([]pixel.Pixel, w*h)
	for i := range pixels {
		pixels[i] = pixel.Pixel{
			Red:   nrgba.Pix[i*4+0],
			Green: nrgba.Pix[i*4+1],
			Blue:  nrgba.Pix[i*4+2],
			Alpha: nrgba.Pix[i*4+3],
		}
	}
	return pixels, w, h, nil
}
