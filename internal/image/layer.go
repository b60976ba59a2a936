// Package image provides loading of map images from file paths and
// embedded data references.
package image

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/tiff"
)

const dataPrefix = "data:"

// ErrBadDataRef is returned for malformed data: references.
var ErrBadDataRef = errors.New("malformed data reference")

// Layer is a decoded map image together with the reference it came from.
type Layer struct {
	Ref    string      // File path or data: reference
	Image  image.Image // Decoded image data
	Format string      // Decoder name, e.g. "png"
}

// Load decodes the image named by ref, which is either a file path or a
// base64 data: reference.
func Load(ref string) (*Layer, error) {
	var data []byte
	var err error
	if IsDataRef(ref) {
		data, err = decodeDataRef(ref)
	} else {
		data, err = os.ReadFile(ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return &Layer{Ref: ref, Image: img, Format: format}, nil
}

// Width returns the image width in pixels.
func (l *Layer) Width() int {
	if l == nil || l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (l *Layer) Height() int {
	if l == nil || l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dy()
}

// IsDataRef reports whether ref is an embedded data: reference.
func IsDataRef(ref string) bool {
	return strings.HasPrefix(ref, dataPrefix)
}

// EncodeDataRef reads a file and returns it as a base64 data: reference.
func EncodeDataRef(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	return DataRef(data), nil
}

// DataRef wraps raw bytes in a base64 data: reference with a sniffed MIME type.
func DataRef(data []byte) string {
	mime := http.DetectContentType(data)
	return dataPrefix + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func decodeDataRef(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, dataPrefix), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, ErrBadDataRef
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDataRef, err)
	}
	return data, nil
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
