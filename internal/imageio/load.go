// Package imageio reads scans into raster images and writes restored JPEGs.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dblezek/tga"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/erinpentecost/restore/internal/logging"
	"github.com/erinpentecost/restore/internal/raster"
)

var ErrRawUnsupported = errors.New("raw camera formats are not supported")

// from https://en.wikipedia.org/wiki/Raw_image_format
var rawExtensions = []string{
	".3fr",
	".ari", ".arw",
	".bay",
	".crw", ".cr2",
	".cap",
	".data", ".dcs", ".dcr", ".dng",
	".drf",
	".eip", ".erf",
	".fff",
	".gpr",
	".iiq",
	".k25", ".kdc",
	".mdc", ".mef", ".mos", ".mrw",
	".nef", ".nrw",
	".obm", ".orf",
	".pef", ".ptx", ".pxn",
	".r3d", ".raf", ".raw", ".rwl", ".rw2", ".rwz",
	".sr2", ".srf", ".srw",
	".x3f",
}

// Metadata is carried from a source file to its restored copy untouched.
type Metadata struct {
	// Exif is the APP1 payload of a JPEG source, starting at "Exif\0\0".
	Exif []byte
}

// IsRaw reports whether path names a raw camera file.
func IsRaw(path string) bool {
	return slices.Contains(rawExtensions, strings.ToLower(filepath.Ext(path)))
}

// Load decodes the image at path. Metadata is nil for formats that carry
// none the encoder can write back.
func Load(path string) (*raster.Image, *Metadata, error) {
	if IsRaw(path) {
		return nil, nil, fmt.Errorf("load %q: %w", path, ErrRawUnsupported)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %q: %w", path, err)
	}

	var img image.Image
	format := "tga"
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		img, err = tga.Decode(bytes.NewReader(raw))
	} else {
		img, format, err = image.Decode(bytes.NewReader(raw))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("decode %q: %w", path, err)
	}
	logging.Logger().Debug("decoded", "path", path, "format", format, "bounds", img.Bounds())

	var md *Metadata
	if format == "jpeg" {
		exif, err := ReadExif(raw)
		if err != nil {
			logging.Logger().Warn("dropping unreadable EXIF", "path", path, "err", err)
		} else if exif != nil {
			md = &Metadata{Exif: exif}
		}
	}
	return raster.FromImage(img), md, nil
}
