package imageio

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/jpegli"

	"github.com/erinpentecost/restore/internal/logging"
	"github.com/erinpentecost/restore/internal/raster"
)

const DefaultQuality = 95

// Encode writes img as a JPEG at the given quality (1-100) with full
// resolution chroma. EXIF from md is carried over without its thumbnail.
func Encode(w io.Writer, img *raster.Image, md *Metadata, quality int) error {
	if quality < 1 || quality > 100 {
		return fmt.Errorf("jpeg quality %d outside 1-100", quality)
	}
	var buf bytes.Buffer
	err := jpegli.Encode(&buf, img.NRGBA(), &jpegli.EncodingOptions{
		Quality:           quality,
		ChromaSubsampling: image.YCbCrSubsampleRatio444,
	})
	if err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}

	out := buf.Bytes()
	if md != nil && len(md.Exif) > 0 {
		withExif, err := InsertExif(out, StripThumbnail(md.Exif))
		if err != nil {
			logging.Logger().Warn("dropping EXIF", "err", err)
		} else {
			out = withExif
		}
	}
	_, err = w.Write(out)
	return err
}

// Save writes img to path, which must end in .jpg or .jpeg.
func Save(path string, img *raster.Image, md *Metadata, quality int) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
	default:
		return fmt.Errorf("save %q: output must be a .jpg file", path)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, img, md, quality); err != nil {
		return fmt.Errorf("save %q: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0666); err != nil {
		return fmt.Errorf("save %q: %w", path, err)
	}
	return nil
}
