package imageio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
)

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerAPP0 = 0xE0
	markerAPP1 = 0xE1
)

var exifHeader = []byte("Exif\x00\x00")

var ErrNotJPEG = errors.New("missing JPEG start-of-image marker")

// ReadExif returns a copy of the first EXIF APP1 payload in a JPEG stream,
// or nil if there is none. Only the headers before the first scan are read.
func ReadExif(jpeg []byte) ([]byte, error) {
	if len(jpeg) < 2 || jpeg[0] != 0xFF || jpeg[1] != markerSOI {
		return nil, ErrNotJPEG
	}
	i := 2
	for i+4 <= len(jpeg) {
		if jpeg[i] != 0xFF {
			return nil, fmt.Errorf("expected marker at offset %d, found 0x%02x", i, jpeg[i])
		}
		marker := jpeg[i+1]
		if marker == 0xFF {
			// fill byte
			i++
			continue
		}
		if marker == markerSOS || marker == markerEOI {
			return nil, nil
		}
		length := int(binary.BigEndian.Uint16(jpeg[i+2:]))
		if length < 2 || i+2+length > len(jpeg) {
			return nil, fmt.Errorf("segment 0x%02x at offset %d overruns data", marker, i)
		}
		payload := jpeg[i+4 : i+2+length]
		if marker == markerAPP1 && bytes.HasPrefix(payload, exifHeader) {
			return slices.Clone(payload), nil
		}
		i += 2 + length
	}
	return nil, nil
}

// StripThumbnail unlinks the thumbnail directory (IFD1) from an EXIF APP1
// payload so viewers stop showing the pre-restore preview. Payloads it cannot
// parse are returned unchanged. exif itself is not modified.
func StripThumbnail(exif []byte) []byte {
	out := slices.Clone(exif)
	if !bytes.HasPrefix(out, exifHeader) {
		return out
	}
	tiff := out[len(exifHeader):]
	if len(tiff) < 8 {
		return out
	}
	var order binary.ByteOrder
	switch string(tiff[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return out
	}
	ifd0 := int(order.Uint32(tiff[4:]))
	if ifd0+2 > len(tiff) {
		return out
	}
	entries := int(order.Uint16(tiff[ifd0:]))
	next := ifd0 + 2 + 12*entries
	if next+4 > len(tiff) {
		return out
	}
	order.PutUint32(tiff[next:], 0)
	return out
}

// InsertExif returns jpeg with exif written as an APP1 segment. It goes
// directly after the start-of-image marker, or after the JFIF APP0 segment
// when one leads the stream, since JFIF readers expect APP0 first.
func InsertExif(jpeg []byte, exif []byte) ([]byte, error) {
	if len(jpeg) < 2 || jpeg[0] != 0xFF || jpeg[1] != markerSOI {
		return nil, ErrNotJPEG
	}
	length := len(exif) + 2
	if length > 0xFFFF {
		return nil, fmt.Errorf("EXIF payload of %d bytes does not fit one segment", len(exif))
	}
	at := 2
	if len(jpeg) >= 6 && jpeg[2] == 0xFF && jpeg[3] == markerAPP0 {
		end := 4 + int(binary.BigEndian.Uint16(jpeg[4:]))
		if end > len(jpeg) {
			return nil, fmt.Errorf("APP0 segment overruns data")
		}
		at = end
	}
	out := make([]byte, 0, len(jpeg)+length+2)
	out = append(out, jpeg[:at]...)
	out = append(out, 0xFF, markerAPP1)
	out = binary.BigEndian.AppendUint16(out, uint16(length))
	out = append(out, exif...)
	return append(out, jpeg[at:]...), nil
}
