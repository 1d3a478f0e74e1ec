// MODUL: formats
// ZWECK: Bildformat-Erkennung und Validierung
// INPUT: Bild-Bytes
// OUTPUT: Format, Fehler bei unbekanntem Format
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: bytes, errors (Standardbibliothek)
// HINWEISE: Magic-Bytes-basierte Erkennung fuer JPEG/PNG/GIF/WebP/BMP/TIFF

package imageio

import (
	"bytes"
	"errors"
)

// Format repraesentiert ein unterstuetztes Bildformat
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatGIF     Format = "gif"
	FormatWebP    Format = "webp"
	FormatBMP     Format = "bmp"
	FormatTIFF    Format = "tiff"
	FormatUnknown Format = "unknown"
)

// Magic-Byte-Signaturen
var (
	magicJPEG   = []byte{0xFF, 0xD8, 0xFF}
	magicPNG    = []byte{0x89, 0x50, 0x4E, 0x47}
	magicGIF    = []byte("GIF8")
	magicRIFF   = []byte("RIFF")
	magicBMP    = []byte("BM")
	magicTIFFLE = []byte{0x49, 0x49, 0x2A, 0x00}
	magicTIFFBE = []byte{0x4D, 0x4D, 0x00, 0x2A}
)

// ErrUnknownFormat wird zurueckgegeben wenn das Format nicht erkannt wurde
var ErrUnknownFormat = errors.New("imageio: unknown image format")

// DetectFormat erkennt das Bildformat anhand der Magic-Bytes
func DetectFormat(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, magicJPEG):
		return FormatJPEG
	case bytes.HasPrefix(data, magicPNG):
		return FormatPNG
	case bytes.HasPrefix(data, magicGIF):
		return FormatGIF
	case bytes.HasPrefix(data, magicRIFF) && isWebP(data):
		return FormatWebP
	case bytes.HasPrefix(data, magicTIFFLE), bytes.HasPrefix(data, magicTIFFBE):
		return FormatTIFF
	case bytes.HasPrefix(data, magicBMP) && len(data) >= 14:
		return FormatBMP
	}
	return FormatUnknown
}

// isWebP prueft auf "WEBP" Marker nach dem RIFF Header
func isWebP(data []byte) bool {
	return len(data) >= 12 && string(data[8:12]) == "WEBP"
}

// ValidateFormat prueft ob ein Format dekodiert werden kann
func ValidateFormat(format Format) error {
	switch format {
	case FormatJPEG, FormatPNG, FormatGIF, FormatWebP, FormatBMP, FormatTIFF:
		return nil
	default:
		return ErrUnknownFormat
	}
}

// String implementiert Stringer Interface
func (f Format) String() string {
	return string(f)
}
