// MODUL: image
// ZWECK: Bild-Ladefunktionen fuer die Patch-Pipeline
// INPUT: Dateipfad, Bytes oder io.Reader
// OUTPUT: Image Struktur mit dekodiertem Bild und Format
// NEBENEFFEKTE: Dateisystem-Lesezugriff bei LoadImage
// ABHAENGIGKEITEN: golang.org/x/image/{bmp,tiff,webp} (extern), image/{jpeg,png,gif}
// HINWEISE: Das dekodierte Bild wird nicht konvertiert, das erledigt ToTensor

package imageio

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"

	// Standard-Decoder registrieren
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image enthaelt ein dekodiertes Bild mit Metadaten
type Image struct {
	image.Image

	Width  int
	Height int
	Format Format
}

// LoadImage laedt ein Bild von einem Dateipfad
func LoadImage(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("datei lesen fehlgeschlagen: %w", err)
	}
	return LoadImageFromBytes(data)
}

// LoadImageFromBytes dekodiert ein Bild aus Byte-Daten
func LoadImageFromBytes(data []byte) (*Image, error) {
	format := DetectFormat(data)
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("bild dekodieren fehlgeschlagen (%s): %w", format, err)
	}

	bounds := img.Bounds()
	return &Image{
		Image:  img,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
	}, nil
}

// DecodeImage dekodiert ein Bild aus einem io.Reader
func DecodeImage(r io.Reader) (*Image, error) {
	// Erst Daten puffern fuer Format-Erkennung
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("daten lesen fehlgeschlagen: %w", err)
	}
	return LoadImageFromBytes(data)
}
