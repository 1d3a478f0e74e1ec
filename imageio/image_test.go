// MODUL: image_test
// ZWECK: Tests fuer Format-Erkennung, Bild-Laden und Tensor-Konvertierung
// INPUT: Synthetische Bilder und kodierte Bytes
// OUTPUT: Testresultate
// NEBENEFFEKTE: Schreibt temporaere Dateien (t.TempDir)
// ABHAENGIGKEITEN: testing, image/png, image/gif, golang.org/x/image/bmp
// HINWEISE: Keine Testdaten auf der Platte noetig

package imageio

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// createRGBA erzeugt ein einfarbiges Testbild
func createRGBA(w, h int, c color.Color) *image.RGBA {
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			rgba.Set(x, y, c)
		}
	}
	return rgba
}

// createPNGBytes erzeugt PNG-Bytes aus einem Testbild
func createPNGBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, createRGBA(w, h, c)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"JPEG", []byte{0xFF, 0xD8, 0xFF, 0xE0}, FormatJPEG},
		{"PNG", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}, FormatPNG},
		{"GIF", []byte("GIF89a"), FormatGIF},
		{"WebP", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), FormatWebP},
		{"RIFF ohne WebP", []byte("RIFF\x00\x00\x00\x00WAVE"), FormatUnknown},
		{"TIFF LE", []byte{0x49, 0x49, 0x2A, 0x00, 0x08}, FormatTIFF},
		{"TIFF BE", []byte{0x4D, 0x4D, 0x00, 0x2A, 0x00}, FormatTIFF},
		{"BMP", append([]byte("BM"), make([]byte, 12)...), FormatBMP},
		{"BMP zu kurz", []byte("BM"), FormatUnknown},
		{"Leer", nil, FormatUnknown},
		{"Muell", []byte{0x00, 0x01, 0x02, 0x03}, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.data); got != tt.want {
				t.Errorf("DetectFormat() = %v, erwartet %v", got, tt.want)
			}
		})
	}
}

func TestLoadImageFromBytes(t *testing.T) {
	img, err := LoadImageFromBytes(createPNGBytes(t, 100, 50, color.RGBA{255, 0, 0, 255}))
	if err != nil {
		t.Fatalf("LoadImageFromBytes() error = %v", err)
	}

	if img.Width != 100 || img.Height != 50 {
		t.Errorf("Groesse = %dx%d, erwartet 100x50", img.Width, img.Height)
	}
	if img.Format != FormatPNG {
		t.Errorf("Format = %v, erwartet %v", img.Format, FormatPNG)
	}
}

func TestLoadImageFromBytesInvalid(t *testing.T) {
	if _, err := LoadImageFromBytes([]byte{0x00, 0x00, 0x00, 0x00}); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Erwartet ErrUnknownFormat, bekam %v", err)
	}

	// gueltige Signatur, kaputter Inhalt
	if _, err := LoadImageFromBytes([]byte{0x89, 0x50, 0x4E, 0x47, 0x00}); err == nil {
		t.Error("Erwartet Fehler bei abgeschnittenem PNG")
	}
}

func TestLoadImageFormats(t *testing.T) {
	src := createRGBA(8, 6, color.RGBA{10, 20, 30, 255})

	encoders := map[Format]func(*bytes.Buffer) error{
		FormatBMP:  func(b *bytes.Buffer) error { return bmp.Encode(b, src) },
		FormatTIFF: func(b *bytes.Buffer) error { return tiff.Encode(b, src, nil) },
		FormatGIF:  func(b *bytes.Buffer) error { return gif.Encode(b, src, nil) },
	}

	for format, encode := range encoders {
		t.Run(format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := encode(&buf); err != nil {
				t.Fatal(err)
			}

			img, err := DecodeImage(&buf)
			if err != nil {
				t.Fatalf("DecodeImage() error = %v", err)
			}
			if img.Format != format {
				t.Errorf("Format = %v, erwartet %v", img.Format, format)
			}
			if img.Width != 8 || img.Height != 6 {
				t.Errorf("Groesse = %dx%d, erwartet 8x6", img.Width, img.Height)
			}
		})
	}
}

func TestLoadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digit.png")
	if err := os.WriteFile(path, createPNGBytes(t, 28, 28, color.White), 0o644); err != nil {
		t.Fatal(err)
	}

	img, err := LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage() error = %v", err)
	}
	if img.Width != 28 || img.Height != 28 {
		t.Errorf("Groesse = %dx%d, erwartet 28x28", img.Width, img.Height)
	}

	if _, err := LoadImage(filepath.Join(t.TempDir(), "fehlt.png")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Erwartet os.ErrNotExist, bekam %v", err)
	}
}

func TestToTensorGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 10)
	}

	tt, err := ToTensor(img, 1)
	if err != nil {
		t.Fatalf("ToTensor() error = %v", err)
	}

	if shape := tt.Shape(); len(shape) != 2 || shape[0] != 2 || shape[1] != 3 {
		t.Fatalf("Form = %v, erwartet [2 3]", shape)
	}
	if got := tt.At(1, 2); got != 50 {
		t.Errorf("At(1, 2) = %v, erwartet 50", got)
	}
}

func TestToTensorRGB(t *testing.T) {
	img := createRGBA(2, 2, color.RGBA{10, 20, 30, 255})
	img.SetRGBA(1, 0, color.RGBA{200, 100, 50, 255})

	tt, err := ToTensor(img, 3)
	if err != nil {
		t.Fatalf("ToTensor() error = %v", err)
	}

	if shape := tt.Shape(); len(shape) != 3 || shape[0] != 3 {
		t.Fatalf("Form = %v, erwartet [3 2 2]", shape)
	}

	tests := []struct {
		c, y, x int
		want    float32
	}{
		{0, 0, 0, 10},
		{1, 0, 0, 20},
		{2, 1, 1, 30},
		{0, 0, 1, 200},
		{1, 0, 1, 100},
		{2, 0, 1, 50},
	}
	for _, tc := range tests {
		if got := tt.At(tc.c, tc.y, tc.x); got != tc.want {
			t.Errorf("At(%d,%d,%d) = %v, erwartet %v", tc.c, tc.y, tc.x, got, tc.want)
		}
	}
}

func TestToTensorGrayFromRGB(t *testing.T) {
	img := createRGBA(1, 1, color.RGBA{255, 255, 255, 255})

	tt, err := ToTensor(img, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := tt.At(0, 0); got != 255 {
		t.Errorf("Weiss = %v, erwartet 255", got)
	}
}

func TestToTensorTransparent(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{255, 255, 255, 0})

	gray, err := ToTensor(img, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := gray.At(0, 0); got != 255 {
		t.Errorf("Grau = %v, erwartet 255", got)
	}

	rgb, err := ToTensor(img, 3)
	if err != nil {
		t.Fatal(err)
	}
	for c := range 3 {
		if got := rgb.At(c, 0, 0); got != 255 {
			t.Errorf("Kanal %d = %v, erwartet 255", c, got)
		}
	}
}

func TestToTensorChannels(t *testing.T) {
	if _, err := ToTensor(createRGBA(2, 2, color.White), 4); !errors.Is(err, ErrUnsupportedChannels) {
		t.Errorf("Erwartet ErrUnsupportedChannels, bekam %v", err)
	}
}
