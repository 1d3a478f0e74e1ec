// MODUL: tensor
// ZWECK: Konvertiert image.Image in Pixel-Tensoren fuer die Patch-Transformation
// INPUT: image.Image, Kanalanzahl (1 oder 3)
// OUTPUT: *patch.Tensor mit Werten 0..255 (H x W bzw. 3 x H x W)
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: patch (intern), image/color
// HINWEISE: Graustufen nach ITU-R 601 (color.GrayModel), RGB im CHW Layout,
//           Alpha wird ignoriert

package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/ollama/patchseq/patch"
)

// ErrUnsupportedChannels wird zurueckgegeben wenn weder 1 noch 3 Kanaele verlangt werden
var ErrUnsupportedChannels = errors.New("imageio: channels must be 1 or 3")

// ToTensor wandelt img in einen Tensor mit Rohwerten 0..255 um.
// channels == 1 liefert (H, W), channels == 3 liefert (3, H, W).
func ToTensor(img image.Image, channels int) (*patch.Tensor, error) {
	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()

	switch channels {
	case 1:
		values := make([]uint8, 0, h*w)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, g, b := extractRGB(img, x, y)
				gray := color.GrayModel.Convert(color.RGBA{R: r, G: g, B: b, A: 255}).(color.Gray)
				values = append(values, gray.Y)
			}
		}
		return patch.FromValues([]int{h, w}, values)
	case 3:
		size := h * w
		values := make([]uint8, 3*size)
		idx := 0
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, g, b := extractRGB(img, x, y)
				values[idx] = r
				values[size+idx] = g
				values[2*size+idx] = b
				idx++
			}
		}
		return patch.FromValues([]int{3, h, w}, values)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedChannels, channels)
	}
}

// extractRGB holt die nicht vormultiplizierten RGB-Werte als 8-bit
func extractRGB(img image.Image, x, y int) (uint8, uint8, uint8) {
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return c.R, c.G, c.B
}
