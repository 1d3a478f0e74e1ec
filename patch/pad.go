// MODUL: pad
// ZWECK: Zentriert ein Bild auf einer schwarzen Leinwand fester Groesse
// INPUT: image.Image, Zielbreite, Zielhoehe
// OUTPUT: image.Image (identisch bei gleicher Groesse, sonst neues *image.RGBA)
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: golang.org/x/image/draw (extern)
// HINWEISE: Offsets werden abgerundet, groessere Bilder werden beschnitten,
//           Alpha wird verworfen (gespeicherte Farben bleiben erhalten)

package patch

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// PadPhoto legt photo zentriert auf eine schwarze RGB-Leinwand der Groesse
// width x height. Hat photo bereits genau diese Groesse, wird es selbst
// (ohne Kopie) zurueckgegeben, sofern es keine Transparenz enthaelt.
func PadPhoto(photo image.Image, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, &ShapeError{Op: "pad photo", Shape: []int{height, width}, Err: ErrInvalidCanvas}
	}

	photo = DropAlpha(photo)

	bounds := photo.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return photo, nil
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	offsetX := floorDiv(width-bounds.Dx(), 2)
	offsetY := floorDiv(height-bounds.Dy(), 2)
	target := image.Rect(offsetX, offsetY, offsetX+bounds.Dx(), offsetY+bounds.Dy())

	// draw.Draw beschneidet target auf die Leinwand und verschiebt den Quellpunkt mit
	draw.Draw(canvas, target, photo, bounds.Min, draw.Src)

	return canvas, nil
}

// floorDiv rundet wie eine Ganzzahldivision nach unten, auch fuer negative a
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// DropAlpha gibt ein deckendes Bild mit den nicht vormultiplizierten Farben
// von img zurueck. Deckende Bilder werden unveraendert zurueckgegeben.
func DropAlpha(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}

	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
	return out
}
