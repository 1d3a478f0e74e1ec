// MODUL: patches
// ZWECK: Zerlegt Bild-Tensoren in ein Raster quadratischer Patches und zurueck
// INPUT: Tensor mit Rang 2 (H x W) oder Rang 3 (C x H x W), patchDim
// OUTPUT: Patch-Batch (N x ps x ps bzw. N x C x ps x ps), flache Patch-Matrix
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: github.com/pdevine/tensor (extern)
// HINWEISE: Patches werden row-major ueber das Raster nummeriert,
//           die Patch-Groesse wird aus der Hoehe abgeleitet

package patch

import (
	"fmt"
	"slices"

	"github.com/pdevine/tensor"
)

// ============================================================================
// Patch-Erzeugung
// ============================================================================

// CreatePatches zerlegt img in nicht-ueberlappende quadratische Patches.
//
// Die Patch-Groesse ist H / patchDim (Ganzzahldivision). Das Raster hat
// H / ps Zeilen und W / ps Spalten; Restpixel werden verworfen, ausser
// WithStrictDimensions ist gesetzt. Das Ergebnis hat die Form
// (N, ps, ps) fuer Rang 2 und (N, C, ps, ps) fuer Rang 3.
func CreatePatches(img *Tensor, patchDim int, opts ...Option) (*Tensor, error) {
	if patchDim <= 0 {
		return nil, &ShapeError{Op: "create patches", Shape: img.shape, Err: ErrInvalidPatchDim}
	}

	o := applyOptions(opts)

	var channels, height, width int
	switch img.Rank() {
	case 2:
		channels, height, width = 1, img.shape[0], img.shape[1]
	case 3:
		channels, height, width = img.shape[0], img.shape[1], img.shape[2]
	default:
		return nil, &ShapeError{Op: "create patches", Shape: img.shape, Err: fmt.Errorf("%w: rank %d, want 2 or 3", ErrInvalidShape, img.Rank())}
	}

	if channels == 0 {
		return nil, &ShapeError{Op: "create patches", Shape: img.shape, Err: ErrInvalidShape}
	}

	size := height / patchDim
	if size == 0 {
		return nil, &ShapeError{Op: "create patches", Shape: img.shape, Err: fmt.Errorf("%w: patch dim %d > height %d", ErrDimensionMismatch, patchDim, height)}
	}

	rows, cols := height/size, width/size
	if cols == 0 {
		return nil, &ShapeError{Op: "create patches", Shape: img.shape, Err: fmt.Errorf("%w: width %d < patch size %d", ErrDimensionMismatch, width, size)}
	}

	if o.strict && (height%patchDim != 0 || width%size != 0) {
		return nil, &ShapeError{Op: "create patches", Shape: img.shape, Err: fmt.Errorf("%w: %dx%d by %d", ErrDimensionMismatch, height, width, patchDim)}
	}

	data := crop(img.data, channels, height, width, rows*size, cols*size)

	var (
		grid  []int
		axes  []int
		shape []int
	)
	if img.Rank() == 2 {
		// (rows, ps, cols, ps) -> (rows, cols, ps, ps)
		grid = []int{rows, size, cols, size}
		axes = []int{0, 2, 1, 3}
		shape = []int{rows * cols, size, size}
	} else {
		// (C, rows, ps, cols, ps) -> (rows, cols, C, ps, ps)
		grid = []int{channels, rows, size, cols, size}
		axes = []int{1, 3, 0, 2, 4}
		shape = []int{rows * cols, channels, size, size}
	}

	out, err := permute(data, grid, axes)
	if err != nil {
		return nil, &ShapeError{Op: "create patches", Shape: img.shape, Err: err}
	}

	return &Tensor{shape: shape, data: out}, nil
}

// FlattenPatches formt einen Patch-Batch in eine Matrix mit patchDim²
// Zeilen um, eine Zeile pro Patch. Die fuehrende Achse muss genau patchDim²
// Patches enthalten.
func FlattenPatches(patches *Tensor, patchDim int) (*Tensor, error) {
	if patchDim <= 0 {
		return nil, &ShapeError{Op: "flatten patches", Shape: patches.shape, Err: ErrInvalidPatchDim}
	}

	count := patchDim * patchDim
	if patches.Rank() < 2 || patches.shape[0] != count {
		return nil, &ShapeError{Op: "flatten patches", Shape: patches.shape, Err: fmt.Errorf("%w: want %d patches", ErrShapeMismatch, count)}
	}

	return patches.Reshape(count, -1)
}

// AssemblePatches setzt einen Patch-Batch aus einem patchDim x patchDim
// Raster wieder zu einem Bild zusammen (Umkehrung von CreatePatches).
func AssemblePatches(patches *Tensor, patchDim int) (*Tensor, error) {
	if patchDim <= 0 {
		return nil, &ShapeError{Op: "assemble patches", Shape: patches.shape, Err: ErrInvalidPatchDim}
	}

	count := patchDim * patchDim
	if patches.Rank() < 3 || patches.shape[0] != count {
		return nil, &ShapeError{Op: "assemble patches", Shape: patches.shape, Err: fmt.Errorf("%w: want %d patches", ErrShapeMismatch, count)}
	}

	var (
		grid  []int
		axes  []int
		shape []int
	)
	switch patches.Rank() {
	case 3:
		size := patches.shape[1]
		// (rows, cols, ps, ps) -> (rows, ps, cols, ps)
		grid = []int{patchDim, patchDim, size, size}
		axes = []int{0, 2, 1, 3}
		shape = []int{patchDim * size, patchDim * size}
	case 4:
		channels, size := patches.shape[1], patches.shape[2]
		// (rows, cols, C, ps, ps) -> (C, rows, ps, cols, ps)
		grid = []int{patchDim, patchDim, channels, size, size}
		axes = []int{2, 0, 3, 1, 4}
		shape = []int{channels, patchDim * size, patchDim * size}
	default:
		return nil, &ShapeError{Op: "assemble patches", Shape: patches.shape, Err: ErrInvalidShape}
	}

	out, err := permute(patches.data, grid, axes)
	if err != nil {
		return nil, &ShapeError{Op: "assemble patches", Shape: patches.shape, Err: err}
	}

	return &Tensor{shape: shape, data: out}, nil
}

// ============================================================================
// Hilfsfunktionen
// ============================================================================

// permute ordnet die Achsen von data (Form shape) gemaess axes um und gibt
// die neu angeordneten Werte zurueck. data selbst bleibt unveraendert.
func permute(data []float32, shape, axes []int) ([]float32, error) {
	n := tensor.New(tensor.WithShape(shape...), tensor.WithBacking(slices.Clone(data)))
	if err := n.T(axes...); err != nil {
		return nil, err
	}
	if err := n.Transpose(); err != nil {
		return nil, err
	}

	f32s, ok := n.Data().([]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected tensor data type %T", n.Data())
	}
	return f32s, nil
}

// crop schneidet (C, H, W) auf (C, h, w) zu, ausgehend von der linken oberen Ecke
func crop(data []float32, channels, height, width, h, w int) []float32 {
	if h == height && w == width {
		return data
	}

	out := make([]float32, 0, channels*h*w)
	for c := range channels {
		plane := data[c*height*width : (c+1)*height*width]
		for y := range h {
			out = append(out, plane[y*width:y*width+w]...)
		}
	}
	return out
}
