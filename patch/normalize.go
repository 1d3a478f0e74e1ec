// MODUL: normalize
// ZWECK: Standardisierung und Min-Max-Skalierung von Pixelwerten auf [-1, 1]
// INPUT: Tensor beliebiger Form
// OUTPUT: Neuer Tensor gleicher Form mit Werten in [-1, 1]
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: gonum.org/v1/gonum/stat, gonum.org/v1/gonum/floats (extern)
// HINWEISE: Die Verschiebung ist x - mean/std (kein z-Score), die Statistik
//           wird in float64 berechnet, std ist die Stichproben-Standardabweichung

package patch

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// NormalizeAndStandardize verschiebt alle Werte um mean/std und skaliert
// das Ergebnis anschliessend per Min-Max auf [-1, 1]:
//
//	y = x - mean/std
//	z = 2*(y - min(y)) / (max(y) - min(y)) - 1
//
// Konstante Eingaben (max == min) liefern ErrDegenerateRange.
func NormalizeAndStandardize(t *Tensor) (*Tensor, error) {
	if t.Len() == 0 {
		return nil, &ShapeError{Op: "normalize", Shape: t.shape, Err: ErrInvalidShape}
	}

	x := make([]float64, t.Len())
	for i, v := range t.data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &ShapeError{Op: "normalize", Shape: t.shape, Err: fmt.Errorf("%w at index %d", ErrNonFinite, i)}
		}
		x[i] = f
	}

	lo, hi := floats.Min(x), floats.Max(x)
	if lo == hi {
		return nil, &ShapeError{Op: "normalize", Shape: t.shape, Err: fmt.Errorf("%w: all values %g", ErrDegenerateRange, lo)}
	}

	mean, std := stat.MeanStdDev(x, nil)
	floats.AddConst(-mean/std, x)

	// Min und Max verschieben sich um dieselbe Konstante
	lo, hi = floats.Min(x), floats.Max(x)
	span := hi - lo
	if span == 0 {
		return nil, &ShapeError{Op: "normalize", Shape: t.shape, Err: fmt.Errorf("%w after shift by %g", ErrDegenerateRange, mean/std)}
	}

	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = float32(2*(v-lo)/span - 1)
	}

	return &Tensor{shape: t.Shape(), data: out}, nil
}
