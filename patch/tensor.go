// MODUL: tensor
// ZWECK: Dichter float32-Tensor mit expliziter Form fuer Bild- und Patch-Daten
// INPUT: Form ([]int) und Werte beliebigen numerischen Typs
// OUTPUT: *Tensor (row-major, unveraenderlich nach Konstruktion)
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: golang.org/x/exp/constraints (extern)
// HINWEISE: Rang 2 = Graustufen (H x W), Rang 3 = Kanal-zuerst (C x H x W)

package patch

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/exp/constraints"
)

// Number umfasst alle Element-Typen, aus denen ein Tensor gebaut werden kann.
type Number interface {
	constraints.Integer | constraints.Float
}

// Tensor ist ein dichtes row-major float32-Array mit Form.
// Transformationen veraendern einen Tensor nie, sie liefern immer einen neuen.
type Tensor struct {
	shape []int
	data  []float32
}

// New erzeugt einen Tensor aus float32-Werten. Die Daten werden kopiert.
func New(shape []int, data []float32) (*Tensor, error) {
	n, err := numElements(shape)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, &ShapeError{Op: "new", Shape: shape, Err: fmt.Errorf("%w: %d Elemente fuer %d Werte", ErrShapeMismatch, n, len(data))}
	}

	return &Tensor{shape: slices.Clone(shape), data: slices.Clone(data)}, nil
}

// FromValues erzeugt einen Tensor aus Ganzzahl- oder Gleitkomma-Werten.
// Die Umwandlung nach float32 entspricht dem ersten Schritt jeder Normalisierung.
func FromValues[T Number](shape []int, values []T) (*Tensor, error) {
	n, err := numElements(shape)
	if err != nil {
		return nil, err
	}
	if n != len(values) {
		return nil, &ShapeError{Op: "new", Shape: shape, Err: fmt.Errorf("%w: %d Elemente fuer %d Werte", ErrShapeMismatch, n, len(values))}
	}

	data := make([]float32, len(values))
	for i, v := range values {
		data[i] = float32(v)
	}

	return &Tensor{shape: slices.Clone(shape), data: data}, nil
}

// Shape gibt eine Kopie der Form zurueck.
func (t *Tensor) Shape() []int {
	return slices.Clone(t.shape)
}

// Rank gibt die Anzahl der Achsen zurueck.
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// Len gibt die Anzahl der Elemente zurueck.
func (t *Tensor) Len() int {
	return len(t.data)
}

// Data gibt eine Kopie der Werte in row-major Reihenfolge zurueck.
func (t *Tensor) Data() []float32 {
	return slices.Clone(t.data)
}

// At liest ein einzelnes Element. Panics bei ungueltigem Index wie bei Slices.
func (t *Tensor) At(index ...int) float32 {
	return t.data[t.offset(index)]
}

// Row gibt die Werte der i-ten Zeile eines Rang-2-Tensors zurueck.
func (t *Tensor) Row(i int) []float32 {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("patch: Row auf Tensor mit Rang %d", len(t.shape)))
	}
	cols := t.shape[1]
	return slices.Clone(t.data[i*cols : (i+1)*cols])
}

// Rows zerlegt einen Rang-2-Tensor in Zeilen (z.B. fuer JSON-Ausgabe).
func (t *Tensor) Rows() [][]float32 {
	if len(t.shape) != 2 {
		return nil
	}
	rows := make([][]float32, t.shape[0])
	for i := range rows {
		rows[i] = t.Row(i)
	}
	return rows
}

// Reshape liefert einen Tensor mit neuer Form und denselben Werten.
// Eine Dimension darf -1 sein und wird dann aus der Elementanzahl abgeleitet.
func (t *Tensor) Reshape(dims ...int) (*Tensor, error) {
	shape, err := inferShape(dims, len(t.data))
	if err != nil {
		return nil, &ShapeError{Op: "reshape", Shape: t.shape, Err: err}
	}
	return &Tensor{shape: shape, data: slices.Clone(t.data)}, nil
}

// Equal prueft Form und Werte auf exakte Gleichheit.
func (t *Tensor) Equal(o *Tensor) bool {
	if t == nil || o == nil {
		return t == o
	}
	return slices.Equal(t.shape, o.shape) && slices.Equal(t.data, o.data)
}

// String implementiert fmt.Stringer mit Form-Angabe.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor%s", FormatShape(t.shape))
}

func (t *Tensor) offset(index []int) int {
	if len(index) != len(t.shape) {
		panic(fmt.Sprintf("patch: %d Indizes fuer Rang %d", len(index), len(t.shape)))
	}
	off := 0
	for i, idx := range index {
		if idx < 0 || idx >= t.shape[i] {
			panic(fmt.Sprintf("patch: Index %d ausserhalb von Achse %d (Groesse %d)", idx, i, t.shape[i]))
		}
		off = off*t.shape[i] + idx
	}
	return off
}

// numElements berechnet die Elementanzahl und prueft auf negative Achsen
func numElements(shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, &ShapeError{Op: "new", Shape: shape, Err: ErrInvalidShape}
	}
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, &ShapeError{Op: "new", Shape: shape, Err: ErrInvalidShape}
		}
		n *= d
	}
	return n, nil
}

// inferShape ersetzt hoechstens ein -1 durch die passende Groesse
func inferShape(dims []int, total int) ([]int, error) {
	shape := slices.Clone(dims)
	infer := -1
	known := 1
	for i, d := range shape {
		switch {
		case d == -1 && infer >= 0:
			return nil, fmt.Errorf("%w: mehr als eine Dimension -1", ErrInvalidShape)
		case d == -1:
			infer = i
		case d < 0:
			return nil, fmt.Errorf("%w: negative Dimension %d", ErrInvalidShape, d)
		default:
			known *= d
		}
	}

	if infer >= 0 {
		if known == 0 || total%known != 0 {
			return nil, fmt.Errorf("%w: %d Elemente passen nicht in %s", ErrShapeMismatch, total, FormatShape(dims))
		}
		shape[infer] = total / known
	} else if known != total {
		return nil, fmt.Errorf("%w: %d Elemente passen nicht in %s", ErrShapeMismatch, total, FormatShape(dims))
	}

	return shape, nil
}

// FormatShape formatiert eine Shape wie "(16, 49)"
func FormatShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = fmt.Sprint(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
