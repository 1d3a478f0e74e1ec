// MODUL: errors
// ZWECK: Fehler-Definitionen fuer die Patch-Transformation
// INPUT: keine
// OUTPUT: Sentinel-Fehler und ShapeError
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: errors, fmt (Standardbibliothek)
// HINWEISE: Alle Fehler sind lokal zum Funktionsaufruf, es gibt kein Retry

package patch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidShape wird zurueckgegeben wenn Rang oder Form nicht unterstuetzt werden
	ErrInvalidShape = errors.New("patch: invalid shape")

	// ErrDimensionMismatch wird zurueckgegeben wenn eine Bildachse nicht in Patches aufgeht
	ErrDimensionMismatch = errors.New("patch: dimension not divisible by patch grid")

	// ErrShapeMismatch wird zurueckgegeben wenn ein Reshape nicht zur Elementanzahl passt
	ErrShapeMismatch = errors.New("patch: shape mismatch")

	// ErrInvalidPatchDim wird zurueckgegeben wenn patchDim <= 0 ist
	ErrInvalidPatchDim = errors.New("patch: patch dim must be > 0")

	// ErrDegenerateRange wird zurueckgegeben wenn max == min bei der Normalisierung
	ErrDegenerateRange = errors.New("patch: degenerate value range")

	// ErrNonFinite wird zurueckgegeben wenn die Eingabe NaN oder Inf enthaelt
	ErrNonFinite = errors.New("patch: non-finite value")

	// ErrInvalidCanvas wird zurueckgegeben wenn die Zielgroesse nicht positiv ist
	ErrInvalidCanvas = errors.New("patch: canvas size must be > 0")
)

// ShapeError beschreibt einen Fehler zusammen mit der betroffenen Form.
type ShapeError struct {
	Op    string
	Shape []int
	Err   error
}

// Error implementiert das error Interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, FormatShape(e.Shape), e.Err)
}

// Unwrap erlaubt errors.Is auf die Sentinel-Fehler.
func (e *ShapeError) Unwrap() error {
	return e.Err
}
