package patch

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFromValues(t *testing.T) {
	tt, err := FromValues([]int{2, 3}, []uint8{1, 2, 3, 4, 5, 255})
	if err != nil {
		t.Fatalf("FromValues() error = %v", err)
	}

	if got := tt.At(1, 2); got != 255 {
		t.Errorf("At(1, 2) = %v, erwartet 255", got)
	}
	if tt.Rank() != 2 || tt.Len() != 6 {
		t.Errorf("Rang/Laenge = %d/%d, erwartet 2/6", tt.Rank(), tt.Len())
	}

	if _, err := FromValues([]int{2, 2}, []int{1, 2, 3}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Erwartet ErrShapeMismatch, bekam %v", err)
	}
	if _, err := FromValues([]int{-1, 2}, []int{1, 2}); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("Erwartet ErrInvalidShape, bekam %v", err)
	}
}

func TestNewCopiesData(t *testing.T) {
	data := []float32{1, 2, 3, 4}
	tt, err := New([]int{4}, data)
	if err != nil {
		t.Fatal(err)
	}

	data[0] = 99
	if tt.At(0) != 1 {
		t.Error("New darf die Eingabe nicht uebernehmen")
	}

	out := tt.Data()
	out[1] = 99
	if tt.At(1) != 2 {
		t.Error("Data muss eine Kopie liefern")
	}
}

func TestReshape(t *testing.T) {
	tt, _ := FromValues([]int{2, 3, 4}, make([]float32, 24))

	tests := []struct {
		dims []int
		want []int
		err  error
	}{
		{[]int{6, 4}, []int{6, 4}, nil},
		{[]int{-1, 4}, []int{6, 4}, nil},
		{[]int{2, -1}, []int{2, 12}, nil},
		{[]int{5, -1}, nil, ErrShapeMismatch},
		{[]int{-1, -1}, nil, ErrInvalidShape},
		{[]int{7, 4}, nil, ErrShapeMismatch},
		{[]int{0, -1}, nil, ErrShapeMismatch},
	}

	for _, tc := range tests {
		got, err := tt.Reshape(tc.dims...)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Errorf("Reshape(%v) Fehler = %v, erwartet %v", tc.dims, err, tc.err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Reshape(%v) error = %v", tc.dims, err)
			continue
		}
		if diff := cmp.Diff(tc.want, got.Shape()); diff != "" {
			t.Errorf("Reshape(%v) Form (-want +got):\n%s", tc.dims, diff)
		}
	}
}

func TestRows(t *testing.T) {
	tt, _ := FromValues([]int{2, 2}, []int{1, 2, 3, 4})

	want := [][]float32{{1, 2}, {3, 4}}
	if diff := cmp.Diff(want, tt.Rows()); diff != "" {
		t.Errorf("Rows() (-want +got):\n%s", diff)
	}

	flat, _ := FromValues([]int{4}, make([]float32, 4))
	if flat.Rows() != nil {
		t.Error("Rows() auf Rang 1 sollte nil liefern")
	}
}

func TestShapeErrorMessage(t *testing.T) {
	err := &ShapeError{Op: "flatten patches", Shape: []int{6, 2, 2}, Err: ErrShapeMismatch}
	if got, want := err.Error(), "flatten patches (6, 2, 2): patch: shape mismatch"; got != want {
		t.Errorf("Error() = %q, erwartet %q", got, want)
	}
}
