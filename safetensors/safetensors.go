// MODUL: safetensors
// ZWECK: Schreiben und Lesen flacher Patch-Matrizen im safetensors-Format
// INPUT: Benannte float32-Tensoren, Ziel-Datentyp (F32, F16, BF16)
// OUTPUT: safetensors-Bytes bzw. dekodierte Tensoren
// NEBENEFFEKTE: Dateisystem-Schreibzugriff bei WriteFile
// ABHAENGIGKEITEN: github.com/x448/float16, github.com/d4l3k/go-bfloat16 (extern)
// HINWEISE: Layout: [u64 Header-Laenge][JSON-Header][Daten], Little-Endian,
//           Tensoren nach Namen sortiert

package safetensors

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// DType ist der Datentyp, mit dem Werte abgelegt werden
type DType string

const (
	F32  DType = "F32"
	F16  DType = "F16"
	BF16 DType = "BF16"
)

// maxHeaderSize begrenzt den JSON-Header beim Lesen auf 100 MB
const maxHeaderSize = 100 << 20

var (
	ErrUnsupportedDType = errors.New("safetensors: unsupported dtype")
	ErrInvalidHeader    = errors.New("safetensors: invalid header")
	ErrDuplicateName    = errors.New("safetensors: duplicate tensor name")
)

// Entry ist ein benannter Tensor
type Entry struct {
	Name  string
	Shape []int
	Data  []float32
}

// File ist der dekodierte Inhalt einer safetensors-Datei
type File struct {
	Metadata map[string]string
	DType    map[string]DType
	Tensors  []Entry
}

// Tensor sucht einen Tensor nach Namen
func (f *File) Tensor(name string) (Entry, bool) {
	for _, e := range f.Tensors {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

type headerEntry struct {
	DType       DType  `json:"dtype"`
	Shape       []int  `json:"shape"`
	DataOffsets [2]int `json:"data_offsets"`
}

// ParseDType wandelt Kleinschreibung wie "f16" oder "bf16" um
func ParseDType(s string) (DType, error) {
	switch d := DType(strings.ToUpper(s)); d {
	case F32, F16, BF16:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDType, s)
	}
}

// Size gibt die Bytes pro Element zurueck
func (d DType) Size() int {
	switch d {
	case F32:
		return 4
	case F16, BF16:
		return 2
	default:
		return 0
	}
}

// ============================================================================
// Schreiben
// ============================================================================

// Write kodiert entries als safetensors nach w
func Write(w io.Writer, entries []Entry, dtype DType, metadata map[string]string) error {
	if dtype.Size() == 0 {
		return fmt.Errorf("%w: %q", ErrUnsupportedDType, dtype)
	}

	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })

	header := make(map[string]any, len(sorted)+1)
	if len(metadata) > 0 {
		header["__metadata__"] = metadata
	}

	offset := 0
	for i, e := range sorted {
		if i > 0 && sorted[i-1].Name == e.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateName, e.Name)
		}
		if n := numElements(e.Shape); n != len(e.Data) {
			return fmt.Errorf("safetensors: %s: shape %v has %d elements, got %d", e.Name, e.Shape, n, len(e.Data))
		}

		size := len(e.Data) * dtype.Size()
		header[e.Name] = headerEntry{DType: dtype, Shape: e.Shape, DataOffsets: [2]int{offset, offset + size}}
		offset += size
	}

	bts, err := json.Marshal(header)
	if err != nil {
		return err
	}

	// Header auf 8 Bytes auffuellen, damit die Daten ausgerichtet sind
	if pad := len(bts) % 8; pad != 0 {
		bts = append(bts, bytes.Repeat([]byte{' '}, 8-pad)...)
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(bts))); err != nil {
		return err
	}
	if _, err := w.Write(bts); err != nil {
		return err
	}

	for _, e := range sorted {
		if _, err := w.Write(encode(e.Data, dtype)); err != nil {
			return fmt.Errorf("safetensors: %s schreiben: %w", e.Name, err)
		}
	}

	return nil
}

// WriteFile schreibt entries in eine Datei
func WriteFile(path string, entries []Entry, dtype DType, metadata map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := Write(f, entries, dtype, metadata); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func encode(data []float32, dtype DType) []byte {
	switch dtype {
	case F16:
		out := make([]byte, 2*len(data))
		for i, v := range data {
			binary.LittleEndian.PutUint16(out[2*i:], float16.Fromfloat32(v).Bits())
		}
		return out
	case BF16:
		return bfloat16.EncodeFloat32(data)
	default:
		out := make([]byte, 4*len(data))
		for i, v := range data {
			binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
		}
		return out
	}
}

// ============================================================================
// Lesen
// ============================================================================

// Read dekodiert eine komplette safetensors-Datei aus r
func Read(r io.Reader) (*File, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if n > maxHeaderSize {
		return nil, fmt.Errorf("%w: header size %d", ErrInvalidHeader, n)
	}

	bts := make([]byte, n)
	if _, err := io.ReadFull(r, bts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(bts, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	f := &File{DType: make(map[string]DType)}
	for name, msg := range raw {
		if name == "__metadata__" {
			if err := json.Unmarshal(msg, &f.Metadata); err != nil {
				return nil, fmt.Errorf("%w: metadata: %v", ErrInvalidHeader, err)
			}
			continue
		}

		var h headerEntry
		if err := json.Unmarshal(msg, &h); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidHeader, name, err)
		}

		begin, end := h.DataOffsets[0], h.DataOffsets[1]
		if h.DType.Size() == 0 {
			return nil, fmt.Errorf("%w: %s: %q", ErrUnsupportedDType, name, h.DType)
		}
		if begin < 0 || end < begin || end > len(data) || (end-begin) != numElements(h.Shape)*h.DType.Size() {
			return nil, fmt.Errorf("%w: %s: offsets %v", ErrInvalidHeader, name, h.DataOffsets)
		}

		f.DType[name] = h.DType
		f.Tensors = append(f.Tensors, Entry{Name: name, Shape: h.Shape, Data: decode(data[begin:end], h.DType)})
	}

	slices.SortFunc(f.Tensors, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return f, nil
}

// ReadFile liest eine safetensors-Datei von der Platte
func ReadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f)
}

func decode(bts []byte, dtype DType) []float32 {
	switch dtype {
	case F16:
		out := make([]float32, len(bts)/2)
		for i := range out {
			out[i] = float16.Frombits(binary.LittleEndian.Uint16(bts[2*i:])).Float32()
		}
		return out
	case BF16:
		return bfloat16.DecodeFloat32(bts)
	default:
		out := make([]float32, len(bts)/4)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(bts[4*i:]))
		}
		return out
	}
}

func numElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
