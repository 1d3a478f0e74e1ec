// MODUL: params
// ZWECK: Explizite Hyperparameter fuer Patch-Transformation und Modell
// INPUT: Defaults, JSON-Datei, Environment-Variablen (PATCHSEQ_*)
// OUTPUT: Params Struct mit validierter Konfiguration
// NEBENEFFEKTE: Liest Environment-Variablen und optional eine Datei
// ABHAENGIGKEITEN: envconfig (intern), encoding/json
// HINWEISE: Ersetzt prozessweite Globals, wird an Konstruktoren uebergeben

package params

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ollama/patchseq/envconfig"
)

// ============================================================================
// Konstanten
// ============================================================================

const (
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
	DeviceMPS  = "mps"
)

// ============================================================================
// Fehler-Definitionen
// ============================================================================

var (
	ErrInvalidPatchDim = errors.New("params: patch dim must be > 0")
	ErrInvalidCanvas   = errors.New("params: width and height must be > 0")
	ErrInvalidChannels = errors.New("params: channels must be 1 or 3")
	ErrInvalidDevice   = errors.New("params: invalid device")
	ErrInvalidHeads    = errors.New("params: model dims must be divisible by heads")
	ErrPatchTooLarge   = errors.New("params: patch dim exceeds canvas height")
	ErrGridMismatch    = errors.New("params: canvas does not form a patch dim x patch dim grid")
)

// ============================================================================
// Params - Zentrale Konfiguration
// ============================================================================

// Params enthaelt Geometrie der Patch-Transformation und Modell-Hyperparameter.
type Params struct {
	// Geometrie
	PatchDim int `json:"patch_dim"`
	Width    int `json:"width"`
	Height   int `json:"height"`
	Channels int `json:"channels"`

	// Encoder/Decoder
	DModelEncoder    int `json:"d_model_encoder"`
	DModelDecoder    int `json:"d_model_decoder"`
	DecoderLength    int `json:"decoder_length"`
	NumEncoderLayers int `json:"num_encoder_layers"`
	NumDecoderLayers int `json:"num_decoder_layers"`
	NumHeads         int `json:"num_heads"`
	VocabSize        int `json:"vocab_size"`

	// Training
	Device       string  `json:"device"`
	Seed         int64   `json:"seed"`
	BatchSize    int     `json:"batch_size"`
	Epochs       int     `json:"epochs"`
	LearningRate float64 `json:"learning_rate"`
}

// Default gibt die Parameter fuer 28x28 MNIST-Ziffern zurueck.
func Default() Params {
	return Params{
		PatchDim: 4,
		Width:    28,
		Height:   28,
		Channels: 1,

		DModelEncoder:    64,
		DModelDecoder:    64,
		DecoderLength:    6,
		NumEncoderLayers: 4,
		NumDecoderLayers: 4,
		NumHeads:         4,
		VocabSize:        13, // 10 Ziffern + <s> </s> <pad>

		Device:       DeviceCPU,
		Seed:         7,
		BatchSize:    500,
		Epochs:       40,
		LearningRate: 0.001,
	}
}

// Load liest Parameter aus einer JSON-Datei. Fehlende Felder behalten die Defaults.
func Load(path string) (Params, error) {
	p, err := load(path)
	if err != nil {
		return p, err
	}
	return p, p.Validate()
}

func load(path string) (Params, error) {
	p := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("params lesen: %w", err)
	}

	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("params parsen %s: %w", path, err)
	}

	return p, nil
}

// FromEnv startet bei Default (oder PATCHSEQ_PARAMS) und uebernimmt gesetzte
// PATCHSEQ_* Variablen.
func FromEnv() (Params, error) {
	p, err := Resolve("")
	if err != nil {
		return p, err
	}
	return p, p.Validate()
}

// Resolve liest path (leer: PATCHSEQ_PARAMS, sonst Default) und legt die
// gesetzten PATCHSEQ_* Variablen darueber. Die Reihenfolge ist
// Default < Datei < Environment. Das Ergebnis ist nicht validiert.
func Resolve(path string) (Params, error) {
	if path == "" {
		path = envconfig.ParamsFile()
	}

	p := Default()
	if path != "" {
		var err error
		if p, err = load(path); err != nil {
			return p, err
		}
	}

	if n := envconfig.PatchDim(); n > 0 {
		p.PatchDim = int(n)
	}
	if n := envconfig.CanvasWidth(); n > 0 {
		p.Width = int(n)
	}
	if n := envconfig.CanvasHeight(); n > 0 {
		p.Height = int(n)
	}
	if n := envconfig.Channels(); n > 0 {
		p.Channels = int(n)
	}
	if d := envconfig.Device(); d != "" {
		p.Device = d
	}

	return p, nil
}

// Validate prueft die Parameter auf Konsistenz.
func (p Params) Validate() error {
	if p.PatchDim <= 0 {
		return ErrInvalidPatchDim
	}
	if p.Width <= 0 || p.Height <= 0 {
		return ErrInvalidCanvas
	}
	if p.Height/p.PatchDim == 0 {
		return fmt.Errorf("%w: %d > %d", ErrPatchTooLarge, p.PatchDim, p.Height)
	}
	// Patch-Groesse kommt aus der Hoehe, die Breite muss dasselbe Raster ergeben
	if ps := p.PatchSize(); p.Height/ps != p.PatchDim || p.Width/ps != p.PatchDim {
		return fmt.Errorf("%w: %dx%d with patch size %d", ErrGridMismatch, p.Width, p.Height, ps)
	}
	if p.Channels != 1 && p.Channels != 3 {
		return fmt.Errorf("%w: %d", ErrInvalidChannels, p.Channels)
	}

	switch p.Device {
	case DeviceCPU, DeviceCUDA, DeviceMPS:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDevice, p.Device)
	}

	if p.NumHeads > 0 && (p.DModelEncoder%p.NumHeads != 0 || p.DModelDecoder%p.NumHeads != 0) {
		return fmt.Errorf("%w: %d/%d by %d", ErrInvalidHeads, p.DModelEncoder, p.DModelDecoder, p.NumHeads)
	}

	return nil
}

// ============================================================================
// Abgeleitete Groessen
// ============================================================================

// PatchSize ist die Kantenlaenge eines Patches in Pixeln.
func (p Params) PatchSize() int {
	return p.Height / p.PatchDim
}

// EncoderLength ist die Anzahl Patches und damit die Laenge der Encoder-Sequenz.
func (p Params) EncoderLength() int {
	return p.PatchDim * p.PatchDim
}

// EncoderEmbeddingDim ist die Laenge einer flachen Patch-Zeile (ps² * Kanaele).
func (p Params) EncoderEmbeddingDim() int {
	ps := p.PatchSize()
	return p.Channels * ps * ps
}
