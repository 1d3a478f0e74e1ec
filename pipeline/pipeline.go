// MODUL: pipeline
// ZWECK: Bereitet Bilder fuer den Encoder vor (Padding, Tensor, Normalisierung, Patches)
// INPUT: image.Image, Dateipfade oder Bild-Bytes, params.Params
// OUTPUT: Sample mit flacher Patch-Matrix (patchDim² x Pixel pro Patch)
// NEBENEFFEKTE: Dateisystem-Lesezugriff bei ProcessFile/ProcessFiles, Logging
// ABHAENGIGKEITEN: patch, imageio, params, envconfig (intern), golang.org/x/sync (extern)
// HINWEISE: Batch-Verarbeitung mit begrenzter Parallelitaet, Reihenfolge bleibt erhalten

package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ollama/patchseq/envconfig"
	"github.com/ollama/patchseq/imageio"
	"github.com/ollama/patchseq/logutil"
	"github.com/ollama/patchseq/params"
	"github.com/ollama/patchseq/patch"
)

// ============================================================================
// Typen
// ============================================================================

// Sample ist ein vorbereitetes Bild.
type Sample struct {
	// Source ist der Dateipfad oder eine vom Aufrufer vergebene Kennung
	Source string

	// Width und Height sind die Originalmasse vor dem Padding
	Width  int
	Height int

	// Patches ist die normalisierte, flache Patch-Matrix
	Patches *patch.Tensor
}

// Processor fuehrt die Vorverarbeitung mit festen Parametern aus.
// Ein Processor ist zustandslos und kann parallel benutzt werden.
type Processor struct {
	params   params.Params
	strict   bool
	parallel int
	logger   *slog.Logger
}

// Option konfiguriert einen Processor.
type Option func(*Processor)

// WithStrict aktiviert den Strict-Modus der Patch-Erzeugung.
func WithStrict(strict bool) Option {
	return func(p *Processor) {
		p.strict = strict
	}
}

// WithParallel begrenzt die Anzahl gleichzeitig verarbeiteter Bilder.
// Default ist PATCHSEQ_NUM_PARALLEL bzw. runtime.NumCPU(); Werte <= 0 werden ignoriert.
func WithParallel(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.parallel = n
		}
	}
}

// WithLogger setzt den Logger (Default: slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New erzeugt einen Processor nach Validierung der Parameter.
func New(p params.Params, opts ...Option) (*Processor, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	proc := &Processor{
		params:   p,
		parallel: runtime.NumCPU(),
		logger:   slog.Default(),
	}
	if n := envconfig.NumParallel(); n > 0 {
		proc.parallel = int(n)
	}
	for _, opt := range opts {
		opt(proc)
	}

	return proc, nil
}

// Params gibt die verwendeten Parameter zurueck.
func (p *Processor) Params() params.Params {
	return p.params
}

// ============================================================================
// Einzelbild
// ============================================================================

// Process fuehrt Padding, Tensor-Konvertierung, Normalisierung, Patch-Erzeugung
// und Flatten fuer ein Bild aus.
func (p *Processor) Process(ctx context.Context, img image.Image) (*Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	bounds := img.Bounds()

	padded, err := patch.PadPhoto(img, p.params.Width, p.params.Height)
	if err != nil {
		return nil, err
	}

	pixels, err := imageio.ToTensor(padded, p.params.Channels)
	if err != nil {
		return nil, err
	}

	normalized, err := patch.NormalizeAndStandardize(pixels)
	if err != nil {
		return nil, err
	}

	patches, err := patch.CreatePatches(normalized, p.params.PatchDim, patch.WithStrict(p.strict))
	if err != nil {
		return nil, err
	}

	flat, err := patch.FlattenPatches(patches, p.params.PatchDim)
	if err != nil {
		return nil, err
	}

	logutil.TraceContext(ctx, p.logger, "image processed",
		"width", bounds.Dx(), "height", bounds.Dy(),
		"patches", patches.Shape(), "flat", flat.Shape(),
		"duration", time.Since(start))

	return &Sample{
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
		Patches: flat,
	}, nil
}

// ProcessBytes dekodiert und verarbeitet ein kodiertes Bild.
func (p *Processor) ProcessBytes(ctx context.Context, source string, data []byte) (*Sample, error) {
	img, err := imageio.LoadImageFromBytes(data)
	if err != nil {
		return nil, err
	}

	s, err := p.Process(ctx, img)
	if err != nil {
		return nil, err
	}
	s.Source = source
	return s, nil
}

// ProcessFile laedt und verarbeitet eine Bilddatei.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*Sample, error) {
	img, err := imageio.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	s, err := p.Process(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Source = path
	return s, nil
}

// ============================================================================
// Batch
// ============================================================================

// ProcessFiles verarbeitet mehrere Dateien parallel. Das Ergebnis hat die
// Reihenfolge von paths; der erste Fehler bricht die restlichen Bilder ab.
func (p *Processor) ProcessFiles(ctx context.Context, paths []string) ([]*Sample, error) {
	return p.batch(ctx, len(paths), func(ctx context.Context, i int) (*Sample, error) {
		return p.ProcessFile(ctx, paths[i])
	})
}

// ProcessImages verarbeitet bereits dekodierte Bilder parallel. sources und
// images muessen gleich lang sein.
func (p *Processor) ProcessImages(ctx context.Context, sources []string, images []image.Image) ([]*Sample, error) {
	if len(sources) != len(images) {
		return nil, fmt.Errorf("pipeline: %d sources for %d images", len(sources), len(images))
	}

	return p.batch(ctx, len(images), func(ctx context.Context, i int) (*Sample, error) {
		s, err := p.Process(ctx, images[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sources[i], err)
		}
		s.Source = sources[i]
		return s, nil
	})
}

func (p *Processor) batch(ctx context.Context, n int, fn func(context.Context, int) (*Sample, error)) ([]*Sample, error) {
	start := time.Now()
	samples := make([]*Sample, n)
	sem := semaphore.NewWeighted(int64(p.parallel))

	g, gctx := errgroup.WithContext(ctx)
	for i := range n {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}

		g.Go(func() error {
			defer sem.Release(1)

			s, err := fn(gctx, i)
			if err != nil {
				return err
			}
			samples[i] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Acquire scheitert auch ohne Gruppenfehler, wenn der Aufrufer abbricht
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.logger.Debug("batch processed", "images", n, "parallel", p.parallel, "duration", time.Since(start))
	return samples, nil
}
