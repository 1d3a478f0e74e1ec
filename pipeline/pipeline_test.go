package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollama/patchseq/params"
	"github.com/ollama/patchseq/patch"
)

// gradient erzeugt ein Graustufenbild mit Werten abhaengig von x, y und seed
func gradient(w, h int, seed uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetGray(x, y, color.Gray{Y: uint8(x*7+y*3) + seed})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, encodePNG(t, img), 0o644))
	return path
}

func assertRange(t *testing.T, tensor *patch.Tensor) {
	t.Helper()
	for i, v := range tensor.Data() {
		if v < -1 || v > 1 {
			t.Fatalf("Wert %d = %v ausserhalb [-1, 1]", i, v)
		}
	}
}

func TestNewInvalidParams(t *testing.T) {
	p := params.Default()
	p.Channels = 2

	_, err := New(p)
	assert.ErrorIs(t, err, params.ErrInvalidChannels)

	p = params.Default()
	p.Width = 56
	_, err = New(p)
	assert.ErrorIs(t, err, params.ErrGridMismatch)
}

func TestProcessMNIST(t *testing.T) {
	proc, err := New(params.Default())
	require.NoError(t, err)

	s, err := proc.Process(t.Context(), gradient(28, 28, 0))
	require.NoError(t, err)

	assert.Equal(t, []int{16, 49}, s.Patches.Shape())
	assert.Equal(t, 28, s.Width)
	assertRange(t, s.Patches)
}

func TestProcessPadsSmallImage(t *testing.T) {
	proc, err := New(params.Default())
	require.NoError(t, err)

	s, err := proc.Process(t.Context(), gradient(20, 12, 50))
	require.NoError(t, err)

	assert.Equal(t, []int{16, 49}, s.Patches.Shape())
	assert.Equal(t, 20, s.Width)
	assert.Equal(t, 12, s.Height)

	// erste Patch-Zeile liegt komplett im schwarzen Rand und ist damit das Minimum
	for _, v := range s.Patches.Row(0) {
		assert.InDelta(t, -1, v, 1e-6)
	}
}

func TestProcessRGB(t *testing.T) {
	p := params.Default()
	p.PatchDim, p.Width, p.Height, p.Channels = 2, 8, 8, 3

	proc, err := New(p)
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := range 8 {
		for x := range 8 {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 200, A: 255})
		}
	}

	s, err := proc.Process(t.Context(), img)
	require.NoError(t, err)

	assert.Equal(t, []int{4, p.EncoderEmbeddingDim()}, s.Patches.Shape())
	assertRange(t, s.Patches)
}

func TestProcessStrict(t *testing.T) {
	p := params.Default()
	p.Width, p.Height = 30, 30

	lenient, err := New(p)
	require.NoError(t, err)
	s, err := lenient.Process(t.Context(), gradient(30, 30, 0))
	require.NoError(t, err)
	assert.Equal(t, []int{16, 49}, s.Patches.Shape())

	strict, err := New(p, WithStrict(true))
	require.NoError(t, err)
	_, err = strict.Process(t.Context(), gradient(30, 30, 0))
	assert.ErrorIs(t, err, patch.ErrDimensionMismatch)
}

func TestProcessDegenerate(t *testing.T) {
	proc, err := New(params.Default())
	require.NoError(t, err)

	_, err = proc.Process(t.Context(), image.NewGray(image.Rect(0, 0, 28, 28)))
	assert.ErrorIs(t, err, patch.ErrDegenerateRange)
}

func TestProcessTransparentBackground(t *testing.T) {
	// schwarze Ziffer auf transparentem Weiss, wie aus Zeichenprogrammen exportiert
	img := image.NewNRGBA(image.Rect(0, 0, 28, 28))
	for y := range 28 {
		for x := range 28 {
			img.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 0})
		}
	}
	for y := 6; y < 22; y++ {
		img.SetNRGBA(14, y, color.NRGBA{0, 0, 0, 255})
	}

	proc, err := New(params.Default())
	require.NoError(t, err)

	s, err := proc.ProcessBytes(t.Context(), "digit", encodePNG(t, img))
	require.NoError(t, err)

	// Hintergrund ist das Maximum, der Strich das Minimum
	assert.InDelta(t, 1, s.Patches.Row(0)[0], 1e-6)
	assertRange(t, s.Patches)
}

func TestProcessCanceled(t *testing.T) {
	proc, err := New(params.Default())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err = proc.Process(ctx, gradient(28, 28, 0))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessBytes(t *testing.T) {
	proc, err := New(params.Default())
	require.NoError(t, err)

	s, err := proc.ProcessBytes(t.Context(), "digit", encodePNG(t, gradient(28, 28, 1)))
	require.NoError(t, err)
	assert.Equal(t, "digit", s.Source)

	_, err = proc.ProcessBytes(t.Context(), "junk", []byte("kein bild"))
	assert.Error(t, err)
}

func TestProcessFilesOrder(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writePNG(t, dir, "a.png", gradient(28, 28, 0)),
		writePNG(t, dir, "b.png", gradient(10, 14, 40)),
		writePNG(t, dir, "c.png", gradient(21, 7, 90)),
		writePNG(t, dir, "d.png", gradient(28, 20, 130)),
	}

	proc, err := New(params.Default(), WithParallel(2))
	require.NoError(t, err)

	samples, err := proc.ProcessFiles(t.Context(), paths)
	require.NoError(t, err)
	require.Len(t, samples, len(paths))

	widths := []int{28, 10, 21, 28}
	for i, s := range samples {
		assert.Equal(t, paths[i], s.Source)
		assert.Equal(t, widths[i], s.Width)
		assert.Equal(t, []int{16, 49}, s.Patches.Shape())
	}

	// gleiche Eingabe, gleiches Ergebnis wie die Einzelverarbeitung
	single, err := proc.ProcessFile(t.Context(), paths[2])
	require.NoError(t, err)
	assert.True(t, single.Patches.Equal(samples[2].Patches))
}

func TestProcessFilesError(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.png")
	paths := []string{
		writePNG(t, dir, "a.png", gradient(28, 28, 0)),
		missing,
	}

	proc, err := New(params.Default(), WithParallel(1))
	require.NoError(t, err)

	_, err = proc.ProcessFiles(t.Context(), paths)
	require.Error(t, err)
	assert.Contains(t, err.Error(), missing)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestProcessFilesEmpty(t *testing.T) {
	proc, err := New(params.Default())
	require.NoError(t, err)

	samples, err := proc.ProcessFiles(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestProcessImages(t *testing.T) {
	proc, err := New(params.Default())
	require.NoError(t, err)

	images := []image.Image{gradient(28, 28, 0), gradient(5, 5, 9)}

	samples, err := proc.ProcessImages(t.Context(), []string{"x", "y"}, images)
	require.NoError(t, err)
	assert.Equal(t, "x", samples[0].Source)
	assert.Equal(t, 5, samples[1].Width)

	_, err = proc.ProcessImages(t.Context(), []string{"x"}, images)
	assert.Error(t, err)

	images = append(images, image.NewGray(image.Rect(0, 0, 28, 28)))
	_, err = proc.ProcessImages(t.Context(), []string{"x", "y", "schwarz"}, images)
	assert.ErrorIs(t, err, patch.ErrDegenerateRange)
	assert.Contains(t, err.Error(), "schwarz")
}

func TestNumParallelFromEnv(t *testing.T) {
	t.Setenv("PATCHSEQ_NUM_PARALLEL", "3")

	proc, err := New(params.Default())
	require.NoError(t, err)
	assert.Equal(t, 3, proc.parallel)

	proc, err = New(params.Default(), WithParallel(5))
	require.NoError(t, err)
	assert.Equal(t, 5, proc.parallel)
}
