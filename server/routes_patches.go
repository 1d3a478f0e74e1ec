// MODUL: routes_patches
// ZWECK: HTTP Handler fuer Patch-Endpoints (einzeln, batch) und Parameter-Abfrage
// INPUT: HTTP POST Requests mit Base64-kodierten Bildern und optionalen Overrides
// OUTPUT: JSON Responses mit Patch-Matrix und Shape
// NEBENEFFEKTE: Dekodiert Base64-Bilder, fuehrt die Pipeline aus
// ABHAENGIGKEITEN: pipeline, imageio, params, envconfig (intern), gin-gonic/gin
// HINWEISE: Overrides gelten nur fuer den einzelnen Request

package server

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ollama/patchseq/envconfig"
	"github.com/ollama/patchseq/imageio"
	"github.com/ollama/patchseq/pipeline"
)

// ============================================================================
// Request/Response Typen
// ============================================================================

// Options ueberschreibt die Server-Parameter fuer einen Request; 0 heisst Default
type Options struct {
	PatchDim int  `json:"patch_dim,omitempty"`
	Width    int  `json:"width,omitempty"`
	Height   int  `json:"height,omitempty"`
	Channels int  `json:"channels,omitempty"`
	Strict   bool `json:"strict,omitempty"`
}

// PatchRequest ist der Body fuer POST /api/patches
type PatchRequest struct {
	Options

	// Image ist das Base64-kodierte Bild
	Image string `json:"image"`
}

// BatchRequest ist der Body fuer POST /api/patches/batch
type BatchRequest struct {
	Options

	Images []string `json:"images"`
}

// PatchResponse enthaelt die flache Patch-Matrix eines Bildes
type PatchResponse struct {
	Shape   []int       `json:"shape"`
	Patches [][]float32 `json:"patches"`
	Width   int         `json:"width"`
	Height  int         `json:"height"`
}

// BatchResponse enthaelt die Ergebnisse in Request-Reihenfolge
type BatchResponse struct {
	Results []PatchResponse `json:"results"`
}

func newPatchResponse(s *pipeline.Sample) PatchResponse {
	return PatchResponse{
		Shape:   s.Patches.Shape(),
		Patches: s.Patches.Rows(),
		Width:   s.Width,
		Height:  s.Height,
	}
}

// ============================================================================
// Handler
// ============================================================================

// ParamsHandler verarbeitet GET /api/params
func (s *Server) ParamsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.params)
}

// PatchHandler verarbeitet POST /api/patches
func (s *Server) PatchHandler(c *gin.Context) {
	var req PatchRequest
	if err := bindJSON(c, &req); err != nil {
		abortWithError(c, err)
		return
	}

	if req.Image == "" {
		abortWithError(c, fmt.Errorf("%w: image is required", ErrInvalidRequest))
		return
	}

	proc, err := s.processor(c, req.Options)
	if err != nil {
		abortWithError(c, err)
		return
	}

	img, err := decodeImage(req.Image)
	if err != nil {
		abortWithError(c, err)
		return
	}

	sample, err := proc.Process(c.Request.Context(), img)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPatchResponse(sample))
}

// BatchHandler verarbeitet POST /api/patches/batch
func (s *Server) BatchHandler(c *gin.Context) {
	var req BatchRequest
	if err := bindJSON(c, &req); err != nil {
		abortWithError(c, err)
		return
	}

	if len(req.Images) == 0 {
		abortWithError(c, fmt.Errorf("%w: images is required", ErrInvalidRequest))
		return
	}
	if limit := envconfig.MaxBatch(); uint(len(req.Images)) > limit {
		abortWithError(c, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(req.Images), limit))
		return
	}

	proc, err := s.processor(c, req.Options)
	if err != nil {
		abortWithError(c, err)
		return
	}

	sources := make([]string, len(req.Images))
	images := make([]image.Image, len(req.Images))
	for i, b64 := range req.Images {
		sources[i] = "image " + strconv.Itoa(i)
		if images[i], err = decodeImage(b64); err != nil {
			abortWithError(c, fmt.Errorf("%s: %w", sources[i], err))
			return
		}
	}

	samples, err := proc.ProcessImages(c.Request.Context(), sources, images)
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := BatchResponse{Results: make([]PatchResponse, len(samples))}
	for i, sample := range samples {
		resp.Results[i] = newPatchResponse(sample)
	}

	c.JSON(http.StatusOK, resp)
}

// ============================================================================
// Hilfsfunktionen
// ============================================================================

func bindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: missing request body", ErrInvalidRequest)
	} else if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// processor wendet die Overrides auf die Server-Parameter an
func (s *Server) processor(c *gin.Context, opts Options) (*pipeline.Processor, error) {
	p := s.params
	if opts.PatchDim != 0 {
		p.PatchDim = opts.PatchDim
	}
	if opts.Width != 0 {
		p.Width = opts.Width
	}
	if opts.Height != 0 {
		p.Height = opts.Height
	}
	if opts.Channels != 0 {
		p.Channels = opts.Channels
	}

	logger := slog.Default().With("request_id", c.GetString(requestIDKey))
	return pipeline.New(p, pipeline.WithStrict(s.strict || opts.Strict), pipeline.WithLogger(logger))
}

// decodeImage dekodiert Base64 und danach das Bild selbst
func decodeImage(b64 string) (image.Image, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}

	img, err := imageio.LoadImageFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	return img, nil
}
