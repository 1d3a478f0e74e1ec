// MODUL: errors
// ZWECK: Fehler-Definitionen und Mapping auf HTTP-Status und API-Codes
// INPUT: Fehler aus Request-Parsing, Bild-Dekodierung und Patch-Transformation
// OUTPUT: JSON-formatierte Fehler-Responses
// NEBENEFFEKTE: HTTP-Responses schreiben
// ABHAENGIGKEITEN: gin-gonic/gin, patch, params, imageio (intern)
// HINWEISE: Eingabefehler ergeben 400, alles andere 500

package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ollama/patchseq/imageio"
	"github.com/ollama/patchseq/params"
	"github.com/ollama/patchseq/patch"
)

// ============================================================================
// Fehler-Definitionen
// ============================================================================

var (
	// ErrInvalidRequest wird geworfen wenn der Request-Body nicht lesbar ist
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidBase64 wird geworfen bei ungueltiger Base64-Kodierung
	ErrInvalidBase64 = errors.New("invalid base64 encoding")

	// ErrInvalidImage wird geworfen wenn das Bild nicht dekodiert werden kann
	ErrInvalidImage = errors.New("invalid image data")

	// ErrBatchTooLarge wird geworfen wenn die Batch-Groesse PATCHSEQ_MAX_BATCH ueberschreitet
	ErrBatchTooLarge = errors.New("batch size exceeds limit")
)

// ============================================================================
// Strukturierter API-Fehler
// ============================================================================

// APIError ist der JSON-Body jeder Fehler-Response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e APIError) Error() string {
	return e.Message
}

// ============================================================================
// Fehler-Code Mapping
// ============================================================================

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorMappings wird in Reihenfolge geprueft, spezifischere Fehler zuerst
var errorMappings = []errorMapping{
	{ErrInvalidRequest, http.StatusBadRequest, "INVALID_REQUEST"},
	{ErrInvalidBase64, http.StatusBadRequest, "INVALID_BASE64"},
	{ErrBatchTooLarge, http.StatusBadRequest, "BATCH_TOO_LARGE"},
	{imageio.ErrUnknownFormat, http.StatusBadRequest, "UNSUPPORTED_FORMAT"},
	{ErrInvalidImage, http.StatusBadRequest, "INVALID_IMAGE"},

	{params.ErrInvalidPatchDim, http.StatusBadRequest, "INVALID_PARAMS"},
	{params.ErrInvalidCanvas, http.StatusBadRequest, "INVALID_PARAMS"},
	{params.ErrInvalidChannels, http.StatusBadRequest, "INVALID_PARAMS"},
	{params.ErrInvalidDevice, http.StatusBadRequest, "INVALID_PARAMS"},
	{params.ErrInvalidHeads, http.StatusBadRequest, "INVALID_PARAMS"},
	{params.ErrPatchTooLarge, http.StatusBadRequest, "INVALID_PARAMS"},
	{params.ErrGridMismatch, http.StatusBadRequest, "INVALID_PARAMS"},
	{imageio.ErrUnsupportedChannels, http.StatusBadRequest, "INVALID_PARAMS"},

	{patch.ErrDegenerateRange, http.StatusBadRequest, "DEGENERATE_IMAGE"},
	{patch.ErrNonFinite, http.StatusBadRequest, "DEGENERATE_IMAGE"},
	{patch.ErrDimensionMismatch, http.StatusBadRequest, "SHAPE_ERROR"},
	{patch.ErrShapeMismatch, http.StatusBadRequest, "SHAPE_ERROR"},
	{patch.ErrInvalidShape, http.StatusBadRequest, "SHAPE_ERROR"},
	{patch.ErrInvalidPatchDim, http.StatusBadRequest, "SHAPE_ERROR"},
	{patch.ErrInvalidCanvas, http.StatusBadRequest, "SHAPE_ERROR"},
}

// classify gibt HTTP-Status und API-Code fuer einen Fehler zurueck
func classify(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// abortWithError schreibt den Fehler als JSON und bricht die Handler-Kette ab
func abortWithError(c *gin.Context, err error) {
	status, code := classify(err)
	c.AbortWithStatusJSON(status, APIError{Code: code, Message: err.Error()})
}
