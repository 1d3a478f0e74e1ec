// config_features.go - Patch-, Modell- und Parallelitaets-Einstellungen
//
// Dieses Modul enthaelt:
// - Geometrie der Patch-Transformation (Raster, Leinwand, Kanaele)
// - Feature-Flags (Strict-Modus)
// - Parallelitaets-Einstellungen fuer Batch-Verarbeitung und Server
package envconfig

// =============================================================================
// Patch-Geometrie
// =============================================================================

var (
	// PatchDim setzt die Anzahl Patches pro Achse (0 = Default aus params)
	PatchDim = Uint("PATCHSEQ_PATCH_DIM", 0)

	// CanvasWidth setzt die Breite der Leinwand (0 = Default aus params)
	CanvasWidth = Uint("PATCHSEQ_WIDTH", 0)

	// CanvasHeight setzt die Hoehe der Leinwand (0 = Default aus params)
	CanvasHeight = Uint("PATCHSEQ_HEIGHT", 0)

	// Channels setzt die Kanalanzahl, 1 oder 3 (0 = Default aus params)
	Channels = Uint("PATCHSEQ_CHANNELS", 0)

	// Device waehlt das Compute-Geraet fuer nachgelagertes Training
	Device = String("PATCHSEQ_DEVICE")

	// ParamsFile zeigt auf eine JSON-Datei mit Hyperparametern
	ParamsFile = String("PATCHSEQ_PARAMS")
)

// =============================================================================
// Feature-Flags
// =============================================================================

var (
	// Strict laesst nicht teilbare Bildgroessen fehlschlagen statt abzuschneiden
	Strict = Bool("PATCHSEQ_STRICT")
)

// =============================================================================
// Parallelitaets-Einstellungen
// =============================================================================

var (
	// NumParallel setzt die Anzahl parallel verarbeiteter Bilder
	// Konfigurierbar via PATCHSEQ_NUM_PARALLEL (0 = Anzahl CPUs)
	NumParallel = Uint("PATCHSEQ_NUM_PARALLEL", 0)

	// MaxBatch begrenzt die Bilder pro Batch-Request
	// Konfigurierbar via PATCHSEQ_MAX_BATCH
	MaxBatch = Uint("PATCHSEQ_MAX_BATCH", 64)
)
