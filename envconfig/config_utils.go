// config_utils.go - Utility-Funktionen und Export fuer Konfiguration
//
// Dieses Modul enthaelt:
// - BoolWithDefault/Bool: Boolean-Getter mit Default-Wert
// - String: String-Getter
// - Uint: Integer-Getter mit Default-Wert
// - EnvVar: Struktur fuer Environment-Variablen-Info
// - AsMap: Gibt alle Konfigurationen als Map zurueck
// - Values: Gibt alle Konfigurationswerte als String-Map zurueck
package envconfig

import (
	"fmt"
	"log/slog"
	"strconv"
)

// =============================================================================
// Boolean-Getter
// =============================================================================

// BoolWithDefault gibt eine Funktion zurueck, die einen Bool mit Default-Wert liest
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool gibt eine Funktion zurueck, die einen Bool liest (Default: false)
func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// =============================================================================
// String-Getter
// =============================================================================

// String gibt eine Funktion zurueck, die einen String liest
func String(s string) func() string {
	return func() string {
		return Var(s)
	}
}

// =============================================================================
// Integer-Getter
// =============================================================================

// Uint gibt eine Funktion zurueck, die einen uint mit Default-Wert liest
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// =============================================================================
// Export-Strukturen und -Funktionen
// =============================================================================

// EnvVar repraesentiert eine Environment-Variable mit Metadaten
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap gibt alle Konfigurationen als Map zurueck
// Enthaelt Namen, aktuelle Werte und Beschreibungen
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"PATCHSEQ_DEBUG":        {"PATCHSEQ_DEBUG", LogLevel(), "Show additional debug information (e.g. PATCHSEQ_DEBUG=1)"},
		"PATCHSEQ_HOST":         {"PATCHSEQ_HOST", Host(), "IP Address for the patchseq server (default 127.0.0.1:11500)"},
		"PATCHSEQ_ORIGINS":      {"PATCHSEQ_ORIGINS", AllowedOrigins(), "A comma separated list of allowed origins"},
		"PATCHSEQ_PATCH_DIM":    {"PATCHSEQ_PATCH_DIM", PatchDim(), "Number of patches along each image axis"},
		"PATCHSEQ_WIDTH":        {"PATCHSEQ_WIDTH", CanvasWidth(), "Canvas width images are padded to"},
		"PATCHSEQ_HEIGHT":       {"PATCHSEQ_HEIGHT", CanvasHeight(), "Canvas height images are padded to"},
		"PATCHSEQ_CHANNELS":     {"PATCHSEQ_CHANNELS", Channels(), "Image channels, 1 (grayscale) or 3 (RGB)"},
		"PATCHSEQ_DEVICE":       {"PATCHSEQ_DEVICE", Device(), "Compute device recorded in the parameters (default: cpu)"},
		"PATCHSEQ_PARAMS":       {"PATCHSEQ_PARAMS", ParamsFile(), "Path to a JSON file with hyperparameters"},
		"PATCHSEQ_STRICT":       {"PATCHSEQ_STRICT", Strict(), "Reject image sizes not divisible by the patch grid"},
		"PATCHSEQ_NUM_PARALLEL": {"PATCHSEQ_NUM_PARALLEL", NumParallel(), "Maximum number of images processed in parallel"},
		"PATCHSEQ_MAX_BATCH":    {"PATCHSEQ_MAX_BATCH", MaxBatch(), "Maximum number of images per batch request"},
	}
}

// Values gibt alle Konfigurationswerte als String-Map zurueck
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
