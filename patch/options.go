// MODUL: options
// ZWECK: Functional Options fuer die Patch-Erzeugung
// INPUT: Optionale Parameter (Strict-Modus)
// OUTPUT: options Struct
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: keine
// HINWEISE: Default ist Abschneiden von Restpixeln

package patch

type options struct {
	strict bool
}

// Option ist eine funktionale Option fuer CreatePatches.
type Option func(*options)

// WithStrictDimensions laesst CreatePatches mit ErrDimensionMismatch
// abbrechen, statt Restpixel am rechten und unteren Rand zu verwerfen.
func WithStrictDimensions() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithStrict setzt den Strict-Modus explizit (z.B. aus einem CLI-Flag).
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
