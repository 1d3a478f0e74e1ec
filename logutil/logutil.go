// logutil.go - slog-Logger mit TRACE-Level und kurzen Quellpfaden
//
// Hauptfunktionen: NewLogger, TraceContext
package logutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"
)

// LevelTrace liegt unter DEBUG und wird via PATCHSEQ_DEBUG=2 aktiviert
const LevelTrace slog.Level = -8

// NewLogger erzeugt einen Text-Logger, der TRACE benennt und Quellpfade kuerzt
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				if level, ok := attr.Value.Any().(slog.Level); ok && level == LevelTrace {
					attr.Value = slog.StringValue("TRACE")
				}
			case slog.SourceKey:
				if source, ok := attr.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return attr
		},
	}))
}

// TraceContext schreibt eine Meldung auf TRACE-Level mit korrekter Quellzeile
func TraceContext(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	if !logger.Enabled(ctx, LevelTrace) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(2, pcs[:]) // runtime.Callers, TraceContext
	r := slog.NewRecord(time.Now(), LevelTrace, msg, pcs[0])
	r.Add(args...)
	_ = logger.Handler().Handle(ctx, r)
}
