package log

import (
	"io"
	"log/slog"
	"os"

	app "github.com/kode4food/orgkit"
)

// New constructs the service's JSON logger at the given level. Every
// record is stamped with the application name and version
func New(lvl slog.Level) *slog.Logger {
	return NewWriter(os.Stdout, lvl)
}

// NewWriter constructs the logger against an arbitrary writer so the
// emitted records can be captured
func NewWriter(w io.Writer, lvl slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: lvl,
	})

	return slog.New(handler).With(
		slog.String("service", app.Name),
		slog.String("version", app.Version))
}
