package infrastructure

import (
	"io"
	"log/slog"

	"labpulse/internal/config"
)

func slogFor(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	return slog.New(newHandler(w, cfg))
}
