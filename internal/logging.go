package internal

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

const ServiceName = "eventsctl"

// NewLogger returns a zerolog logger at level tagged with the service name
// and version. Terminals get the console writer, everything else JSON lines.
func NewLogger(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("%w: log level %q", ErrConfig, level)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}

	out := w
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: LogTimeFormat}
	}

	return zerolog.New(out).Level(lvl).With().
		Timestamp().
		Str("service", ServiceName).
		Str("version", CurrentVersion).
		Logger(), nil
}
