package telemetry

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// InitSlog installs a colored stderr handler as the default logger.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))
}

// SlogAPI writes reports to the default slog logger.
type SlogAPI struct{}

// attrs turns params into log attributes, errors are logged under "err" so tint
// highlights them.
func (SlogAPI) attrs(params []any) []any {
	out := make([]any, 0, len(params))
	for i, p := range params {
		if err, ok := p.(error); ok {
			out = append(out, tint.Err(err))
			continue
		}
		out = append(out, slog.Any(fmt.Sprintf("p%d", i), p))
	}
	return out
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	slog.Error(id, s.attrs(params)...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	slog.Warn(id, s.attrs(params)...)
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	slog.Debug(message, s.attrs(params)...)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	slog.Debug(id, "count", count)
}
