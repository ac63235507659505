package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// InitSlog installs a colored console handler as the default slog logger.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
}

var meter = otel.Meter("netentreprise-backend/telemetry")

// SlogAPI implements API using the log/slog package, counts are also
// recorded as otel gauges.
type SlogAPI struct {
	gauges *sync.Map
}

func NewSlogAPI() SlogAPI {
	return SlogAPI{gauges: &sync.Map{}}
}

func (SlogAPI) formatParams(out *[]any, params []any) {
	for i, p := range params {
		*out = append(
			*out,
			fmt.Sprintf("params.%d", i),
			p,
		)
	}
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	remainingPairs := []any{"id", id}
	s.formatParams(&remainingPairs, params)
	slog.Error("broken component", remainingPairs...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	remainingPairs := []any{"id", id}
	s.formatParams(&remainingPairs, params)
	slog.Warn("warning", remainingPairs...)
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	remainingPairs := []any{}
	s.formatParams(&remainingPairs, params)
	slog.Debug(message, remainingPairs...)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	slog.Info("count", "id", id, "n", count)

	if s.gauges == nil {
		return
	}
	gauge, ok := s.gauges.Load(id)
	if !ok {
		created, err := meter.Int64Gauge(id)
		if err != nil {
			slog.Warn("create gauge", "id", id, "err", err)
			return
		}
		gauge, _ = s.gauges.LoadOrStore(id, created)
	}
	gauge.(metric.Int64Gauge).Record(context.Background(), count)
}
