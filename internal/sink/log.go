package sink

import (
	"context"

	"github.com/rs/zerolog"
)

// Log writes records as structured log events. Records are emitted at no less
// than the global zerolog level, so a configured level below it still logs.
type Log struct {
	logger zerolog.Logger
	level  zerolog.Level
}

// NewLog creates a log sink emitting at level.
func NewLog(logger zerolog.Logger, level zerolog.Level) *Log {
	return &Log{logger: logger, level: level}
}

func (l *Log) Write(_ context.Context, rec Record) error {
	level := l.level
	if global := zerolog.GlobalLevel(); global != zerolog.Disabled && global > level {
		level = global
	}
	l.logger.WithLevel(level).
		Str("run_id", rec.RunID).
		Str("pipeline", rec.Pipeline).
		Uint64("tick", rec.Tick).
		Time("time", rec.Time).
		Float64("value", rec.Value).
		Msg("tick_result")
	return nil
}

func (l *Log) Close() error {
	return nil
}
