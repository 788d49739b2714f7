package progress

import "go.uber.org/zap"

// LogSink mirrors the progress stream into structured logs so harvest runs
// leave an auditable trace alongside the interactive channel.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a zap logger to the Sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs the event with structured fields.
func (s *LogSink) Consume(evt Event) {
	fields := []zap.Field{
		zap.String("run_id", evt.RunID.String()),
		zap.String("phase", string(evt.Phase)),
	}
	if evt.Total > 0 {
		fields = append(fields, zap.Int("done", evt.Done), zap.Int("total", evt.Total))
	}
	if evt.Err {
		s.logger.Warn(evt.Message, fields...)
		return
	}
	s.logger.Info(evt.Message, fields...)
}
