package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/pagekit/internal/failure"
)

// DiagnosticSink renders diagnostic reports as structured log entries.
type DiagnosticSink struct {
	logger *zap.Logger
	// Banner adds the multi-section text rendering as a "message" field.
	Banner bool
}

// NewDiagnosticSink returns a sink logging through logger.
func NewDiagnosticSink(logger *zap.Logger) *DiagnosticSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiagnosticSink{logger: logger.Named("diagnostics")}
}

// Emit logs r at Error level.
func (s *DiagnosticSink) Emit(r failure.DiagnosticReport) {
	fields := []zap.Field{Report(r), zap.Strings("hints", r.Hints())}
	if s.Banner {
		fields = append(fields, zap.String("message", r.String()))
	}
	s.logger.Error(r.Operation+" failed", fields...)
}

// Report encodes r as a nested "report" object.
func Report(r failure.DiagnosticReport) zap.Field {
	return zap.Object("report", reportMarshaler(r))
}

type reportMarshaler failure.DiagnosticReport

func (m reportMarshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("operation", m.Operation)
	enc.AddString("target", m.Target)
	enc.AddString("kind", m.Kind.String())
	enc.AddString("input", m.Input)
	if m.Cause != "" {
		enc.AddString("cause", m.Cause)
	}
	enc.AddTime("at", m.At)
	return nil
}
