// Package audit emits fire-and-forget audit events. Events are best-effort:
// a sink failure never affects the operation that produced the event.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/quizdex/internal/metrics"
)

// Sink records (action, actor, subject) events to the structured log and
// the audit counter.
type Sink struct {
	log *zap.Logger
}

// New creates an audit sink.
func New(log *zap.Logger) *Sink {
	return &Sink{log: log}
}

// Record emits one audit event.
func (s *Sink) Record(_ context.Context, action, actor, subject string) {
	metrics.AuditEventsTotal.WithLabelValues(action).Inc()
	s.log.Info("audit event",
		zap.String("action", action),
		zap.String("actor", actor),
		zap.String("subject", subject),
	)
}
