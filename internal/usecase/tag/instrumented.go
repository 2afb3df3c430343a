package tag

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/quizdex/internal/domain"
	domtag "github.com/kailas-cloud/quizdex/internal/domain/tag"
)

// InstrumentedResolver wraps a Resolver with debug logging and timing.
// Resolution-path counters live in the service itself.
type InstrumentedResolver struct {
	inner  Resolver
	logger *zap.Logger
}

// NewInstrumentedResolver wraps a resolver with observability.
func NewInstrumentedResolver(inner Resolver, logger *zap.Logger) *InstrumentedResolver {
	return &InstrumentedResolver{inner: inner, logger: logger}
}

// ResolveOrCreate delegates to the inner resolver and logs the result.
func (r *InstrumentedResolver) ResolveOrCreate(
	ctx context.Context, name string, visibility domain.Visibility, ownerID string,
) (domtag.Tag, error) {
	start := time.Now()

	t, err := r.inner.ResolveOrCreate(ctx, name, visibility, ownerID)

	duration := time.Since(start)
	if err != nil {
		r.logger.Debug("tag resolution failed",
			zap.String("name", name),
			zap.String("visibility", string(visibility)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domtag.Tag{}, err
	}

	r.logger.Debug("tag resolved",
		zap.String("tag_id", t.ID()),
		zap.String("name", t.Name()),
		zap.String("visibility", string(t.Visibility())),
		zap.Duration("duration", duration),
	)
	return t, nil
}
