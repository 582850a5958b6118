package publisher

import (
	"context"

	"iwled/internal/models"

	"go.uber.org/multierr"
)

// Sink receives the results of each completed cycle.
type Sink interface {
	Name() string
	Publish(ctx context.Context, results []models.EvaluationResult) error
}

// Multi publishes to every sink and joins their errors.
type Multi []Sink

func (m Multi) Name() string {
	return "multi"
}

func (m Multi) Publish(ctx context.Context, results []models.EvaluationResult) error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Publish(ctx, results))
	}
	return err
}
