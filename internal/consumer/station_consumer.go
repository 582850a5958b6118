package consumer

import (
	"context"
	"fmt"
	"time"

	"iwled/internal/config"
	"iwled/internal/evaluator"
	"iwled/internal/led"
	"iwled/internal/models"
	"iwled/internal/publisher"

	"go.uber.org/zap"
)

// SnapshotBuilder produces the station snapshot for one cycle.
type SnapshotBuilder interface {
	Snapshot() (models.Snapshot, error)
}

// Actuator applies a result to an LED.
type Actuator interface {
	Apply(ind led.Indicator, result models.EvaluationResult) error
}

// CycleReport summarizes one cycle.
type CycleReport struct {
	Results []models.EvaluationResult // applied results, in client order
	Skipped int                       // clients that could not be resolved
	Failed  int                       // clients whose LED write failed
}

// StationConsumer runs the snapshot -> evaluate -> apply cycle on a fixed interval.
type StationConsumer struct {
	global    config.Global
	clients   []config.Client
	snapshots SnapshotBuilder
	actuator  Actuator
	sink      publisher.Sink
	logger    *zap.Logger
	now       func() time.Time
}

// NewStationConsumer creates the cycle runner. sink may be nil.
func NewStationConsumer(
	global config.Global,
	clients []config.Client,
	snapshots SnapshotBuilder,
	actuator Actuator,
	sink publisher.Sink,
	logger *zap.Logger,
) *StationConsumer {
	return &StationConsumer{
		global:    global,
		clients:   clients,
		snapshots: snapshots,
		actuator:  actuator,
		sink:      sink,
		logger:    logger,
		now:       time.Now,
	}
}

// Start runs a cycle immediately, then sleeps the cycle interval after each
// finished cycle until ctx is cancelled. Cycle errors are logged and never
// stop the loop.
func (c *StationConsumer) Start(ctx context.Context) error {
	c.logger.Info("Station consumer started",
		zap.Int("client_count", len(c.clients)),
		zap.Duration("cycle_interval", c.global.CycleInterval),
	)

	for {
		if ctx.Err() != nil {
			c.logger.Info("Station consumer stopped")
			return nil
		}

		if _, err := c.RunCycle(ctx); err != nil {
			c.logger.Warn("Cycle skipped",
				zap.Error(err),
			)
		}

		wait := time.NewTimer(c.global.CycleInterval)
		select {
		case <-ctx.Done():
			wait.Stop()
			c.logger.Info("Station consumer stopped")
			return nil
		case <-wait.C:
		}
	}
}

// RunCycle performs one full pass over all clients. It only returns an
// error when the station query fails, in which case no LED is touched.
func (c *StationConsumer) RunCycle(ctx context.Context) (CycleReport, error) {
	var report CycleReport

	snap, err := c.snapshots.Snapshot()
	if err != nil {
		return report, fmt.Errorf("failed to build station snapshot: %w", err)
	}

	ts := c.now().Unix()
	for _, client := range c.clients {
		result, err := evaluator.Evaluate(c.global, client, snap.Lookup(client.Address))
		if err != nil {
			c.logger.Error("Failed to evaluate client",
				zap.String("client", client.Name),
				zap.Error(err),
			)
			report.Skipped++
			continue
		}
		result.Timestamp = ts

		if err := c.actuator.Apply(client.LED, result); err != nil {
			c.logger.Error("Failed to apply LED state",
				zap.String("client", client.Name),
				zap.String("led", client.LEDName),
				zap.Error(err),
			)
			report.Failed++
			continue
		}

		report.Results = append(report.Results, result)
	}

	c.logger.Debug("Cycle finished",
		zap.Int("station_count", len(snap)),
		zap.Int("applied", len(report.Results)),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)

	if c.sink != nil && len(report.Results) > 0 {
		if err := c.sink.Publish(ctx, report.Results); err != nil {
			c.logger.Error("Failed to publish client states",
				zap.String("sink", c.sink.Name()),
				zap.Error(err),
			)
		}
	}

	return report, nil
}
