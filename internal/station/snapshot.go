package station

import (
	"fmt"

	"iwled/internal/config"
	"iwled/internal/models"

	"go.uber.org/zap"
)

// Station is an associated wireless client as seen by one interface.
// Signal is nil when the driver did not report one.
type Station struct {
	Address string
	Signal  *models.Reading
}

// Interface is a wireless interface that can list its stations.
type Interface interface {
	Name() string
	Stations() ([]Station, error)
}

// Source enumerates wireless interfaces.
type Source interface {
	Interfaces() ([]Interface, error)
}

// Builder turns a Source into per-cycle snapshots.
type Builder struct {
	source Source
	logger *zap.Logger
}

func NewBuilder(source Source, logger *zap.Logger) *Builder {
	return &Builder{
		source: source,
		logger: logger,
	}
}

// Snapshot queries every interface and returns address -> reading.
// Stations without a signal are left out, which makes them look
// unassociated. If the same address shows up on two interfaces the later
// one wins. Any query error fails the whole snapshot.
func (b *Builder) Snapshot() (models.Snapshot, error) {
	interfaces, err := b.source.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	snap := make(models.Snapshot)
	for _, ifi := range interfaces {
		stations, err := ifi.Stations()
		if err != nil {
			return nil, fmt.Errorf("failed to list stations on %s: %w", ifi.Name(), err)
		}

		for _, st := range stations {
			if st.Signal == nil {
				b.logger.Debug("Station without signal",
					zap.String("interface", ifi.Name()),
					zap.String("address", st.Address),
				)
				continue
			}

			addr, err := config.NormalizeAddress(st.Address)
			if err != nil {
				b.logger.Debug("Skipping station with bad address",
					zap.String("interface", ifi.Name()),
					zap.String("address", st.Address),
					zap.Error(err),
				)
				continue
			}

			snap[addr] = *st.Signal
		}
	}

	b.logger.Debug("Station snapshot built",
		zap.Int("interface_count", len(interfaces)),
		zap.Int("station_count", len(snap)),
	)

	return snap, nil
}
