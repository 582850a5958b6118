package station

import (
	"errors"
	"testing"

	"iwled/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeInterface struct {
	name     string
	stations []Station
	err      error
}

func (f *fakeInterface) Name() string { return f.name }

func (f *fakeInterface) Stations() ([]Station, error) { return f.stations, f.err }

type fakeSource struct {
	interfaces []Interface
	err        error
}

func (f *fakeSource) Interfaces() ([]Interface, error) { return f.interfaces, f.err }

func signal(v int) *models.Reading {
	r := models.Reading(v)
	return &r
}

func TestBuilder_Snapshot(t *testing.T) {
	src := &fakeSource{interfaces: []Interface{
		&fakeInterface{name: "wlan0", stations: []Station{
			{Address: "AA:BB:CC:DD:EE:01", Signal: signal(-60)},
			{Address: "aa:bb:cc:dd:ee:02", Signal: nil},
		}},
		&fakeInterface{name: "wlan1", stations: []Station{
			{Address: "aa-bb-cc-dd-ee-03", Signal: signal(-45)},
			{Address: "garbage", Signal: signal(-30)},
		}},
	}}

	snap, err := NewBuilder(src, zap.NewNop()).Snapshot()
	require.NoError(t, err)

	assert.Equal(t, models.Snapshot{
		"aa:bb:cc:dd:ee:01": -60,
		"aa:bb:cc:dd:ee:03": -45,
	}, snap)
	assert.Nil(t, snap.Lookup("aa:bb:cc:dd:ee:02"))
}

func TestBuilder_Snapshot_LastWriteWins(t *testing.T) {
	src := &fakeSource{interfaces: []Interface{
		&fakeInterface{name: "wlan0", stations: []Station{{Address: "aa:bb:cc:dd:ee:01", Signal: signal(-70)}}},
		&fakeInterface{name: "wlan1", stations: []Station{{Address: "aa:bb:cc:dd:ee:01", Signal: signal(-40)}}},
	}}

	snap, err := NewBuilder(src, zap.NewNop()).Snapshot()
	require.NoError(t, err)

	r := snap.Lookup("aa:bb:cc:dd:ee:01")
	require.NotNil(t, r)
	assert.Equal(t, models.Reading(-40), *r)
}

func TestBuilder_Snapshot_Empty(t *testing.T) {
	snap, err := NewBuilder(&fakeSource{}, zap.NewNop()).Snapshot()
	require.NoError(t, err)
	assert.Empty(t, snap)
}

func TestBuilder_Snapshot_Errors(t *testing.T) {
	boom := errors.New("netlink: device busy")

	t.Run("interfaces", func(t *testing.T) {
		_, err := NewBuilder(&fakeSource{err: boom}, zap.NewNop()).Snapshot()
		assert.ErrorIs(t, err, boom)
	})

	t.Run("stations", func(t *testing.T) {
		src := &fakeSource{interfaces: []Interface{
			&fakeInterface{name: "wlan0", stations: []Station{{Address: "aa:bb:cc:dd:ee:01", Signal: signal(-60)}}},
			&fakeInterface{name: "wlan1", err: boom},
		}}
		snap, err := NewBuilder(src, zap.NewNop()).Snapshot()
		assert.ErrorIs(t, err, boom)
		assert.Nil(t, snap)
	})
}
