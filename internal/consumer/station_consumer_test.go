package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"iwled/internal/config"
	"iwled/internal/led"
	"iwled/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLED struct {
	name     string
	trigger  string
	delayOn  uint64
	delayOff uint64
	writes   int
	fail     error
}

func (f *fakeLED) Name() string { return f.name }

func (f *fakeLED) WriteTrigger(name string) error {
	if f.fail != nil {
		return f.fail
	}
	f.writes++
	f.trigger = name
	return nil
}

func (f *fakeLED) WriteDelayOn(ms uint64) error {
	f.writes++
	f.delayOn = ms
	return nil
}

func (f *fakeLED) WriteDelayOff(ms uint64) error {
	f.writes++
	f.delayOff = ms
	return nil
}

type fakeSnapshots struct {
	mu    sync.Mutex
	snap  models.Snapshot
	err   error
	calls int
}

func (f *fakeSnapshots) Snapshot() (models.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.snap, f.err
}

func (f *fakeSnapshots) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSink struct {
	published [][]models.EvaluationResult
	err       error
}

func (f *fakeSink) Name() string { return "fake" }

func (f *fakeSink) Publish(_ context.Context, results []models.EvaluationResult) error {
	f.published = append(f.published, results)
	return f.err
}

func testGlobal() config.Global {
	return config.Global{
		CycleInterval: 10 * time.Millisecond,
		LowSignalCap:  50,
		NoSignal:      config.Mode{Trigger: "none", Delay: 0},
		LowSignal:     config.Mode{Trigger: "timer", Delay: 2},
		Signal:        config.Mode{Trigger: "default-on", Delay: 10},
	}
}

func testClient(name, addr string, ind led.Indicator) config.Client {
	return config.Client{Name: name, Address: addr, LEDName: ind.Name(), LED: ind}
}

func TestStationConsumer_RunCycle(t *testing.T) {
	phoneLED := &fakeLED{name: "green:wlan"}
	laptopLED := &fakeLED{name: "blue:wlan"}
	tvLED := &fakeLED{name: "red:wlan"}

	clients := []config.Client{
		testClient("phone", "aa:bb:cc:dd:ee:01", phoneLED),
		testClient("laptop", "aa:bb:cc:dd:ee:02", laptopLED),
		testClient("tv", "aa:bb:cc:dd:ee:03", tvLED),
	}
	snaps := &fakeSnapshots{snap: models.Snapshot{
		"aa:bb:cc:dd:ee:01": -60,
		"aa:bb:cc:dd:ee:02": -20,
		"ff:ff:ff:ff:ff:ff": -30,
	}}
	sink := &fakeSink{}

	c := NewStationConsumer(testGlobal(), clients, snaps, led.NewActuator(zap.NewNop()), sink, zap.NewNop())
	c.now = func() time.Time { return time.Unix(1700000000, 0) }

	report, err := c.RunCycle(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	assert.Zero(t, report.Skipped)
	assert.Zero(t, report.Failed)

	assert.Equal(t, "timer", phoneLED.trigger)
	assert.Equal(t, uint64(80), phoneLED.delayOn)
	assert.Equal(t, uint64(80), phoneLED.delayOff)

	assert.Equal(t, "default-on", laptopLED.trigger)
	assert.Zero(t, laptopLED.delayOn)

	assert.Equal(t, "none", tvLED.trigger)
	assert.Equal(t, 1, tvLED.writes)

	assert.Equal(t, models.StateNoSignal, report.Results[2].State)
	assert.Equal(t, int64(1700000000), report.Results[0].Timestamp)

	require.Len(t, sink.published, 1)
	assert.Equal(t, report.Results, sink.published[0])
}

func TestStationConsumer_RunCycle_SnapshotFailureSkipsCycle(t *testing.T) {
	ind := &fakeLED{name: "green:wlan"}
	snaps := &fakeSnapshots{err: errors.New("nl80211 unavailable")}
	sink := &fakeSink{}

	c := NewStationConsumer(testGlobal(), []config.Client{testClient("phone", "aa:bb:cc:dd:ee:01", ind)}, snaps, led.NewActuator(zap.NewNop()), sink, zap.NewNop())

	_, err := c.RunCycle(context.Background())
	require.Error(t, err)
	assert.Zero(t, ind.writes)
	assert.Empty(t, sink.published)
}

func TestStationConsumer_RunCycle_ClientErrorsAreContained(t *testing.T) {
	broken := &fakeLED{name: "broken", fail: errors.New("EACCES")}
	unresolved := &fakeLED{name: "orphan"}
	healthy := &fakeLED{name: "green:wlan"}

	g := testGlobal()
	g.Signal.Trigger = ""

	orphan := testClient("orphan", "aa:bb:cc:dd:ee:02", unresolved)
	healthyClient := testClient("phone", "aa:bb:cc:dd:ee:03", healthy)
	trig := "heartbeat"
	healthyClient.Signal.Trigger = &trig

	clients := []config.Client{
		testClient("broken", "aa:bb:cc:dd:ee:01", broken),
		orphan,
		healthyClient,
	}
	snaps := &fakeSnapshots{snap: models.Snapshot{
		"aa:bb:cc:dd:ee:02": -10,
		"aa:bb:cc:dd:ee:03": -10,
	}}

	c := NewStationConsumer(g, clients, snaps, led.NewActuator(zap.NewNop()), nil, zap.NewNop())

	report, err := c.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "phone", report.Results[0].Client)
	assert.Equal(t, "heartbeat", healthy.trigger)
	assert.Zero(t, unresolved.writes)
}

func TestStationConsumer_RunCycle_SinkErrorIgnored(t *testing.T) {
	ind := &fakeLED{name: "green:wlan"}
	sink := &fakeSink{err: errors.New("broker down")}

	c := NewStationConsumer(testGlobal(), []config.Client{testClient("phone", "aa:bb:cc:dd:ee:01", ind)}, &fakeSnapshots{}, led.NewActuator(zap.NewNop()), sink, zap.NewNop())

	report, err := c.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Results, 1)
	assert.Len(t, sink.published, 1)
}

func TestStationConsumer_Start_KeepsRunningAfterFailures(t *testing.T) {
	ind := &fakeLED{name: "green:wlan"}
	snaps := &fakeSnapshots{err: errors.New("transient")}

	c := NewStationConsumer(testGlobal(), []config.Client{testClient("phone", "aa:bb:cc:dd:ee:01", ind)}, snaps, led.NewActuator(zap.NewNop()), nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return snaps.Calls() >= 3 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestStationConsumer_Start_CancelledContext(t *testing.T) {
	snaps := &fakeSnapshots{}
	c := NewStationConsumer(testGlobal(), nil, snaps, led.NewActuator(zap.NewNop()), nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, c.Start(ctx))
	assert.Zero(t, snaps.Calls())
}
