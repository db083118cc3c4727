package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ulpclock/core"
	"ulpclock/protocol"
)

func run(t *testing.T, s Scenario) *Report {
	sim, err := New(&s)
	require.NoError(t, err)
	r, err := sim.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, r)
	return r
}

func TestRunCorrectsFastReference(t *testing.T) {
	s := DefaultScenario()
	s.ReferencePPM = 5000
	r := run(t, s)

	require.GreaterOrEqual(t, r.Elapsed, 24*time.Hour)
	require.InDelta(t, 5000, r.FreeRunningErrorPPM, 1)
	require.InDelta(t, 0, r.ErrorPPM, 12)

	require.Equal(t, r.Overflows, r.Ticks)
	require.Equal(t, uint32(0), r.Faults)
	require.InDelta(t, float64(r.Cycles), float64(r.Calibrations), 1)
	require.InDelta(t, 2.0/302, r.CrystalDuty, 0.0005)
	require.InDelta(t, 98304/1.005, r.MeanTick, 1)
	require.Less(t, r.StddevTick, 1.0)
}

func TestRunCorrectsSlowReference(t *testing.T) {
	s := DefaultScenario()
	s.ReferencePPM = -20000
	r := run(t, s)

	require.InDelta(t, -20000, r.FreeRunningErrorPPM, 1)
	require.InDelta(t, 0, r.ErrorPPM, 12)
}

func TestRunFollowsCrystalError(t *testing.T) {
	s := DefaultScenario()
	s.CrystalPPM = 20
	s.ReferencePPM = 1000
	r := run(t, s)

	require.InDelta(t, 20, r.ErrorPPM, 12)
}

func TestRunDriftStep(t *testing.T) {
	s := DefaultScenario()
	s.Drift = []DriftStep{{At: 12 * time.Hour, ReferencePPM: 2000}}
	r := run(t, s)

	require.InDelta(t, 1000, r.FreeRunningErrorPPM, 30)
	// At most one interval runs on the stale measurement
	require.InDelta(t, 0, r.ErrorPPM, 35)
}

func TestRunMissedTick(t *testing.T) {
	s := DefaultScenario()
	s.Duration = time.Hour
	s.Faults = []Fault{{Tick: 10, Kind: FaultMissed}}
	r := run(t, s)

	require.Equal(t, uint32(1), r.MissedTicks)
	require.Equal(t, r.Overflows-1, r.Ticks)
	require.InDelta(t, -3.0/3600*1e6, r.ErrorPPM, 12)
}

func TestRunRejectsGlitch(t *testing.T) {
	s := DefaultScenario()
	s.Duration = time.Hour
	s.Faults = []Fault{{Tick: 304, Kind: FaultGlitch, Latch: 0}}
	r := run(t, s)

	require.Equal(t, uint32(1), r.Faults)
	require.Equal(t, uint32(65537), r.Final.LastRejected)
	require.InDelta(t, core.DefaultNominal, r.Final.Measured, 1)
	require.InDelta(t, 0, r.ErrorPPM, 12)
}

func TestRunTrustsGlitchWithoutTolerance(t *testing.T) {
	s := DefaultScenario()
	s.Duration = time.Hour
	zero := uint32(0)
	s.TolerancePPM = &zero
	s.Faults = []Fault{{Tick: 304, Kind: FaultGlitch, Latch: 0}}
	r := run(t, s)

	require.Equal(t, uint32(0), r.Faults)
	// One interval at two thirds speed
	require.Less(t, r.ErrorPPM, -50000.0)
}

func TestRunStatusFrames(t *testing.T) {
	s := DefaultScenario()
	s.Duration = 4 * time.Hour
	sim, err := New(&s)
	require.NoError(t, err)

	var wire []byte
	sim.AddReporter(core.NewStatusReporter(func(b []byte) {
		wire = append(wire, b...)
	}))
	r, err := sim.Run(context.Background())
	require.NoError(t, err)

	msgs := protocol.NewFrameDecoder(256).Feed(wire)
	require.Equal(t, int(r.Calibrations+r.Faults), len(msgs))

	payload := msgs[len(msgs)-1].Payload
	last, err := core.DecodeStatus(&payload)
	require.NoError(t, err)
	require.Equal(t, core.Calibrating, last.Phase)
	require.Equal(t, r.Calibrations, last.Calibrations)
	require.InDelta(t, core.DefaultNominal, last.Measured, 1)
}

func TestRunCancelled(t *testing.T) {
	s := DefaultScenario()
	sim, err := New(&s)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err := sim.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, r)

	_, err = sim.Run(context.Background())
	require.ErrorIs(t, err, ErrAlreadyRun)
}

func TestNewRejectsBadScenario(t *testing.T) {
	s := DefaultScenario()
	s.Duration = -time.Second
	_, err := New(&s)
	require.Error(t, err)
}
