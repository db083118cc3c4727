// Package monitor decodes the clock_status telemetry the firmware emits after
// every calibration and tracks the measured drift of the reference oscillator.
package monitor

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/eclesh/welford"
	log "github.com/sirupsen/logrus"

	"ulpclock/core"
	"ulpclock/protocol"
)

// Sample is one decoded status report
type Sample struct {
	Received time.Time
	Sequence uint8
	Status   core.Snapshot
	DriftPPM float64 // Reference tick error against the nominal tick
}

// Summary aggregates everything received so far
type Summary struct {
	Samples        uint64
	Gaps           uint32 // Reports lost between two received ones
	Dropped        uint32 // Link resynchronisations
	Invalid        uint32 // Frames that did not decode as clock_status
	MeanDriftPPM   float64
	StddevDriftPPM float64
	Last           core.Snapshot
}

// Monitor consumes a telemetry byte stream
type Monitor struct {
	nominal uint32
	now     func() time.Time

	mu       sync.Mutex
	decoder  *protocol.FrameDecoder
	drift    *welford.Stats
	samples  uint64
	gaps     uint32
	invalid  uint32
	lastSeq  uint8
	last     core.Snapshot
	handlers []func(Sample)
}

// New creates a monitor comparing reports against nominal (1/32768 s units)
func New(nominal uint32) *Monitor {
	return &Monitor{
		nominal: nominal,
		now:     time.Now,
		decoder: protocol.NewFrameDecoder(512),
		drift:   welford.New(),
	}
}

// OnSample registers a handler called for every decoded sample
func (m *Monitor) OnSample(f func(Sample)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, f)
}

// Feed decodes data and returns the samples it completed
func (m *Monitor) Feed(data []byte) []Sample {
	m.mu.Lock()
	var samples []Sample
	for _, msg := range m.decoder.Feed(data) {
		payload := msg.Payload
		status, err := core.DecodeStatus(&payload)
		if err != nil {
			m.invalid++
			log.Warningf("dropping telemetry frame seq=%d: %v", msg.Sequence, err)
			continue
		}
		if m.samples > 0 {
			expected := (m.lastSeq + 1) & protocol.MessageSeqMask
			if msg.Sequence != expected {
				m.gaps += uint32((msg.Sequence - expected) & protocol.MessageSeqMask)
			}
		}
		s := Sample{
			Received: m.now(),
			Sequence: msg.Sequence,
			Status:   status,
			DriftPPM: core.OffsetPPM(status.Measured, m.nominal),
		}
		m.drift.Add(s.DriftPPM)
		m.samples++
		m.lastSeq = msg.Sequence
		m.last = status
		samples = append(samples, s)
	}
	handlers := m.handlers
	m.mu.Unlock()

	for _, s := range samples {
		log.WithFields(log.Fields{
			"seconds":  s.Status.Seconds,
			"measured": s.Status.Measured,
			"drift":    s.DriftPPM,
			"faults":   s.Status.Faults,
		}).Debug("clock status")
		for _, h := range handlers {
			h(s)
		}
	}
	return samples
}

// Summary returns the aggregate statistics
func (m *Monitor) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Summary{
		Samples: m.samples,
		Gaps:    m.gaps,
		Dropped: m.decoder.Dropped(),
		Invalid: m.invalid,
		Last:    m.last,
	}
	if m.samples > 0 {
		s.MeanDriftPPM = m.drift.Mean()
		s.StddevDriftPPM = m.drift.Stddev()
	}
	return s
}

// Run reads r until EOF, an error or ctx is done. Readers that block must be
// closed by the caller to unblock Run on cancellation.
func (m *Monitor) Run(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 256)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			m.Feed(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}
