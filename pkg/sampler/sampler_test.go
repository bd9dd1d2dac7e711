package sampler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSamplerCollectsAndFlushes(t *testing.T) {
	var ticks uint64
	s := newSampler(42, 10*time.Millisecond, func() (Sample, error) {
		n := atomic.AddUint64(&ticks, 1)
		return Sample{Timestamp: time.Now(), CPUPercent: float64(n), RSSBytes: 1 << 20}, nil
	})

	s.Start()
	time.Sleep(55 * time.Millisecond)
	series := s.Stop()

	if len(series.Samples) < 2 {
		t.Fatalf("got %d samples, want at least 2", len(series.Samples))
	}
	if series.PID != 42 {
		t.Errorf("got pid %d", series.PID)
	}
	if series.StopTime.Before(series.StartTime) {
		t.Error("stop time must not precede start time")
	}
	// Append-only: samples arrive in tick order.
	for i := 1; i < len(series.Samples); i++ {
		if series.Samples[i].CPUPercent <= series.Samples[i-1].CPUPercent {
			t.Fatalf("samples out of order at %d", i)
		}
	}
}

func TestSamplerStopMidIntervalKeepsCompletedSamples(t *testing.T) {
	s := newSampler(1, 20*time.Millisecond, func() (Sample, error) {
		return Sample{Timestamp: time.Now()}, nil
	})
	s.Start()
	// Stop partway through an interval: whatever completed must survive.
	time.Sleep(50 * time.Millisecond)
	series := s.Stop()
	if len(series.Samples) < 1 {
		t.Fatalf("got %d samples, want at least the completed ones", len(series.Samples))
	}
}

func TestSamplerSkipsFailedTicks(t *testing.T) {
	var ticks uint64
	s := newSampler(1, 10*time.Millisecond, func() (Sample, error) {
		if atomic.AddUint64(&ticks, 1)%2 == 0 {
			return Sample{}, errors.New("proc gone")
		}
		return Sample{Timestamp: time.Now()}, nil
	})
	s.Start()
	time.Sleep(65 * time.Millisecond)
	series := s.Stop()

	if series.SkippedSamples == 0 {
		t.Error("expected skipped ticks to be counted")
	}
	if len(series.Samples) == 0 {
		t.Error("failed ticks must not stop sampling")
	}
}

func TestSamplerStopTwice(t *testing.T) {
	s := newSampler(1, 10*time.Millisecond, func() (Sample, error) {
		return Sample{Timestamp: time.Now()}, nil
	})
	s.Start()
	time.Sleep(25 * time.Millisecond)
	first := s.Stop()
	second := s.Stop()
	if len(second.Samples) != len(first.Samples) {
		t.Error("second stop must return the same flushed series")
	}
}
