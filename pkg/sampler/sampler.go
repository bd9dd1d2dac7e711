// Package sampler periodically records process-level CPU and memory figures on
// a timeline independent of the benchmark run, so resource overhead is still
// captured when individual workers fail early.
package sampler

import (
	"log"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"
)

const DefaultInterval = 2 * time.Second

// Sample is one observation of the monitored process.
type Sample struct {
	Timestamp  time.Time `json:"Timestamp"`
	CPUPercent float64   `json:"CPUPercent"`
	RSSBytes   uint64    `json:"RSSBytes"`
}

// Series is the append-only sequence of samples collected during one phase.
type Series struct {
	PID            int32         `json:"PID"`
	Interval       time.Duration `json:"IntervalNanos"`
	Samples        []Sample      `json:"Samples"`
	SkippedSamples uint64        `json:"SkippedSamples"`
	StartTime      time.Time     `json:"StartTime"`
	StopTime       time.Time     `json:"StopTime"`
}

type sampleFunc func() (Sample, error)

// Sampler ticks at a fixed interval until stopped externally. A single failed
// tick is logged and skipped; it never aborts the sampler or the benchmark.
type Sampler struct {
	interval time.Duration
	sample   sampleFunc

	mu     sync.Mutex
	series Series

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// New builds a Sampler that observes the process with the given pid.
func New(pid int32, interval time.Duration) (*Sampler, error) {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return nil, err
	}
	return newSampler(pid, interval, func() (Sample, error) {
		cpu, err := proc.CPUPercent()
		if err != nil {
			return Sample{}, err
		}
		mem, err := proc.MemoryInfo()
		if err != nil {
			return Sample{}, err
		}
		return Sample{Timestamp: time.Now(), CPUPercent: cpu, RSSBytes: mem.RSS}, nil
	}), nil
}

func newSampler(pid int32, interval time.Duration, fn sampleFunc) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sampler{
		interval: interval,
		sample:   fn,
		series:   Series{PID: pid, Interval: interval},
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins sampling in the background. It returns immediately.
func (s *Sampler) Start() {
	s.mu.Lock()
	s.series.StartTime = time.Now()
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.takeSample()
			}
		}
	}()
}

func (s *Sampler) takeSample() {
	sample, err := s.sample()
	if err != nil {
		log.Printf("resource sample skipped: %v", err)
		s.mu.Lock()
		s.series.SkippedSamples++
		s.mu.Unlock()
		return
	}
	s.mu.Lock()
	s.series.Samples = append(s.series.Samples, sample)
	s.mu.Unlock()
}

// Stop halts the ticker and flushes whatever has been collected, including a
// partial final interval. Safe to call more than once.
func (s *Sampler) Stop() Series {
	s.once.Do(func() {
		close(s.stop)
		<-s.done
	})
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.series.StopTime.IsZero() {
		s.series.StopTime = time.Now()
	}
	out := s.series
	out.Samples = append([]Sample(nil), s.series.Samples...)
	return out
}
