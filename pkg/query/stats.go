package query

import (
	"fmt"
	"io"
	"sort"

	"github.com/HdrHistogram/hdrhistogram-go"
)

var (
	hdrScaleFactor = 1e3
)

type statGroup struct {
	latencyHDRHistogram *hdrhistogram.Histogram
	sum                 float64
	count               int64
}

func newStatGroup() *statGroup {
	lH := hdrhistogram.New(1, 3600000000, 4)
	return &statGroup{
		latencyHDRHistogram: lH,
		sum:                 0,
		count:               0,
	}
}

// push records one latency in milliseconds.
func (s *statGroup) push(n float64) {
	s.latencyHDRHistogram.RecordValue(int64(n * hdrScaleFactor))
	s.sum += n
	s.count++
}

func (s *statGroup) string() string {
	return fmt.Sprintf("min: %8.2fms, med: %8.2fms, mean: %8.2fms, max: %7.2fms, stddev: %8.2fms, sum: %5.1fsec, count: %d",
		s.Min(),
		s.Median(),
		s.Mean(),
		s.Max(),
		s.StdDev(),
		s.sum/hdrScaleFactor,
		s.count)
}

func (s *statGroup) write(w io.Writer) error {
	_, err := fmt.Fprintln(w, s.string())
	return err
}

func (s *statGroup) Median() float64 {
	return float64(s.latencyHDRHistogram.ValueAtQuantile(50.0)) / hdrScaleFactor
}

func (s *statGroup) Mean() float64 {
	return float64(s.latencyHDRHistogram.Mean()) / hdrScaleFactor
}

func (s *statGroup) Max() float64 {
	return float64(s.latencyHDRHistogram.Max()) / hdrScaleFactor
}

func (s *statGroup) Min() float64 {
	return float64(s.latencyHDRHistogram.Min()) / hdrScaleFactor
}

func (s *statGroup) StdDev() float64 {
	return float64(s.latencyHDRHistogram.StdDev()) / hdrScaleFactor
}

func (s *statGroup) quantileMap() map[string]float64 {
	mp := map[string]float64{"q0": 0, "q50": 0, "q95": 0, "q99": 0, "q999": 0, "q100": 0}
	if s.latencyHDRHistogram.TotalCount() == 0 {
		return mp
	}
	mp["q0"] = float64(s.latencyHDRHistogram.ValueAtQuantile(0.0)) / hdrScaleFactor
	mp["q50"] = float64(s.latencyHDRHistogram.ValueAtQuantile(50.0)) / hdrScaleFactor
	mp["q95"] = float64(s.latencyHDRHistogram.ValueAtQuantile(95.0)) / hdrScaleFactor
	mp["q99"] = float64(s.latencyHDRHistogram.ValueAtQuantile(99.0)) / hdrScaleFactor
	mp["q999"] = float64(s.latencyHDRHistogram.ValueAtQuantile(99.9)) / hdrScaleFactor
	mp["q100"] = float64(s.latencyHDRHistogram.ValueAtQuantile(100.0)) / hdrScaleFactor
	return mp
}

func writeStatGroupMap(w io.Writer, statGroups map[string]*statGroup) error {
	maxKeyLength := 0
	keys := make([]string, 0, len(statGroups))
	for k := range statGroups {
		if len(k) > maxKeyLength {
			maxKeyLength = len(k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := statGroups[k]
		paddedKey := k
		for len(paddedKey) < maxKeyLength {
			paddedKey += " "
		}

		_, err := fmt.Fprintf(w, "%s:\n", paddedKey)
		if err != nil {
			return err
		}

		err = v.write(w)
		if err != nil {
			return err
		}
	}
	return nil
}
