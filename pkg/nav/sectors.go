package nav

import (
	"errors"
	"fmt"
)

// ErrScanTooShort reports a sample set that cannot cover the configured
// sectors. Callers must defer their decision, never index past the scan.
var ErrScanTooShort = errors.New("range scan too short to cover configured sectors")

// SectorRange is a half-open [Start, End) span of scan indices.
type SectorRange struct {
	Start int
	End   int
}

// SectorConfig fixes the four directional sectors as scan index ranges.
// Index 0 is the robot's forward axis and one sample per degree is assumed;
// the ranges are mission configuration, not derived from sensor metadata.
type SectorConfig struct {
	Forward  SectorRange
	Left     SectorRange
	Right    SectorRange
	Backward SectorRange
}

// DefaultSectorConfig returns the stock sector layout for a 360-sample scan.
func DefaultSectorConfig() SectorConfig {
	return SectorConfig{
		Forward:  SectorRange{Start: 0, End: 15},
		Left:     SectorRange{Start: 45, End: 90},
		Right:    SectorRange{Start: 270, End: 315},
		Backward: SectorRange{Start: 180, End: 195},
	}
}

// ObstacleAnalyzer reduces a scan to the nearest-obstacle distance per
// sector, a conservative proxy for traversability in each direction.
type ObstacleAnalyzer struct {
	sectors    SectorConfig
	minSamples int
}

// NewObstacleAnalyzer builds an analyzer for the given sector layout.
func NewObstacleAnalyzer(sectors SectorConfig) ObstacleAnalyzer {
	minSamples := 0
	for _, r := range []SectorRange{sectors.Forward, sectors.Left, sectors.Right, sectors.Backward} {
		if r.End > minSamples {
			minSamples = r.End
		}
	}
	return ObstacleAnalyzer{sectors: sectors, minSamples: minSamples}
}

// MinSamples returns the scan length required to cover every sector.
func (a ObstacleAnalyzer) MinSamples() int {
	return a.minSamples
}

// Analyze returns the minimum distance within each sector. It fails with
// ErrScanTooShort when the scan cannot cover every configured sector.
func (a ObstacleAnalyzer) Analyze(samples []float64) (SectorDistances, error) {
	if len(samples) < a.minSamples {
		return SectorDistances{}, fmt.Errorf("%w: got %d samples, need %d", ErrScanTooShort, len(samples), a.minSamples)
	}

	return SectorDistances{
		Forward:  nearest(samples, a.sectors.Forward),
		Left:     nearest(samples, a.sectors.Left),
		Right:    nearest(samples, a.sectors.Right),
		Backward: nearest(samples, a.sectors.Backward),
	}, nil
}

// nearest returns the smallest sample inside the sector range.
func nearest(samples []float64, r SectorRange) float64 {
	min := samples[r.Start]
	for _, v := range samples[r.Start+1 : r.End] {
		if v < min {
			min = v
		}
	}
	return min
}
