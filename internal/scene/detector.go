// Package scene segments a video into visually coherent time intervals. It runs
// several independent boundary detectors over the frame stream, fuses their cut
// points, and normalizes the resulting intervals into a target duration band.
package scene

import (
	"context"
	"math/bits"
	"sort"
)

// Detector finds candidate cut points in a video. Implementations return
// boundary timestamps in seconds, in any order; fusion sorts and merges them.
type Detector interface {
	Name() string
	DetectBoundaries(ctx context.Context, videoPath string) ([]float64, error)
}

// FuseBoundaries merges boundary candidates from multiple detectors into one
// ordered list. Timestamps closer together than epsilon are collapsed to the
// earliest of the cluster, so detectors that fire on the same cut within a few
// frames of each other produce a single boundary.
func FuseBoundaries(candidates [][]float64, epsilon float64) []float64 {
	var all []float64
	for _, set := range candidates {
		all = append(all, set...)
	}
	if len(all) == 0 {
		return nil
	}
	sort.Float64s(all)

	fused := []float64{all[0]}
	for _, t := range all[1:] {
		if t-fused[len(fused)-1] > epsilon {
			fused = append(fused, t)
		}
	}
	return fused
}

// boundariesToScenes converts an ordered boundary list into consecutive raw
// scenes covering [0, duration). A leading boundary at zero is implied.
func boundariesToScenes(boundaries []float64, duration float64) [][2]float64 {
	points := []float64{0}
	for _, b := range boundaries {
		if b <= points[len(points)-1] || b >= duration {
			continue
		}
		points = append(points, b)
	}
	points = append(points, duration)

	scenes := make([][2]float64, 0, len(points)-1)
	for i := 0; i+1 < len(points); i++ {
		if points[i+1]-points[i] <= 0 {
			continue
		}
		scenes = append(scenes, [2]float64{points[i], points[i+1]})
	}
	return scenes
}

// hammingDistance counts differing bits between two 64-bit frame hashes.
func hammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
