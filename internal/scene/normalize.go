package scene

import (
	"math"

	"clipgen/internal/types"
)

// Normalize enforces the duration band on raw scenes. Scenes shorter than
// minDuration are dropped, scenes longer than maxDuration are split into
// ceil(d/max) equal parts, and split parts that come out under minDuration are
// dropped too. Chronological order is preserved.
func Normalize(raw []types.Scene, minDuration, maxDuration float64) []types.Scene {
	out := make([]types.Scene, 0, len(raw))
	for _, s := range raw {
		d := s.Duration()
		if d < minDuration {
			continue
		}
		if d <= maxDuration {
			out = append(out, s)
			continue
		}
		parts := int(math.Ceil(d / maxDuration))
		partLen := d / float64(parts)
		for i := 0; i < parts; i++ {
			part := types.Scene{
				Start: s.Start + float64(i)*partLen,
				End:   s.Start + float64(i+1)*partLen,
			}
			if i == parts-1 {
				// pin the last part to the original end so rounding never
				// leaks past the scene boundary
				part.End = s.End
			}
			if part.Duration() < minDuration {
				continue
			}
			out = append(out, part)
		}
	}
	return out
}
