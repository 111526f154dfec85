package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipgen/internal/types"
)

func TestNormalizeDropsShortScenes(t *testing.T) {
	raw := []types.Scene{
		{Start: 0, End: 3},
		{Start: 3, End: 20},
		{Start: 20, End: 24},
	}
	got := Normalize(raw, 5, 60)
	require.Len(t, got, 1)
	assert.Equal(t, types.Scene{Start: 3, End: 20}, got[0])
}

func TestNormalizeSplitsLongScenesEvenly(t *testing.T) {
	// 150s scene with max 60 splits into ceil(150/60)=3 parts of 50s each.
	got := Normalize([]types.Scene{{Start: 0, End: 150}}, 5, 60)
	require.Len(t, got, 3)
	for i, s := range got {
		assert.InDelta(t, 50, s.Duration(), 1e-9, "part %d", i)
	}
	assert.Equal(t, float64(0), got[0].Start)
	assert.Equal(t, float64(150), got[2].End)
}

func TestNormalizeSplitPartsNeverExceedMax(t *testing.T) {
	got := Normalize([]types.Scene{{Start: 10, End: 71}}, 5, 60)
	// 61s -> 2 parts of 30.5s
	require.Len(t, got, 2)
	for _, s := range got {
		assert.LessOrEqual(t, s.Duration(), 60.0)
		assert.GreaterOrEqual(t, s.Duration(), 5.0)
	}
	assert.InDelta(t, 40.5, got[0].End, 1e-9)
	assert.InDelta(t, 40.5, got[1].Start, 1e-9)
}

func TestNormalizeKeepsChronologicalOrder(t *testing.T) {
	raw := []types.Scene{
		{Start: 0, End: 130},
		{Start: 130, End: 140},
		{Start: 140, End: 300},
	}
	got := Normalize(raw, 5, 60)
	require.NotEmpty(t, got)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i].Start, got[i-1].End-1e-9)
	}
}

func TestNormalizeBoundaryDurations(t *testing.T) {
	// exactly min stays, exactly max stays unsplit
	got := Normalize([]types.Scene{{Start: 0, End: 5}, {Start: 5, End: 65}}, 5, 60)
	require.Len(t, got, 2)
	assert.Equal(t, types.Scene{Start: 0, End: 5}, got[0])
	assert.Equal(t, types.Scene{Start: 5, End: 65}, got[1])
}

func TestNormalizeEmptyInput(t *testing.T) {
	assert.Empty(t, Normalize(nil, 5, 60))
}
