package scene

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "clipgen/pkg/errors"
)

type fakeDetector struct {
	name       string
	boundaries []float64
	err        error
}

func (f *fakeDetector) Name() string { return f.name }

func (f *fakeDetector) DetectBoundaries(_ context.Context, _ string) ([]float64, error) {
	return f.boundaries, f.err
}

func newTestSegmenter(duration float64, detectors ...Detector) *Segmenter {
	s := NewSegmenter(detectors, 0.4, 5, 60)
	s.probeDuration = func(string) (float64, error) { return duration, nil }
	return s
}

func TestDetectScenesFusesDetectors(t *testing.T) {
	s := newTestSegmenter(90,
		&fakeDetector{name: "a", boundaries: []float64{30}},
		&fakeDetector{name: "b", boundaries: []float64{30.1, 60}},
	)
	scenes, err := s.DetectScenes(context.Background(), "in.mp4")
	require.NoError(t, err)
	require.Len(t, scenes, 3)
	assert.Equal(t, float64(0), scenes[0].Start)
	assert.Equal(t, float64(30), scenes[0].End)
	assert.Equal(t, float64(60), scenes[2].Start)
	assert.Equal(t, float64(90), scenes[2].End)
}

func TestDetectScenesToleratesSingleDetectorFailure(t *testing.T) {
	s := newTestSegmenter(90,
		&fakeDetector{name: "a", err: errors.New("boom")},
		&fakeDetector{name: "b", boundaries: []float64{45}},
	)
	scenes, err := s.DetectScenes(context.Background(), "in.mp4")
	require.NoError(t, err)
	require.Len(t, scenes, 2)
}

func TestDetectScenesAllDetectorsFailed(t *testing.T) {
	s := newTestSegmenter(90,
		&fakeDetector{name: "a", err: errors.New("boom")},
		&fakeDetector{name: "b", err: errors.New("bang")},
	)
	_, err := s.DetectScenes(context.Background(), "in.mp4")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeSceneDetectFailed, apperrors.GetCode(err))
}

func TestDetectScenesNoBoundariesYieldsWholeVideo(t *testing.T) {
	// 150s with no cut points still normalizes into duration-band parts
	s := newTestSegmenter(150, &fakeDetector{name: "a"})
	scenes, err := s.DetectScenes(context.Background(), "in.mp4")
	require.NoError(t, err)
	require.Len(t, scenes, 3)
	assert.Equal(t, float64(0), scenes[0].Start)
	assert.Equal(t, float64(150), scenes[2].End)
}

func TestDetectScenesProbeFailure(t *testing.T) {
	s := newTestSegmenter(0, &fakeDetector{name: "a"})
	s.probeDuration = func(string) (float64, error) { return 0, errors.New("no such file") }
	_, err := s.DetectScenes(context.Background(), "missing.mp4")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeMediaUnreadable, apperrors.GetCode(err))
}
