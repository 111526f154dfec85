package scene

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"clipgen/internal/types"
	"clipgen/log"
	apperrors "clipgen/pkg/errors"
	"clipgen/pkg/util"
)

// Segmenter fuses the boundary candidates of several detectors into one scene
// list and normalizes it into the configured duration band. A single detector
// failing is logged and tolerated; all detectors failing aborts the task.
type Segmenter struct {
	Detectors     []Detector
	FusionEpsilon float64
	MinDuration   float64
	MaxDuration   float64

	probeDuration func(filePath string) (float64, error)
}

func NewSegmenter(detectors []Detector, fusionEpsilon, minDuration, maxDuration float64) *Segmenter {
	return &Segmenter{
		Detectors:     detectors,
		FusionEpsilon: fusionEpsilon,
		MinDuration:   minDuration,
		MaxDuration:   maxDuration,
		probeDuration: util.ProbeDuration,
	}
}

func (s *Segmenter) DetectScenes(ctx context.Context, videoPath string) ([]types.Scene, error) {
	duration, err := s.probeDuration(videoPath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMediaUnreadable, "probe video duration", err)
	}

	candidates := make([][]float64, len(s.Detectors))
	errs := make([]error, len(s.Detectors))
	var wg sync.WaitGroup
	for i, det := range s.Detectors {
		wg.Add(1)
		go func(i int, det Detector) {
			defer wg.Done()
			candidates[i], errs[i] = det.DetectBoundaries(ctx, videoPath)
		}(i, det)
	}
	wg.Wait()

	succeeded := 0
	var fusable [][]float64
	for i, det := range s.Detectors {
		if errs[i] != nil {
			log.GetLogger().Warn("scene detector failed, continuing with the rest",
				zap.String("detector", det.Name()), zap.Error(errs[i]))
			continue
		}
		succeeded++
		fusable = append(fusable, candidates[i])
		log.GetLogger().Debug("scene detector finished",
			zap.String("detector", det.Name()), zap.Int("boundaries", len(candidates[i])))
	}
	if len(s.Detectors) > 0 && succeeded == 0 {
		return nil, apperrors.Wrap(apperrors.CodeSceneDetectFailed, "all scene detectors failed", errs[0])
	}

	boundaries := FuseBoundaries(fusable, s.FusionEpsilon)
	raw := boundariesToScenes(boundaries, duration)

	scenes := make([]types.Scene, 0, len(raw))
	for _, r := range raw {
		scenes = append(scenes, types.Scene{Start: r[0], End: r[1]})
	}
	normalized := Normalize(scenes, s.MinDuration, s.MaxDuration)
	log.GetLogger().Info("scene segmentation done",
		zap.Float64("duration", duration),
		zap.Int("boundaries", len(boundaries)),
		zap.Int("scenes", len(normalized)))
	return normalized, nil
}
