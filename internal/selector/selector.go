// Package selector picks the scenes worth rendering, scoring each scene by
// how many transcript words land inside it.
package selector

import (
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"clipgen/internal/types"
	"clipgen/log"
	apperrors "clipgen/pkg/errors"
)

// CountWords scores a scene by transcript word density. Each entry contributes
// its whitespace-separated word count when its temporal midpoint falls inside
// the scene's closed interval. An entry whose midpoint lands exactly on a
// boundary shared by two scenes counts toward both.
func CountWords(scene types.Scene, transcript types.Transcript) int {
	total := 0
	for _, entry := range transcript {
		mid := (entry.Start + entry.End) / 2
		if mid >= scene.Start && mid <= scene.End {
			total += len(strings.Fields(entry.Text))
		}
	}
	return total
}

// Select walks scenes in chronological order and keeps the first maxClips
// scenes whose word count reaches minWords. Rank reflects pick order, which
// for a chronological walk equals playback order. Returns
// ErrNoEligibleContent when nothing qualifies.
func Select(scenes []types.Scene, transcript types.Transcript, minWords, maxClips int) ([]types.SelectedClip, error) {
	if maxClips <= 0 {
		return nil, apperrors.ErrNoEligibleContent
	}

	var selected []types.SelectedClip
	for _, scene := range scenes {
		if len(selected) >= maxClips {
			break
		}
		words := CountWords(scene, transcript)
		if words < minWords {
			continue
		}
		selected = append(selected, types.SelectedClip{
			Scene:     scene,
			WordCount: words,
			Rank:      len(selected) + 1,
		})
	}
	if len(selected) == 0 {
		return nil, apperrors.ErrNoEligibleContent
	}

	log.GetLogger().Info("clip selection done",
		zap.Int("scenes", len(scenes)),
		zap.Int("selected", len(selected)),
		zap.Ints("wordCounts", lo.Map(selected, func(c types.SelectedClip, _ int) int { return c.WordCount })))
	return selected, nil
}
