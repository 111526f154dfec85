package scene

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"clipgen/internal/storage"
	"clipgen/log"
)

// AdaptiveDetector compares each frame's luma difference against a rolling
// average of its neighbours rather than a fixed threshold, so gradual lighting
// changes and camera motion do not trip it the way they trip a content cut.
type AdaptiveDetector struct {
	// Sensitivity is the multiple of the rolling mean a frame's YDIF must
	// exceed to count as a boundary.
	Sensitivity float64
	// MinSceneLenFrames suppresses boundaries closer together than this many
	// frames.
	MinSceneLenFrames int
}

func (d *AdaptiveDetector) Name() string { return "adaptive" }

type frameStat struct {
	time float64
	ydif float64
}

func (d *AdaptiveDetector) DetectBoundaries(ctx context.Context, videoPath string) ([]float64, error) {
	cmd := exec.CommandContext(ctx, storage.FfprobePath,
		"-f", "lavfi",
		"-i", fmt.Sprintf("movie=%s,signalstats", videoPath),
		"-show_entries", "frame=pts_time:frame_tags=lavfi.signalstats.YDIF",
		"-of", "csv=p=0",
		"-v", "error",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		log.GetLogger().Error("adaptive detector ffprobe failed",
			zap.String("video", videoPath), zap.String("stderr", stderr.String()), zap.Error(err))
		return nil, fmt.Errorf("adaptive detector: %w", err)
	}
	frames := parseSignalStats(output)
	return adaptiveBoundaries(frames, d.Sensitivity, d.MinSceneLenFrames), nil
}

// parseSignalStats reads "pts_time,YDIF" csv lines from ffprobe output.
func parseSignalStats(output []byte) []frameStat {
	var frames []frameStat
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		fields := strings.Split(strings.TrimSpace(scanner.Text()), ",")
		if len(fields) < 2 {
			continue
		}
		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		ydif, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		frames = append(frames, frameStat{time: t, ydif: ydif})
	}
	return frames
}

const adaptiveWindow = 15

// adaptiveBoundaries marks frames whose YDIF exceeds sensitivity times the
// rolling mean of the surrounding window, enforcing a minimum frame gap
// between consecutive boundaries.
func adaptiveBoundaries(frames []frameStat, sensitivity float64, minGapFrames int) []float64 {
	if len(frames) < 2 || sensitivity <= 0 {
		return nil
	}

	var boundaries []float64
	lastBoundary := -minGapFrames
	for i := 1; i < len(frames); i++ {
		lo := i - adaptiveWindow
		if lo < 0 {
			lo = 0
		}
		hi := i + adaptiveWindow
		if hi > len(frames) {
			hi = len(frames)
		}
		var sum float64
		count := 0
		for j := lo; j < hi; j++ {
			if j == i {
				continue
			}
			sum += frames[j].ydif
			count++
		}
		if count == 0 {
			continue
		}
		mean := sum / float64(count)
		if mean <= 0 {
			continue
		}
		if frames[i].ydif/mean >= sensitivity && i-lastBoundary >= minGapFrames {
			boundaries = append(boundaries, frames[i].time)
			lastBoundary = i
		}
	}
	return boundaries
}
