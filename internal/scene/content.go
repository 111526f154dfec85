package scene

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"

	"go.uber.org/zap"

	"clipgen/internal/storage"
	"clipgen/log"
)

var ptsTimeRegex = regexp.MustCompile(`pts_time:([0-9]+\.?[0-9]*)`)

// ContentDetector flags frames whose content score against the previous frame
// exceeds a threshold, using ffmpeg's scene filter plus showinfo to recover
// the timestamps of the surviving frames.
type ContentDetector struct {
	Threshold float64
}

func (d *ContentDetector) Name() string { return "content" }

func (d *ContentDetector) DetectBoundaries(ctx context.Context, videoPath string) ([]float64, error) {
	filter := fmt.Sprintf("select='gt(scene,%.3f)',showinfo", d.Threshold)
	cmd := exec.CommandContext(ctx, storage.FfmpegPath,
		"-i", videoPath,
		"-vf", filter,
		"-f", "null", "-",
	)
	// showinfo writes to stderr; CombinedOutput captures it together with
	// ffmpeg's own diagnostics.
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.GetLogger().Error("content detector ffmpeg failed",
			zap.String("video", videoPath), zap.String("output", string(output)), zap.Error(err))
		return nil, fmt.Errorf("content detector: %w", err)
	}
	return parseShowinfoTimes(string(output)), nil
}

// parseShowinfoTimes extracts pts_time values from showinfo stderr output.
func parseShowinfoTimes(output string) []float64 {
	matches := ptsTimeRegex.FindAllStringSubmatch(output, -1)
	times := make([]float64, 0, len(matches))
	for _, m := range matches {
		t, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		times = append(times, t)
	}
	return times
}
