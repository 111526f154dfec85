package util

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"clipgen/internal/storage"
	"clipgen/log"

	"go.uber.org/zap"
)

// ProbeDuration returns the container duration of a media file in seconds.
func ProbeDuration(filePath string) (float64, error) {
	cmdArgs := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		filePath,
	}
	cmd := exec.Command(storage.FfprobePath, cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.GetLogger().Error("ProbeDuration failed", zap.Error(err), zap.String("file", filePath), zap.String("output", string(output)))
		return 0, fmt.Errorf("ffprobe duration failed for %s: %w", filePath, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected ffprobe duration output %q: %w", string(output), err)
	}
	return duration, nil
}

// ProbeResolution returns width and height of the first video stream.
func ProbeResolution(filePath string) (int, int, error) {
	cmdArgs := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		filePath,
	}
	cmd := exec.Command(storage.FfprobePath, cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.GetLogger().Error("ProbeResolution failed", zap.Error(err), zap.String("file", filePath), zap.String("output", string(output)))
		return 0, 0, fmt.Errorf("ffprobe resolution failed for %s: %w", filePath, err)
	}

	parts := strings.Split(strings.TrimSpace(string(output)), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected ffprobe resolution output %q", string(output))
	}
	width, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected ffprobe width %q: %w", parts[0], err)
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected ffprobe height %q: %w", parts[1], err)
	}
	return width, height, nil
}

// ProbeFrameRate returns the average frame rate of the first video stream.
func ProbeFrameRate(filePath string) (float64, error) {
	cmdArgs := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=avg_frame_rate",
		"-of", "default=noprint_wrappers=1:nokey=1",
		filePath,
	}
	cmd := exec.Command(storage.FfprobePath, cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.GetLogger().Error("ProbeFrameRate failed", zap.Error(err), zap.String("file", filePath), zap.String("output", string(output)))
		return 0, fmt.Errorf("ffprobe frame rate failed for %s: %w", filePath, err)
	}

	return ParseFrameRate(strings.TrimSpace(string(output)))
}

// ParseFrameRate parses ffprobe's "num/den" rational frame rate notation.
func ParseFrameRate(raw string) (float64, error) {
	if raw == "" || raw == "0/0" {
		return 0, fmt.Errorf("no frame rate reported")
	}
	if !strings.Contains(raw, "/") {
		return strconv.ParseFloat(raw, 64)
	}
	parts := strings.SplitN(raw, "/", 2)
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q: %w", raw, err)
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 {
		return 0, fmt.Errorf("invalid frame rate %q", raw)
	}
	return num / den, nil
}

// ExtractAudioSlice writes the [start, start+duration) range of the source's
// audio track to dest as mono 16kHz PCM WAV, the input format ASR expects.
func ExtractAudioSlice(srcPath string, start, duration float64, destPath string) error {
	cmdArgs := []string{
		"-y",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(duration),
		"-i", srcPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		destPath,
	}
	cmd := exec.Command(storage.FfmpegPath, cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.GetLogger().Error("ExtractAudioSlice failed", zap.Error(err),
			zap.String("src", srcPath), zap.Float64("start", start), zap.String("output", string(output)))
		return fmt.Errorf("audio slice extraction failed at %.2fs: %w", start, err)
	}
	return nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
