package scene

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"go.uber.org/zap"

	"clipgen/internal/storage"
	"clipgen/log"
)

const (
	hashFrameSize = 8
	hashSampleFPS = 2
)

// HashDetector downsamples frames to an 8x8 grayscale thumbnail, computes an
// average hash per frame and flags boundaries where the Hamming distance to
// the previous frame's hash exceeds MaxDistance. Cheap and robust against
// encoding noise, at the cost of fine temporal precision.
type HashDetector struct {
	MaxDistance int
}

func (d *HashDetector) Name() string { return "hash" }

func (d *HashDetector) DetectBoundaries(ctx context.Context, videoPath string) ([]float64, error) {
	cmd := exec.CommandContext(ctx, storage.FfmpegPath,
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=%d,scale=%d:%d,format=gray", hashSampleFPS, hashFrameSize, hashFrameSize),
		"-f", "rawvideo",
		"-v", "error",
		"-",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("hash detector: %w", err)
	}
	if err := cmd.Start(); err != nil {
		log.GetLogger().Error("hash detector ffmpeg start failed",
			zap.String("video", videoPath), zap.Error(err))
		return nil, fmt.Errorf("hash detector: %w", err)
	}

	boundaries, readErr := d.scanFrames(stdout)
	waitErr := cmd.Wait()
	if readErr != nil {
		return nil, fmt.Errorf("hash detector: %w", readErr)
	}
	if waitErr != nil {
		log.GetLogger().Error("hash detector ffmpeg failed",
			zap.String("video", videoPath), zap.Error(waitErr))
		return nil, fmt.Errorf("hash detector: %w", waitErr)
	}
	return boundaries, nil
}

func (d *HashDetector) scanFrames(r io.Reader) ([]float64, error) {
	frame := make([]byte, hashFrameSize*hashFrameSize)
	var boundaries []float64
	var prev uint64
	index := 0
	for {
		_, err := io.ReadFull(r, frame)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return boundaries, nil
		}
		if err != nil {
			return nil, err
		}
		hash := averageHash(frame)
		if index > 0 && hammingDistance(prev, hash) > d.MaxDistance {
			boundaries = append(boundaries, float64(index)/hashSampleFPS)
		}
		prev = hash
		index++
	}
}

// averageHash sets a bit for each pixel brighter than the frame mean.
func averageHash(pixels []byte) uint64 {
	var sum int
	for _, p := range pixels {
		sum += int(p)
	}
	mean := sum / len(pixels)

	var hash uint64
	for i, p := range pixels {
		if int(p) > mean {
			hash |= 1 << uint(i)
		}
	}
	return hash
}
