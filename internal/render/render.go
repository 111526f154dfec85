// Package render cuts selected scenes out of the source video as vertical
// clips and grabs a thumbnail frame for each.
package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"clipgen/internal/storage"
	"clipgen/internal/types"
	"clipgen/log"
	apperrors "clipgen/pkg/errors"
)

// Renderer produces 9:16 clips by scaling the source up until it covers the
// target frame and center-cropping the overflow.
type Renderer struct {
	CropWidth  int
	CropHeight int
	Preset     string
}

func NewRenderer(cropWidth, cropHeight int, preset string) *Renderer {
	return &Renderer{
		CropWidth:  cropWidth,
		CropHeight: cropHeight,
		Preset:     preset,
	}
}

func (r *Renderer) cropFilter() string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d",
		r.CropWidth, r.CropHeight, r.CropWidth, r.CropHeight)
}

// Render encodes one clip and its midpoint thumbnail into outputDir. Partial
// output files are removed on failure.
func (r *Renderer) Render(ctx context.Context, videoPath, outputDir string, clip types.SelectedClip) (*types.RenderedArtifact, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeRenderFailed, "create render output dir", err)
	}

	clipPath := filepath.Join(outputDir, fmt.Sprintf("clip_%d.mp4", clip.Rank))
	thumbPath := filepath.Join(outputDir, fmt.Sprintf("thumb_%d.jpg", clip.Rank))

	cmd := exec.CommandContext(ctx, storage.FfmpegPath,
		"-y",
		"-ss", formatSeconds(clip.Scene.Start),
		"-to", formatSeconds(clip.Scene.End),
		"-i", videoPath,
		"-vf", r.cropFilter(),
		"-c:v", "libx264",
		"-preset", r.Preset,
		"-c:a", "aac",
		clipPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		log.GetLogger().Error("clip render failed",
			zap.String("video", videoPath),
			zap.Int("rank", clip.Rank),
			zap.String("output", string(output)),
			zap.Error(err))
		_ = os.Remove(clipPath)
		return nil, apperrors.Wrap(apperrors.CodeRenderFailed, fmt.Sprintf("render clip %d", clip.Rank), err)
	}

	mid := (clip.Scene.Start + clip.Scene.End) / 2
	thumbCmd := exec.CommandContext(ctx, storage.FfmpegPath,
		"-y",
		"-ss", formatSeconds(mid),
		"-i", videoPath,
		"-vframes", "1",
		"-vf", r.cropFilter(),
		thumbPath,
	)
	if output, err := thumbCmd.CombinedOutput(); err != nil {
		log.GetLogger().Error("thumbnail render failed",
			zap.String("video", videoPath),
			zap.Int("rank", clip.Rank),
			zap.String("output", string(output)),
			zap.Error(err))
		_ = os.Remove(clipPath)
		_ = os.Remove(thumbPath)
		return nil, apperrors.Wrap(apperrors.CodeThumbnailFailed, fmt.Sprintf("render thumbnail %d", clip.Rank), err)
	}

	return &types.RenderedArtifact{
		VideoPath:     clipPath,
		ThumbnailPath: thumbPath,
		Start:         clip.Scene.Start,
		End:           clip.Scene.End,
	}, nil
}

func formatSeconds(v float64) string {
	return fmt.Sprintf("%.3f", v)
}
