package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"clipgen/config"
	"clipgen/internal/types"
	"clipgen/log"
)

// persistClip pushes one rendered clip through the two-phase signed upload for
// both video and thumbnail, records the clip row, then removes the local
// files. Local files survive any failure so a retry can pick them up.
func (s *Service) persistClip(ctx context.Context, stepParam *types.ClipTaskStepParam,
	clip types.SelectedClip, artifact *types.RenderedArtifact) (*types.ClipMeta, error) {

	clipKey := fmt.Sprintf("%s/%s", stepParam.ProjectId, filepath.Base(artifact.VideoPath))
	thumbKey := fmt.Sprintf("%s/%s", stepParam.ProjectId, filepath.Base(artifact.ThumbnailPath))

	if err := s.uploadFileSigned(ctx, config.Conf.Supabase.ClipBucket, clipKey, artifact.VideoPath, "video/mp4"); err != nil {
		return nil, err
	}
	if err := s.uploadFileSigned(ctx, config.Conf.Supabase.ThumbnailBucket, thumbKey, artifact.ThumbnailPath, "image/jpeg"); err != nil {
		return nil, err
	}

	transcript := clipTranscriptText(clip.Scene, stepParam.Transcript)
	generated := s.generateClipMetadata(transcript)

	meta := &types.ClipMeta{
		ProjectID:    stepParam.ProjectId,
		FileURL:      clipKey,
		ThumbnailURL: thumbKey,
		Transcript:   transcript,
		Title:        generated.Title,
		Hashtags:     generated.Hashtags,
		Start:        artifact.Start,
		End:          artifact.End,
	}

	fields := map[string]any{
		"project_id":    meta.ProjectID,
		"file_url":      meta.FileURL,
		"thumbnail_url": meta.ThumbnailURL,
		"transcript":    meta.Transcript,
		"start_time":    meta.Start,
		"end_time":      meta.End,
	}
	if meta.Title != "" {
		fields["title"] = meta.Title
	}
	if len(meta.Hashtags) > 0 {
		fields["hashtags"] = meta.Hashtags
	}
	if _, err := s.Store.InsertRow(ctx, config.Conf.Supabase.ClipTable, fields); err != nil {
		return nil, err
	}

	// uploads and the row are confirmed, local copies are disposable now
	if err := os.Remove(artifact.VideoPath); err != nil {
		log.GetLogger().Warn("failed to remove local clip file",
			zap.String("path", artifact.VideoPath), zap.Error(err))
	}
	if err := os.Remove(artifact.ThumbnailPath); err != nil {
		log.GetLogger().Warn("failed to remove local thumbnail file",
			zap.String("path", artifact.ThumbnailPath), zap.Error(err))
	}
	return meta, nil
}

func (s *Service) uploadFileSigned(ctx context.Context, bucket, key, localPath, contentType string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	token, err := s.Store.CreateSignedUploadURL(ctx, bucket, key)
	if err != nil {
		return err
	}
	return s.Store.UploadToSignedURL(ctx, bucket, key, token, data, contentType)
}

// clipTranscriptText joins the entries whose midpoint falls inside the scene,
// the same membership rule the selector scores with.
func clipTranscriptText(scene types.Scene, transcript types.Transcript) string {
	var parts []string
	for _, entry := range transcript {
		mid := (entry.Start + entry.End) / 2
		if mid >= scene.Start && mid <= scene.End {
			parts = append(parts, entry.Text)
		}
	}
	return strings.Join(parts, " ")
}
