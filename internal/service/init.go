package service

import (
	"context"

	"clipgen/config"
	"clipgen/internal/render"
	"clipgen/internal/scene"
	"clipgen/internal/types"
	"clipgen/pkg/openai"
	"clipgen/pkg/supabase"
	"clipgen/pkg/util"
	"clipgen/pkg/whisper"
)

type Service struct {
	Transcriber   types.Transcriber
	Segmenter     types.SceneSegmenter
	Renderer      types.ClipRenderer
	Store         types.ObjectStore
	ChatCompleter types.ChatCompleter

	// test seams for ffmpeg-backed helpers and remote fetches
	probeDuration     func(filePath string) (float64, error)
	extractAudioSlice func(srcPath string, start, duration float64, destPath string) error
	downloadFile      func(ctx context.Context, url, destPath string) error
}

func NewService() *Service {
	cfg := config.Conf

	detectors := []scene.Detector{
		&scene.ContentDetector{Threshold: cfg.Scene.ContentThreshold},
		&scene.AdaptiveDetector{
			Sensitivity:       cfg.Scene.AdaptiveSensitivity,
			MinSceneLenFrames: cfg.Scene.MinSceneLenFrames,
		},
		&scene.HashDetector{MaxDistance: cfg.Scene.HashMaxDistance},
	}

	return &Service{
		Transcriber: whisper.NewTranscriber(
			cfg.Transcribe.BaseUrl, cfg.Transcribe.ApiKey, cfg.Transcribe.Model, cfg.App.Proxy),
		Segmenter: scene.NewSegmenter(
			detectors, cfg.Scene.FusionEpsilon,
			cfg.Scene.MinDurationSeconds, cfg.Scene.MaxDurationSeconds),
		Renderer: render.NewRenderer(
			cfg.Render.CropWidth, cfg.Render.CropHeight, cfg.Render.Preset),
		Store: supabase.NewClient(cfg.Supabase.Url, cfg.Supabase.Key),
		ChatCompleter: openai.NewClient(
			cfg.Llm.BaseUrl, cfg.Llm.ApiKey, cfg.Llm.Model, cfg.App.Proxy),

		probeDuration:     util.ProbeDuration,
		extractAudioSlice: util.ExtractAudioSlice,
		downloadFile:      downloadToFile,
	}
}
