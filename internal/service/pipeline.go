package service

import (
	"context"
	"encoding/json"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"clipgen/config"
	"clipgen/internal/dto"
	"clipgen/internal/selector"
	"clipgen/internal/storage"
	"clipgen/internal/types"
	"clipgen/log"
	apperrors "clipgen/pkg/errors"
)

// RunPipeline drives one task end to end: fetch input, transcribe and detect
// scenes concurrently, select clips, render and persist each one, then settle
// the task and project status. Per-clip failures are tolerated as long as at
// least one clip survives.
func (s *Service) RunPipeline(ctx context.Context, req dto.StartClipTaskReq, stepParam *types.ClipTaskStepParam) {
	taskId := stepParam.TaskId
	log.GetLogger().Info("clip pipeline start", zap.String("taskId", taskId))

	s.progress(stepParam, 5, "Fetching input media")
	if err := s.acquireInput(ctx, req, stepParam); err != nil {
		log.GetLogger().Error("acquire input failed", zap.String("taskId", taskId), zap.Error(err))
		s.failTask(stepParam, apperrors.GetMessage(err))
		return
	}
	logInputProperties(taskId, stepParam.InputFilePath)

	s.progress(stepParam, 15, "Transcribing and analyzing scenes")
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.transcribeVideo(gctx, stepParam)
	})
	g.Go(func() error {
		scenes, err := s.Segmenter.DetectScenes(gctx, stepParam.InputFilePath)
		if err != nil {
			return err
		}
		stepParam.Scenes = scenes
		return nil
	})
	if err := g.Wait(); err != nil {
		log.GetLogger().Error("analysis stage failed", zap.String("taskId", taskId), zap.Error(err))
		s.failTask(stepParam, apperrors.GetMessage(err))
		return
	}

	s.progress(stepParam, 55, "Selecting clips")
	selected, err := selector.Select(stepParam.Scenes, stepParam.Transcript, stepParam.MinWords, stepParam.MaxClips)
	if err != nil {
		log.GetLogger().Warn("no eligible clips", zap.String("taskId", taskId), zap.Error(err))
		s.failTask(stepParam, apperrors.GetMessage(err))
		return
	}
	stepParam.SelectedClips = selected

	s.progress(stepParam, 65, "Rendering clips")
	outputDir := filepath.Join(stepParam.TaskBasePath, "output")
	for _, clip := range selected {
		artifact, err := s.Renderer.Render(ctx, stepParam.InputFilePath, outputDir, clip)
		if err != nil {
			log.GetLogger().Warn("clip render failed, skipping",
				zap.String("taskId", taskId), zap.Int("rank", clip.Rank), zap.Error(err))
			continue
		}
		meta, err := s.persistClip(ctx, stepParam, clip, artifact)
		if err != nil {
			log.GetLogger().Warn("clip persistence failed, skipping",
				zap.String("taskId", taskId), zap.Int("rank", clip.Rank), zap.Error(err))
			continue
		}
		stepParam.ClipMetas = append(stepParam.ClipMetas, *meta)
	}

	if len(stepParam.ClipMetas) == 0 {
		log.GetLogger().Error("all selected clips failed to render or persist",
			zap.String("taskId", taskId), zap.Int("selected", len(selected)))
		s.failTask(stepParam, apperrors.ErrAllClipsFailed.Message)
		return
	}

	s.progress(stepParam, 95, "Finalizing")
	s.completeTask(ctx, stepParam)
	log.GetLogger().Info("clip pipeline end",
		zap.String("taskId", taskId), zap.Int("clips", len(stepParam.ClipMetas)))
}

func (s *Service) progress(stepParam *types.ClipTaskStepParam, pct uint8, msg string) {
	stepParam.TaskPtr.ProcessPct = pct
	stepParam.TaskPtr.StatusMsg = msg
	_ = storage.SaveTask(stepParam.TaskPtr)
}

// failTask settles both the local task record and the external project row as
// failed. The project update is best effort at this point.
func (s *Service) failTask(stepParam *types.ClipTaskStepParam, reason string) {
	stepParam.TaskPtr.Status = types.ClipTaskStatusFailed
	stepParam.TaskPtr.FailReason = reason
	stepParam.TaskPtr.StatusMsg = "Failed"
	if err := storage.SaveTask(stepParam.TaskPtr); err != nil {
		log.GetLogger().Error("failed to persist task failure",
			zap.String("taskId", stepParam.TaskId), zap.Error(err))
	}
	if err := s.Store.UpdateRow(context.Background(), config.Conf.Supabase.ProjectTable,
		stepParam.ProjectId, map[string]any{"status": types.ProjectStatusFailed}); err != nil {
		log.GetLogger().Error("failed to mark project failed",
			zap.String("projectId", stepParam.ProjectId), zap.Error(err))
	}
}

func (s *Service) completeTask(ctx context.Context, stepParam *types.ClipTaskStepParam) {
	result := types.PipelineResult{
		Clips:  stepParam.ClipMetas,
		Status: types.PipelineStatusReady,
	}
	if raw, err := json.Marshal(result); err == nil {
		stepParam.TaskPtr.ResultJson = string(raw)
	}
	stepParam.TaskPtr.Status = types.ClipTaskStatusSuccess
	stepParam.TaskPtr.StatusMsg = "Completed"
	stepParam.TaskPtr.ProcessPct = 100
	stepParam.TaskPtr.ClipCount = len(stepParam.ClipMetas)
	if err := storage.SaveTask(stepParam.TaskPtr); err != nil {
		log.GetLogger().Error("failed to persist task completion",
			zap.String("taskId", stepParam.TaskId), zap.Error(err))
	}

	if err := s.Store.UpdateRow(ctx, config.Conf.Supabase.ProjectTable, stepParam.ProjectId,
		map[string]any{"status": types.ProjectStatusCompleted}); err != nil {
		log.GetLogger().Error("failed to mark project completed",
			zap.String("projectId", stepParam.ProjectId), zap.Error(err))
	}
}
