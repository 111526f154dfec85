package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"clipgen/config"
	"clipgen/internal/appdirs"
	"clipgen/internal/dto"
	"clipgen/internal/storage"
	"clipgen/internal/types"
	"clipgen/log"
	apperrors "clipgen/pkg/errors"
	"clipgen/pkg/util"
)

// StartClipTask registers the task, creates its project row and kicks off the
// pipeline in the background. The response carries only identifiers; progress
// is polled via GetClipTask.
func (s *Service) StartClipTask(req dto.StartClipTaskReq) (*dto.StartClipTaskResData, error) {
	base := filepath.Base(strings.TrimPrefix(req.FilePath, "local:"))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if len([]rune(stem)) > 16 {
		stem = string([]rune(stem)[:16])
	}
	taskId := fmt.Sprintf("%s_%s", util.SanitizePathName(stem), util.GenerateRandStringWithUpperLowerNum(4))

	taskBasePath := appdirs.TaskDir(config.Conf.App.WorkDir, taskId)
	if err := os.MkdirAll(filepath.Join(taskBasePath, "output"), os.ModePerm); err != nil {
		log.GetLogger().Error("StartClipTask MkdirAll err", zap.String("path", taskBasePath), zap.Error(err))
		return nil, apperrors.Wrap(apperrors.CodeUnknown, "create task directory", err)
	}

	ctx := context.Background()

	projectId := req.ProjectId
	if projectId == "" {
		id, err := s.Store.InsertRow(ctx, config.Conf.Supabase.ProjectTable, map[string]any{
			"status":     types.ProjectStatusProcessing,
			"source":     req.FilePath,
			"profile_id": req.ProfileId,
		})
		if err != nil {
			log.GetLogger().Error("StartClipTask create project row err", zap.Error(err))
			return nil, err
		}
		projectId = id
	} else {
		if err := s.Store.UpdateRow(ctx, config.Conf.Supabase.ProjectTable, projectId,
			map[string]any{"status": types.ProjectStatusProcessing}); err != nil {
			log.GetLogger().Error("StartClipTask mark project processing err",
				zap.String("projectId", projectId), zap.Error(err))
			return nil, err
		}
	}

	taskPtr := &types.ClipTask{
		TaskId:    taskId,
		ProjectId: projectId,
		ProfileId: req.ProfileId,
		VideoSrc:  req.FilePath,
		Status:    types.ClipTaskStatusProcessing,
		StatusMsg: "Queued",
	}
	if err := storage.SaveTask(taskPtr); err != nil {
		log.GetLogger().Error("StartClipTask SaveTask err", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.CodeDBError, "save task", err)
	}

	stepParam := &types.ClipTaskStepParam{
		TaskId:        taskId,
		TaskPtr:       taskPtr,
		TaskBasePath:  taskBasePath,
		ProjectId:     projectId,
		ProfileId:     req.ProfileId,
		WindowSeconds: config.Conf.Transcribe.WindowSeconds,
		MinWords:      config.Conf.Select.MinWords,
		MaxClips:      config.Conf.Select.MaxClips,
	}
	if req.WindowSeconds > 0 {
		stepParam.WindowSeconds = req.WindowSeconds
	}
	if req.MinWords > 0 {
		stepParam.MinWords = req.MinWords
	}
	if req.MaxClips > 0 {
		stepParam.MaxClips = req.MaxClips
	}

	log.GetLogger().Info("clip task accepted",
		zap.String("taskId", taskId),
		zap.String("projectId", projectId),
		zap.String("source", req.FilePath))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				const size = 64 << 10
				buf := make([]byte, size)
				buf = buf[:runtime.Stack(buf, false)]
				log.GetLogger().Error("clip task panic", zap.Any("panic", r), zap.ByteString("stack", buf))
				s.failTask(stepParam, fmt.Sprintf("panic: %v", r))
			}
		}()
		s.RunPipeline(context.Background(), req, stepParam)
	}()

	return &dto.StartClipTaskResData{TaskId: taskId, ProjectId: projectId}, nil
}

// GetClipTask returns the persisted state of one task, including clip metadata
// once the task has completed.
func (s *Service) GetClipTask(req dto.GetClipTaskReq) (*dto.GetClipTaskResData, error) {
	task, err := storage.GetTask(req.TaskId)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "task not found", err)
	}

	data := &dto.GetClipTaskResData{
		TaskId:         task.TaskId,
		ProjectId:      task.ProjectId,
		ProcessPercent: task.ProcessPct,
		Status:         statusLabel(task.Status),
		StatusMsg:      task.StatusMsg,
		FailReason:     task.FailReason,
		ClipCount:      task.ClipCount,
	}
	if task.ResultJson != "" {
		var result types.PipelineResult
		if err = json.Unmarshal([]byte(task.ResultJson), &result); err != nil {
			log.GetLogger().Warn("stored pipeline result is not valid json",
				zap.String("taskId", task.TaskId), zap.Error(err))
		} else {
			data.Clips = result.Clips
		}
	}
	return data, nil
}

// GetTaskHistory lists recent tasks, newest first.
func (s *Service) GetTaskHistory(limit int) (*dto.TaskHistoryResData, error) {
	tasks, err := storage.GetTaskHistory(limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDBError, "load task history", err)
	}

	items := lo.Map(tasks, func(task types.ClipTask, _ int) dto.TaskHistoryItem {
		return dto.TaskHistoryItem{
			TaskId:     task.TaskId,
			ProjectId:  task.ProjectId,
			VideoSrc:   task.VideoSrc,
			Status:     statusLabel(task.Status),
			StatusMsg:  task.StatusMsg,
			ClipCount:  task.ClipCount,
			CreateTime: task.CreateTime.Format("2006-01-02 15:04:05"),
		}
	})
	return &dto.TaskHistoryResData{Tasks: items}, nil
}

// DeleteTask removes the task record and its working directory.
func (s *Service) DeleteTask(taskId string) error {
	if _, err := storage.GetTask(taskId); err != nil {
		return apperrors.Wrap(apperrors.CodeNotFound, "task not found", err)
	}
	if err := storage.DeleteTask(taskId); err != nil {
		return apperrors.Wrap(apperrors.CodeDBError, "delete task", err)
	}
	taskBasePath := appdirs.TaskDir(config.Conf.App.WorkDir, taskId)
	if err := os.RemoveAll(taskBasePath); err != nil {
		log.GetLogger().Warn("failed to remove task directory",
			zap.String("taskId", taskId), zap.Error(err))
	}
	return nil
}

func statusLabel(status uint8) string {
	switch status {
	case types.ClipTaskStatusProcessing:
		return "processing"
	case types.ClipTaskStatusSuccess:
		return "completed"
	case types.ClipTaskStatusFailed:
		return "failed"
	}
	return "unknown"
}
