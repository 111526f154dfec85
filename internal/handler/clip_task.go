package handler

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clipgen/config"
	"clipgen/internal/appdirs"
	"clipgen/internal/dto"
	"clipgen/internal/queue"
	"clipgen/internal/response"
	"clipgen/internal/storage"
	"clipgen/internal/taskrunner"
	"clipgen/internal/types"
	"clipgen/log"
	apperrors "clipgen/pkg/errors"
	"clipgen/pkg/util"
)

func (h *Handler) StartClipTask(c *gin.Context) {
	var req dto.StartClipTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.GetLogger().Error("StartClipTask ShouldBindJSON err", zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "Invalid parameters", err))
		return
	}
	log.GetLogger().Info("StartClipTask received request", zap.Any("req", req))

	data, err := h.Service.StartClipTask(req)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

func (h *Handler) GetClipTask(c *gin.Context) {
	var req dto.GetClipTaskReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "Invalid parameters", err))
		return
	}

	data, err := h.Service.GetClipTask(req)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

func (h *Handler) GetTaskHistory(c *gin.Context) {
	data, err := h.Service.GetTaskHistory(200)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	taskId := c.Param("taskId")
	if taskId == "" {
		response.Error(c, apperrors.CodeInvalidParams, "taskId is required")
		return
	}

	if err := h.Service.DeleteTask(taskId); err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, nil)
}

// RetryTask resubmits a failed task's source for another run, through the
// queue when Redis is configured and the in-process runner otherwise.
// The rerun gets a fresh task id; the failed record stays for history.
func (h *Handler) RetryTask(c *gin.Context) {
	taskId := c.Param("taskId")
	if taskId == "" {
		response.Error(c, apperrors.CodeInvalidParams, "taskId is required")
		return
	}

	task, err := storage.GetTask(taskId)
	if err != nil || task == nil {
		response.Error(c, apperrors.CodeNotFound, "Task not found")
		return
	}
	if task.Status != types.ClipTaskStatusFailed {
		response.Error(c, apperrors.CodeInvalidParams, "only failed tasks can be retried")
		return
	}

	if h.Queue != nil {
		err = h.Queue.EnqueueClipTask(queue.ClipTaskPayload{
			TaskID:    task.TaskId,
			FilePath:  task.VideoSrc,
			ProjectID: task.ProjectId,
			ProfileID: task.ProfileId,
		})
	} else {
		err = h.Runner.SubmitClipTask(taskrunner.ClipTaskPayload{
			TaskID:    task.TaskId,
			FilePath:  task.VideoSrc,
			ProjectID: task.ProjectId,
			ProfileID: task.ProfileId,
		})
	}
	if err != nil {
		log.GetLogger().Error("RetryTask submit err", zap.String("taskId", taskId), zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeUnknown, "could not queue retry", err))
		return
	}
	response.Success(c, nil)
}

// UploadFile stores uploaded media under the work directory and returns
// "local:" paths suitable for StartClipTask.
func (h *Handler) UploadFile(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, apperrors.CodeInvalidParams, "could not read multipart form")
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		response.Error(c, apperrors.CodeInvalidParams, "no file uploaded")
		return
	}

	uploadDir := appdirs.UploadRoot(config.Conf.App.WorkDir)
	if err = os.MkdirAll(uploadDir, 0o755); err != nil {
		log.GetLogger().Error("UploadFile MkdirAll err", zap.Error(err))
		response.Error(c, apperrors.CodeUnknown, "could not create upload directory")
		return
	}

	var savedFiles []string
	for _, file := range files {
		savePath := filepath.Join(uploadDir, util.SanitizePathName(file.Filename))
		if err = c.SaveUploadedFile(file, savePath); err != nil {
			log.GetLogger().Error("UploadFile save err", zap.String("file", file.Filename), zap.Error(err))
			response.Error(c, apperrors.CodeUnknown, "failed to save file: "+file.Filename)
			return
		}
		savedFiles = append(savedFiles, "local:"+savePath)
	}

	response.Success(c, gin.H{"file_path": savedFiles})
}
