package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"clipgen/config"
	"clipgen/internal/dto"
	"clipgen/internal/types"
	"clipgen/log"
	apperrors "clipgen/pkg/errors"
	"clipgen/pkg/util"
)

const signedDownloadExpirySeconds = 3600

// acquireInput resolves the request's file reference to a local file and
// records it in the step param. A "local:" prefix points at a file already on
// this machine; an http(s) URL is fetched directly; anything else is an object
// key in the uploads bucket, fetched through a signed URL when the file is
// profile-scoped.
func (s *Service) acquireInput(ctx context.Context, req dto.StartClipTaskReq, stepParam *types.ClipTaskStepParam) error {
	if strings.HasPrefix(req.FilePath, "local:") {
		localPath := strings.TrimPrefix(req.FilePath, "local:")
		if _, err := os.Stat(localPath); err != nil {
			return apperrors.Wrap(apperrors.CodeMediaUnreadable, "local input file missing", err)
		}
		stepParam.InputFilePath = localPath
		return nil
	}

	destPath := filepath.Join(stepParam.TaskBasePath, "input"+filepath.Ext(req.FilePath))

	downloadURL := req.FilePath
	if !strings.HasPrefix(req.FilePath, "http://") && !strings.HasPrefix(req.FilePath, "https://") {
		bucket := config.Conf.Supabase.UploadBucket
		if req.ProfileId != "" {
			signed, err := s.Store.CreateSignedDownloadURL(ctx, bucket, req.FilePath, signedDownloadExpirySeconds)
			if err != nil {
				return err
			}
			downloadURL = signed
		} else {
			downloadURL = fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
				strings.TrimSuffix(config.Conf.Supabase.Url, "/"), bucket, req.FilePath)
		}
	}

	log.GetLogger().Info("downloading input media",
		zap.String("taskId", stepParam.TaskId), zap.String("source", req.FilePath))
	if err := s.downloadFile(ctx, downloadURL, destPath); err != nil {
		return apperrors.Wrap(apperrors.CodeMediaUnreadable, "download input media", err)
	}
	stepParam.InputFilePath = destPath
	return nil
}

// logInputProperties records what the pipeline is working with. Probing is
// best effort; the render stage handles any resolution.
func logInputProperties(taskId, filePath string) {
	width, height, err := util.ProbeResolution(filePath)
	if err != nil {
		return
	}
	fields := []zap.Field{
		zap.String("taskId", taskId),
		zap.Int("width", width),
		zap.Int("height", height),
	}
	if fps, err := util.ProbeFrameRate(filePath); err == nil {
		fields = append(fields, zap.Float64("fps", fps))
	}
	log.GetLogger().Info("input media properties", fields...)
}

func downloadToFile(ctx context.Context, url, destPath string) error {
	client := resty.New().SetTimeout(30 * time.Minute)
	res, err := client.R().SetContext(ctx).SetOutput(destPath).Get(url)
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("download returned status %d", res.StatusCode())
	}
	return nil
}
