package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"clipgen/config"
	"clipgen/internal/dto"
	"clipgen/internal/mocks"
	"clipgen/internal/storage"
	"clipgen/internal/types"
	"clipgen/log"
	apperrors "clipgen/pkg/errors"
)

type testEnv struct {
	service     *Service
	transcriber *mocks.MockTranscriber
	segmenter   *mocks.MockSceneSegmenter
	renderer    *mocks.MockClipRenderer
	store       *mocks.MockObjectStore
	completer   *mocks.MockChatCompleter
}

func newTestEnv(t *testing.T, duration float64) *testEnv {
	t.Helper()
	t.Setenv("CLIPGEN_LOG_DIR", t.TempDir())
	log.InitLogger()
	storage.InitDB(t.TempDir())
	t.Cleanup(func() { storage.DB = nil })

	config.Conf = config.Config{
		App: config.AppConfig{WorkDir: t.TempDir()},
		Supabase: config.SupabaseConfig{
			Url:              "http://supabase.test",
			UploadBucket:     "uploads",
			ClipBucket:       "clips",
			ThumbnailBucket:  "thumbnails",
			TranscriptBucket: "transcripts",
			ProjectTable:     "projects",
			ClipTable:        "clips",
		},
	}

	env := &testEnv{
		transcriber: &mocks.MockTranscriber{},
		segmenter:   &mocks.MockSceneSegmenter{},
		renderer:    &mocks.MockClipRenderer{},
		store:       &mocks.MockObjectStore{},
		completer:   &mocks.MockChatCompleter{},
	}
	env.service = &Service{
		Transcriber:   env.transcriber,
		Segmenter:     env.segmenter,
		Renderer:      env.renderer,
		Store:         env.store,
		ChatCompleter: env.completer,

		probeDuration:     func(string) (float64, error) { return duration, nil },
		extractAudioSlice: func(string, float64, float64, string) error { return nil },
		downloadFile:      func(context.Context, string, string) error { return nil },
	}
	return env
}

func newStepParam(t *testing.T, req dto.StartClipTaskReq) *types.ClipTaskStepParam {
	t.Helper()
	taskBasePath := filepath.Join(config.Conf.App.WorkDir, "tasks", "task-1")
	require.NoError(t, os.MkdirAll(filepath.Join(taskBasePath, "output"), 0o755))

	taskPtr := &types.ClipTask{
		TaskId:    "task-1",
		ProjectId: "proj-1",
		VideoSrc:  req.FilePath,
		Status:    types.ClipTaskStatusProcessing,
	}
	require.NoError(t, storage.SaveTask(taskPtr))

	return &types.ClipTaskStepParam{
		TaskId:        "task-1",
		TaskPtr:       taskPtr,
		TaskBasePath:  taskBasePath,
		ProjectId:     "proj-1",
		WindowSeconds: 30,
		MinWords:      20,
		MaxClips:      3,
	}
}

func localInputReq(t *testing.T) dto.StartClipTaskReq {
	t.Helper()
	inputPath := filepath.Join(t.TempDir(), "input.mp4")
	require.NoError(t, os.WriteFile(inputPath, []byte("video"), 0o644))
	return dto.StartClipTaskReq{FilePath: "local:" + inputPath}
}

func renderedArtifact(t *testing.T, rank int, start, end float64) *types.RenderedArtifact {
	t.Helper()
	dir := t.TempDir()
	clipPath := filepath.Join(dir, "clip.mp4")
	thumbPath := filepath.Join(dir, "thumb.jpg")
	require.NoError(t, os.WriteFile(clipPath, []byte("clip"), 0o644))
	require.NoError(t, os.WriteFile(thumbPath, []byte("thumb"), 0o644))
	_ = rank
	return &types.RenderedArtifact{VideoPath: clipPath, ThumbnailPath: thumbPath, Start: start, End: end}
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestRunPipelineEndToEnd(t *testing.T) {
	env := newTestEnv(t, 90)
	req := localInputReq(t)
	stepParam := newStepParam(t, req)

	// three 30s windows; middle one is silent, timestamps are window-local
	env.transcriber.On("Transcribe", mock.Anything, mock.Anything).
		Return([]types.TranscriptEntry{
			{Start: 1, End: 5, Text: words(12)},
			{Start: 6, End: 14, Text: words(15)},
		}, nil).Once()
	env.transcriber.On("Transcribe", mock.Anything, mock.Anything).
		Return([]types.TranscriptEntry{}, nil).Once()
	env.transcriber.On("Transcribe", mock.Anything, mock.Anything).
		Return([]types.TranscriptEntry{
			{Start: 2, End: 10, Text: words(8)},
			{Start: 11, End: 20, Text: words(9)},
		}, nil).Once()

	env.segmenter.On("DetectScenes", mock.Anything, mock.Anything).
		Return([]types.Scene{{Start: 0, End: 30}, {Start: 30, End: 60}, {Start: 60, End: 90}}, nil)

	artifact := renderedArtifact(t, 1, 0, 30)
	env.renderer.On("Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(artifact, nil).Once()

	env.store.On("CreateSignedUploadURL", mock.Anything, mock.Anything, mock.Anything).Return("tok", nil)
	env.store.On("UploadToSignedURL", mock.Anything, mock.Anything, mock.Anything, "tok", mock.Anything, mock.Anything).Return(nil)
	env.store.On("InsertRow", mock.Anything, "clips", mock.Anything).Return("clip-row-1", nil)
	env.store.On("UpdateRow", mock.Anything, "projects", "proj-1", mock.Anything).Return(nil)
	env.completer.On("ChatCompletion", mock.Anything).Return("Great Title", nil)

	env.service.RunPipeline(context.Background(), req, stepParam)

	task, err := storage.GetTask("task-1")
	require.NoError(t, err)
	assert.Equal(t, types.ClipTaskStatusSuccess, task.Status)
	assert.Equal(t, 1, task.ClipCount)

	// the stored result is the aggregate envelope, not a bare clip list
	var result types.PipelineResult
	require.NoError(t, json.Unmarshal([]byte(task.ResultJson), &result))
	assert.Equal(t, types.PipelineStatusReady, result.Status)
	require.Len(t, result.Clips, 1)

	polled, err := env.service.GetClipTask(dto.GetClipTaskReq{TaskId: "task-1"})
	require.NoError(t, err)
	require.Len(t, polled.Clips, 1)
	assert.Equal(t, result.Clips[0].FileURL, polled.Clips[0].FileURL)

	// only the first scene reaches the word threshold after re-basing
	require.Len(t, stepParam.ClipMetas, 1)
	meta := stepParam.ClipMetas[0]
	assert.Equal(t, "proj-1", meta.ProjectID)
	assert.Equal(t, float64(0), meta.Start)
	assert.Equal(t, float64(30), meta.End)
	assert.Equal(t, "Great Title", meta.Title)
	assert.Equal(t, 27, len(strings.Fields(meta.Transcript)))

	// local artifacts are removed once the upload is confirmed
	assert.NoFileExists(t, artifact.VideoPath)
	assert.NoFileExists(t, artifact.ThumbnailPath)

	// the third-window entries were re-based past their window offset
	require.NotEmpty(t, stepParam.Transcript)
	last := stepParam.Transcript[len(stepParam.Transcript)-1]
	assert.Equal(t, 71.0, last.Start)
	assert.Equal(t, 80.0, last.End)

	env.store.AssertCalled(t, "UpdateRow", mock.Anything, "projects", "proj-1",
		map[string]any{"status": types.ProjectStatusCompleted})
}

func TestRunPipelineNoEligibleContentFailsProject(t *testing.T) {
	env := newTestEnv(t, 60)
	req := localInputReq(t)
	stepParam := newStepParam(t, req)

	env.transcriber.On("Transcribe", mock.Anything, mock.Anything).
		Return([]types.TranscriptEntry{{Start: 1, End: 2, Text: words(3)}}, nil)
	env.segmenter.On("DetectScenes", mock.Anything, mock.Anything).
		Return([]types.Scene{{Start: 0, End: 60}}, nil)
	env.store.On("CreateSignedUploadURL", mock.Anything, mock.Anything, mock.Anything).Return("tok", nil)
	env.store.On("UploadToSignedURL", mock.Anything, mock.Anything, mock.Anything, "tok", mock.Anything, mock.Anything).Return(nil)
	env.store.On("UpdateRow", mock.Anything, "projects", "proj-1", mock.Anything).Return(nil)

	env.service.RunPipeline(context.Background(), req, stepParam)

	task, err := storage.GetTask("task-1")
	require.NoError(t, err)
	assert.Equal(t, types.ClipTaskStatusFailed, task.Status)
	assert.Equal(t, apperrors.ErrNoEligibleContent.Message, task.FailReason)

	env.store.AssertCalled(t, "UpdateRow", mock.Anything, "projects", "proj-1",
		map[string]any{"status": types.ProjectStatusFailed})
	env.renderer.AssertNotCalled(t, "Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunPipelineRenderFailureIsIsolated(t *testing.T) {
	env := newTestEnv(t, 60)
	req := localInputReq(t)
	stepParam := newStepParam(t, req)

	env.transcriber.On("Transcribe", mock.Anything, mock.Anything).
		Return([]types.TranscriptEntry{
			{Start: 5, End: 10, Text: words(25)},
			{Start: 32, End: 40, Text: words(25)},
		}, nil).Once()
	env.transcriber.On("Transcribe", mock.Anything, mock.Anything).
		Return([]types.TranscriptEntry{}, nil)
	env.segmenter.On("DetectScenes", mock.Anything, mock.Anything).
		Return([]types.Scene{{Start: 0, End: 30}, {Start: 30, End: 60}}, nil)

	env.renderer.On("Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("encoder crashed")).Once()
	artifact := renderedArtifact(t, 2, 30, 60)
	env.renderer.On("Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(artifact, nil).Once()

	env.store.On("CreateSignedUploadURL", mock.Anything, mock.Anything, mock.Anything).Return("tok", nil)
	env.store.On("UploadToSignedURL", mock.Anything, mock.Anything, mock.Anything, "tok", mock.Anything, mock.Anything).Return(nil)
	env.store.On("InsertRow", mock.Anything, "clips", mock.Anything).Return("clip-row-1", nil)
	env.store.On("UpdateRow", mock.Anything, "projects", "proj-1", mock.Anything).Return(nil)
	env.completer.On("ChatCompletion", mock.Anything).Return("Title", nil)

	env.service.RunPipeline(context.Background(), req, stepParam)

	task, err := storage.GetTask("task-1")
	require.NoError(t, err)
	assert.Equal(t, types.ClipTaskStatusSuccess, task.Status)
	assert.Equal(t, 1, task.ClipCount)
	require.Len(t, stepParam.ClipMetas, 1)
	assert.Equal(t, float64(30), stepParam.ClipMetas[0].Start)
}

func TestRunPipelineAllRendersFailed(t *testing.T) {
	env := newTestEnv(t, 60)
	req := localInputReq(t)
	stepParam := newStepParam(t, req)

	env.transcriber.On("Transcribe", mock.Anything, mock.Anything).
		Return([]types.TranscriptEntry{{Start: 5, End: 10, Text: words(25)}}, nil).Once()
	env.transcriber.On("Transcribe", mock.Anything, mock.Anything).
		Return([]types.TranscriptEntry{}, nil)
	env.segmenter.On("DetectScenes", mock.Anything, mock.Anything).
		Return([]types.Scene{{Start: 0, End: 30}, {Start: 30, End: 60}}, nil)
	env.renderer.On("Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("encoder crashed"))
	env.store.On("CreateSignedUploadURL", mock.Anything, mock.Anything, mock.Anything).Return("tok", nil)
	env.store.On("UploadToSignedURL", mock.Anything, mock.Anything, mock.Anything, "tok", mock.Anything, mock.Anything).Return(nil)
	env.store.On("UpdateRow", mock.Anything, "projects", "proj-1", mock.Anything).Return(nil)

	env.service.RunPipeline(context.Background(), req, stepParam)

	task, err := storage.GetTask("task-1")
	require.NoError(t, err)
	assert.Equal(t, types.ClipTaskStatusFailed, task.Status)
	assert.Equal(t, apperrors.ErrAllClipsFailed.Message, task.FailReason)
}

func TestRunPipelineTranscriptionWindowFailureIsIsolated(t *testing.T) {
	env := newTestEnv(t, 90)
	req := localInputReq(t)
	stepParam := newStepParam(t, req)

	// middle window errors; the surviving windows still carry the run
	env.transcriber.On("Transcribe", mock.Anything, mock.Anything).
		Return([]types.TranscriptEntry{{Start: 1, End: 5, Text: words(25)}}, nil).Once()
	env.transcriber.On("Transcribe", mock.Anything, mock.Anything).
		Return(nil, errors.New("asr timeout")).Once()
	env.transcriber.On("Transcribe", mock.Anything, mock.Anything).
		Return([]types.TranscriptEntry{{Start: 3, End: 8, Text: words(5)}}, nil).Once()

	env.segmenter.On("DetectScenes", mock.Anything, mock.Anything).
		Return([]types.Scene{{Start: 0, End: 30}, {Start: 30, End: 60}, {Start: 60, End: 90}}, nil)

	artifact := renderedArtifact(t, 1, 0, 30)
	env.renderer.On("Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(artifact, nil).Once()

	env.store.On("CreateSignedUploadURL", mock.Anything, mock.Anything, mock.Anything).Return("tok", nil)
	env.store.On("UploadToSignedURL", mock.Anything, mock.Anything, mock.Anything, "tok", mock.Anything, mock.Anything).Return(nil)
	env.store.On("InsertRow", mock.Anything, "clips", mock.Anything).Return("clip-row-1", nil)
	env.store.On("UpdateRow", mock.Anything, "projects", "proj-1", mock.Anything).Return(nil)
	env.completer.On("ChatCompletion", mock.Anything).Return("Title", nil)

	env.service.RunPipeline(context.Background(), req, stepParam)

	task, err := storage.GetTask("task-1")
	require.NoError(t, err)
	assert.Equal(t, types.ClipTaskStatusSuccess, task.Status)
	assert.Equal(t, 1, task.ClipCount)

	// both surviving windows are present, the later one re-based past its offset
	require.Len(t, stepParam.Transcript, 2)
	assert.Equal(t, 1.0, stepParam.Transcript[0].Start)
	assert.Equal(t, 63.0, stepParam.Transcript[1].Start)
	assert.Equal(t, 68.0, stepParam.Transcript[1].End)

	env.transcriber.AssertNumberOfCalls(t, "Transcribe", 3)
}

func TestRunPipelineTranscriptUploadFailureDoesNotFailTask(t *testing.T) {
	env := newTestEnv(t, 60)
	req := localInputReq(t)
	stepParam := newStepParam(t, req)

	env.transcriber.On("Transcribe", mock.Anything, mock.Anything).
		Return([]types.TranscriptEntry{{Start: 5, End: 10, Text: words(25)}}, nil).Once()
	env.transcriber.On("Transcribe", mock.Anything, mock.Anything).
		Return([]types.TranscriptEntry{}, nil)
	env.segmenter.On("DetectScenes", mock.Anything, mock.Anything).
		Return([]types.Scene{{Start: 0, End: 60}}, nil)

	artifact := renderedArtifact(t, 1, 0, 60)
	env.renderer.On("Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(artifact, nil).Once()

	// only the transcript bucket is down; clip uploads still work
	env.store.On("CreateSignedUploadURL", mock.Anything, "transcripts", mock.Anything).
		Return("", errors.New("storage down"))
	env.store.On("CreateSignedUploadURL", mock.Anything, "clips", mock.Anything).Return("tok", nil)
	env.store.On("CreateSignedUploadURL", mock.Anything, "thumbnails", mock.Anything).Return("tok", nil)
	env.store.On("UploadToSignedURL", mock.Anything, mock.Anything, mock.Anything, "tok", mock.Anything, mock.Anything).Return(nil)
	env.store.On("InsertRow", mock.Anything, "clips", mock.Anything).Return("clip-row-1", nil)
	env.store.On("UpdateRow", mock.Anything, "projects", "proj-1", mock.Anything).Return(nil)
	env.completer.On("ChatCompletion", mock.Anything).Return("Title", nil)

	env.service.RunPipeline(context.Background(), req, stepParam)

	task, err := storage.GetTask("task-1")
	require.NoError(t, err)
	assert.Equal(t, types.ClipTaskStatusSuccess, task.Status)

	// the local srt survived, the object mirror did not
	assert.NotEmpty(t, stepParam.SrtLocalPath)
	assert.Empty(t, stepParam.SrtObjectKey)

	env.store.AssertCalled(t, "UpdateRow", mock.Anything, "projects", "proj-1",
		map[string]any{"status": types.ProjectStatusCompleted})
}

func TestRunPipelineAllTranscriptionWindowsFailed(t *testing.T) {
	env := newTestEnv(t, 60)
	req := localInputReq(t)
	stepParam := newStepParam(t, req)

	env.transcriber.On("Transcribe", mock.Anything, mock.Anything).
		Return(nil, errors.New("asr unavailable"))
	env.segmenter.On("DetectScenes", mock.Anything, mock.Anything).
		Return([]types.Scene{{Start: 0, End: 60}}, nil)
	env.store.On("UpdateRow", mock.Anything, "projects", "proj-1", mock.Anything).Return(nil)

	env.service.RunPipeline(context.Background(), req, stepParam)

	task, err := storage.GetTask("task-1")
	require.NoError(t, err)
	assert.Equal(t, types.ClipTaskStatusFailed, task.Status)
}

func TestRunPipelineMissingLocalInput(t *testing.T) {
	env := newTestEnv(t, 60)
	req := dto.StartClipTaskReq{FilePath: "local:/nonexistent/input.mp4"}
	stepParam := newStepParam(t, req)

	env.store.On("UpdateRow", mock.Anything, "projects", "proj-1", mock.Anything).Return(nil)

	env.service.RunPipeline(context.Background(), req, stepParam)

	task, err := storage.GetTask("task-1")
	require.NoError(t, err)
	assert.Equal(t, types.ClipTaskStatusFailed, task.Status)
	env.transcriber.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)
}
