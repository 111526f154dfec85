// Package taskrunner executes clip tasks with in-memory workers. It is the
// fallback when Redis is not configured and the asynq queue is unavailable.
package taskrunner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"clipgen/internal/dto"
	"clipgen/internal/service"
	"clipgen/internal/storage"
	"clipgen/internal/types"
	"clipgen/log"
)

const (
	defaultQueueSize   = 128
	defaultConcurrency = 2
)

var (
	ErrRunnerStopped = errors.New("task runner stopped")
	ErrQueueFull     = errors.New("task queue is full")
)

// Config controls in-process task runner behavior.
type Config struct {
	QueueSize   int
	Concurrency int
}

// DefaultConfig returns a single-machine-friendly default config.
func DefaultConfig() Config {
	return Config{
		QueueSize:   defaultQueueSize,
		Concurrency: defaultConcurrency,
	}
}

// ClipTaskPayload contains clip task enqueue data.
type ClipTaskPayload struct {
	TaskID        string  `json:"task_id"`
	FilePath      string  `json:"file_path"`
	ProjectID     string  `json:"project_id,omitempty"`
	ProfileID     string  `json:"profile_id,omitempty"`
	MinWords      int     `json:"min_words,omitempty"`
	MaxClips      int     `json:"max_clips,omitempty"`
	WindowSeconds float64 `json:"window_seconds,omitempty"`
}

// Runner executes queued tasks with in-memory workers.
type Runner struct {
	service *service.Service
	config  Config

	queue  chan ClipTaskPayload
	ctx    context.Context
	cancel context.CancelFunc

	workerWg sync.WaitGroup
	closed   atomic.Bool
}

// New creates and starts a task runner.
func New(svc *service.Service, cfg Config) *Runner {
	if svc == nil {
		svc = service.NewService()
	}

	cfg = normalizeConfig(cfg)
	ctx, cancel := context.WithCancel(context.Background())

	runner := &Runner{
		service: svc,
		config:  cfg,
		queue:   make(chan ClipTaskPayload, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < cfg.Concurrency; i++ {
		runner.workerWg.Add(1)
		go runner.worker(i + 1)
	}

	return runner
}

func normalizeConfig(cfg Config) Config {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return cfg
}

// SubmitClipTask queues a clip generation job.
func (r *Runner) SubmitClipTask(payload ClipTaskPayload) error {
	if payload.FilePath == "" {
		return errors.New("clip task file path is required")
	}

	if r.closed.Load() {
		return ErrRunnerStopped
	}

	select {
	case <-r.ctx.Done():
		return ErrRunnerStopped
	case r.queue <- payload:
		log.GetLogger().Info("[TaskRunner] task submitted",
			zap.String("task_id", payload.TaskID),
			zap.String("file_path", payload.FilePath))
		return nil
	default:
		return ErrQueueFull
	}
}

func (r *Runner) worker(workerID int) {
	defer r.workerWg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		select {
		case <-r.ctx.Done():
			return
		case payload := <-r.queue:
			r.processClipTask(workerID, payload)
		}
	}
}

func (r *Runner) processClipTask(workerID int, payload ClipTaskPayload) {
	req := dto.StartClipTaskReq{
		FilePath:      payload.FilePath,
		ProjectId:     payload.ProjectID,
		ProfileId:     payload.ProfileID,
		MinWords:      payload.MinWords,
		MaxClips:      payload.MaxClips,
		WindowSeconds: payload.WindowSeconds,
	}

	if _, err := r.service.StartClipTask(req); err != nil {
		log.GetLogger().Error("[TaskRunner] task failed",
			zap.Int("worker_id", workerID),
			zap.String("task_id", payload.TaskID),
			zap.Error(err))
		r.markClipTaskFailed(payload.TaskID, err)
		return
	}

	log.GetLogger().Info("[TaskRunner] task accepted",
		zap.Int("worker_id", workerID),
		zap.String("task_id", payload.TaskID))
}

func (r *Runner) markClipTaskFailed(taskID string, taskErr error) {
	if taskID == "" {
		return
	}

	task, err := storage.GetTask(taskID)
	if err != nil || task == nil {
		return
	}

	task.Status = types.ClipTaskStatusFailed
	task.FailReason = taskErr.Error()
	task.StatusMsg = "Failed"
	_ = storage.SaveTask(task)
}

// Close stops workers and rejects new tasks.
func (r *Runner) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}

	r.cancel()
	r.workerWg.Wait()
}

// Pending returns the number of queued tasks waiting for workers.
func (r *Runner) Pending() int {
	return len(r.queue)
}
