package handler

import (
	"clipgen/config"
	"clipgen/internal/queue"
	"clipgen/internal/service"
	"clipgen/internal/taskrunner"
)

type Handler struct {
	Service *service.Service
	Runner  *taskrunner.Runner
	Queue   *queue.Queue
}

// NewHandler wires the service with a submission backend. When Redis is
// configured, resubmissions go through the asynq queue so a worker picks
// them up; otherwise the in-process runner handles them.
func NewHandler() *Handler {
	svc := service.NewService()
	h := &Handler{
		Service: svc,
		Runner:  taskrunner.New(svc, taskrunner.DefaultConfig()),
	}
	if addr := config.Conf.Queue.RedisAddr; addr != "" {
		h.Queue = queue.NewQueue(queue.QueueConfig{
			RedisAddr:     addr,
			RedisPassword: config.Conf.Queue.RedisPassword,
			RedisDB:       config.Conf.Queue.RedisDB,
			Concurrency:   config.Conf.Queue.Concurrency,
		})
	}
	return h
}
