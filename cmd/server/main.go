package main

import (
	"os"

	"go.uber.org/zap"

	"clipgen/config"
	"clipgen/internal/deps"
	"clipgen/internal/queue"
	"clipgen/internal/server"
	"clipgen/internal/service"
	"clipgen/internal/storage"
	"clipgen/log"
)

func main() {
	if handled, code := handleCLIFlags(); handled {
		os.Exit(code)
	}

	log.InitLogger()
	defer log.GetLogger().Sync()

	created, err := config.LoadOrCreateConfig()
	if err != nil {
		log.GetLogger().Error("failed to load config", zap.Error(err))
		return
	}
	if created {
		log.GetLogger().Info("wrote default config file, fill in credentials before first task")
	}

	if err = config.CheckConfig(); err != nil {
		log.GetLogger().Error("invalid config", zap.Error(err))
		return
	}

	storage.InitDB(config.Conf.App.WorkDir)

	// tasks left in processing by a previous run can never finish
	if count, err := storage.MarkStaleTasks(); err != nil {
		log.GetLogger().Warn("failed to mark stale tasks", zap.Error(err))
	} else if count > 0 {
		log.GetLogger().Info("marked stale tasks as failed", zap.Int64("count", count))
	}

	if err = deps.CheckDependency(); err != nil {
		log.GetLogger().Error("dependency check failed", zap.Error(err))
		return
	}

	if addr := config.Conf.Queue.RedisAddr; addr != "" {
		q := queue.NewQueue(queue.QueueConfig{
			RedisAddr:     addr,
			RedisPassword: config.Conf.Queue.RedisPassword,
			RedisDB:       config.Conf.Queue.RedisDB,
			Concurrency:   config.Conf.Queue.Concurrency,
		})
		defer q.Close()
		go func() {
			if err := queue.StartWorker(q, service.NewService()); err != nil {
				log.GetLogger().Error("queue worker stopped", zap.Error(err))
			}
		}()
	}

	if err = server.StartBackend(); err != nil {
		log.GetLogger().Error("backend server failed", zap.Error(err))
		os.Exit(1)
	}
}
