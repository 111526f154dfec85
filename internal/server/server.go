package server

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clipgen/config"
	"clipgen/internal/router"
	"clipgen/log"
)

// StartBackend runs the HTTP API. Blocks until the listener fails.
func StartBackend() error {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	router.SetupRouter(engine)

	addr := fmt.Sprintf("%s:%d", config.Conf.Server.Host, config.Conf.Server.Port)
	log.GetLogger().Info("backend server starting", zap.String("addr", addr))
	return engine.Run(addr)
}
