package router

import (
	"github.com/gin-gonic/gin"

	"clipgen/internal/handler"
)

func SetupRouter(r *gin.Engine) {
	api := r.Group("/api")

	hdl := handler.NewHandler()
	{
		api.POST("/clip/task", hdl.StartClipTask)
		api.GET("/clip/task", hdl.GetClipTask)
		api.GET("/clip/history", hdl.GetTaskHistory)
		api.DELETE("/clip/task/:taskId", hdl.DeleteTask)
		api.POST("/clip/task/:taskId/retry", hdl.RetryTask)
		api.POST("/file", hdl.UploadFile)
		api.GET("/logs", hdl.GetLogs)
		api.GET("/logs/stream", hdl.StreamLogs)
	}
}
