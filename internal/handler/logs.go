package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"clipgen/internal/response"
	"clipgen/log"
)

const defaultLogLines = 100

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the server binds to localhost; origin checks add nothing here
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GetLogs returns the most recent log lines from the in-memory ring buffer.
func (h *Handler) GetLogs(c *gin.Context) {
	n := defaultLogLines
	if raw := c.Query("lines"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			n = parsed
		}
	}
	response.Success(c, gin.H{"lines": log.RecentLines(n)})
}

// StreamLogs upgrades to a websocket and pushes log lines as they are written.
func (h *Handler) StreamLogs(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.GetLogger().Error("StreamLogs upgrade err", zap.Error(err))
		return
	}
	defer conn.Close()

	lines := log.SubscribeLines()
	defer log.UnsubscribeLines(lines)

	// drain client control frames so pings and close are processed
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for line := range lines {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			return
		}
	}
}
