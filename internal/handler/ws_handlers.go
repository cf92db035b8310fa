package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const wsWriteTimeout = 10 * time.Second

// wsUpgrader апгрейдит прогресс-эндпоинт до websocket.
// Origin проверяет CORS middleware на HTTP-уровне.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// generationProgressWS стримит снимки прогресса рана по websocket.
// Соединение закрывается после терминального снимка.
func (h *Handler) generationProgressWS(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	runID := c.Param("runId")

	updates, unsubscribe, err := h.orchestrator.Subscribe(runID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer unsubscribe()

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.String("run_id", runID), zap.Error(err))
		return
	}
	defer conn.Close()

	// Reader только для выявления закрытия соединения клиентом.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case progress, open := <-updates:
			if !open {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(progress); err != nil {
				h.logger.Debug("Websocket write failed", zap.String("run_id", runID), zap.Error(err))
				return
			}
			if progress.Stage.Terminal() {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(wsWriteTimeout))
				return
			}
		case <-clientGone:
			return
		}
	}
}
