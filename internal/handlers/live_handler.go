package handlers

import (
	"net/http"
	"time"

	"github.com/SAP-F-2025/quizhub-practice/internal/models"
	"github.com/SAP-F-2025/quizhub-practice/internal/services"
	"github.com/SAP-F-2025/quizhub-practice/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const liveWriteWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// LiveUpdate is pushed to the client on every interval
type LiveUpdate struct {
	SessionID      string               `json:"session_id"`
	Status         models.SessionStatus `json:"status"`
	ElapsedSeconds int                  `json:"elapsed_seconds"`
	Progress       models.Progress      `json:"progress"`
}

// LiveHandler streams the timer and progress of a session over a websocket
type LiveHandler struct {
	BaseHandler
	sessions *services.SessionManager
	interval time.Duration
}

func NewLiveHandler(sessions *services.SessionManager, interval time.Duration, logger utils.Logger) *LiveHandler {
	if interval <= 0 {
		interval = time.Second
	}
	return &LiveHandler{
		BaseHandler: NewBaseHandler(logger),
		sessions:    sessions,
		interval:    interval,
	}
}

// Stream upgrades the request and pushes a LiveUpdate every interval until
// the client disconnects or the session ends
// @Router /sessions/{id}/live [get]
func (h *LiveHandler) Stream(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	session, err := h.sessions.Get(getUserID(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.LogError(c, err, "Failed to upgrade websocket", "session_id", id)
		return
	}
	defer conn.Close()

	// Drain client frames so close messages are noticed
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		update := LiveUpdate{
			SessionID:      session.ID(),
			Status:         session.Status(),
			ElapsedSeconds: session.Elapsed(),
			Progress:       session.Progress(),
		}

		_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
		if err := conn.WriteJSON(update); err != nil {
			h.LogDebug(c, "Live stream write failed", "session_id", id, "error", err)
			return
		}
		if update.Status == models.SessionIdle {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
				time.Now().Add(liveWriteWait))
			return
		}

		select {
		case <-ticker.C:
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
