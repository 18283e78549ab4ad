package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"habitsAPI/internal/logger"
	"habitsAPI/internal/progress"
	"habitsAPI/internal/store"
	"habitsAPI/middleware"
	"habitsAPI/services"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type LiveHandler struct {
	progressService *services.ProgressService
	habitService    *services.HabitService
	defaultLoc      *time.Location
}

func NewLiveHandler(progressService *services.ProgressService, habitService *services.HabitService, defaultLoc *time.Location) *LiveHandler {
	return &LiveHandler{
		progressService: progressService,
		habitService:    habitService,
		defaultLoc:      defaultLoc,
	}
}

type liveMessage struct {
	Type     string             `json:"type"`
	Progress *progress.Progress `json:"progress,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// Live streams progress for one habit over a websocket. Every change to the
// habit's logs in the current period pushes a fresh progress message.
func (h *LiveHandler) Live(w http.ResponseWriter, r *http.Request) {
	uid := middleware.GetUserID(r.Context())
	habitID := mux.Vars(r)["id"]
	loc := requestLocation(r, h.defaultLoc)
	if tz := r.URL.Query().Get("tz"); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	// Check ownership before upgrading so the client gets a proper status.
	checkCtx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	_, err := h.habitService.GetHabit(checkCtx, uid, habitID)
	cancel()
	if err != nil {
		respondWithServiceError(w, r, "open live feed", err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("could not upgrade connection", "error", err)
		return
	}

	ctx, stop := context.WithCancel(context.Background())
	send := make(chan []byte, 16)

	go h.readPump(conn, stop)
	go h.writePump(conn, send)

	err = h.progressService.Watch(ctx, uid, habitID, loc, func(u progress.Update) {
		msg := liveMessage{Type: "progress", Progress: u.Progress}
		if u.Err != nil {
			msg = liveMessage{Type: "error", Error: "live updates unavailable"}
		}
		data, err := json.Marshal(msg)
		if err != nil {
			return
		}
		select {
		case send <- data:
		case <-ctx.Done():
		}
	})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logger.Warn("live feed ended", "habit_id", habitID, "error", err)
	}
	stop()
	close(send)
}

// readPump discards client frames and cancels the feed when the socket
// closes or stops answering pings.
func (h *LiveHandler) readPump(conn *websocket.Conn, stop context.CancelFunc) {
	defer stop()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("live socket closed", "error", err)
			}
			return
		}
	}
}

func (h *LiveHandler) writePump(conn *websocket.Conn, send <-chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
