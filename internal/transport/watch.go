package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rpggio/groupbite/internal/domain/match"
	"github.com/rpggio/groupbite/internal/domain/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// EventSnapshot is the first message on a watch: the session as it is now.
const EventSnapshot session.EventType = "snapshot"

// Subscriber registers for a session's events.
type Subscriber interface {
	Subscribe(sessionID string) (<-chan session.Event, func())
}

// SessionReader loads a session with its votes.
type SessionReader interface {
	GetSession(ctx context.Context, sessionID string) (*session.Session, error)
}

// WatchHandler streams a session's events over a websocket until the
// session ends or the client disconnects.
type WatchHandler struct {
	sessions SessionReader
	events   Subscriber
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWatchHandler creates a WatchHandler. With allowedOrigins empty only
// same-origin (or origin-less) upgrades are accepted.
func NewWatchHandler(sessions SessionReader, events Subscriber, allowedOrigins []string, logger *slog.Logger) *WatchHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &WatchHandler{
		sessions: sessions,
		events:   events,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if len(allowedOrigins) > 0 {
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, origin)
		}
	}
	return h
}

func (h *WatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	// Subscribe before loading so no change between the snapshot and the
	// first event is lost.
	events, unsubscribe := h.events.Subscribe(sessionID)
	defer unsubscribe()

	sess, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("watch: loading session", "session_id", sessionID, "error", err)
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("watch: upgrade failed", "session_id", sessionID, "error", err)
		return
	}
	defer conn.Close()

	memberID, _ := MemberFromContext(r.Context())
	h.logger.Debug("watch opened", "session_id", sessionID, "member_id", memberID)

	snapshot := session.Event{
		Type:      EventSnapshot,
		SessionID: sess.ID,
		GroupID:   sess.GroupID,
		Session:   sess,
		Matches:   match.Resolve(match.SessionSnapshot{Candidates: sess.Candidates, Votes: sess.Votes}),
		At:        time.Now().UTC(),
	}
	if err := h.write(conn, snapshot); err != nil {
		return
	}
	if !sess.Active {
		h.close(conn, "session ended")
		return
	}

	closed := make(chan struct{})
	go h.readPump(conn, closed)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := h.write(conn, ev); err != nil {
				return
			}
			if ev.Type == session.EventConcluded || ev.Type == session.EventSuperseded {
				h.close(conn, "session ended")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// readPump discards client messages and signals when the peer goes away.
func (h *WatchHandler) readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("watch: unexpected close", "error", err)
			}
			return
		}
	}
}

func (h *WatchHandler) write(conn *websocket.Conn, ev session.Event) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(ev); err != nil {
		h.logger.Debug("watch: write failed", "session_id", ev.SessionID, "error", err)
		return err
	}
	return nil
}

func (h *WatchHandler) close(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
