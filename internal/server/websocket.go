package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/droneforge/internal/core/observability/log"
)

const (
	sendBufferSize = 256
	writeWait      = 10 * time.Second
)

type client struct {
	id        string
	conn      *websocket.Conn
	send      chan Message
	closeOnce sync.Once
	done      chan struct{}
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Message, sendBufferSize),
		done: make(chan struct{}),
	}
}

// enqueue never blocks. It reports false when the client is gone or full.
func (c *client) enqueue(msg Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *client) writePump(logger log.Log) {
	defer c.close()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				logger.Debug("Write failed", log.String("client_id", c.id), log.Error(err))
				return
			}
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.closed.Load() {
		http.Error(w, ErrServerClosed.Error(), http.StatusServiceUnavailable)
		return
	}
	if err := s.authorize(r); err != nil {
		s.logger.Warn("Rejected connection", log.String("remote_addr", r.RemoteAddr), log.Error(err))
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Websocket upgrade failed", log.Error(err))
		return
	}

	room := s.Room(r.URL.Query().Get("room"))
	c := newClient(conn)
	clientLogger := room.logger.With(log.String("client_id", c.id))

	room.join(c)
	defer room.leave(c)
	defer c.close()

	go c.writePump(clientLogger)

	initial := room.builder.View()
	c.enqueue(Message{Type: MessageState, State: &initial})

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				clientLogger.Warn("Connection closed unexpectedly", log.Error(err))
			}
			return
		}

		id, err := dispatch(room.builder, s.projector, cmd)
		if err != nil {
			c.enqueue(Message{Type: MessageRejected, Seq: cmd.Seq, Op: cmd.Op, Error: err.Error()})
			continue
		}
		c.enqueue(Message{Type: MessageAck, Seq: cmd.Seq, Op: cmd.Op, PartID: id})
	}
}
