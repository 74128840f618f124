package session

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/QuinntyneBrown/openmct/pkg/config"
	"github.com/QuinntyneBrown/openmct/pkg/stream"
	"github.com/QuinntyneBrown/openmct/pkg/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Allow same-origin requests, or requests with no Origin header
		// (direct connections from non-browser clients)
		return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
	},
	ReadBufferSize:  config.WSReadBufferSize,
	WriteBufferSize: config.WSWriteBufferSize,
}

// Frame is the wire envelope. Clients send subscribe, unsubscribe and
// keepalive frames; the server sends telemetryUpdate frames.
type Frame struct {
	Type      string           `json:"type"`
	Object    string           `json:"object,omitempty"`
	Timestamp *time.Time       `json:"timestamp,omitempty"`
	Value     *telemetry.Value `json:"value,omitempty"`
	Error     string           `json:"error,omitempty"`
}

const (
	frameSubscribe   = "subscribe"
	frameUnsubscribe = "unsubscribe"
	frameKeepalive   = "keepalive"
	frameUpdate      = "telemetryUpdate"
	frameError       = "error"
)

// HandleWebSocket upgrades the request to a websocket session. The read
// loop handles subscribe/unsubscribe/keepalive frames; a write pump
// forwards the session's delivery channel as telemetryUpdate frames. No
// subscription survives the connection: a reconnecting client gets a
// fresh session and re-subscribes.
func (m *Manager) HandleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		sess := m.Open()
		if err := sess.Activate(); err != nil {
			conn.Close()
			return
		}
		log.Printf("Session %s connected (total: %d)", sess.ID(), m.Count())

		defer func() {
			m.Remove(sess.ID())
			conn.Close()
			log.Printf("Session %s closed (total: %d)", sess.ID(), m.Count())
		}()

		// Write pump: telemetry updates and pings. Exits once the
		// delivery channel is drained after session teardown.
		writeDone := make(chan struct{})
		go func() {
			defer close(writeDone)
			runWritePump(conn, sess)
		}()

		conn.SetReadDeadline(time.Now().Add(config.WSReadDeadline))
		conn.SetPongHandler(func(string) error {
			sess.Touch()
			conn.SetReadDeadline(time.Now().Add(config.WSReadDeadline))
			return nil
		})

		// Read loop: control frames and client requests
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("Session %s transport error: %v", sess.ID(), err)
					sess.Fail()
				}
				break
			}
			if err := handleFrame(sess, data); err != nil {
				// The write pump owns the connection for writes, so a
				// bad frame is logged rather than answered.
				log.Printf("Session %s rejected frame: %v", sess.ID(), err)
			}
		}

		// Drain and wait for the pump to flush buffered deliveries.
		sess.Drain()
		select {
		case <-writeDone:
		case <-time.After(config.SessionDrainTimeout):
		}
	}
}

func handleFrame(sess *Session, data []byte) error {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return err
	}

	switch frame.Type {
	case frameKeepalive:
		sess.Touch()
		return nil
	case frameSubscribe:
		id, err := telemetry.ParseIdentifier(frame.Object)
		if err != nil {
			return err
		}
		sess.Touch()
		return sess.Subscribe(id)
	case frameUnsubscribe:
		id, err := telemetry.ParseIdentifier(frame.Object)
		if err != nil {
			return err
		}
		sess.Touch()
		return sess.Unsubscribe(id)
	default:
		return &UnknownFrameError{Type: frame.Type}
	}
}

// UnknownFrameError reports a frame type the server does not speak.
type UnknownFrameError struct {
	Type string
}

func (e *UnknownFrameError) Error() string {
	return fmt.Sprintf("unknown frame type %q", e.Type)
}

func runWritePump(conn *websocket.Conn, sess *Session) {
	ticker := time.NewTicker(config.WSPingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sess.Events():
			if !ok {
				// Session torn down and buffer flushed.
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(config.WSWriteDeadline))
				return
			}
			if err := writeEvent(conn, ev); err != nil {
				log.Printf("Session %s write error: %v", sess.ID(), err)
				sess.Fail()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(config.WSWriteDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				sess.Fail()
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, ev stream.Event) error {
	ts := ev.Point.Timestamp
	val := ev.Point.Value
	return writeFrame(conn, Frame{
		Type:      frameUpdate,
		Object:    ev.ObjectID.String(),
		Timestamp: &ts,
		Value:     &val,
	})
}

func writeFrame(conn *websocket.Conn, frame Frame) error {
	conn.SetWriteDeadline(time.Now().Add(config.WSWriteDeadline))
	return conn.WriteJSON(frame)
}
