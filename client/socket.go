package client

import (
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/himanshub16/songdesk/songs"
)

// Reconnection policy, mirroring the frontend's socket configuration:
// detect a dead connection within a fixed timeout, retry a fixed number of
// times with a fixed delay, then stay down until the user asks. The same
// 2s bound covers the dial handshake and liveness of an established
// connection: pings go out every pingInterval and a peer that answers
// nothing for livenessTimeout counts as disconnected.
const (
	handshakeTimeout     = 2 * time.Second
	livenessTimeout      = 2 * time.Second
	pingInterval         = livenessTimeout * 9 / 10
	writeWait            = 1 * time.Second
	reconnectDelay       = 1 * time.Second
	maxReconnectAttempts = 5
)

// Socket is the persistent connection carrying song_update events. A
// process holds exactly one: constructed at start, closed at exit. All
// callbacks are invoked from the socket's own goroutine, one at a time.
type Socket struct {
	url string

	OnConnect         func()
	OnDisconnect      func()
	OnReconnectFailed func()
	OnEvent           func(songs.Event)

	mu        sync.Mutex
	conn      *websocket.Conn
	closed    bool
	exhausted bool
	interrupt chan struct{}
}

// NewSocket prepares a socket against the backend endpoint (http:// or
// https:// base URL; the scheme is rewritten for the websocket dial).
func NewSocket(baseURL string) *Socket {
	wsURL := strings.Replace(baseURL, "http", "ws", 1) + "/ws"
	return &Socket{
		url:       wsURL,
		interrupt: make(chan struct{}, 1),
	}
}

// Connect dials the backend and starts the receive loop. An error here is
// the initial dial failing; reconnects after that are automatic up to the
// bounded policy.
func (s *Socket) Connect() error {
	conn, err := s.dial()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conn = conn
	s.closed = false
	s.exhausted = false
	s.mu.Unlock()

	if s.OnConnect != nil {
		s.OnConnect()
	}
	go s.receiveLoop(conn)
	return nil
}

func (s *Socket) dial() (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.Dial(s.url, http.Header{})
	return conn, err
}

func (s *Socket) receiveLoop(conn *websocket.Conn) {
	// a half-open connection never errors on its own; the read deadline
	// only moves forward while the peer keeps answering our pings
	conn.SetReadDeadline(time.Now().Add(livenessTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livenessTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			}
		}
	}()

	for {
		var evt songs.Event
		if err := conn.ReadJSON(&evt); err != nil {
			if s.isClosed() {
				return
			}
			log.Println("socket read failed err:", err)
			s.handleDisconnect()
			return
		}
		if s.OnEvent != nil {
			s.OnEvent(evt)
		}
	}
}

func (s *Socket) handleDisconnect() {
	if s.OnDisconnect != nil {
		s.OnDisconnect()
	}

	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		select {
		case <-s.interrupt:
			return
		case <-time.After(reconnectDelay):
		}
		if s.isClosed() {
			return
		}

		conn, err := s.dial()
		if err != nil {
			log.Println("reconnect attempt", attempt, "failed err:", err)
			continue
		}

		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
		if s.OnConnect != nil {
			s.OnConnect()
		}
		go s.receiveLoop(conn)
		return
	}

	// terminal until the user triggers Reconnect
	s.mu.Lock()
	s.exhausted = true
	s.mu.Unlock()
	if s.OnReconnectFailed != nil {
		s.OnReconnectFailed()
	}
}

// Reconnect is the explicit user-triggered retry once the automatic policy
// is exhausted. It is a no-op while the socket is still live or retrying.
// The socket stays exhausted until a retry actually connects, so a failed
// retry can be retried again.
func (s *Socket) Reconnect() error {
	s.mu.Lock()
	if !s.exhausted || s.closed {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	return s.Connect()
}

func (s *Socket) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close tears the connection down for good.
func (s *Socket) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conn := s.conn
	s.mu.Unlock()

	select {
	case s.interrupt <- struct{}{}:
	default:
	}
	if conn != nil {
		conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}
}
