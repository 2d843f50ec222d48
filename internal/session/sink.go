package session

import (
	"context"
	"errors"
	"sync"

	"github.com/coder/websocket"
)

// WSSink adapts a websocket connection to the rooms.PlayerSink capability.
// Writes go through a buffered channel drained by a pump goroutine, so a
// slow or stalled peer drops frames instead of blocking the room.
type WSSink struct {
	conn   *websocket.Conn
	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

const sendBufferSize = 32

func NewWSSink(conn *websocket.Conn) *WSSink {
	ctx, cancel := context.WithCancel(context.Background())
	s := &WSSink{
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		ctx:    ctx,
		cancel: cancel,
	}
	go s.writePump()
	return s
}

func (s *WSSink) writePump() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case msg := <-s.send:
			if err := s.conn.Write(s.ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Send queues one frame. Non-blocking: drops if the buffer is full.
func (s *WSSink) Send(data []byte) error {
	select {
	case s.send <- data:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

// Close terminates the connection. Safe to call more than once.
func (s *WSSink) Close(code int, reason string) {
	s.once.Do(func() {
		s.cancel()
		s.conn.Close(websocket.StatusCode(code), reason)
	})
}
