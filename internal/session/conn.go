package session

import (
	"net"
	"time"
)

// Conn is the subset of *websocket.Conn the session needs. Defining it
// as a point-of-use interface lets tests drive Materializer/Dispatcher/
// Collector against an in-memory stub instead of a real socket.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
	RemoteAddr() net.Addr
	SetPingHandler(h func(appData string) error)
	SetPongHandler(h func(appData string) error)
	SetReadDeadline(t time.Time) error
}

// Frame types mirror gorilla/websocket's message type constants so Conn
// implementations (real or stub) don't need to import that package.
const (
	TextMessage   = 1
	BinaryMessage = 2
	CloseMessage  = 8
	PingMessage   = 9
	PongMessage   = 10
)
