package session

import (
	"errors"
	"net"
	"sync"
	"time"
)

// stubConn is an in-memory Conn used by session tests in place of a real
// *websocket.Conn, so Materializer/Dispatcher/Collector can be driven
// without a socket.
type stubConn struct {
	mu      sync.Mutex
	sent    []string // TextMessage payloads, in send order
	pings   []string
	pongs   []string
	closed  bool
	remote  net.Addr
	inbound chan inboundFrame
	pingFn  func(string) error
	pongFn  func(string) error
}

type inboundFrame struct {
	messageType int
	data        []byte
	err         error
}

func newStubConn(remote string) *stubConn {
	return &stubConn{
		remote:  stubAddr(remote),
		inbound: make(chan inboundFrame, 16),
	}
}

type stubAddr string

func (a stubAddr) Network() string { return "tcp" }
func (a stubAddr) String() string  { return string(a) }

func (c *stubConn) ReadMessage() (int, []byte, error) {
	f, ok := <-c.inbound
	if !ok {
		return 0, nil, errors.New("stubConn: closed")
	}
	if f.err != nil {
		return 0, nil, f.err
	}
	if f.messageType == PingMessage && c.pingFn != nil {
		_ = c.pingFn(string(f.data))
		return c.ReadMessage()
	}
	if f.messageType == PongMessage && c.pongFn != nil {
		_ = c.pongFn(string(f.data))
		return c.ReadMessage()
	}
	return f.messageType, f.data, nil
}

func (c *stubConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if messageType == TextMessage {
		c.sent = append(c.sent, string(data))
	}
	return nil
}

func (c *stubConn) WriteControl(messageType int, data []byte, _ time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch messageType {
	case PingMessage:
		c.pings = append(c.pings, string(data))
	case PongMessage:
		c.pongs = append(c.pongs, string(data))
	}
	return nil
}

func (c *stubConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.inbound)
	}
	return nil
}

func (c *stubConn) RemoteAddr() net.Addr { return c.remote }

func (c *stubConn) SetPingHandler(h func(string) error) { c.pingFn = h }
func (c *stubConn) SetPongHandler(h func(string) error) { c.pongFn = h }
func (c *stubConn) SetReadDeadline(time.Time) error     { return nil }

func (c *stubConn) textFrames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *stubConn) push(messageType int, data []byte) {
	c.inbound <- inboundFrame{messageType: messageType, data: data}
}

func (c *stubConn) pushErr(err error) {
	c.inbound <- inboundFrame{err: err}
}
