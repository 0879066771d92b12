package session

import (
	"fmt"
	"sync"
	"time"
)

// sender is the session's shared outbound half: pings, dispatches, and
// pongs all write through it, guarded by a single exclusive lock held
// only for the duration of one frame.
type sender struct {
	mu   sync.Mutex
	conn Conn
}

func newSender(conn Conn) *sender {
	return &sender{conn: conn}
}

func (s *sender) SendText(payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(TextMessage, []byte(payload))
}

func (s *sender) SendPing(body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(PingMessage, []byte(body), time.Now().Add(writeControlDeadline))
}

func (s *sender) SendPong(body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(PongMessage, []byte(body), time.Now().Add(writeControlDeadline))
}

const writeControlDeadline = 5 * time.Second

// pingBody builds the "Agent <alias> you there?" liveness ping payload.
func pingBody(alias string) string {
	return fmt.Sprintf("Agent %s you there?", alias)
}

// pongBody is the fixed reply to an agent-initiated ping.
const pongBody = "still here"
