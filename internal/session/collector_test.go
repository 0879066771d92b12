package session

import (
	"context"
	"testing"
	"time"

	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/repository"
)

type fakeHostRepo struct {
	repository.HostRepository
	checkin          func(ctx context.Context, id, alias string, attrs []string, ip string) (*domain.Host, error)
	touchLastCheckin func(ctx context.Context, id string) error
}

func (r *fakeHostRepo) Checkin(ctx context.Context, id, alias string, attrs []string, ip string) (*domain.Host, error) {
	return r.checkin(ctx, id, alias, attrs, ip)
}
func (r *fakeHostRepo) TouchLastCheckin(ctx context.Context, id string) error {
	if r.touchLastCheckin == nil {
		return nil
	}
	return r.touchLastCheckin(ctx, id)
}

// A script reply from the agent finalizes the dispatched execution.
func TestCollector_ScriptFrame_FinalizesExecution(t *testing.T) {
	host := &domain.Host{ID: "host-1", Alias: "web-1"}
	now := time.Date(2026, 7, 31, 13, 5, 0, 0, time.UTC)

	var completedID, completedOutput string
	executions := &fakeExecutionRepo{
		complete: func(ctx context.Context, id string, completedAt time.Time, output string) error {
			completedID = id
			completedOutput = output
			return nil
		},
	}

	conn := newStubConn("10.0.0.9:1234")
	c := NewCollector(newHostCell(host), newSender(conn), conn, &fakeHostRepo{}, executions, discardLogger())
	c.now = func() time.Time { return now }

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	payload := `{"id":"exec-1","script":{"id":"script-1","script_content":"hello world"}}`
	conn.push(TextMessage, []byte("script:"+payload))
	conn.Close()
	<-done

	if completedID != "exec-1" {
		t.Errorf("completed id = %q, want exec-1", completedID)
	}
	if completedOutput != "hello world" {
		t.Errorf("completed output = %q, want %q", completedOutput, "hello world")
	}
}

// A script: reply naming an execution that was never claimed is
// dropped, not treated as a store failure.
func TestCollector_ScriptFrame_DropsUnclaimedExecution(t *testing.T) {
	host := &domain.Host{ID: "host-1", Alias: "web-1"}

	executions := &fakeExecutionRepo{
		complete: func(ctx context.Context, id string, completedAt time.Time, output string) error {
			return domain.ErrExecutionNotClaimed
		},
	}

	conn := newStubConn("10.0.0.9:1234")
	c := NewCollector(newHostCell(host), newSender(conn), conn, &fakeHostRepo{}, executions, discardLogger())

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	payload := `{"id":"exec-never-claimed","script":{"id":"script-1","script_content":"forged"}}`
	conn.push(TextMessage, []byte("script:"+payload))
	conn.Close()
	<-done
	// No assertion beyond Run returning cleanly: the point of this test is
	// that Complete returning ErrExecutionNotClaimed doesn't panic or hang
	// the collector's receive loop.
}

// Host self-description updates alias/attributes and always uses the
// socket's real peer address, never a payload-supplied IP.
func TestCollector_HostFrame_ChecksInWithSocketPeerIP(t *testing.T) {
	host := &domain.Host{ID: "host-1", Alias: "old-alias"}

	var gotAlias, gotIP string
	var gotAttrs []string
	hosts := &fakeHostRepo{
		checkin: func(ctx context.Context, id, alias string, attrs []string, ip string) (*domain.Host, error) {
			gotAlias, gotAttrs, gotIP = alias, attrs, ip
			return &domain.Host{ID: id, Alias: alias, Attributes: attrs, IP: ip}, nil
		},
	}
	executions := &fakeExecutionRepo{}

	conn := newStubConn("203.0.113.9:9999")
	cell := newHostCell(host)
	c := NewCollector(cell, newSender(conn), conn, hosts, executions, discardLogger())

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	payload := `{"alias":"new-alias","attributes":["linux","web"],"ip":"1.2.3.4"}`
	conn.push(TextMessage, []byte("host:"+payload))
	conn.Close()
	<-done

	if gotAlias != "new-alias" {
		t.Errorf("alias = %q, want new-alias", gotAlias)
	}
	if len(gotAttrs) != 2 || gotAttrs[0] != "linux" || gotAttrs[1] != "web" {
		t.Errorf("attrs = %v, want [linux web]", gotAttrs)
	}
	if gotIP != "203.0.113.9:9999" {
		t.Errorf("ip = %q, want socket peer 203.0.113.9:9999 (payload ip must be ignored)", gotIP)
	}
	if cell.Get().Alias != "new-alias" {
		t.Error("expected session host snapshot to be replaced after checkin")
	}
}

func TestCollector_Ping_RepliesWithFixedPong(t *testing.T) {
	host := &domain.Host{ID: "host-1"}
	conn := newStubConn("10.0.0.1:1")
	c := NewCollector(newHostCell(host), newSender(conn), conn, &fakeHostRepo{}, &fakeExecutionRepo{}, discardLogger())

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	conn.push(PingMessage, []byte("hello"))
	conn.Close()
	<-done

	conn.mu.Lock()
	pongs := append([]string(nil), conn.pongs...)
	conn.mu.Unlock()

	if len(pongs) != 1 || pongs[0] != pongBody {
		t.Errorf("pongs = %v, want [%q]", pongs, pongBody)
	}
}

func TestCollector_Pong_TouchesLastCheckin(t *testing.T) {
	host := &domain.Host{ID: "host-1"}
	var touched string
	hosts := &fakeHostRepo{touchLastCheckin: func(ctx context.Context, id string) error {
		touched = id
		return nil
	}}
	conn := newStubConn("10.0.0.1:1")
	c := NewCollector(newHostCell(host), newSender(conn), conn, hosts, &fakeExecutionRepo{}, discardLogger())

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	conn.push(PongMessage, []byte("still here"))
	conn.Close()
	<-done

	if touched != host.ID {
		t.Errorf("touched host = %q, want %q", touched, host.ID)
	}
}
