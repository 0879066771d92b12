package domain_test

import (
	"testing"
	"time"

	"github.com/apimeister/unpatched-server/internal/domain"
)

func TestHost_MatchesAttributes(t *testing.T) {
	tests := []struct {
		name  string
		host  []string
		query []string
		want  bool
	}{
		{"exact match", []string{"linux", "web"}, []string{"linux", "web"}, true},
		{"order independent", []string{"web", "linux"}, []string{"linux", "web"}, true},
		{"subset does not match", []string{"linux", "web"}, []string{"linux"}, false},
		{"superset does not match", []string{"linux"}, []string{"linux", "web"}, false},
		{"empty matches empty", []string{}, []string{}, true},
		{"disjoint", []string{"linux"}, []string{"windows"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &domain.Host{Attributes: tt.host}
			if got := h.MatchesAttributes(tt.query); got != tt.want {
				t.Errorf("MatchesAttributes(%v) on host %v = %v, want %v", tt.query, tt.host, got, tt.want)
			}
		})
	}
}

func TestHost_Stale(t *testing.T) {
	now := time.Now().UTC()
	h := &domain.Host{}
	if h.Stale(now) {
		t.Error("host with nil LastCheckin must never be stale")
	}

	recent := now.Add(-domain.StaleAfter / 2)
	h.LastCheckin = &recent
	if h.Stale(now) {
		t.Error("recent check-in must not be stale")
	}

	old := now.Add(-domain.StaleAfter - 1)
	h.LastCheckin = &old
	if !h.Stale(now) {
		t.Error("check-in older than StaleAfter must be stale")
	}
}
