package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/repository"
	"github.com/apimeister/unpatched-server/internal/transport/http/handler"
	"github.com/apimeister/unpatched-server/internal/usecase"
)

type fakeScheduleCreateRepo struct {
	repository.ScheduleRepository
	create func(ctx context.Context, s *domain.Schedule) (*domain.Schedule, error)
}

func (r *fakeScheduleCreateRepo) Create(ctx context.Context, s *domain.Schedule) (*domain.Schedule, error) {
	return r.create(ctx, s)
}

func newScheduleTestEngine(schedules *fakeScheduleCreateRepo) *gin.Engine {
	h := handler.NewScheduleHandler(usecase.NewScheduleUsecase(schedules, &fakeHostRepo{}), testLogger())
	r := gin.New()
	r.POST("/api/v1/schedules", h.Create)
	return r
}

func TestScheduleCreate_UnknownTargetKind_Returns400(t *testing.T) {
	w := httptest.NewRecorder()
	body := `{"scriptId":"s1","target":{"kind":"bogus"},"timer":{"kind":"cron","cron":"* * * * *"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	newScheduleTestEngine(&fakeScheduleCreateRepo{}).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestScheduleCreate_HostIDTarget_CronTimer_BuildsDomainTypes(t *testing.T) {
	var got *domain.Schedule
	schedules := &fakeScheduleCreateRepo{create: func(_ context.Context, s *domain.Schedule) (*domain.Schedule, error) {
		got = s
		s.ID = "sched-1"
		return s, nil
	}}
	w := httptest.NewRecorder()
	body := `{"scriptId":"s1","target":{"kind":"host_id","hostId":"host-1"},"timer":{"kind":"cron","cron":"*/5 * * * *"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	newScheduleTestEngine(schedules).ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if got.Target.Kind != domain.TargetHostID || got.Target.HostID != "host-1" {
		t.Errorf("target = %+v, want host_id=host-1", got.Target)
	}
	if got.Timer.Kind != domain.TimerCron || got.Timer.Cron != "*/5 * * * *" {
		t.Errorf("timer = %+v, want cron=*/5 * * * *", got.Timer)
	}
}

func TestScheduleCreate_AttributesTarget_TimestampTimer_BuildsDomainTypes(t *testing.T) {
	var got *domain.Schedule
	schedules := &fakeScheduleCreateRepo{create: func(_ context.Context, s *domain.Schedule) (*domain.Schedule, error) {
		got = s
		s.ID = "sched-2"
		return s, nil
	}}
	w := httptest.NewRecorder()
	body := `{"scriptId":"s1","target":{"kind":"attributes","attributes":["env:prod"]},"timer":{"kind":"timestamp","timestamp":"2026-01-01T00:00:00Z"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	newScheduleTestEngine(schedules).ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if got.Target.Kind != domain.TargetAttributes || len(got.Target.Attributes) != 1 {
		t.Errorf("target = %+v, want one attribute", got.Target)
	}
	if got.Timer.Kind != domain.TimerTimestamp {
		t.Errorf("timer kind = %v, want timestamp", got.Timer.Kind)
	}
}
