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

type fakeHostRepo struct {
	repository.HostRepository
	create func(ctx context.Context, h *domain.Host) (*domain.Host, error)
	get    func(ctx context.Context, id string) (*domain.Host, error)
	list   func(ctx context.Context, filter repository.HostFilter) ([]*domain.Host, error)
}

func (r *fakeHostRepo) Create(ctx context.Context, h *domain.Host) (*domain.Host, error) {
	return r.create(ctx, h)
}
func (r *fakeHostRepo) GetByID(ctx context.Context, id string) (*domain.Host, error) {
	return r.get(ctx, id)
}
func (r *fakeHostRepo) List(ctx context.Context, filter repository.HostFilter) ([]*domain.Host, error) {
	return r.list(ctx, filter)
}

type fakeScheduleRepo struct {
	repository.ScheduleRepository
	listByState func(ctx context.Context, state repository.ScheduleState) ([]*domain.Schedule, error)
}

func (r *fakeScheduleRepo) ListByState(ctx context.Context, state repository.ScheduleState) ([]*domain.Schedule, error) {
	return r.listByState(ctx, state)
}

func newHostTestEngine(hosts *fakeHostRepo, schedules *fakeScheduleRepo) *gin.Engine {
	h := handler.NewHostHandler(usecase.NewHostUsecase(hosts), usecase.NewScheduleUsecase(schedules, hosts), testLogger())
	r := gin.New()
	r.POST("/api/v1/hosts", h.Create)
	r.GET("/api/v1/hosts/:id", h.Get)
	r.GET("/api/v1/hosts", h.List)
	r.GET("/api/v1/hosts/:id/schedules", h.ListSchedules)
	return r
}

func TestHostCreate_MissingAlias_Returns400(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/hosts", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	newHostTestEngine(&fakeHostRepo{}, &fakeScheduleRepo{}).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHostCreate_Success(t *testing.T) {
	hosts := &fakeHostRepo{create: func(_ context.Context, h *domain.Host) (*domain.Host, error) {
		h.ID = "host-1"
		return h, nil
	}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/hosts",
		strings.NewReader(`{"alias":"web-01","attributes":["env:prod"]}`))
	req.Header.Set("Content-Type", "application/json")
	newHostTestEngine(hosts, &fakeScheduleRepo{}).ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if !strings.Contains(w.Body.String(), "web-01") {
		t.Errorf("body = %q, want it to contain the alias", w.Body.String())
	}
}

func TestHostGet_NotFound_Returns404(t *testing.T) {
	hosts := &fakeHostRepo{get: func(_ context.Context, _ string) (*domain.Host, error) {
		return nil, domain.ErrHostNotFound
	}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/hosts/missing", nil)
	newHostTestEngine(hosts, &fakeScheduleRepo{}).ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHostListSchedules_MatchesByIDAndAttributes(t *testing.T) {
	hosts := &fakeHostRepo{get: func(_ context.Context, id string) (*domain.Host, error) {
		return &domain.Host{ID: id, Attributes: []string{"linux", "web"}}, nil
	}}

	var seenState repository.ScheduleState
	schedules := &fakeScheduleRepo{listByState: func(_ context.Context, state repository.ScheduleState) ([]*domain.Schedule, error) {
		seenState = state
		return []*domain.Schedule{
			{ID: "by-id", Target: domain.NewHostIDTarget("host-1")},
			{ID: "by-attrs", Target: domain.NewAttributesTarget([]string{"web", "linux"})},
			{ID: "other-host", Target: domain.NewHostIDTarget("host-2")},
			{ID: "other-attrs", Target: domain.NewAttributesTarget([]string{"windows"})},
		}, nil
	}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/hosts/host-1/schedules", nil)
	newHostTestEngine(hosts, schedules).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if seenState != repository.ScheduleStateActive {
		t.Errorf("state = %v, want ScheduleStateActive", seenState)
	}
	body := w.Body.String()
	for _, want := range []string{"by-id", "by-attrs"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing matching schedule %q: %s", want, body)
		}
	}
	for _, reject := range []string{"other-host", "other-attrs"} {
		if strings.Contains(body, reject) {
			t.Errorf("body contains non-matching schedule %q: %s", reject, body)
		}
	}
}

func TestHostListSchedules_UnknownHost_Returns404(t *testing.T) {
	hosts := &fakeHostRepo{get: func(_ context.Context, _ string) (*domain.Host, error) {
		return nil, domain.ErrHostNotFound
	}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/hosts/missing/schedules", nil)
	newHostTestEngine(hosts, &fakeScheduleRepo{}).ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
