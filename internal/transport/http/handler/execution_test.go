package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/repository"
	"github.com/apimeister/unpatched-server/internal/transport/http/handler"
	"github.com/apimeister/unpatched-server/internal/usecase"
)

type fakeExecutionRepo struct {
	repository.ExecutionRepository
	get    func(ctx context.Context, id string) (*domain.Execution, error)
	delete func(ctx context.Context, id string) error
}

func (r *fakeExecutionRepo) GetByID(ctx context.Context, id string) (*domain.Execution, error) {
	return r.get(ctx, id)
}
func (r *fakeExecutionRepo) Delete(ctx context.Context, id string) error {
	return r.delete(ctx, id)
}

func newExecutionTestEngine(executions *fakeExecutionRepo) *gin.Engine {
	h := handler.NewExecutionHandler(usecase.NewExecutionUsecase(executions), testLogger())
	r := gin.New()
	r.GET("/api/v1/executions/:id", h.Get)
	r.DELETE("/api/v1/executions/:id", h.Delete)
	return r
}

func TestExecutionGet_NotFound_Returns404(t *testing.T) {
	executions := &fakeExecutionRepo{get: func(_ context.Context, _ string) (*domain.Execution, error) {
		return nil, domain.ErrExecutionNotFound
	}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/executions/missing", nil)
	newExecutionTestEngine(executions).ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestExecutionDelete_ClearsStuckClaim(t *testing.T) {
	var deletedID string
	executions := &fakeExecutionRepo{delete: func(_ context.Context, id string) error {
		deletedID = id
		return nil
	}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/executions/exec-1", nil)
	newExecutionTestEngine(executions).ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if deletedID != "exec-1" {
		t.Errorf("deleted id = %q, want exec-1", deletedID)
	}
}
