package handler_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/transport/http/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

type fakeAuthUsecase struct {
	login  func(ctx context.Context, addr, clientID, clientSecret string) (string, error)
	verify func(raw string) (string, error)
}

func (f *fakeAuthUsecase) Login(ctx context.Context, addr, clientID, clientSecret string) (string, error) {
	return f.login(ctx, addr, clientID, clientSecret)
}

func (f *fakeAuthUsecase) Verify(raw string) (string, error) {
	return f.verify(raw)
}

func newAuthTestEngine(uc *fakeAuthUsecase) *gin.Engine {
	h := handler.NewAuthHandler(uc, testLogger())
	r := gin.New()
	r.POST("/api/v1/authorize", h.Authorize)
	r.GET("/logout", h.Logout)
	r.GET("/loginstatus", h.LoginStatus)
	return r
}

func TestAuthorize_InvalidJSON_Returns400(t *testing.T) {
	uc := &fakeAuthUsecase{}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/authorize", strings.NewReader(`{bad json}`))
	req.Header.Set("Content-Type", "application/json")
	newAuthTestEngine(uc).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAuthorize_WrongCredentials_Returns401(t *testing.T) {
	uc := &fakeAuthUsecase{login: func(_ context.Context, _, _, _ string) (string, error) {
		return "", domain.ErrWrongCredentials
	}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/authorize",
		strings.NewReader(`{"client_id":"op@example.com","client_secret":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	newAuthTestEngine(uc).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthorize_Success_SetsCookieAndReturnsToken(t *testing.T) {
	uc := &fakeAuthUsecase{login: func(_ context.Context, _, _, _ string) (string, error) {
		return "signed.jwt.token", nil
	}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/authorize",
		strings.NewReader(`{"client_id":"op@example.com","client_secret":"correct"}`))
	req.Header.Set("Content-Type", "application/json")
	newAuthTestEngine(uc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "signed.jwt.token") {
		t.Errorf("body = %q, want it to contain the token", w.Body.String())
	}
	if len(w.Result().Cookies()) == 0 {
		t.Error("expected a session cookie to be set")
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	uc := &fakeAuthUsecase{}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	newAuthTestEngine(uc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected one expiring cookie, got %+v", cookies)
	}
}

func TestLoginStatus_NoToken_Returns401(t *testing.T) {
	uc := &fakeAuthUsecase{}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/loginstatus", nil)
	newAuthTestEngine(uc).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestLoginStatus_ValidToken_ReturnsEmail(t *testing.T) {
	uc := &fakeAuthUsecase{verify: func(raw string) (string, error) {
		if raw != "good-token" {
			return "", errors.New("bad token")
		}
		return "op@example.com", nil
	}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/loginstatus", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	newAuthTestEngine(uc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "op@example.com") {
		t.Errorf("body = %q, want it to contain the email", w.Body.String())
	}
}
