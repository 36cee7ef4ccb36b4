package httpapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mrchooks/backend/internal/domain"
)

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	h := newTestAPI(t).Handler()
	rec := do(t, h, http.MethodGet, "/api/health", "", nil)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options nosniff, got %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected X-Frame-Options DENY, got %q", got)
	}
	if got := rec.Header().Get("X-Request-Id"); got == "" {
		t.Fatalf("expected a request id on the response")
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newTestAPI(t).Handler()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-Id", "till-7-0001")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "till-7-0001" {
		t.Fatalf("expected caller request id echoed, got %q", got)
	}
}

func TestLoginRateLimitReturns429(t *testing.T) {
	h := newTestAPI(t).Handler()

	for i := 0; i < 6; i++ {
		rec := do(t, h, http.MethodPost, "/api/auth/login", "", domain.LoginRequest{Username: "admin", Password: "wrong-pass"})
		if i < 5 && rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d expected 401 before limit, got %d", i+1, rec.Code)
		}
		if i == 5 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("attempt 6 expected 429, got %d", rec.Code)
		}
	}
}

func TestJSONBodyTooLargeRejected(t *testing.T) {
	h := newTestAPI(t).Handler()
	veryLong := strings.Repeat("a", (1<<20)+1024)
	body := fmt.Sprintf(`{"username":"%s","password":"x"}`, veryLong)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for too large body, got %d", rec.Code)
	}
}

func TestUnknownJSONFieldsRejected(t *testing.T) {
	h := newTestAPI(t).Handler()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"admin","password":"x","role":"admin"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	h := newTestAPI(t).Handler()
	rec := do(t, h, http.MethodGet, "/api/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if resp := decode(t, rec, nil); resp.OK || resp.Message == "" {
		t.Fatalf("expected error envelope, got %+v", resp)
	}
}

func TestErrorStatusMasksInternalErrors(t *testing.T) {
	err := fmt.Errorf("sqlite: disk I/O error")
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	writeError(rec, req, errorStatus(err), err)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "disk") {
		t.Fatalf("expected internal detail to be masked, got %s", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestAPI(t).Handler()
	do(t, h, http.MethodGet, "/api/health", "", nil)

	rec := do(t, h, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `mrchooks_http_requests_total{method="GET",route="/api/health",status="200"}`) {
		t.Fatalf("expected health request to be counted")
	}
}
