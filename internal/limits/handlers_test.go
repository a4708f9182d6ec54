package limits

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/reliefnet/aidledger/internal/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := gin.New()
	NewHandler(store, logger).RegisterRoutes(router.Group("/api/v1"), security.AdminSecretMiddleware(""))
	return router, store
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPutAndGetLimit(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPut, "/api/v1/limits/food", `{"dailyLimit":"50.00","weeklyLimit":"200.00"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("put: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(router, http.MethodGet, "/api/v1/limits/food", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}
	var limit CategoryLimit
	if err := json.Unmarshal(w.Body.Bytes(), &limit); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if limit.Category != "food" || limit.DailyLimit != "50.00" {
		t.Errorf("unexpected limit: %+v", limit)
	}
}

func TestGetUnconfiguredCategory(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/api/v1/limits/travel", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestPutRejectsBadLimit(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"negative amount", "/api/v1/limits/food", `{"dailyLimit":"-5"}`},
		{"garbage amount", "/api/v1/limits/food", `{"dailyLimit":"lots"}`},
		{"bad category name", "/api/v1/limits/Food%20Aid", `{"dailyLimit":"10"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if w := doJSON(router, http.MethodPut, tc.path, tc.body); w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestListLimits(t *testing.T) {
	router, store := newTestRouter(t)
	ctx := context.Background()
	for _, cat := range []string{"food", "medical"} {
		if err := store.Upsert(ctx, &CategoryLimit{Category: cat, DailyLimit: "10"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	w := doJSON(router, http.MethodGet, "/api/v1/limits", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Limits []CategoryLimit `json:"limits"`
		Count  int             `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("expected 2 limits, got %d", resp.Count)
	}
}

func TestOverrideLifecycle(t *testing.T) {
	router, store := newTestRouter(t)
	ctx := context.Background()
	if err := store.Upsert(ctx, &CategoryLimit{Category: "medical", DailyLimit: "100"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	expiry := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	w := doJSON(router, http.MethodPost, "/api/v1/limits/medical/override", `{"expiresAt":"`+expiry+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("activate: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	got, _ := store.GetActive(ctx, "medical")
	if !got.EmergencyOverrideActive {
		t.Fatal("override not active after POST")
	}

	w = doJSON(router, http.MethodDelete, "/api/v1/limits/medical/override", "")
	if w.Code != http.StatusOK {
		t.Fatalf("deactivate: expected 200, got %d", w.Code)
	}
	got, _ = store.GetActive(ctx, "medical")
	if got.EmergencyOverrideActive {
		t.Fatal("override still active after DELETE")
	}
}

func TestOverrideValidation(t *testing.T) {
	router, store := newTestRouter(t)
	ctx := context.Background()
	if err := store.Upsert(ctx, &CategoryLimit{Category: "medical", DailyLimit: "100"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Past expiry is rejected.
	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	if w := doJSON(router, http.MethodPost, "/api/v1/limits/medical/override", `{"expiresAt":"`+past+`"}`); w.Code != http.StatusBadRequest {
		t.Errorf("past expiry: expected 400, got %d", w.Code)
	}

	// Unconfigured category is a 404.
	if w := doJSON(router, http.MethodPost, "/api/v1/limits/travel/override", `{}`); w.Code != http.StatusNotFound {
		t.Errorf("unconfigured category: expected 404, got %d", w.Code)
	}
}

func TestMutationsRequireAdminSecret(t *testing.T) {
	store := NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := gin.New()
	NewHandler(store, logger).RegisterRoutes(router.Group("/api/v1"), security.AdminSecretMiddleware("s3cret"))

	put := func(secret string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/limits/food", strings.NewReader(`{"dailyLimit":"50.00"}`))
		req.Header.Set("Content-Type", "application/json")
		if secret != "" {
			req.Header.Set(security.AdminHeader, secret)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	if w := put(""); w.Code != http.StatusUnauthorized {
		t.Errorf("missing secret: expected 401, got %d", w.Code)
	}
	if w := put("wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong secret: expected 401, got %d", w.Code)
	}
	if w := put("s3cret"); w.Code != http.StatusOK {
		t.Fatalf("correct secret: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Reads stay open.
	if w := doJSON(router, http.MethodGet, "/api/v1/limits/food", ""); w.Code != http.StatusOK {
		t.Errorf("read without secret: expected 200, got %d", w.Code)
	}

	// Override mutations are guarded too.
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/limits/food/override", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("delete override without secret: expected 401, got %d", w.Code)
	}
}
