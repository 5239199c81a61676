package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RubaiyaKamal/AI-Employee-Vault/pkg/models"
)

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	snap := func() models.Health {
		return models.Health{
			Agent:          "cloud",
			Role:           models.RoleDrafter,
			Status:         "running",
			UptimeSeconds:  12.5,
			Timestamp:      time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
			VaultPath:      "/tmp/vault",
			ProcessedCount: 3,
		}
	}
	s := New(":0", snap, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health: status=%d", rec.Code)
	}
	var got models.Health
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Agent != "cloud" || got.Role != models.RoleDrafter || got.ProcessedCount != 3 {
		t.Fatalf("health body: %+v", got)
	}
}

func TestMetricsMount(t *testing.T) {
	t.Parallel()
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	s := New(":0", func() models.Health { return models.Health{} }, metrics)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "# metrics\n" {
		t.Fatalf("GET /metrics: status=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestMetricsAbsentWithoutHandler(t *testing.T) {
	t.Parallel()
	s := New(":0", func() models.Health { return models.Health{} }, nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET /metrics without handler: status=%d", rec.Code)
	}
}
