package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/puppy-bowl/internal/config"
	"github.com/riskibarqy/puppy-bowl/internal/platform/logging"
)

func testConfig(baseURL string) config.Config {
	return config.Config{
		AppEnv:                         config.EnvDev,
		ServiceName:                    "puppy-bowl-web",
		HTTPAddr:                       ":0",
		PuppyBowlBaseURL:               baseURL,
		PuppyBowlCohort:                "2601-test",
		PuppyBowlCircuitEnabled:        true,
		PuppyBowlCircuitFailureCount:   3,
		PuppyBowlCircuitOpenTimeout:    time.Second,
		PuppyBowlCircuitHalfOpenMaxReq: 1,
		SessionTTL:                     time.Minute,
		MetricsEnabled:                 true,
	}
}

func TestNew_ServesRosterFromRemote(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(map[string]any{
			"success": true,
			"data": map[string]any{
				"players": []map[string]any{
					{"id": 1, "name": "Fido", "breed": "Beagle", "status": "field"},
				},
			},
		})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(raw)
	}))
	defer remote.Close()

	application, err := New(testConfig(remote.URL+"/api"), logging.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	web := httptest.NewServer(application.Server.Handler)
	defer web.Close()

	resp, err := web.Client().Get(web.URL + "/")
	if err != nil {
		t.Fatalf("get index: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "Fido") {
		t.Fatalf("unexpected index response %d:\n%s", resp.StatusCode, body)
	}

	resp, err = web.Client().Get(web.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	for _, want := range []string{"puppybowl_active_sessions 1", `puppybowl_remote_calls_total{operation="list_players",outcome="success"} 1`} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("expected %q in metrics:\n%s", want, body)
		}
	}
}

func TestNew_MetricsDisabled(t *testing.T) {
	cfg := testConfig("https://example.test/api")
	cfg.MetricsEnabled = false

	application, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if application.Metrics != nil {
		t.Fatalf("expected no recorder when metrics are disabled")
	}

	rec := httptest.NewRecorder()
	application.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for /metrics, got %d", rec.Code)
	}
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	if _, err := New(testConfig("ftp://nowhere"), logging.NewNop()); err == nil {
		t.Fatalf("expected an error for an unsupported base url")
	}
}
