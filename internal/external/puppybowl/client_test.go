package puppybowl

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/puppy-bowl/internal/domain/player"
	"github.com/riskibarqy/puppy-bowl/internal/platform/logging"
	"github.com/riskibarqy/puppy-bowl/internal/platform/resilience"
	"github.com/riskibarqy/puppy-bowl/internal/usecase"
)

var fixtureJSON = jsoniter.ConfigCompatibleWithStandardLibrary

func writeFixture(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()

	raw, err := fixtureJSON.Marshal(body)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

func newTestClient(t *testing.T, handler http.Handler, breaker resilience.CircuitBreakerConfig) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{
		HTTPClient:     server.Client(),
		BaseURL:        server.URL + "/api/",
		Cohort:         "2601-test",
		Logger:         logging.NewNop(),
		CircuitBreaker: breaker,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestClient_ListPlayersPreservesOrder(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/2601-test/players" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		writeFixture(t, w, http.StatusOK, map[string]any{
			"success": true,
			"error":   nil,
			"data": map[string]any{
				"players": []map[string]any{
					{"id": 7, "name": "Fido", "breed": "Beagle", "status": "field", "imageUrl": "https://img/fido.png", "team": map[string]any{"id": 3, "name": "Ruff"}},
					{"id": 2, "name": "Max", "breed": "Pug", "status": "bench", "team": nil, "createdAt": "2026-01-02T03:04:05.000Z"},
				},
			},
		})
	}), resilience.CircuitBreakerConfig{})

	players, err := client.ListPlayers(context.Background())
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(players))
	}
	if players[0].ID != 7 || players[0].Name != "Fido" || players[1].ID != 2 || players[1].Name != "Max" {
		t.Fatalf("unexpected order: %+v", players)
	}
	if players[0].TeamName() != "Ruff" {
		t.Fatalf("expected team Ruff, got %q", players[0].TeamName())
	}
	if players[1].TeamName() != player.UnassignedTeamName {
		t.Fatalf("expected unassigned team, got %q", players[1].TeamName())
	}
	if players[1].CreatedAt.IsZero() {
		t.Fatalf("expected createdAt to be parsed")
	}
}

func TestClient_ListPlayersFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, "{not json")
			},
		},
		{
			name: "no players in data",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"data":{}}`)
			},
		},
		{
			name: "unsuccessful envelope",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"success":false,"error":{"name":"Oops","message":"db down"},"data":null}`)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, tc.handler, resilience.CircuitBreakerConfig{})
			_, err := client.ListPlayers(context.Background())
			if !errors.Is(err, usecase.ErrFetchFailure) {
				t.Fatalf("expected ErrFetchFailure, got %v", err)
			}
		})
	}
}

func TestClient_GetPlayerNotFound(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/2601-test/players/404":
			writeFixture(t, w, http.StatusNotFound, map[string]any{
				"success": false,
				"error":   map[string]any{"name": "NotFoundError", "message": "Player not found"},
			})
		case "/api/2601-test/players/5":
			writeFixture(t, w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"player": nil}})
		default:
			writeFixture(t, w, http.StatusOK, map[string]any{
				"success": true,
				"data":    map[string]any{"player": map[string]any{"id": 2, "name": "Max", "breed": "Pug", "status": "bench", "team": nil}},
			})
		}
	}), resilience.CircuitBreakerConfig{})

	if _, err := client.GetPlayer(context.Background(), 404); !errors.Is(err, usecase.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for 404, got %v", err)
	}
	if _, err := client.GetPlayer(context.Background(), 5); !errors.Is(err, usecase.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for null player, got %v", err)
	}

	got, err := client.GetPlayer(context.Background(), 2)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if got.Breed != "Pug" || got.Status != player.StatusBench || got.TeamName() != "Unassigned" {
		t.Fatalf("unexpected player: %+v", got)
	}
}

func TestClient_ReadsAcceptEnvelopesWithoutSuccess(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/2601-test/players":
			_, _ = io.WriteString(w, `{"data":{"players":[{"id":1,"name":"Fido","breed":"Beagle","status":"field"},{"id":2,"name":"Max","breed":"Pug","status":"bench"}]}}`)
		case "/api/2601-test/players/2":
			_, _ = io.WriteString(w, `{"data":{"player":{"id":2,"name":"Max","breed":"Pug","status":"bench","team":null}}}`)
		default:
			http.NotFound(w, r)
		}
	}), resilience.CircuitBreakerConfig{})

	players, err := client.ListPlayers(context.Background())
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	if len(players) != 2 || players[0].Name != "Fido" || players[1].Name != "Max" {
		t.Fatalf("unexpected players: %+v", players)
	}

	got, err := client.GetPlayer(context.Background(), 2)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if got.ID != 2 || got.Breed != "Pug" || got.TeamName() != player.UnassignedTeamName {
		t.Fatalf("unexpected player: %+v", got)
	}
}

func TestClient_EmptyRosterIsNotAFailure(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"players":[]}}`)
	}), resilience.CircuitBreakerConfig{})

	players, err := client.ListPlayers(context.Background())
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	if len(players) != 0 {
		t.Fatalf("expected empty roster, got %+v", players)
	}
}

// rosterServer keeps players in memory and answers like the live API.
type rosterServer struct {
	mu      sync.Mutex
	nextID  int64
	players []map[string]any
}

func (s *rosterServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		raw, _ := fixtureJSON.Marshal(map[string]any{"data": map[string]any{"players": s.players}})
		w.Header().Set("content-type", "application/json")
		_, _ = w.Write(raw)
	case http.MethodPost:
		var body map[string]any
		raw, _ := io.ReadAll(r.Body)
		if err := fixtureJSON.Unmarshal(raw, &body); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		s.nextID++
		created := map[string]any{
			"id":       s.nextID,
			"name":     body["name"],
			"breed":    body["breed"],
			"status":   body["status"],
			"imageUrl": body["imageUrl"],
			"teamId":   nil,
		}
		s.players = append(s.players, created)
		out, _ := fixtureJSON.Marshal(map[string]any{"success": true, "data": map[string]any{"newPlayer": created}})
		w.Header().Set("content-type", "application/json")
		_, _ = w.Write(out)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func TestClient_CreateThenListRoundTrip(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, &rosterServer{nextID: 40}, resilience.CircuitBreakerConfig{})

	created, err := client.CreatePlayer(context.Background(), player.CreateInput{Name: "Rex", Breed: "Lab"})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}

	players, err := client.ListPlayers(context.Background())
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	if len(players) != 1 {
		t.Fatalf("expected one player, got %+v", players)
	}
	got := players[0]
	if got.ID != created.ID || got.Name != "Rex" || got.Breed != "Lab" {
		t.Fatalf("unexpected listed player: %+v", got)
	}
	if got.Status != player.DefaultStatus || got.TeamName() != player.UnassignedTeamName {
		t.Fatalf("expected default status and unassigned team, got status=%q team=%q", got.Status, got.TeamName())
	}
}

func TestClient_CreatePlayerSendsDefaults(t *testing.T) {
	t.Parallel()

	var received map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("content-type"); ct != "application/json" {
			t.Errorf("unexpected content-type %q", ct)
		}
		raw, _ := io.ReadAll(r.Body)
		if err := fixtureJSON.Unmarshal(raw, &received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		writeFixture(t, w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{"newPlayer": map[string]any{
				"id": 99, "name": "Rex", "breed": "Lab", "status": "bench", "imageUrl": "", "teamId": nil,
			}},
		})
	}), resilience.CircuitBreakerConfig{})

	created, err := client.CreatePlayer(context.Background(), player.CreateInput{Name: " Rex ", Breed: "Lab"})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	if created.ID != 99 || created.Name != "Rex" {
		t.Fatalf("unexpected created player: %+v", created)
	}
	if received["name"] != "Rex" || received["breed"] != "Lab" || received["status"] != "bench" || received["imageUrl"] != "" {
		t.Fatalf("unexpected request body: %v", received)
	}
}

func TestClient_CreatePlayerInvalidInputSkipsNetwork(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}), resilience.CircuitBreakerConfig{})

	_, err := client.CreatePlayer(context.Background(), player.CreateInput{Name: "Rex", Breed: "   "})
	if !errors.Is(err, usecase.ErrCreateFailure) || !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected create failure wrapping invalid input, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no remote calls, got %d", calls.Load())
	}
}

func TestClient_CreatePlayerRejected(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeFixture(t, w, http.StatusOK, map[string]any{
			"success": false,
			"error":   map[string]any{"name": "ValidationError", "message": "breed too long"},
		})
	}), resilience.CircuitBreakerConfig{})

	_, err := client.CreatePlayer(context.Background(), player.CreateInput{Name: "Rex", Breed: "Lab"})
	if !errors.Is(err, usecase.ErrCreateFailure) {
		t.Fatalf("expected ErrCreateFailure, got %v", err)
	}
	if errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("remote rejection must not be reported as local invalid input")
	}
}

func TestClient_DeletePlayer(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	deleted := map[string]bool{}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.URL.Path == "/api/2601-test/players/500":
			http.Error(w, "boom", http.StatusBadGateway)
		case deleted[r.URL.Path]:
			writeFixture(t, w, http.StatusNotFound, map[string]any{
				"success": false,
				"error":   map[string]any{"name": "NotFoundError", "message": "Player not found"},
			})
		default:
			deleted[r.URL.Path] = true
			writeFixture(t, w, http.StatusOK, map[string]any{"success": true, "data": nil})
		}
	}), resilience.CircuitBreakerConfig{})

	if err := client.DeletePlayer(context.Background(), 2); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := client.DeletePlayer(context.Background(), 2); !errors.Is(err, usecase.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeated delete, got %v", err)
	}
	if err := client.DeletePlayer(context.Background(), 500); !errors.Is(err, usecase.ErrDeleteFailure) {
		t.Fatalf("expected ErrDeleteFailure, got %v", err)
	}
}

func TestClient_CircuitOpensOnTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}), resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	})

	for i := 0; i < 2; i++ {
		if _, err := client.ListPlayers(context.Background()); !errors.Is(err, usecase.ErrFetchFailure) {
			t.Fatalf("call %d: expected ErrFetchFailure, got %v", i, err)
		}
	}

	_, err := client.ListPlayers(context.Background())
	if !errors.Is(err, usecase.ErrFetchFailure) || !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected fetch failure wrapping dependency unavailable, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected breaker to stop remote calls, got %d", calls.Load())
	}
	if state := client.CircuitState(); state != resilience.CircuitStateOpen {
		t.Fatalf("expected open breaker, got %s", state)
	}
}

func TestClient_NotFoundDoesNotTripCircuit(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}), resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 1,
		OpenTimeout:      time.Minute,
	})

	for i := 0; i < 3; i++ {
		if err := client.DeletePlayer(context.Background(), 9); !errors.Is(err, usecase.ErrNotFound) {
			t.Fatalf("call %d: expected ErrNotFound, got %v", i, err)
		}
	}
	if state := client.CircuitState(); state != resilience.CircuitStateClosed {
		t.Fatalf("expected closed breaker, got %s", state)
	}
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(ClientConfig{BaseURL: "ftp://example.com/api"}); err == nil {
		t.Fatalf("expected scheme error")
	}

	client, err := NewClient(ClientConfig{Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if client.playersURL != DefaultBaseURL+"/"+DefaultCohort+"/players" {
		t.Fatalf("unexpected players url %q", client.playersURL)
	}
}
