package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	jsoniter "github.com/json-iterator/go"
)

func rosterServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/2601-test/players" {
			http.NotFound(w, r)
			return
		}
		raw, _ := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(map[string]any{
			"success": true,
			"data": map[string]any{
				"players": []map[string]any{
					{"id": 1, "name": "Fido", "breed": "Beagle", "status": "field", "team": map[string]any{"id": 3, "name": "Ruff"}},
					{"id": 2, "name": "Max", "breed": "Pug", "status": "bench"},
				},
			},
		})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(raw)
	}))
	t.Cleanup(server.Close)
	return server
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPlayersList_JSON(t *testing.T) {
	server := rosterServer(t)

	out, err := runCLI(t, "players", "list", "--json", "--base-url", server.URL+"/api", "--cohort", "2601-test")
	if err != nil {
		t.Fatalf("players list: %v", err)
	}

	var rows []playerOutput
	if err := sonic.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if len(rows) != 2 || rows[0].Name != "Fido" || rows[1].Team != "Unassigned" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestPlayersList_Table(t *testing.T) {
	server := rosterServer(t)

	out, err := runCLI(t, "players", "list", "--base-url", server.URL+"/api", "--cohort", "2601-test")
	if err != nil {
		t.Fatalf("players list: %v", err)
	}
	for _, want := range []string{"NAME", "Fido", "Ruff", "Max", "Unassigned"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table:\n%s", want, out)
		}
	}
}

func TestPlayersGet_RejectsBadID(t *testing.T) {
	if _, err := runCLI(t, "players", "get", "abc"); err == nil {
		t.Fatalf("expected an error for a malformed id")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "puppybowl ") {
		t.Fatalf("unexpected version output %q", out)
	}
}
