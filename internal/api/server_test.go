package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/contextcat/internal/aggregate"
	"github.com/dgallion1/contextcat/internal/config"
	"github.com/dgallion1/contextcat/internal/pipeline"
	"github.com/dgallion1/contextcat/internal/settings"
	"github.com/dgallion1/contextcat/internal/vault"
)

const testKey = "test-key"

type testEnv struct {
	dir  string
	srv  *httptest.Server
	orch *pipeline.Orchestrator
}

func newTestEnv(t *testing.T, files map[string]string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	v, err := vault.Open(dir)
	if err != nil {
		t.Fatalf("open vault: %v", err)
	}
	cfg := config.Config{
		APIKey:       testKey,
		DefaultMode:  "replace",
		MaxQueueSize: 10,
		JobTTL:       time.Hour,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := settings.NewStore(config.DefaultSettingsFile(dir))
	if err := store.Put(settings.Settings{FilterType: false}); err != nil {
		t.Fatal(err)
	}

	agg := aggregate.New(v, log, 4)
	orch := pipeline.NewOrchestrator(cfg, agg, v, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	srv := httptest.NewServer(NewServer(orch, agg, v, store, log, cfg))
	t.Cleanup(srv.Close)

	return &testEnv{dir: dir, srv: srv, orch: orch}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rdr)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+testKey)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var out map[string]any
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp, out
}

var projectFiles = map[string]string{
	"active.md": "# Projects\n",
	"alpha.md":  "## Projects Alpha\nLine1\n",
}

func TestHealthNeedsNoAuth(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, err := http.Get(env.srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := http.Get(env.srv.URL + "/api/settings")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/api/settings", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", resp.StatusCode)
	}
}

func TestAggregateDryRun(t *testing.T) {
	env := newTestEnv(t, projectFiles)

	resp, body := env.do(t, http.MethodPost, "/api/aggregate", `{"active_path":"active.md","html":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	want := "# Projects\n## [[alpha]]\nLine1\n\n"
	if body["content"] != want {
		t.Errorf("expected content %q, got %q", want, body["content"])
	}
	if html, _ := body["html"].(string); !strings.Contains(html, "<h1>Projects</h1>") {
		t.Errorf("expected rendered html, got %q", html)
	}
	if outline, _ := body["outline"].([]any); len(outline) != 2 {
		t.Errorf("expected 2 outline entries, got %v", body["outline"])
	}

	data, _ := os.ReadFile(filepath.Join(env.dir, "active.md"))
	if string(data) != "# Projects\n" {
		t.Errorf("expected dry run to leave the document alone, got %q", data)
	}
}

func TestAggregateErrors(t *testing.T) {
	env := newTestEnv(t, projectFiles)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"missing active path", `{}`, http.StatusUnprocessableEntity},
		{"unknown document", `{"active_path":"nope.md"}`, http.StatusUnprocessableEntity},
		{"bad mode", `{"active_path":"active.md","mode":"merge"}`, http.StatusBadRequest},
		{"unknown field", `{"path":"active.md"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp, body := env.do(t, http.MethodPost, "/api/aggregate", tt.body)
		if resp.StatusCode != tt.code {
			t.Errorf("%s: expected %d, got %d (%v)", tt.name, tt.code, resp.StatusCode, body)
		}
		if body["error"] == nil {
			t.Errorf("%s: expected an error message", tt.name)
		}
	}
}

func TestSubmitRunAndPoll(t *testing.T) {
	env := newTestEnv(t, projectFiles)

	resp, body := env.do(t, http.MethodPost, "/api/runs", `{"active_path":"active.md"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %v", resp.StatusCode, body)
	}
	pollURL, _ := body["poll_url"].(string)
	if pollURL == "" {
		t.Fatalf("expected poll_url, got %v", body)
	}

	deadline := time.Now().Add(5 * time.Second)
	var status string
	for time.Now().Before(deadline) {
		_, snap := env.do(t, http.MethodGet, pollURL, "")
		status, _ = snap["status"].(string)
		if pipeline.JobStatus(status).Terminal() {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if status != string(pipeline.StatusCompleted) {
		t.Fatalf("expected completed, got %q", status)
	}

	data, _ := os.ReadFile(filepath.Join(env.dir, "active.md"))
	if string(data) != "# Projects\n## [[alpha]]\nLine1\n\n" {
		t.Errorf("unexpected document content %q", data)
	}

	resp, _ = env.do(t, http.MethodGet, "/api/runs/does-not-exist/status", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown job, got %d", resp.StatusCode)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodPut, "/api/settings", `{"selected_folder":"/notes/","filter_type":false}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	if body["selected_folder"] != "notes" {
		t.Errorf("expected cleaned folder %q, got %v", "notes", body["selected_folder"])
	}

	_, body = env.do(t, http.MethodGet, "/api/settings", "")
	if body["selected_folder"] != "notes" || body["filter_type"] != false {
		t.Errorf("unexpected settings %v", body)
	}

	_, body = env.do(t, http.MethodPut, "/api/settings", `{"inputted_folder":"projects"}`)
	if body["filter_type"] != true {
		t.Errorf("expected omitted filter_type to default to glob, got %v", body)
	}
}

func TestFolders(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"a/one.md":   "x",
		"a/b/two.md": "y",
	})
	resp, body := env.do(t, http.MethodGet, "/api/folders", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	got, _ := json.Marshal(body["folders"])
	if string(got) != `["/","a","a/b"]` {
		t.Errorf("unexpected folders %s", got)
	}
}

func TestRunStats(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, body := env.do(t, http.MethodGet, "/api/stats/runs", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if _, ok := body["stats"]; !ok {
		t.Errorf("expected stats in response, got %v", body)
	}
}
