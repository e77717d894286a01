package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

type fakeAnkiServer struct {
	*httptest.Server
	addNotesCalls atomic.Int64
}

func newFakeAnkiServer(t *testing.T, addNotesResult string) *fakeAnkiServer {
	t.Helper()
	fake := &fakeAnkiServer{}
	fake.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Action string `json:"action"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode anki request: %v", err)
		}
		switch payload.Action {
		case "version":
			fmt.Fprint(w, `{"result": 6, "error": null}`)
		case "addNotes":
			fake.addNotesCalls.Add(1)
			fmt.Fprintf(w, `{"result": %s, "error": null}`, addNotesResult)
		default:
			t.Fatalf("unexpected anki action %q", payload.Action)
		}
	}))
	t.Cleanup(fake.Close)
	return fake
}

type fakeLingQServer struct {
	*httptest.Server
	markCalls atomic.Int64
}

func newFakeLingQServer(t *testing.T, cardsBody string) *fakeLingQServer {
	t.Helper()
	fake := &fakeLingQServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/api-token-auth/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"token": "tok"}`)
	})
	mux.HandleFunc("/api/v2/fr/cards", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, cardsBody)
	})
	mux.HandleFunc("/api/languages/fr/lingqs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Fatalf("expected PUT for mark known, got %s", r.Method)
		}
		fake.markCalls.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	fake.Server = httptest.NewServer(mux)
	t.Cleanup(fake.Close)
	return fake
}

func writeTestConfig(t *testing.T, ankiURL, lingqURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	content := fmt.Sprintf(`
[anki]
url = %q
deck = "French"
model = "Basic"

[lingq]
base_url = %q
`, ankiURL, lingqURL)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runImport(t *testing.T, configPath string, extra ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	args := append([]string{
		"import", "--config", configPath,
		"--username", "alice", "--password", "secret", "--language", "fr",
	}, extra...)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), err
}

const twoCardsOneHintless = `{
	"count": 2,
	"results": [
		{"pk": 1, "term": "dès que", "status": 0,
			"hints": [{"id": 1, "locale": "en", "text": "as soon as"}]},
		{"pk": 2, "term": "pourtant", "status": 0, "hints": []}
	]
}`

func TestImportLive(t *testing.T) {
	ankiServer := newFakeAnkiServer(t, `[12345]`)
	lingqServer := newFakeLingQServer(t, twoCardsOneHintless)
	configPath := writeTestConfig(t, ankiServer.URL, lingqServer.URL)

	stdout, err := runImport(t, configPath)
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}
	if !strings.Contains(stdout, "Added card: dès que -> as soon as") {
		t.Fatalf("missing added line in output:\n%s", stdout)
	}
	if !strings.Contains(stdout, "1 new cards added") {
		t.Fatalf("missing summary in output:\n%s", stdout)
	}
	if got := ankiServer.addNotesCalls.Load(); got != 1 {
		t.Fatalf("expected 1 addNotes call, got %d", got)
	}
}

func TestImportReportsDuplicates(t *testing.T) {
	ankiServer := newFakeAnkiServer(t, `[12345, null]`)
	lingqServer := newFakeLingQServer(t, `{
		"count": 2,
		"results": [
			{"pk": 1, "term": "a", "status": 0, "hints": [{"text": "x"}]},
			{"pk": 2, "term": "b", "status": 0, "hints": [{"text": "y"}]}
		]
	}`)
	configPath := writeTestConfig(t, ankiServer.URL, lingqServer.URL)

	stdout, err := runImport(t, configPath)
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}
	if !strings.Contains(stdout, "Added card: a -> x") {
		t.Fatalf("missing added line:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Card was a duplicate: b") {
		t.Fatalf("missing duplicate line:\n%s", stdout)
	}
	if !strings.Contains(stdout, "1 new cards added") {
		t.Fatalf("missing summary:\n%s", stdout)
	}
}

func TestImportDryRun(t *testing.T) {
	ankiServer := newFakeAnkiServer(t, `[]`)
	lingqServer := newFakeLingQServer(t, twoCardsOneHintless)
	configPath := writeTestConfig(t, ankiServer.URL, lingqServer.URL)

	stdout, err := runImport(t, configPath, "--dry-run")
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}
	if !strings.Contains(stdout, "Would add card: dès que -> as soon as") {
		t.Fatalf("missing dry-run line:\n%s", stdout)
	}
	if strings.Contains(stdout, "new cards added") {
		t.Fatalf("dry run should not print a created-count summary:\n%s", stdout)
	}
	if got := ankiServer.addNotesCalls.Load(); got != 0 {
		t.Fatalf("dry run must not call addNotes, got %d calls", got)
	}
}

func TestImportMarkKnownDryRun(t *testing.T) {
	ankiServer := newFakeAnkiServer(t, `[]`)
	lingqServer := newFakeLingQServer(t, `{
		"count": 3,
		"results": [
			{"pk": 1, "term": "a", "status": 0, "hints": [{"text": "x"}]},
			{"pk": 2, "term": "b", "status": 0, "hints": [{"text": "y"}]},
			{"pk": 3, "term": "c", "status": 0, "hints": [{"text": "z"}]}
		]
	}`)
	configPath := writeTestConfig(t, ankiServer.URL, lingqServer.URL)

	stdout, err := runImport(t, configPath, "--dry-run", "--mark-known")
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}
	if got := strings.Count(stdout, "Would mark lingq"); got != 3 {
		t.Fatalf("expected 3 would-mark lines, got %d:\n%s", got, stdout)
	}
	if got := lingqServer.markCalls.Load(); got != 0 {
		t.Fatalf("dry run must not mark cards, got %d calls", got)
	}
}

func TestImportMarkKnownLive(t *testing.T) {
	ankiServer := newFakeAnkiServer(t, `[12345]`)
	lingqServer := newFakeLingQServer(t, twoCardsOneHintless)
	configPath := writeTestConfig(t, ankiServer.URL, lingqServer.URL)

	stdout, err := runImport(t, configPath, "--mark-known")
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}
	// Every fetched card is marked, including the hint-less one.
	if got := lingqServer.markCalls.Load(); got != 2 {
		t.Fatalf("expected 2 mark calls, got %d", got)
	}
	if got := strings.Count(stdout, "Marked lingq"); got != 2 {
		t.Fatalf("expected 2 marked lines, got %d:\n%s", got, stdout)
	}
}

func TestImportPaginationGuardAborts(t *testing.T) {
	ankiServer := newFakeAnkiServer(t, `[]`)
	lingqServer := newFakeLingQServer(t, `{"count": 5, "results": [{"pk": 1, "term": "a", "hints": []}]}`)
	configPath := writeTestConfig(t, ankiServer.URL, lingqServer.URL)

	stdout, err := runImport(t, configPath)
	if err == nil {
		t.Fatalf("expected pagination guard error, got output:\n%s", stdout)
	}
	if !strings.Contains(err.Error(), "pagination") {
		t.Fatalf("error should mention pagination, got %v", err)
	}
}
