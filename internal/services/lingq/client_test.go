package lingq_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"lingsync/internal/services"
	"lingsync/internal/services/lingq"
)

func newClient(t *testing.T, handler http.HandlerFunc) *lingq.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := lingq.New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestNewRejectsInvalidURL(t *testing.T) {
	if _, err := lingq.New("://bad"); err == nil {
		t.Fatal("expected error for malformed url")
	}
	if _, err := lingq.New("www.lingq.com"); err == nil {
		t.Fatal("expected error for url without scheme")
	}
}

func TestLoginSuccess(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/api-token-auth/" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("username") != "alice" || r.PostForm.Get("password") != "secret" {
			t.Fatalf("unexpected form values: %v", r.PostForm)
		}
		_, _ = w.Write([]byte(`{"token": "tok-123"}`))
	})

	token, err := client.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if token != "tok-123" {
		t.Fatalf("unexpected token %q", token)
	}
}

func TestLoginRejected(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"non_field_errors": ["Unable to log in with provided credentials."]}`))
	})

	_, err := client.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func TestLoginEmptyToken(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token": ""}`))
	})

	_, err := client.Login(context.Background(), "alice", "secret")
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected ErrAuth for empty token, got %v", err)
	}
}

func TestLanguagesSendsTokenHeader(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/languages" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Token tok-123" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		_, _ = w.Write([]byte(`[{"code": "fr", "title": "French"}, {"code": "de", "title": "German"}]`))
	})

	languages, err := client.Languages(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("Languages returned error: %v", err)
	}
	if len(languages) != 2 || languages[0].Code != "fr" || languages[1].Title != "German" {
		t.Fatalf("unexpected languages: %#v", languages)
	}
}

func TestCardsSuccess(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/fr/cards" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("sort") != "date" || query.Get("status") != "0" {
			t.Fatalf("unexpected query %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{
			"count": 1,
			"results": [{"pk": 185034977, "term": "dès que", "status": 0,
				"hints": [{"id": 83696, "locale": "en", "text": "as soon as", "popularity": 592}]}]
		}`))
	})

	cards, err := client.Cards(context.Background(), "tok", "fr", lingq.StatusNew)
	if err != nil {
		t.Fatalf("Cards returned error: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(cards))
	}
	card := cards[0]
	if card.ID != 185034977 || card.Term != "dès que" {
		t.Fatalf("unexpected card: %#v", card)
	}
	if len(card.Hints) != 1 || card.Hints[0].Text != "as soon as" {
		t.Fatalf("unexpected hints: %#v", card.Hints)
	}
}

func TestCardsPaginationGuard(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count": 5, "results": [{"pk": 1}, {"pk": 2}, {"pk": 3}]}`))
	})

	_, err := client.Cards(context.Background(), "tok", "fr", lingq.StatusNew)
	if !errors.Is(err, services.ErrPagination) {
		t.Fatalf("expected ErrPagination, got %v", err)
	}
}

func TestMarkKnown(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Fatalf("expected PUT, got %s", r.Method)
		}
		if r.URL.Path != "/api/languages/fr/lingqs/185034977/" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		var payload map[string]int
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if payload["status"] != lingq.StatusKnown {
			t.Fatalf("expected status 3, got %d", payload["status"])
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := client.MarkKnown(context.Background(), "tok", "fr", 185034977); err != nil {
		t.Fatalf("MarkKnown returned error: %v", err)
	}
}

func TestMarkKnownTransportError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := client.MarkKnown(context.Background(), "tok", "fr", 42)
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestMarkKnownValidatesInput(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	if err := client.MarkKnown(context.Background(), "tok", "", 1); err == nil {
		t.Fatal("expected error for empty language code")
	}
	if err := client.MarkKnown(context.Background(), "tok", "fr", 0); err == nil {
		t.Fatal("expected error for invalid card id")
	}
}
