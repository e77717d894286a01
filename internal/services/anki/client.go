package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lingsync/internal/services"
)

const (
	defaultBaseURL     = "http://localhost:8765"
	defaultHTTPTimeout = 10 * time.Second

	// AnkiConnect wire protocol version carried in every request.
	protocolVersion = 6
)

// ErrDuplicate reports that AnkiConnect rejected a note because an identical
// note (deck+model+fields) already exists. This is a normal outcome, not a
// failure.
var ErrDuplicate = errors.New("note is a duplicate")

// Note is a single flashcard creation payload.
type Note struct {
	DeckName  string
	ModelName string
	Fields    map[string]string
	Tags      []string
}

// Connector defines the AnkiConnect operations used by the import workflow.
type Connector interface {
	Version(ctx context.Context) (int, error)
	AddNote(ctx context.Context, note Note) (int64, error)
	AddNotes(ctx context.Context, notes []Note) ([]*int64, error)
}

// Client wraps the AnkiConnect request/response action protocol.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ Connector = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// New creates an AnkiConnect client. An empty baseURL selects the
// conventional local endpoint.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("ankiconnect: invalid url %q", baseURL)
	}
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type request struct {
	Action  string `json:"action"`
	Params  any    `json:"params,omitempty"`
	Version int    `json:"version"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// invoke sends {action, params, version} and returns the raw result field.
// A non-nil error field becomes ErrProtocol; HTTP-level failures become
// ErrTransport.
func (c *Client) invoke(ctx context.Context, action string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(request{Action: action, Params: params, Version: protocolVersion})
	if err != nil {
		return nil, fmt.Errorf("ankiconnect: encode %s request: %w", action, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ankiconnect: build %s request: %w", action, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "ankiconnect", action, "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, services.Wrap(services.ErrTransport, "ankiconnect", action, "request failed ("+resp.Status+")", nil)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrTransport, "ankiconnect", action, "decode response", err)
	}
	if payload.Error != nil {
		return nil, services.Wrap(services.ErrProtocol, "ankiconnect", action, *payload.Error, nil)
	}
	return payload.Result, nil
}

// Version probes the AnkiConnect endpoint and returns its protocol version.
// Every command runs this before anything else as a connectivity check.
func (c *Client) Version(ctx context.Context) (int, error) {
	raw, err := c.invoke(ctx, "version", nil)
	if err != nil {
		return 0, err
	}
	var version int
	if err := json.Unmarshal(raw, &version); err != nil {
		return 0, fmt.Errorf("ankiconnect: decode version: %w", err)
	}
	return version, nil
}

// DeckNames lists all deck names.
func (c *Client) DeckNames(ctx context.Context) ([]string, error) {
	return c.invokeStrings(ctx, "deckNames", nil)
}

// ModelNames lists all note model names.
func (c *Client) ModelNames(ctx context.Context) ([]string, error) {
	return c.invokeStrings(ctx, "modelNames", nil)
}

// ModelFieldNames lists the field names of the named note model.
func (c *Client) ModelFieldNames(ctx context.Context, modelName string) ([]string, error) {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		return nil, errors.New("ankiconnect: model name must not be empty")
	}
	return c.invokeStrings(ctx, "modelFieldNames", map[string]string{"modelName": modelName})
}

func (c *Client) invokeStrings(ctx context.Context, action string, params any) ([]string, error) {
	raw, err := c.invoke(ctx, action, params)
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("ankiconnect: decode %s response: %w", action, err)
	}
	return names, nil
}

type wireNote struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Options   wireNoteOptions   `json:"options"`
	Tags      []string          `json:"tags"`
}

type wireNoteOptions struct {
	AllowDuplicate bool `json:"allowDuplicate"`
}

func toWire(note Note) wireNote {
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}
	return wireNote{
		DeckName:  note.DeckName,
		ModelName: note.ModelName,
		Fields:    note.Fields,
		Options:   wireNoteOptions{AllowDuplicate: false},
		Tags:      tags,
	}
}

// AddNote creates a single note and returns its id. Duplicate rejections are
// reported as ErrDuplicate; any other protocol or transport error is returned
// as-is.
func (c *Client) AddNote(ctx context.Context, note Note) (int64, error) {
	raw, err := c.invoke(ctx, "addNote", map[string]any{"note": toWire(note)})
	if err != nil {
		if errors.Is(err, services.ErrProtocol) && strings.Contains(strings.ToLower(err.Error()), "duplicate") {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	var id *int64
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0, fmt.Errorf("ankiconnect: decode addNote response: %w", err)
	}
	if id == nil {
		return 0, ErrDuplicate
	}
	return *id, nil
}

// AddNotes creates notes in one batch. The returned slice aligns positionally
// with the input: a nil entry at position i means note i was a duplicate and
// was not created.
func (c *Client) AddNotes(ctx context.Context, notes []Note) ([]*int64, error) {
	wire := make([]wireNote, 0, len(notes))
	for _, note := range notes {
		wire = append(wire, toWire(note))
	}
	raw, err := c.invoke(ctx, "addNotes", map[string]any{"notes": wire})
	if err != nil {
		return nil, err
	}
	var ids []*int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("ankiconnect: decode addNotes response: %w", err)
	}
	if len(ids) != len(notes) {
		return nil, services.Wrap(services.ErrProtocol, "ankiconnect", "addNotes",
			fmt.Sprintf("submitted %d notes but received %d results", len(notes), len(ids)), nil)
	}
	return ids, nil
}
