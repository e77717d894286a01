package lingq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lingsync/internal/services"
)

const (
	defaultBaseURL     = "https://www.lingq.com"
	defaultHTTPTimeout = 30 * time.Second
)

// Learning-status codes are an external contract fixed by the LingQ API.
const (
	StatusNew   = 0
	StatusKnown = 3
)

// Hint is a candidate translation attached to a Card, ordered by the service.
type Hint struct {
	ID         int64  `json:"id"`
	Locale     string `json:"locale"`
	Text       string `json:"text"`
	Popularity int    `json:"popularity"`
}

// Card is a vocabulary item (lingQ) tracked by the learning service.
type Card struct {
	ID       int64  `json:"pk"`
	Term     string `json:"term"`
	Fragment string `json:"fragment"`
	Status   int    `json:"status"`
	Notes    string `json:"notes"`
	Hints    []Hint `json:"hints"`
}

// Language is one entry of the supported-languages listing.
type Language struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

// Vocabulary defines the LingQ operations used by the import workflow.
type Vocabulary interface {
	Login(ctx context.Context, username, password string) (string, error)
	Cards(ctx context.Context, token, languageCode string, status int) ([]Card, error)
	MarkKnown(ctx context.Context, token, languageCode string, cardID int64) error
}

// Client wraps the LingQ REST API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

var _ Vocabulary = (*Client)(nil)

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

// New creates a LingQ client. An empty baseURL selects the public service.
func New(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("lingq: parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("lingq: invalid base url %q", base)
	}
	client := &Client{
		baseURL: parsed,
		http:    &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Login exchanges credentials for a bearer token. The token is held in memory
// only; it is never persisted.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return "", services.Wrap(services.ErrAuth, "lingq", "login", "username and password are required", nil)
	}
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	endpoint := c.baseURL.JoinPath("api", "api-token-auth")
	endpoint.Path += "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("lingq: build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransport, "lingq", "login", "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", services.Wrap(services.ErrAuth, "lingq", "login", "credentials rejected ("+resp.Status+")", nil)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", services.Wrap(services.ErrTransport, "lingq", "login", "decode response", err)
	}
	if strings.TrimSpace(payload.Token) == "" {
		return "", services.Wrap(services.ErrAuth, "lingq", "login", "response carried no token", nil)
	}
	return payload.Token, nil
}

// Languages lists the languages available to the authenticated user.
func (c *Client) Languages(ctx context.Context, token string) ([]Language, error) {
	endpoint := c.baseURL.JoinPath("api", "languages")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("lingq: build languages request: %w", err)
	}
	c.applyHeaders(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "lingq", "languages", "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, services.Wrap(services.ErrTransport, "lingq", "languages", "request failed ("+resp.Status+")", nil)
	}

	var languages []Language
	if err := json.NewDecoder(resp.Body).Decode(&languages); err != nil {
		return nil, services.Wrap(services.ErrTransport, "lingq", "languages", "decode response", err)
	}
	return languages, nil
}

// Cards lists the user's vocabulary cards for a language, filtered by learning
// status and sorted by date. The response envelope carries a total count; when
// it exceeds the returned page the fetch fails with ErrPagination instead of
// silently importing an incomplete set.
func (c *Client) Cards(ctx context.Context, token, languageCode string, status int) ([]Card, error) {
	languageCode = strings.TrimSpace(languageCode)
	if languageCode == "" {
		return nil, errors.New("lingq: language code must not be empty")
	}

	endpoint := c.baseURL.JoinPath("api", "v2", languageCode, "cards")
	params := url.Values{}
	params.Set("sort", "date")
	params.Set("status", strconv.Itoa(status))
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("lingq: build cards request: %w", err)
	}
	c.applyHeaders(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "lingq", "cards", "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, services.Wrap(services.ErrTransport, "lingq", "cards", "request failed ("+resp.Status+")", nil)
	}

	var payload struct {
		Count   int    `json:"count"`
		Results []Card `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrTransport, "lingq", "cards", "decode response", err)
	}
	if len(payload.Results) != payload.Count {
		return nil, services.Wrap(services.ErrPagination, "lingq", "cards",
			fmt.Sprintf("service reported %d cards but returned %d; refusing a partial import", payload.Count, len(payload.Results)), nil)
	}
	return payload.Results, nil
}

// MarkKnown sets a card's learning status to known so it is not re-imported by
// later runs.
func (c *Client) MarkKnown(ctx context.Context, token, languageCode string, cardID int64) error {
	languageCode = strings.TrimSpace(languageCode)
	if languageCode == "" {
		return errors.New("lingq: language code must not be empty")
	}
	if cardID <= 0 {
		return fmt.Errorf("lingq: invalid card id %d", cardID)
	}

	body, err := json.Marshal(map[string]int{"status": StatusKnown})
	if err != nil {
		return fmt.Errorf("lingq: encode mark-known request: %w", err)
	}

	endpoint := c.baseURL.JoinPath("api", "languages", languageCode, "lingqs", strconv.FormatInt(cardID, 10))
	endpoint.Path += "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("lingq: build mark-known request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransport, "lingq", "mark known", "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return services.Wrap(services.ErrTransport, "lingq", "mark known", "request failed ("+resp.Status+")", nil)
	}
	return nil
}

func (c *Client) applyHeaders(req *http.Request, token string) {
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
}
