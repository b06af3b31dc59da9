package ankiconnect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"deckify/internal/config"
	"deckify/internal/notes"
	"deckify/internal/services"
)

const (
	serviceName     = "ankiconnect"
	protocolVersion = 6
	defaultTimeout  = 15 * time.Second

	// TagDeckify is attached to every note deckify creates.
	TagDeckify = "deckify"
	// TagNeedsReview marks notes the analysis flagged for a second look.
	TagNeedsReview = "needs-review"
)

// HTTPDoer describes the HTTP client used by the AnkiConnect client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError carries the error string AnkiConnect placed in its envelope.
type APIError struct {
	Action  string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// StatusError reports a non-2xx HTTP answer.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("AnkiConnect unreachable (http %d)", e.StatusCode)
}

// NoteOptions controls duplicate handling for inserted notes.
type NoteOptions struct {
	AllowDuplicate bool
	DuplicateScope string
}

// Client speaks the AnkiConnect JSON protocol.
type Client struct {
	endpoint string
	apiKey   string
	client   HTTPDoer
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.client = doer
		}
	}
}

// NewClient constructs a client from the [anki] configuration section.
func NewClient(cfg config.Anki, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		endpoint: strings.TrimSpace(cfg.URL),
		apiKey:   strings.TrimSpace(cfg.APIKey),
		client:   &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the AnkiConnect URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Version returns the protocol version reported by AnkiConnect.
func (c *Client) Version(ctx context.Context) (int, error) {
	var version int
	if err := c.invoke(ctx, "version", nil, &version); err != nil {
		return 0, err
	}
	return version, nil
}

// Available reports whether AnkiConnect answers the version action.
func (c *Client) Available(ctx context.Context) bool {
	_, err := c.Version(ctx)
	return err == nil
}

// CreateDeck creates the deck if it does not exist yet. AnkiConnect treats an
// existing deck as success.
func (c *Client) CreateDeck(ctx context.Context, deck string) error {
	deck = strings.TrimSpace(deck)
	if deck == "" {
		return services.Wrap(services.ErrValidation, serviceName, "createDeck", "deck name is empty", nil)
	}
	return c.invoke(ctx, "createDeck", map[string]any{"deck": deck}, nil)
}

type noteFields struct {
	ExpressionOrWord string `json:"ExpressionOrWord"`
	Reading          string `json:"Reading"`
	Meaning          string `json:"Meaning"`
	Example          string `json:"Example"`
}

type noteOptions struct {
	AllowDuplicate bool   `json:"allowDuplicate"`
	DuplicateScope string `json:"duplicateScope"`
}

type note struct {
	DeckName  string      `json:"deckName"`
	ModelName string      `json:"modelName"`
	Fields    noteFields  `json:"fields"`
	Options   noteOptions `json:"options"`
	Tags      []string    `json:"tags"`
}

// AddNotes inserts one note per card. It returns the note ids in card order;
// AnkiConnect reports a null id for notes it refused and those are returned
// as 0. An empty card list performs no request.
func (c *Client) AddNotes(ctx context.Context, deck, model string, cards []notes.Card, opts NoteOptions) ([]int64, error) {
	if len(cards) == 0 {
		return nil, nil
	}
	scope := strings.TrimSpace(opts.DuplicateScope)
	if scope == "" {
		scope = "deck"
	}
	payload := make([]note, 0, len(cards))
	for _, card := range cards {
		tags := []string{TagDeckify}
		if card.NeedsReview {
			tags = append(tags, TagNeedsReview)
		}
		payload = append(payload, note{
			DeckName:  deck,
			ModelName: model,
			Fields: noteFields{
				ExpressionOrWord: card.Expression,
				Reading:          card.Reading,
				Meaning:          card.Meaning,
				Example:          card.Example,
			},
			Options: noteOptions{AllowDuplicate: opts.AllowDuplicate, DuplicateScope: scope},
			Tags:    tags,
		})
	}

	var ids []*int64
	if err := c.invoke(ctx, "addNotes", map[string]any{"notes": payload}, &ids); err != nil {
		return nil, err
	}
	out := make([]int64, len(ids))
	for i, id := range ids {
		if id != nil {
			out[i] = *id
		}
	}
	return out, nil
}

type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params"`
	Key     string `json:"key,omitempty"`
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

func (c *Client) invoke(ctx context.Context, action string, params any, result any) error {
	if params == nil {
		params = map[string]any{}
	}
	body, err := json.Marshal(request{Action: action, Version: protocolVersion, Params: params, Key: c.apiKey})
	if err != nil {
		return services.Wrap(services.ErrValidation, serviceName, action, "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return services.Wrap(services.ErrValidation, serviceName, action, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrUnavailable, serviceName, action, "AnkiConnect unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		return services.Wrap(services.ErrUnavailable, serviceName, action, "", &StatusError{StatusCode: resp.StatusCode})
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return services.Wrap(services.ErrUnavailable, serviceName, action, "read response", err)
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return services.Wrap(services.ErrDecode, serviceName, action, "unable to decode response", err)
	}
	if env.Error != nil && strings.TrimSpace(*env.Error) != "" {
		return services.Wrap(services.ErrRemote, serviceName, action, "", &APIError{Action: action, Message: *env.Error})
	}
	if result == nil || len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, result); err != nil {
		return services.Wrap(services.ErrDecode, serviceName, action, "unexpected result", err)
	}
	return nil
}
