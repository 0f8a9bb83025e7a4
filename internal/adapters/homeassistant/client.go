// Package homeassistant is a small client for the Home Assistant REST API.
package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mikey/clawtools/internal/utils"
	"go.uber.org/zap"
)

// DefaultURL is used when neither the environment nor the secrets directory names one
const DefaultURL = "http://homeassistant.local:8123"

// ErrMissingToken is returned when no access token could be found
var ErrMissingToken = errors.New("HA token missing. Set HA_TOKEN or write it to secrets/ha_token (chmod 600)")

// Error is a non-2xx response from Home Assistant
type Error struct {
	Status     int
	StatusText string
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("HA HTTP %d %s: %s", e.Status, e.StatusText, e.Body)
}

// Credentials locate and authorize the Home Assistant instance
type Credentials struct {
	URL   string
	Token string
}

// ResolveCredentials prefers explicit values, then files in secretsDir,
// then the default URL. The token has no default.
func ResolveCredentials(urlValue, token, secretsDir, defaultURL string) (Credentials, error) {
	if defaultURL == "" {
		defaultURL = DefaultURL
	}
	c := Credentials{
		URL:   firstNonEmpty(urlValue, readSecret(secretsDir, "ha_url"), defaultURL),
		Token: firstNonEmpty(token, readSecret(secretsDir, "ha_token")),
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if c.Token == "" {
		return c, ErrMissingToken
	}
	return c, nil
}

func readSecret(dir, name string) string {
	if dir == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// State is one entity as returned by /api/states
type State struct {
	EntityID   string                 `json:"entity_id"`
	State      string                 `json:"state"`
	Attributes map[string]interface{} `json:"attributes"`
}

// FriendlyName returns the trimmed friendly_name attribute
func (s State) FriendlyName() string {
	name, _ := s.Attributes["friendly_name"].(string)
	return strings.TrimSpace(name)
}

// Client talks to the Home Assistant REST API
type Client struct {
	creds      Credentials
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new client. A zero timeout means no client timeout.
func NewClient(creds Credentials, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		creds:      creds,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// URL returns the base URL in use
func (c *Client) URL() string {
	return c.creds.URL
}

// do sends a request and returns the raw body of a successful response
func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.creds.URL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.creds.Token)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Home Assistant request", zap.String("method", method), zap.String("path", path))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := utils.Truncate(string(data), 800)
		return nil, &Error{Status: resp.StatusCode, StatusText: http.StatusText(resp.StatusCode), Body: text}
	}
	return data, nil
}

// decode returns parsed JSON, or the body as a string when it is not JSON
func decode(data []byte) interface{} {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	return v
}

// Ping checks the API root
func (c *Client) Ping(ctx context.Context) (interface{}, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/", nil)
	if err != nil {
		return nil, err
	}
	return decode(data), nil
}

// State returns one entity
func (c *Client) State(ctx context.Context, entityID string) (interface{}, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/states/"+url.PathEscape(entityID), nil)
	if err != nil {
		return nil, err
	}
	return decode(data), nil
}

// CallService invokes domain.service with data, which may be any JSON
// value. A nil payload is sent as an empty object.
func (c *Client) CallService(ctx context.Context, domain, service string, data interface{}) (interface{}, error) {
	if data == nil {
		data = map[string]interface{}{}
	}
	path := fmt.Sprintf("/api/services/%s/%s", url.PathEscape(domain), url.PathEscape(service))
	body, err := c.do(ctx, http.MethodPost, path, data)
	if err != nil {
		return nil, err
	}
	return decode(body), nil
}

// States returns every entity
func (c *Client) States(ctx context.Context) ([]State, error) {
	states, raw, err := c.ListStates(ctx)
	if err != nil {
		return nil, err
	}
	if states == nil {
		return nil, fmt.Errorf("unexpected /api/states response: %v", raw)
	}
	return states, nil
}

// ListStates reads /api/states. When the body is not a list of entities the
// states are nil and raw holds the decoded body.
func (c *Client) ListStates(ctx context.Context) (states []State, raw interface{}, err error) {
	data, err := c.do(ctx, http.MethodGet, "/api/states", nil)
	if err != nil {
		return nil, nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &states); err == nil {
			if states == nil {
				states = []State{}
			}
			return states, nil, nil
		}
	}
	return nil, decode(data), nil
}

// RenderTemplate renders a Jinja template server-side and returns the text
func (c *Client) RenderTemplate(ctx context.Context, template string) (string, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/template", map[string]string{"template": template})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

const (
	areaNamesTemplate = `{{ states | map(attribute="entity_id") | map("area_name") | list | tojson }}`
	areasTemplate     = `{{ areas() | join("|") }}`
)

// AreaNames returns the area name of every entity, aligned with the order
// of /api/states. Entities without an area get "".
func (c *Client) AreaNames(ctx context.Context) ([]string, error) {
	text, err := c.RenderTemplate(ctx, areaNamesTemplate)
	if err != nil {
		return nil, err
	}

	raw := []byte(strings.TrimSpace(text))
	// Some versions return the list JSON-encoded as a string
	var quoted string
	if err := json.Unmarshal(raw, &quoted); err == nil {
		raw = []byte(quoted)
	}

	var names []*string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("unexpected area list: %w", err)
	}
	out := make([]string, len(names))
	for i, n := range names {
		if n != nil {
			out[i] = *n
		}
	}
	return out, nil
}

// Areas returns the configured area ids
func (c *Client) Areas(ctx context.Context) ([]string, error) {
	text, err := c.RenderTemplate(ctx, areasTemplate)
	if err != nil {
		return nil, err
	}
	var areas []string
	for _, a := range strings.Split(strings.TrimSpace(text), "|") {
		if a != "" {
			areas = append(areas, a)
		}
	}
	return areas, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
