// Package openrouter fetches model pricing from the OpenRouter API.
package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mikey/clawtools/internal/usage"
	"github.com/mikey/clawtools/internal/utils"
	"go.uber.org/zap"
)

// DefaultBaseURL is the public API root
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// maxResponseSize bounds the models listing
const maxResponseSize = 32 << 20

// ErrMissingAPIKey is returned when prices are requested without a key
var ErrMissingAPIKey = errors.New("OPENROUTER_API_KEY not set; cannot fetch pricing. (You can still get token totals without costs.)")

// Error is a non-2xx response from the API
type Error struct {
	Status     int
	StatusText string
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to fetch OpenRouter models: HTTP %d %s\n%s", e.Status, e.StatusText, e.Body)
}

// Client talks to the OpenRouter REST API
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

// NewClient creates a new OpenRouter client. An empty baseURL uses the
// public endpoint.
func NewClient(apiKey, baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}
}

// price is a per-token USD price, sent by the API as a string
type price struct {
	value *float64
}

func (p *price) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Unparseable prices are treated as unknown
		return nil
	}
	p.value = &f
	return nil
}

type modelsResponse struct {
	Data []struct {
		ID      string `json:"id"`
		Pricing struct {
			Prompt     price `json:"prompt"`
			Completion price `json:"completion"`
			Image      price `json:"image"`
		} `json:"pricing"`
	} `json:"data"`
}

// FetchPrices downloads the current price table
func (c *Client) FetchPrices(ctx context.Context) (*usage.PriceSnapshot, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := utils.Truncate(string(body), 500)
		return nil, &Error{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       text,
		}
	}

	var parsed modelsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	now := c.now().UTC()
	snapshot := &usage.PriceSnapshot{FetchedAt: &now, Prices: make(map[string]usage.ModelPrice, len(parsed.Data))}
	for _, m := range parsed.Data {
		snapshot.Prices[m.ID] = usage.ModelPrice{
			Prompt:     m.Pricing.Prompt.value,
			Completion: m.Pricing.Completion.value,
			Image:      m.Pricing.Image.value,
		}
	}

	c.logger.Info("Fetched OpenRouter prices", zap.Int("models", len(snapshot.Prices)))
	return snapshot, nil
}
