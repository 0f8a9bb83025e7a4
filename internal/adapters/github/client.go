// Package github lists pull requests awaiting the user's review via the gh CLI.
package github

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/mikey/clawtools/internal/ports"
	"go.uber.org/zap"
)

// NotAuthenticated is reported when gh has no usable login
const NotAuthenticated = "gh not authenticated. Run: gh auth login"

var notLoggedIn = regexp.MustCompile(`(?i)not logged in`)

// Client implements ports.ReviewLister with the gh CLI
type Client struct {
	bin    string
	limit  int
	runner ports.CommandRunner
	logger *zap.Logger
}

// NewClient creates a new gh client
func NewClient(bin string, limit int, runner ports.CommandRunner, logger *zap.Logger) *Client {
	if bin == "" {
		bin = "gh"
	}
	if limit <= 0 {
		limit = 50
	}
	return &Client{bin: bin, limit: limit, runner: runner, logger: logger}
}

type searchResult struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
	Repository struct {
		NameWithOwner string `json:"nameWithOwner"`
	} `json:"repository"`
	Author struct {
		Login string `json:"login"`
	} `json:"author"`
}

// ListReviewRequests checks gh auth, then searches open PRs requesting
// the user's review. Search failures degrade to an empty list.
func (c *Client) ListReviewRequests(ctx context.Context) (*ports.ReviewStatus, error) {
	out, err := c.runner.Run(ctx, c.bin, "auth", "status")
	status := strings.TrimSpace(string(out))
	if err != nil || status == "" || notLoggedIn.MatchString(status) {
		c.logger.Debug("gh not authenticated", zap.Error(err))
		return &ports.ReviewStatus{Authenticated: false}, nil
	}

	out, err = c.runner.Run(ctx, c.bin,
		"search", "prs",
		"--review-requested", "@me",
		"--state", "open",
		"--limit", strconv.Itoa(c.limit),
		"--json", "title,url,repository,author,createdAt,updatedAt",
	)
	if err != nil {
		c.logger.Warn("gh search failed", zap.Error(err))
		return &ports.ReviewStatus{Authenticated: true, Items: []ports.ReviewRequest{}}, nil
	}

	return &ports.ReviewStatus{Authenticated: true, Items: c.parse(out)}, nil
}

func (c *Client) parse(out []byte) []ports.ReviewRequest {
	items := []ports.ReviewRequest{}

	var raws []json.RawMessage
	if err := json.Unmarshal(out, &raws); err != nil {
		c.logger.Warn("Failed to parse gh output", zap.Error(err))
		return items
	}

	for _, raw := range raws {
		var r searchResult
		if err := json.Unmarshal(raw, &r); err != nil {
			continue
		}
		items = append(items, ports.ReviewRequest{
			Title:      r.Title,
			URL:        r.URL,
			Repository: r.Repository.NameWithOwner,
			Author:     r.Author.Login,
			CreatedAt:  r.CreatedAt,
			UpdatedAt:  r.UpdatedAt,
			Raw:        raw,
		})
	}
	return items
}
