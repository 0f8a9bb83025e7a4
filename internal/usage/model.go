// Package usage aggregates assistant token usage and cost from agent session logs.
package usage

import "time"

// Tokens counts tokens by kind
type Tokens struct {
	Input      int64 `json:"input"`
	Output     int64 `json:"output"`
	CacheRead  int64 `json:"cacheRead"`
	CacheWrite int64 `json:"cacheWrite"`
	Total      int64 `json:"total"`
}

func (t *Tokens) add(o Tokens) {
	t.Input += o.Input
	t.Output += o.Output
	t.CacheRead += o.CacheRead
	t.CacheWrite += o.CacheWrite
	t.Total += o.Total
}

// Cost splits spend into what the logs recorded and what was estimated
// from the price table
type Cost struct {
	Known                float64 `json:"known"`
	Estimated            float64 `json:"estimated"`
	MissingPricingTokens int64   `json:"missingPricingTokens"`
}

// Effective returns the known cost when there is one, else the estimate
func (c Cost) Effective() float64 {
	if c.Known > 0 {
		return c.Known
	}
	return c.Estimated
}

// ModelUsage is the usage attributed to one normalized model key
type ModelUsage struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Messages int    `json:"messages"`
	Tokens   Tokens `json:"tokens"`
	Cost     Cost   `json:"cost"`
}

// Report is the aggregate for one time window
type Report struct {
	StartMs         int64                  `json:"startMs"`
	EndMs           int64                  `json:"endMs"`
	TZ              string                 `json:"tz"`
	FilesScanned    int                    `json:"filesScanned"`
	MessagesCounted int                    `json:"messagesCounted"`
	Tokens          Tokens                 `json:"tokens"`
	Cost            Cost                   `json:"cost"`
	ByModel         map[string]*ModelUsage `json:"byModel"`
}

// ModelPrice is the USD price per token for one model. Nil means unknown.
type ModelPrice struct {
	Prompt     *float64 `json:"prompt,omitempty"`
	Completion *float64 `json:"completion,omitempty"`
	Image      *float64 `json:"image,omitempty"`
}

// PriceSnapshot is a price table as fetched at one point in time
type PriceSnapshot struct {
	FetchedAt *time.Time            `json:"fetchedAt"`
	Prices    map[string]ModelPrice `json:"prices"`
}

// EmptySnapshot returns a snapshot with no prices
func EmptySnapshot() *PriceSnapshot {
	return &PriceSnapshot{Prices: map[string]ModelPrice{}}
}

// Lookup returns prompt and completion prices when both are known
func (s *PriceSnapshot) Lookup(model string) (prompt, completion float64, ok bool) {
	if s == nil {
		return 0, 0, false
	}
	p, found := s.Prices[model]
	if !found || p.Prompt == nil || p.Completion == nil {
		return 0, 0, false
	}
	return *p.Prompt, *p.Completion, true
}
