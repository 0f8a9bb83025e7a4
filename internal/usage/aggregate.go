package usage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

type sessionRow struct {
	Type     string          `json:"type"`
	Provider string          `json:"provider"`
	ModelID  string          `json:"modelId"`
	Message  *sessionMessage `json:"message"`
}

type sessionMessage struct {
	Role      string        `json:"role"`
	Timestamp *float64      `json:"timestamp"`
	Provider  string        `json:"provider"`
	Model     string        `json:"model"`
	ModelID   string        `json:"modelId"`
	Usage     *messageUsage `json:"usage"`
}

type messageUsage struct {
	Input       float64 `json:"input"`
	Output      float64 `json:"output"`
	CacheRead   float64 `json:"cacheRead"`
	CacheWrite  float64 `json:"cacheWrite"`
	TotalTokens float64 `json:"totalTokens"`
	Cost        *struct {
		Total float64 `json:"total"`
	} `json:"cost"`
}

// Aggregator walks session logs under an agents root directory
type Aggregator struct {
	root   string
	logger *zap.Logger
}

// NewAggregator creates an aggregator for root/<agent>/sessions/*.jsonl
func NewAggregator(root string, logger *zap.Logger) *Aggregator {
	return &Aggregator{root: root, logger: logger}
}

// SessionFiles lists the session logs, sorted by path. A missing root
// yields no files.
func (a *Aggregator) SessionFiles() ([]string, error) {
	agents, err := os.ReadDir(a.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, agent := range agents {
		dir := filepath.Join(a.root, agent.Name(), "sessions")
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".jsonl") {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// Aggregate counts assistant messages with usage inside the window
func (a *Aggregator) Aggregate(w Window, tz string, prices *PriceSnapshot) (*Report, error) {
	files, err := a.SessionFiles()
	if err != nil {
		return nil, err
	}

	r := &Report{
		StartMs:      w.Start.UnixMilli(),
		EndMs:        w.End.UnixMilli(),
		TZ:           tz,
		FilesScanned: len(files),
		ByModel:      map[string]*ModelUsage{},
	}

	for _, path := range files {
		if err := a.scanFile(path, w, prices, r); err != nil {
			a.logger.Debug("Skipping unreadable session log", zap.String("path", path), zap.Error(err))
		}
	}
	return r, nil
}

func (a *Aggregator) scanFile(path string, w Window, prices *PriceSnapshot, r *Report) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			var row sessionRow
			if jsonErr := json.Unmarshal(line, &row); jsonErr == nil {
				accumulate(&row, w, prices, r)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func accumulate(row *sessionRow, w Window, prices *PriceSnapshot, r *Report) {
	msg := row.Message
	if row.Type != "message" || msg == nil || msg.Role != "assistant" {
		return
	}
	if msg.Timestamp == nil || !w.Contains(int64(*msg.Timestamp)) {
		return
	}
	if msg.Usage == nil {
		return
	}
	r.MessagesCounted++

	provider := firstNonEmpty(msg.Provider, row.Provider, "unknown")
	model := firstNonEmpty(msg.Model, msg.ModelID, row.ModelID, "unknown")
	key := NormalizeModelKey(provider, model)

	m, ok := r.ByModel[key]
	if !ok {
		m = &ModelUsage{Provider: provider, Model: key}
		r.ByModel[key] = m
	}
	m.Messages++

	u := msg.Usage
	t := Tokens{
		Input:      int64(u.Input),
		Output:     int64(u.Output),
		CacheRead:  int64(u.CacheRead),
		CacheWrite: int64(u.CacheWrite),
		Total:      int64(u.TotalTokens),
	}
	if t.Total == 0 {
		t.Total = t.Input + t.Output + t.CacheRead + t.CacheWrite
	}
	r.Tokens.add(t)
	m.Tokens.add(t)

	if u.Cost != nil && u.Cost.Total > 0 {
		r.Cost.Known += u.Cost.Total
		m.Cost.Known += u.Cost.Total
		return
	}

	if prompt, completion, ok := prices.Lookup(key); ok {
		est := float64(t.Input)*prompt + float64(t.Output)*completion
		r.Cost.Estimated += est
		m.Cost.Estimated += est
		return
	}
	r.Cost.MissingPricingTokens += t.Input + t.Output
	m.Cost.MissingPricingTokens += t.Input + t.Output
}

var trailingVersion = regexp.MustCompile(`-(\d+)-(\d+)$`)

// NormalizeModelKey maps a logged provider/model pair to the key used by
// the price table. OpenRouter ids are kept, with anthropic/*-4-5 style
// suffixes rewritten to -4.5; other providers become provider/model.
func NormalizeModelKey(provider, model string) string {
	if model == "" {
		return "unknown"
	}
	if provider == "openrouter" {
		if strings.HasPrefix(model, "anthropic/") {
			return trailingVersion.ReplaceAllString(model, "-$1.$2")
		}
		return model
	}
	return provider + "/" + model
}

// SortedModels returns the per-model rows ordered by total tokens, highest first
func (r *Report) SortedModels() []*ModelUsage {
	rows := make([]*ModelUsage, 0, len(r.ByModel))
	for _, m := range r.ByModel {
		rows = append(rows, m)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Tokens.Total != rows[j].Tokens.Total {
			return rows[i].Tokens.Total > rows[j].Tokens.Total
		}
		return rows[i].Model < rows[j].Model
	})
	return rows
}

// TopByCost returns up to n models with the highest effective cost
func (r *Report) TopByCost(n int) []*ModelUsage {
	rows := r.SortedModels()
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Cost.Effective() > rows[j].Cost.Effective()
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
