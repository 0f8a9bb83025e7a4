package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/mikey/clawtools/internal/utils"
	"go.uber.org/zap"
)

// ErrNotFound is returned when the rules file does not exist
var ErrNotFound = errors.New("rules file not found")

// FileStore reads and writes a policy kept in a single JSON document
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore creates a store for the policy at path
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the location of the rules file
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the whole policy. Fields missing from the file keep their
// defaults.
func (s *FileStore) Load() (*Policy, error) {
	_, p, err := s.read()
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Loaded triage rules",
		zap.String("path", s.path),
		zap.Int("allow_domains", len(p.Allow.Domains)),
		zap.Int("allow_addresses", len(p.Allow.Addresses)),
		zap.Int("block_addresses", len(p.Block.Addresses)))
	return p, nil
}

// Update loads the policy, applies fn and writes the file once. Only the
// entries fn changed are rewritten; every other key in the document,
// including ones the policy does not know about, is kept as it was.
func (s *FileStore) Update(fn func(*Policy) error) error {
	data, p, err := s.read()
	if err != nil {
		return err
	}

	before := p.clone()
	if err := fn(p); err != nil {
		return err
	}
	p.Normalize()

	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid rules file %s: %w", s.path, err)
	}
	if doc == nil {
		doc = map[string]json.RawMessage{}
	}

	changed := 0
	for _, f := range policyFields {
		value := f.get(p)
		if reflect.DeepEqual(f.get(before), value) {
			continue
		}
		if err := setPath(doc, f.path, value); err != nil {
			return fmt.Errorf("failed to update rules: %w", err)
		}
		changed++
	}
	if changed == 0 {
		s.logger.Debug("Triage rules unchanged", zap.String("path", s.path))
		return nil
	}

	out, err := marshalIndent(doc)
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	if err := utils.WriteFileAtomic(s.path, out); err != nil {
		return fmt.Errorf("failed to write rules file: %w", err)
	}
	s.logger.Debug("Saved triage rules", zap.String("path", s.path), zap.Int("changed", changed))
	return nil
}

func (s *FileStore) read() ([]byte, *Policy, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	p := NewPolicy()
	if err := json.Unmarshal(data, p); err != nil {
		return nil, nil, fmt.Errorf("invalid rules file %s: %w", s.path, err)
	}
	p.Normalize()
	return data, p, nil
}

type policyField struct {
	path []string
	get  func(p *Policy) interface{}
}

var policyFields = []policyField{
	{[]string{"sourceFolder"}, func(p *Policy) interface{} { return p.SourceFolder }},
	{[]string{"targetFolder"}, func(p *Policy) interface{} { return p.TargetFolder }},
	{[]string{"allow", "domains"}, func(p *Policy) interface{} { return p.Allow.Domains }},
	{[]string{"allow", "addresses"}, func(p *Policy) interface{} { return p.Allow.Addresses }},
	{[]string{"block", "domains"}, func(p *Policy) interface{} { return p.Block.Domains }},
	{[]string{"block", "addresses"}, func(p *Policy) interface{} { return p.Block.Addresses }},
	{[]string{"block", "keywords"}, func(p *Policy) interface{} { return p.Block.Keywords }},
	{[]string{"signals", "subjectKeywords"}, func(p *Policy) interface{} { return p.Signals.SubjectKeywords }},
	{[]string{"thresholds", "minPropose"}, func(p *Policy) interface{} { return p.Thresholds.MinPropose }},
	{[]string{"thresholds", "defaultMoveMin"}, func(p *Policy) interface{} { return p.Thresholds.DefaultMoveMin }},
}

// setPath stores value under path, decoding and re-encoding the enclosing
// objects so their other keys survive
func setPath(doc map[string]json.RawMessage, path []string, value interface{}) error {
	key := path[0]
	if len(path) == 1 {
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		doc[key] = raw
		return nil
	}

	child := map[string]json.RawMessage{}
	if raw, ok := doc[key]; ok {
		// a non-object value (null, a list) is replaced by an object
		if err := json.Unmarshal(raw, &child); err != nil || child == nil {
			child = map[string]json.RawMessage{}
		}
	}
	if err := setPath(child, path[1:], value); err != nil {
		return err
	}
	raw, err := json.Marshal(child)
	if err != nil {
		return err
	}
	doc[key] = raw
	return nil
}

func marshalIndent(doc map[string]json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
