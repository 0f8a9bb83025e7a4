package inventory

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mikey/clawtools/internal/adapters/homeassistant"
	"github.com/mikey/clawtools/internal/utils"
	"go.uber.org/zap"
)

// ErrAreaMismatch is returned when the area list does not line up with the states
var ErrAreaMismatch = errors.New("area list mismatch")

// Source is the part of the Home Assistant API the inventory reads
type Source interface {
	URL() string
	States(ctx context.Context) ([]homeassistant.State, error)
	AreaNames(ctx context.Context) ([]string, error)
	Areas(ctx context.Context) ([]string, error)
}

// Service writes inventory files
type Service struct {
	source Source
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new inventory service
func NewService(source Source, logger *zap.Logger) *Service {
	return &Service{source: source, logger: logger, now: time.Now}
}

// WriteOverview writes the single inventory file used as assistant memory.
// Mode control keeps controllable domains, full keeps everything.
func (s *Service) WriteOverview(ctx context.Context, outPath, mode string) error {
	if mode != ModeControl && mode != ModeFull {
		return fmt.Errorf("unknown mode %q, want control or full", mode)
	}

	states, err := s.source.States(ctx)
	if err != nil {
		return err
	}
	areas, err := s.source.AreaNames(ctx)
	if err != nil {
		return err
	}
	if len(areas) != len(states) {
		return ErrAreaMismatch
	}

	entities := Enrich(states, areas)
	if mode == ModeControl {
		entities = Control(entities)
	}

	doc := Document{
		Title:     "Home Assistant Inventory",
		Source:    s.source.URL(),
		Generated: s.now(),
		Mode:      mode,
	}
	if err := utils.WriteFileAtomic(outPath, []byte(Render(doc, entities))); err != nil {
		return fmt.Errorf("failed to write inventory: %w", err)
	}
	s.logger.Info("Wrote inventory", zap.String("path", outPath), zap.Int("entities", len(entities)))
	return nil
}

// RefreshContext writes inventory.md (controllable entities) and
// inventory-nice.md (common controls) into outDir and returns their paths
func (s *Service) RefreshContext(ctx context.Context, outDir string) ([]string, error) {
	states, err := s.source.States(ctx)
	if err != nil {
		return nil, err
	}
	areaIDs, err := s.source.Areas(ctx)
	if err != nil {
		return nil, err
	}
	if areaIDs == nil {
		areaIDs = []string{}
	}
	areaNames, err := s.source.AreaNames(ctx)
	if err != nil {
		s.logger.Warn("Area names unavailable, grouping everything as unassigned", zap.Error(err))
		areaNames = nil
	}

	control := Control(Enrich(states, areaNames))
	now := s.now()
	files := []struct {
		name     string
		title    string
		entities []Entity
	}{
		{"inventory.md", "Home Assistant Control Inventory", control},
		{"inventory-nice.md", "Home Assistant Inventory (Nice / Common Controls)", Nice(control)},
	}

	var written []string
	for _, f := range files {
		doc := Document{
			Title:     f.title,
			Source:    s.source.URL(),
			Generated: now,
			Areas:     areaIDs,
			Escape:    true,
		}
		path := filepath.Join(outDir, f.name)
		if err := utils.WriteFileAtomic(path, []byte(Render(doc, f.entities))); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		written = append(written, path)
	}
	s.logger.Info("Refreshed Home Assistant context", zap.String("dir", outDir), zap.Int("entities", len(control)))
	return written, nil
}
