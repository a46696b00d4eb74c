package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"battle-tracker/internal/config"
	"battle-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// fileFormat is the on-disk layout. Every field is optional so files written by older
// builds keep loading; encoding/json matches names case-insensitively. Preferences sit
// at the top level of the document.
type fileFormat struct {
	Scopes      map[string][]domain.MetricSetting `json:"scopes,omitempty"`
	GlobalOrder []string                          `json:"globalOrder,omitempty"`
	ColumnOrder map[string][]string               `json:"columnOrder,omitempty"`
	domain.PreferencesPatch
}

// Store persists the catalog and display preferences as one JSON file. Failures are
// logged and swallowed; the overlay keeps running on defaults.
type Store struct {
	path   string
	logger zerolog.Logger
}

func NewStore(cfg *config.Config, logger zerolog.Logger) *Store {
	return &Store{
		path:   cfg.SettingsPath,
		logger: logger.With().Str("component", "settings").Logger(),
	}
}

func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted settings, or false when the file is missing or unusable.
func (s *Store) Load() (*domain.PersistedSettings, bool) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug().Str("path", s.path).Msg("no settings file, using defaults")
		} else {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to read settings")
		}
		return nil, false
	}

	var file *fileFormat
	if err := json.Unmarshal(raw, &file); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to parse settings, starting fresh")
		return nil, false
	}
	if file == nil {
		return nil, false
	}

	settings := file.toDomain(s.logger)
	s.logger.Info().
		Str("path", s.path).
		Int("scopes", len(settings.Scopes)).
		Int("globalOrder", len(settings.GlobalOrder)).
		Msg("settings loaded")
	return settings, true
}

// Save overwrites the settings file. Errors are logged only.
func (s *Store) Save(p *domain.PersistedSettings) {
	if p == nil {
		return
	}
	if err := s.write(p); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to persist settings")
		return
	}
	s.logger.Debug().Str("path", s.path).Msg("settings persisted")
}

func (s *Store) write(p *domain.PersistedSettings) error {
	data, err := json.MarshalIndent(fromDomain(p), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}

func (f *fileFormat) toDomain(logger zerolog.Logger) *domain.PersistedSettings {
	p := &domain.PersistedSettings{
		Scopes:      make(map[domain.Scope][]domain.MetricSetting, len(f.Scopes)),
		GlobalOrder: f.GlobalOrder,
		Preferences: f.PreferencesPatch.ApplyTo(domain.DefaultPreferences()),
	}

	for name, settings := range f.Scopes {
		scope, ok := domain.ParseScope(name)
		if !ok {
			logger.Debug().Str("scope", name).Msg("ignoring unknown scope in settings")
			continue
		}
		p.Scopes[scope] = settings
	}

	if len(f.ColumnOrder) > 0 {
		p.ColumnOrder = make(map[domain.Scope][]string, len(f.ColumnOrder))
		for name, order := range f.ColumnOrder {
			if scope, ok := domain.ParseScope(name); ok {
				p.ColumnOrder[scope] = order
			}
		}
	}

	return p
}

func fromDomain(p *domain.PersistedSettings) *fileFormat {
	f := &fileFormat{
		Scopes:           make(map[string][]domain.MetricSetting, len(p.Scopes)),
		GlobalOrder:      p.GlobalOrder,
		PreferencesPatch: *p.Preferences.Patch(),
	}
	for scope, settings := range p.Scopes {
		f.Scopes[scope.String()] = settings
	}
	if len(p.ColumnOrder) > 0 {
		f.ColumnOrder = make(map[string][]string, len(p.ColumnOrder))
		for scope, order := range p.ColumnOrder {
			f.ColumnOrder[scope.String()] = order
		}
	}
	return f
}
