package domain

import (
	"maps"
	"math"
	"strings"

	"battle-tracker/internal/constants"
)

type MetricSetting struct {
	Key       string `json:"key"`
	IsEnabled bool   `json:"isEnabled"`
	Header    string `json:"header"`
}

// Field is one active column: a metric key and the label it renders under.
type Field struct {
	Key    string `json:"key"`
	Header string `json:"header"`
}

type GlobalHeader struct {
	Key    string `json:"key"`
	Header string `json:"header"`
}

type Preferences struct {
	OverlayOpacity float64           `json:"overlayOpacity"`
	CompactLayout  bool              `json:"compactLayout"`
	CompactColumns int               `json:"compactColumns"`
	FontSize       float64           `json:"fontSize"`
	Custom1Name    string            `json:"custom1Name"`
	Custom2Name    string            `json:"custom2Name"`
	NameOverrides  map[string]string `json:"nameOverrides,omitempty"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		OverlayOpacity: constants.DefaultOverlayOpacity,
		CompactColumns: constants.DefaultCompactColumns,
		FontSize:       constants.DefaultFontSize,
		Custom1Name:    constants.DefaultCustom1Name,
		Custom2Name:    constants.DefaultCustom2Name,
	}
}

// Normalize clamps numeric preferences into range and restores blank custom scope names.
func (p Preferences) Normalize() Preferences {
	if p.OverlayOpacity == 0 || math.IsNaN(p.OverlayOpacity) {
		p.OverlayOpacity = constants.DefaultOverlayOpacity
	}
	p.OverlayOpacity = math.Min(math.Max(p.OverlayOpacity, constants.MinOverlayOpacity), constants.MaxOverlayOpacity)

	if p.CompactColumns < 1 {
		p.CompactColumns = constants.DefaultCompactColumns
	}

	if p.FontSize == 0 || math.IsNaN(p.FontSize) {
		p.FontSize = constants.DefaultFontSize
	}
	p.FontSize = math.Min(math.Max(p.FontSize, constants.MinFontSize), constants.MaxFontSize)

	p.Custom1Name = strings.TrimSpace(p.Custom1Name)
	if p.Custom1Name == "" {
		p.Custom1Name = constants.DefaultCustom1Name
	}
	p.Custom2Name = strings.TrimSpace(p.Custom2Name)
	if p.Custom2Name == "" {
		p.Custom2Name = constants.DefaultCustom2Name
	}

	if len(p.NameOverrides) > 0 {
		cleaned := make(map[string]string, len(p.NameOverrides))
		for id, name := range p.NameOverrides {
			if name = strings.TrimSpace(name); id != "" && name != "" {
				cleaned[id] = name
			}
		}
		p.NameOverrides = cleaned
	}
	return p
}

// PreferencesPatch is a partial Preferences. Nil fields keep the current value; a non-nil
// NameOverrides replaces the overrides wholesale, so an empty object clears them.
type PreferencesPatch struct {
	OverlayOpacity *float64          `json:"overlayOpacity,omitempty"`
	CompactLayout  *bool             `json:"compactLayout,omitempty"`
	CompactColumns *int              `json:"compactColumns,omitempty"`
	FontSize       *float64          `json:"fontSize,omitempty"`
	Custom1Name    *string           `json:"custom1Name,omitempty"`
	Custom2Name    *string           `json:"custom2Name,omitempty"`
	NameOverrides  map[string]string `json:"nameOverrides,omitempty"`
}

// Patch returns a patch that sets every field to p's value.
func (p Preferences) Patch() *PreferencesPatch {
	return &PreferencesPatch{
		OverlayOpacity: &p.OverlayOpacity,
		CompactLayout:  &p.CompactLayout,
		CompactColumns: &p.CompactColumns,
		FontSize:       &p.FontSize,
		Custom1Name:    &p.Custom1Name,
		Custom2Name:    &p.Custom2Name,
		NameOverrides:  maps.Clone(p.NameOverrides),
	}
}

// ApplyTo overlays the set fields onto base and normalizes the result.
func (patch *PreferencesPatch) ApplyTo(base Preferences) Preferences {
	if patch == nil {
		return base.Normalize()
	}
	if patch.OverlayOpacity != nil {
		base.OverlayOpacity = *patch.OverlayOpacity
	}
	if patch.CompactLayout != nil {
		base.CompactLayout = *patch.CompactLayout
	}
	if patch.CompactColumns != nil {
		base.CompactColumns = *patch.CompactColumns
	}
	if patch.FontSize != nil {
		base.FontSize = *patch.FontSize
	}
	if patch.Custom1Name != nil {
		base.Custom1Name = *patch.Custom1Name
	}
	if patch.Custom2Name != nil {
		base.Custom2Name = *patch.Custom2Name
	}
	if patch.NameOverrides != nil {
		base.NameOverrides = maps.Clone(patch.NameOverrides)
	}
	return base.Normalize()
}

// SettingsSnapshot is the exchange shape between the core and a settings editor.
// On apply, nil sections are left untouched.
type SettingsSnapshot struct {
	Scopes        map[Scope][]MetricSetting `json:"scopes,omitempty"`
	GlobalHeaders []GlobalHeader            `json:"globalHeaders,omitempty"`
	Preferences   *PreferencesPatch         `json:"preferences,omitempty"`
	ColumnOrder   map[Scope][]string        `json:"columnOrder,omitempty"`
}

// PersistedSettings is everything the settings file holds.
type PersistedSettings struct {
	Scopes      map[Scope][]MetricSetting
	GlobalOrder []string
	Preferences Preferences
	ColumnOrder map[Scope][]string
}
