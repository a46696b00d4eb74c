package catalog

import (
	"strings"

	"battle-tracker/internal/domain"
)

// ScopeCatalog is the ordered metric list for one scope. Keys are unique case-insensitively
// and keep the spelling they were first seen with.
type ScopeCatalog struct {
	ordered []*domain.MetricSetting
	lookup  map[string]*domain.MetricSetting
}

func NewScopeCatalog() *ScopeCatalog {
	return &ScopeCatalog{lookup: make(map[string]*domain.MetricSetting)}
}

// NewDefaultScopeCatalog seeds a catalog with the given keys enabled.
func NewDefaultScopeCatalog(enabled []string) *ScopeCatalog {
	c := NewScopeCatalog()
	for _, key := range enabled {
		if setting := c.getOrAdd(key); setting != nil {
			setting.IsEnabled = true
		}
	}
	return c
}

func fold(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// EnsureKeys appends every key not yet known as a disabled entry with its default header.
// Existing entries are never touched. It reports whether anything was added.
func (c *ScopeCatalog) EnsureKeys(keys []string) bool {
	missing := c.missing(keys)
	for _, key := range missing {
		c.add(key)
	}
	return len(missing) > 0
}

func (c *ScopeCatalog) missing(keys []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, key := range keys {
		f := fold(key)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		if _, ok := c.lookup[f]; !ok {
			out = append(out, strings.TrimSpace(key))
		}
	}
	return out
}

func (c *ScopeCatalog) add(key string) *domain.MetricSetting {
	setting := &domain.MetricSetting{Key: key, Header: DefaultHeader(key)}
	c.lookup[fold(key)] = setting
	c.ordered = append(c.ordered, setting)
	return setting
}

func (c *ScopeCatalog) getOrAdd(key string) *domain.MetricSetting {
	f := fold(key)
	if f == "" {
		return nil
	}
	if existing, ok := c.lookup[f]; ok {
		return existing
	}
	return c.add(strings.TrimSpace(key))
}

// ActiveFields lists enabled metrics. Keys named in globalOrder come first in that order;
// the remaining enabled keys follow in catalog order.
func (c *ScopeCatalog) ActiveFields(globalOrder []string) []domain.Field {
	fields := make([]domain.Field, 0, len(c.ordered))
	emitted := make(map[string]bool, len(c.ordered))

	for _, key := range globalOrder {
		f := fold(key)
		setting, ok := c.lookup[f]
		if !ok || !setting.IsEnabled || emitted[f] {
			continue
		}
		emitted[f] = true
		fields = append(fields, domain.Field{Key: setting.Key, Header: setting.Header})
	}

	for _, setting := range c.ordered {
		if !setting.IsEnabled || emitted[fold(setting.Key)] {
			continue
		}
		fields = append(fields, domain.Field{Key: setting.Key, Header: setting.Header})
	}
	return fields
}

// Apply merges user edits. Blank headers revert to the default label. The edited keys take
// the order they were sent in; keys the edit does not mention keep their relative order after them.
func (c *ScopeCatalog) Apply(edits []domain.MetricSetting) {
	if len(edits) == 0 {
		return
	}

	reordered := make([]*domain.MetricSetting, 0, len(c.ordered)+len(edits))
	placed := make(map[string]bool, len(edits))
	for _, edit := range edits {
		setting := c.getOrAdd(edit.Key)
		if setting == nil {
			continue
		}
		setting.IsEnabled = edit.IsEnabled
		setting.Header = headerOrDefault(setting.Key, edit.Header)

		if f := fold(setting.Key); !placed[f] {
			placed[f] = true
			reordered = append(reordered, setting)
		}
	}
	for _, setting := range c.ordered {
		if !placed[fold(setting.Key)] {
			reordered = append(reordered, setting)
		}
	}
	c.ordered = reordered
}

func headerOrDefault(key, header string) string {
	if header = strings.TrimSpace(header); header != "" {
		return header
	}
	return DefaultHeader(key)
}

func (c *ScopeCatalog) SetAllEnabled(enabled bool) {
	for _, setting := range c.ordered {
		setting.IsEnabled = enabled
	}
}

// SetHeader relabels key if present.
func (c *ScopeCatalog) SetHeader(key, header string) bool {
	setting, ok := c.lookup[fold(key)]
	if !ok {
		return false
	}
	setting.Header = headerOrDefault(setting.Key, header)
	return true
}

func (c *ScopeCatalog) Contains(key string) bool {
	_, ok := c.lookup[fold(key)]
	return ok
}

func (c *ScopeCatalog) Get(key string) (domain.MetricSetting, bool) {
	setting, ok := c.lookup[fold(key)]
	if !ok {
		return domain.MetricSetting{}, false
	}
	return *setting, true
}

func (c *ScopeCatalog) Len() int {
	return len(c.ordered)
}

// Settings copies the catalog in order.
func (c *ScopeCatalog) Settings() []domain.MetricSetting {
	out := make([]domain.MetricSetting, len(c.ordered))
	for i, setting := range c.ordered {
		out[i] = *setting
	}
	return out
}
