package catalog

import (
	"slices"
	"strings"

	"battle-tracker/internal/domain"
)

// DefaultEnabledMetrics are switched on in a fresh catalog for every scope.
var DefaultEnabledMetrics = []string{
	domain.MetricDamageDealt,
	domain.MetricDamageTaken,
	domain.MetricHealingSelf,
	domain.MetricHealingOthers,
	domain.MetricRoundsTotal,
}

// Catalog holds one ScopeCatalog per scope plus the ordering shared by all of them.
// It is not safe for concurrent use; the overlay service confines it to its apply loop.
type Catalog struct {
	scopes      map[domain.Scope]*ScopeCatalog
	globalOrder []string
}

func New() *Catalog {
	c := &Catalog{scopes: make(map[domain.Scope]*ScopeCatalog, len(domain.AllScopes))}
	for _, scope := range domain.AllScopes {
		c.scopes[scope] = NewDefaultScopeCatalog(DefaultEnabledMetrics)
	}
	return c
}

func (c *Catalog) Scope(scope domain.Scope) *ScopeCatalog {
	return c.scopes[scope]
}

func (c *Catalog) EnsureKeys(scope domain.Scope, keys []string) bool {
	sc, ok := c.scopes[scope]
	if !ok {
		return false
	}
	return sc.EnsureKeys(keys)
}

// Observe registers every metric key present in snap with the scopes that read it.
func (c *Catalog) Observe(snap *domain.Snapshot) bool {
	if snap == nil {
		return false
	}
	changed := false
	for _, id := range snap.MemberOrder {
		member := snap.Members[id]
		for _, scope := range domain.AllScopes {
			totals := scope.Totals(member)
			if totals == nil {
				continue
			}
			if c.EnsureKeys(scope, totals.Metrics().Keys()) {
				changed = true
			}
		}
	}
	return changed
}

func (c *Catalog) ActiveFields(scope domain.Scope) []domain.Field {
	sc, ok := c.scopes[scope]
	if !ok {
		return nil
	}
	return sc.ActiveFields(c.globalOrder)
}

func (c *Catalog) Apply(scope domain.Scope, edits []domain.MetricSetting) {
	if sc, ok := c.scopes[scope]; ok {
		sc.Apply(edits)
	}
}

func (c *Catalog) GlobalOrder() []string {
	return slices.Clone(c.globalOrder)
}

// SetGlobalOrder replaces the shared ordering; blanks and case-insensitive duplicates are dropped.
func (c *Catalog) SetGlobalOrder(keys []string) {
	order := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		f := fold(key)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		order = append(order, strings.TrimSpace(key))
	}
	c.globalOrder = order
}

// GlobalHeaders lists every key known to any scope: the global order first, then first
// appearance across scopes. Each key carries the label of the first scope that has it.
func (c *Catalog) GlobalHeaders() []domain.GlobalHeader {
	var headers []domain.GlobalHeader
	seen := make(map[string]bool)

	label := func(key string) (domain.GlobalHeader, bool) {
		for _, scope := range domain.AllScopes {
			if setting, ok := c.scopes[scope].Get(key); ok {
				return domain.GlobalHeader{Key: setting.Key, Header: setting.Header}, true
			}
		}
		return domain.GlobalHeader{}, false
	}

	for _, key := range c.globalOrder {
		f := fold(key)
		if seen[f] {
			continue
		}
		if h, ok := label(key); ok {
			seen[f] = true
			headers = append(headers, h)
		}
	}
	for _, scope := range domain.AllScopes {
		for _, setting := range c.scopes[scope].Settings() {
			f := fold(setting.Key)
			if seen[f] {
				continue
			}
			seen[f] = true
			h, _ := label(setting.Key)
			headers = append(headers, h)
		}
	}
	return headers
}

// RenameHeader relabels key in the scopes that contain it and nowhere else.
func (c *Catalog) RenameHeader(key, header string) bool {
	renamed := false
	for _, scope := range domain.AllScopes {
		if c.scopes[scope].SetHeader(key, header) {
			renamed = true
		}
	}
	return renamed
}

// MoveHeader moves key to index in the global ordering, materialising the ordering first.
func (c *Catalog) MoveHeader(key string, index int) bool {
	headers := c.GlobalHeaders()
	order := make([]string, 0, len(headers))
	from := -1
	for i, h := range headers {
		if fold(h.Key) == fold(key) {
			from = i
		}
		order = append(order, h.Key)
	}
	if from < 0 {
		return false
	}

	moved := order[from]
	order = slices.Delete(order, from, from+1)
	index = max(0, min(index, len(order)))
	order = slices.Insert(order, index, moved)
	c.globalOrder = order
	return true
}

// ApplyEdits applies per-scope edits, then the global header list. A global label only
// propagates when it differs from what GlobalHeaders reported before the edit, so an
// untouched global entry never overwrites a per-scope rename. RenameHeader is the way to
// force one label onto every scope.
func (c *Catalog) ApplyEdits(scopes map[domain.Scope][]domain.MetricSetting, headers []domain.GlobalHeader) {
	before := make(map[string]string)
	for _, h := range c.GlobalHeaders() {
		before[fold(h.Key)] = h.Header
	}

	for _, scope := range domain.AllScopes {
		if edits, ok := scopes[scope]; ok {
			c.Apply(scope, edits)
		}
	}

	if headers == nil {
		return
	}

	keys := make([]string, 0, len(headers))
	for _, h := range headers {
		keys = append(keys, h.Key)
	}
	c.SetGlobalOrder(keys)

	for _, h := range headers {
		previous, known := before[fold(h.Key)]
		if !known || strings.TrimSpace(h.Header) == previous {
			continue
		}
		c.RenameHeader(h.Key, h.Header)
	}
}

func (c *Catalog) Snapshot() map[domain.Scope][]domain.MetricSetting {
	out := make(map[domain.Scope][]domain.MetricSetting, len(c.scopes))
	for scope, sc := range c.scopes {
		out[scope] = sc.Settings()
	}
	return out
}

// Restore applies persisted settings on top of the defaults.
func (c *Catalog) Restore(p *domain.PersistedSettings) {
	if p == nil {
		return
	}
	for _, scope := range domain.AllScopes {
		if edits, ok := p.Scopes[scope]; ok {
			c.Apply(scope, edits)
		}
	}
	c.SetGlobalOrder(p.GlobalOrder)
}
