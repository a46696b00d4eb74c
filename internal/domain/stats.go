package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
)

// Known stat field names, in the order they are merged into the metrics view.
const (
	MetricDamageDealt   = "DamageDealt"
	MetricDamageTaken   = "DamageTaken"
	MetricHealingOthers = "HealingOthers"
	MetricHealingSelf   = "HealingSelf"
	MetricRoundsTotal   = "RoundsTotal"
)

var KnownMetrics = []string{
	MetricDamageDealt,
	MetricDamageTaken,
	MetricHealingOthers,
	MetricHealingSelf,
	MetricRoundsTotal,
}

type ExtensionField struct {
	Key   string
	Value float64
}

// StatTotals is one block of per-character totals. Known fields are nil when the
// producer omitted them. Extensions keep every other numeric field in document order.
type StatTotals struct {
	DamageDealt   *float64
	DamageTaken   *float64
	HealingOthers *float64
	HealingSelf   *float64
	RoundsTotal   *float64
	Extensions    []ExtensionField

	once    sync.Once
	metrics Metrics
}

// Value returns a pointer to v, for building StatTotals literals.
func Value(v float64) *float64 {
	return &v
}

func (t *StatTotals) known(name string) **float64 {
	switch {
	case strings.EqualFold(name, MetricDamageDealt):
		return &t.DamageDealt
	case strings.EqualFold(name, MetricDamageTaken):
		return &t.DamageTaken
	case strings.EqualFold(name, MetricHealingOthers):
		return &t.HealingOthers
	case strings.EqualFold(name, MetricHealingSelf):
		return &t.HealingSelf
	case strings.EqualFold(name, MetricRoundsTotal):
		return &t.RoundsTotal
	}
	return nil
}

// Metrics returns the merged, case-insensitive metrics view. It is built once per instance.
func (t *StatTotals) Metrics() Metrics {
	if t == nil {
		return Metrics{}
	}
	t.once.Do(func() {
		t.metrics = t.buildMetrics()
	})
	return t.metrics
}

func (t *StatTotals) buildMetrics() Metrics {
	m := Metrics{values: make(map[string]float64, len(KnownMetrics)+len(t.Extensions))}

	for _, name := range KnownMetrics {
		if v := *t.known(name); v != nil {
			m.add(name, *v)
		}
	}
	// Known fields were added first, so add never lets an extension replace one.
	for _, ext := range t.Extensions {
		m.add(ext.Key, ext.Value)
	}
	return m
}

func (t *StatTotals) UnmarshalJSON(data []byte) error {
	t.DamageDealt, t.DamageTaken, t.HealingOthers, t.HealingSelf, t.RoundsTotal = nil, nil, nil, nil, nil
	t.Extensions = nil

	return decodeObject(data, func(key string, raw json.RawMessage) error {
		v, isNumber := parseNumber(raw)
		if slot := t.known(key); slot != nil {
			if isNumber {
				*slot = Value(v)
			}
			return nil
		}
		if isNumber && strings.TrimSpace(key) != "" {
			t.Extensions = append(t.Extensions, ExtensionField{Key: key, Value: v})
		}
		return nil
	})
}

func (t *StatTotals) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	for _, name := range KnownMetrics {
		v := *t.known(name)
		if v == nil || !isFinite(*v) {
			continue
		}
		if err := w.field(name, *v); err != nil {
			return nil, err
		}
	}
	for _, ext := range t.Extensions {
		if !isFinite(ext.Value) {
			continue
		}
		if err := w.field(ext.Key, ext.Value); err != nil {
			return nil, fmt.Errorf("failed to encode extension: %w", err)
		}
	}
	return w.bytes(), nil
}

// Metrics is a read-only, case-insensitive metric key -> value mapping.
type Metrics struct {
	keys   []string
	values map[string]float64
}

func (m *Metrics) add(key string, v float64) {
	if !isFinite(v) {
		return
	}
	folded := strings.ToLower(key)
	if _, exists := m.values[folded]; exists {
		return
	}
	m.values[folded] = v
	m.keys = append(m.keys, key)
}

func (m Metrics) Get(key string) (float64, bool) {
	v, ok := m.values[strings.ToLower(key)]
	return v, ok
}

// Keys lists metric keys with their original spelling: known fields first, then extensions.
func (m Metrics) Keys() []string {
	return slices.Clone(m.keys)
}

func (m Metrics) Len() int {
	return len(m.keys)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
