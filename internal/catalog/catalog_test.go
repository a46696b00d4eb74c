package catalog

import (
	"testing"

	"battle-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keysOf(fields []domain.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Key
	}
	return out
}

func TestEnsureKeys_AddsDisabledWithDefaultHeader(t *testing.T) {
	c := NewScopeCatalog()

	changed := c.EnsureKeys([]string{"KillingBlows", "SomethingNew", "", "  "})
	require.True(t, changed)

	setting, ok := c.Get("killingblows")
	require.True(t, ok)
	assert.False(t, setting.IsEnabled)
	assert.Equal(t, "Kills", setting.Header)

	setting, ok = c.Get("SomethingNew")
	require.True(t, ok)
	assert.Equal(t, "SomethingNew", setting.Header, "unknown keys fall back to the raw key")
	assert.Equal(t, 2, c.Len())
}

func TestEnsureKeys_Idempotent(t *testing.T) {
	c := NewDefaultScopeCatalog(DefaultEnabledMetrics)
	observed := []string{"DamageDealt", "KillingBlows", "HostilesOpposed", "killingblows"}

	assert.True(t, c.EnsureKeys(observed))
	after := c.Settings()
	assert.False(t, c.EnsureKeys(observed))
	assert.Equal(t, after, c.Settings())
	assert.Equal(t, len(DefaultEnabledMetrics)+2, c.Len())
}

func TestEnsureKeys_PreservesExistingEntries(t *testing.T) {
	c := NewDefaultScopeCatalog(DefaultEnabledMetrics)
	c.Apply([]domain.MetricSetting{
		{Key: "DamageDealt", IsEnabled: true, Header: "Damage"},
		{Key: "DamageTaken", IsEnabled: false, Header: ""},
	})
	before := c.Settings()

	c.EnsureKeys([]string{"RoundsEffective", "DamageDealt", "DamageTaken"})

	after := c.Settings()
	require.Len(t, after, len(before)+1)
	assert.Equal(t, before, after[:len(before)], "existing entries keep state and position")
	assert.Equal(t, domain.MetricSetting{Key: "RoundsEffective", Header: "Rounds Eff"}, after[len(before)])
}

func TestActiveFields(t *testing.T) {
	c := NewScopeCatalog()
	c.EnsureKeys([]string{"A", "B", "C", "D", "E"})
	c.Apply([]domain.MetricSetting{
		{Key: "A", IsEnabled: true},
		{Key: "B", IsEnabled: false},
		{Key: "C", IsEnabled: true},
		{Key: "D", IsEnabled: true},
		{Key: "E", IsEnabled: true},
	})

	tests := []struct {
		name   string
		global []string
		want   []string
	}{
		{name: "no global order", global: nil, want: []string{"A", "C", "D", "E"}},
		{name: "global first then catalog order", global: []string{"E", "C"}, want: []string{"E", "C", "A", "D"}},
		{name: "disabled and unknown keys skipped", global: []string{"B", "Z", "d"}, want: []string{"D", "A", "C", "E"}},
		{name: "duplicates emitted once", global: []string{"C", "c", "C"}, want: []string{"C", "A", "D", "E"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := keysOf(c.ActiveFields(tt.global))
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "B")
		})
	}
}

func TestApply_HeadersAndOrder(t *testing.T) {
	c := NewDefaultScopeCatalog(DefaultEnabledMetrics)

	c.Apply([]domain.MetricSetting{
		{Key: "RoundsTotal", IsEnabled: true, Header: "  Rnds  "},
		{Key: "DamageDealt", IsEnabled: true, Header: "   "},
		{Key: "NewMetric", IsEnabled: true, Header: ""},
	})

	rounds, _ := c.Get("RoundsTotal")
	assert.Equal(t, "Rnds", rounds.Header)
	dmg, _ := c.Get("DamageDealt")
	assert.Equal(t, "DMG", dmg.Header, "blank headers fall back to the default")
	added, ok := c.Get("NewMetric")
	require.True(t, ok)
	assert.Equal(t, "NewMetric", added.Header)

	assert.Equal(t,
		[]string{"RoundsTotal", "DamageDealt", "NewMetric", "DamageTaken", "HealingSelf", "HealingOthers"},
		keysOf(c.ActiveFields(nil)))
}

func TestSetAllEnabled(t *testing.T) {
	c := NewDefaultScopeCatalog(DefaultEnabledMetrics)
	c.EnsureKeys([]string{"KillingBlows"})

	c.SetAllEnabled(true)
	assert.Len(t, c.ActiveFields(nil), len(DefaultEnabledMetrics)+1)

	c.SetAllEnabled(false)
	assert.Empty(t, c.ActiveFields(nil))
}

func TestDefaultHeader(t *testing.T) {
	assert.Equal(t, "DMG", DefaultHeader("DamageDealt"))
	assert.Equal(t, "DPR Eff", DefaultHeader("damagePerTurnEffective"))
	assert.Equal(t, "Mystery", DefaultHeader("Mystery"))
}
