package catalog

import (
	"testing"

	"battle-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headerKeys(headers []domain.GlobalHeader) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = h.Key
	}
	return out
}

func TestNew_SeedsEveryScope(t *testing.T) {
	c := New()
	for _, scope := range domain.AllScopes {
		assert.Equal(t, DefaultEnabledMetrics, keysOf(c.ActiveFields(scope)), scope.String())
	}
}

func TestObserve_RegistersPerScope(t *testing.T) {
	snap := &domain.Snapshot{
		Members: map[string]*domain.MemberRecord{
			"a": {
				Cumulative:    &domain.StatTotals{Extensions: []domain.ExtensionField{{Key: "KillingBlows", Value: 1}}},
				CurrentCombat: &domain.StatTotals{Extensions: []domain.ExtensionField{{Key: "DamageOverkill", Value: 3}}},
			},
		},
		MemberOrder: []string{"a"},
	}

	c := New()
	assert.True(t, c.Observe(snap))
	assert.False(t, c.Observe(snap), "second observation of the same keys is a no-op")

	assert.True(t, c.Scope(domain.ScopeCumulative).Contains("KillingBlows"))
	assert.True(t, c.Scope(domain.ScopeCustom1).Contains("KillingBlows"), "custom scopes read cumulative totals")
	assert.False(t, c.Scope(domain.ScopeCurrentLevel).Contains("KillingBlows"))
	assert.True(t, c.Scope(domain.ScopeCurrentCombat).Contains("DamageOverkill"))
	assert.False(t, c.Scope(domain.ScopeCumulative).Contains("DamageOverkill"))
}

func TestGlobalOrder_AppliesAcrossScopes(t *testing.T) {
	c := New()
	c.SetGlobalOrder([]string{"RoundsTotal", "HealingSelf", "roundstotal", ""})
	assert.Equal(t, []string{"RoundsTotal", "HealingSelf"}, c.GlobalOrder())

	for _, scope := range domain.AllScopes {
		fields := keysOf(c.ActiveFields(scope))
		assert.Equal(t, []string{"RoundsTotal", "HealingSelf", "DamageDealt", "DamageTaken", "HealingOthers"}, fields)
	}
}

func TestGlobalHeaders(t *testing.T) {
	c := New()
	c.EnsureKeys(domain.ScopeCurrentCombat, []string{"DamageOverkill"})
	c.EnsureKeys(domain.ScopeCumulative, []string{"KillingBlows"})
	c.SetGlobalOrder([]string{"KillingBlows", "Ghost"})

	headers := c.GlobalHeaders()
	assert.Equal(t,
		[]string{"KillingBlows", "DamageDealt", "DamageTaken", "HealingSelf", "HealingOthers", "RoundsTotal", "DamageOverkill"},
		headerKeys(headers))
	assert.Equal(t, "Kills", headers[0].Header)
}

func TestRenameHeader_OnlyScopesContainingKey(t *testing.T) {
	c := New()
	c.EnsureKeys(domain.ScopeCumulative, []string{"KillingBlows"})

	require.True(t, c.RenameHeader("killingblows", "KB"))

	setting, ok := c.Scope(domain.ScopeCumulative).Get("KillingBlows")
	require.True(t, ok)
	assert.Equal(t, "KB", setting.Header)
	for _, scope := range []domain.Scope{domain.ScopeCurrentCombat, domain.ScopeCurrentLevel, domain.ScopeCustom1} {
		assert.False(t, c.Scope(scope).Contains("KillingBlows"), "rename must not add the key to %s", scope)
	}

	assert.False(t, c.RenameHeader("Unknown", "x"))
}

func TestMoveHeader(t *testing.T) {
	c := New()

	require.True(t, c.MoveHeader("RoundsTotal", 0))
	assert.Equal(t, []string{"RoundsTotal", "DamageDealt", "DamageTaken", "HealingSelf", "HealingOthers"}, c.GlobalOrder())

	require.True(t, c.MoveHeader("DamageDealt", 99))
	assert.Equal(t, "DamageDealt", c.GlobalOrder()[4])

	assert.False(t, c.MoveHeader("Nope", 1))
}

func TestApplyEdits_GlobalRenamePropagation(t *testing.T) {
	c := New()
	c.EnsureKeys(domain.ScopeCumulative, []string{"KillingBlows"})
	c.EnsureKeys(domain.ScopeCurrentCombat, []string{"KillingBlows"})

	headers := c.GlobalHeaders()
	for i := range headers {
		if headers[i].Key == "KillingBlows" {
			headers[i].Header = "Kills!"
		}
	}
	// CurrentLevel renames DamageDealt on its own; the global list still carries the old label.
	scopes := map[domain.Scope][]domain.MetricSetting{
		domain.ScopeCurrentLevel: {{Key: "DamageDealt", IsEnabled: true, Header: "Level DMG"}},
	}

	c.ApplyEdits(scopes, headers)

	for _, scope := range []domain.Scope{domain.ScopeCumulative, domain.ScopeCurrentCombat} {
		setting, _ := c.Scope(scope).Get("KillingBlows")
		assert.Equal(t, "Kills!", setting.Header)
	}
	assert.False(t, c.Scope(domain.ScopeCurrentLevel).Contains("KillingBlows"))

	dmg, _ := c.Scope(domain.ScopeCurrentLevel).Get("DamageDealt")
	assert.Equal(t, "Level DMG", dmg.Header, "unchanged global labels do not clobber scope renames")
	assert.Equal(t, headerKeys(headers), c.GlobalOrder())
}

func TestRenameHeader_UnifiesDivergentLabels(t *testing.T) {
	c := New()
	c.Apply(domain.ScopeCurrentLevel, []domain.MetricSetting{{Key: "DamageDealt", IsEnabled: true, Header: "Level DMG"}})

	headers := c.GlobalHeaders()
	require.Equal(t, "DMG", headers[0].Header, "labelled by the first scope")

	// Resending the first scope's label through the bulk edit is indistinguishable from no edit.
	c.ApplyEdits(nil, headers)
	dmg, _ := c.Scope(domain.ScopeCurrentLevel).Get("DamageDealt")
	assert.Equal(t, "Level DMG", dmg.Header)

	require.True(t, c.RenameHeader("DamageDealt", "DMG"))
	for _, scope := range domain.AllScopes {
		setting, ok := c.Scope(scope).Get("DamageDealt")
		require.True(t, ok)
		assert.Equal(t, "DMG", setting.Header, scope.String())
	}
}

func TestRestore(t *testing.T) {
	c := New()
	c.Restore(&domain.PersistedSettings{
		Scopes: map[domain.Scope][]domain.MetricSetting{
			domain.ScopeCustom2: {{Key: "DamageDealt", IsEnabled: false, Header: "D"}, {Key: "KillingBlows", IsEnabled: true, Header: "K"}},
		},
		GlobalOrder: []string{"KillingBlows"},
	})

	assert.Equal(t, []string{"KillingBlows", "DamageTaken", "HealingSelf", "HealingOthers", "RoundsTotal"},
		keysOf(c.ActiveFields(domain.ScopeCustom2)))
	assert.Equal(t, DefaultEnabledMetrics, keysOf(c.ActiveFields(domain.ScopeCumulative)))

	c.Restore(nil)
	assert.Equal(t, []string{"KillingBlows"}, c.GlobalOrder())
}
