package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScope(t *testing.T) {
	for _, s := range AllScopes {
		parsed, ok := ParseScope(s.String())
		require.True(t, ok, s.String())
		assert.Equal(t, s, parsed)
	}

	s, ok := ParseScope(" cumulative ")
	assert.True(t, ok)
	assert.Equal(t, ScopeCumulative, s)

	_, ok = ParseScope("Overall")
	assert.False(t, ok)
}

func TestScope_TextMapKeys(t *testing.T) {
	in := map[Scope][]string{ScopeCustom1: {"DamageDealt"}}
	encoded, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Custom1":["DamageDealt"]}`, string(encoded))

	var out map[Scope][]string
	require.NoError(t, json.Unmarshal(encoded, &out))
	assert.Equal(t, in, out)
}

func TestScope_Totals(t *testing.T) {
	member := &MemberRecord{
		Cumulative:    &StatTotals{},
		CurrentCombat: &StatTotals{},
		CurrentLevel:  &StatTotals{},
	}

	assert.Same(t, member.CurrentCombat, ScopeCurrentCombat.Totals(member))
	assert.Same(t, member.CurrentLevel, ScopeCurrentLevel.Totals(member))
	assert.Same(t, member.Cumulative, ScopeCumulative.Totals(member))
	assert.Same(t, member.Cumulative, ScopeCustom1.Totals(member))
	assert.Same(t, member.Cumulative, ScopeCustom2.Totals(member))
	assert.Nil(t, ScopeCumulative.Totals(nil))
}

func TestPreferences_Normalize(t *testing.T) {
	p := Preferences{OverlayOpacity: 0.05, FontSize: 100, Custom1Name: "  ", Custom2Name: " Bosses ",
		NameOverrides: map[string]string{"a": " Tav ", "b": " "}}.Normalize()

	assert.Equal(t, 0.2, p.OverlayOpacity)
	assert.Equal(t, 32.0, p.FontSize)
	assert.Equal(t, 2, p.CompactColumns)
	assert.Equal(t, "Custom 1", p.Custom1Name)
	assert.Equal(t, "Bosses", p.Custom2Name)
	assert.Equal(t, map[string]string{"a": "Tav"}, p.NameOverrides)
	assert.Equal(t, "Bosses", ScopeCustom2.Label(p))

	assert.Equal(t, 1.0, Preferences{OverlayOpacity: 3}.Normalize().OverlayOpacity)
	assert.Equal(t, 0.9, Preferences{}.Normalize().OverlayOpacity, "zero means unset")
	assert.Equal(t, 0.9, Preferences{OverlayOpacity: math.NaN()}.Normalize().OverlayOpacity)
}

func TestPreferencesPatch_ApplyTo(t *testing.T) {
	base := DefaultPreferences()
	base.OverlayOpacity = 0.6
	base.NameOverrides = map[string]string{"S_Player_Gale_1": "Wizard"}

	var edit SettingsSnapshot
	require.NoError(t, json.Unmarshal([]byte(`{"preferences":{"custom1Name":"Boss"}}`), &edit))
	require.NotNil(t, edit.Preferences)

	got := edit.Preferences.ApplyTo(base)
	want := base
	want.Custom1Name = "Boss"
	assert.Equal(t, want, got, "fields the edit leaves out keep their current value")

	var reset SettingsSnapshot
	require.NoError(t, json.Unmarshal([]byte(`{"preferences":{"nameOverrides":{},"compactLayout":false,"fontSize":0}}`), &reset))
	got = reset.Preferences.ApplyTo(base)
	assert.Empty(t, got.NameOverrides, "an empty object clears the overrides")
	assert.Equal(t, 12.0, got.FontSize)
	assert.Equal(t, 0.6, got.OverlayOpacity)

	var nilPatch *PreferencesPatch
	assert.Equal(t, base.Normalize(), nilPatch.ApplyTo(base))
}

func TestPreferences_PatchRoundTrip(t *testing.T) {
	p := DefaultPreferences()
	p.CompactLayout = true
	p.NameOverrides = map[string]string{"a": "Tav"}

	patch := p.Patch()
	*patch.FontSize = 20
	patch.NameOverrides["b"] = "Shadowheart"
	assert.Equal(t, 12.0, p.FontSize, "the patch does not alias the source")
	assert.Len(t, p.NameOverrides, 1)

	got := patch.ApplyTo(Preferences{})
	assert.True(t, got.CompactLayout)
	assert.Equal(t, 20.0, got.FontSize)
	assert.Equal(t, map[string]string{"a": "Tav", "b": "Shadowheart"}, got.NameOverrides)
}
