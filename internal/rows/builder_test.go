package rows

import (
	"testing"

	"battle-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func member(totals *domain.StatTotals) *domain.MemberRecord {
	return &domain.MemberRecord{Cumulative: totals, CurrentCombat: totals, CurrentLevel: totals}
}

func rowIDs(rows []domain.DisplayRow) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func TestResolveSlots(t *testing.T) {
	members := map[string]*domain.MemberRecord{"a": {}, "b": {}, "c": {}, "d": {}, "e": {}}
	order := []string{"e", "d", "c", "b", "a"}

	tests := []struct {
		name   string
		roster []string
		order  []string
		want   []string
	}{
		{name: "roster truncated to four", roster: []string{"a", "b", "c", "d", "e"}, order: order, want: []string{"a", "b", "c", "d"}},
		{name: "blank roster ids skipped", roster: []string{"", "b", " ", "x"}, order: order, want: []string{"b", "x"}},
		{name: "fallback to document order", roster: nil, order: order, want: []string{"e", "d", "c", "b"}},
		{name: "all-blank roster falls back", roster: []string{"", ""}, order: []string{"a", "", "b"}, want: []string{"a", "b"}},
		{name: "nothing known", roster: nil, order: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &domain.Snapshot{Members: members, MemberOrder: tt.order, Roster: tt.roster}
			var got []string
			for _, slot := range ResolveSlots(snap, nil) {
				got = append(got, slot.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Nil(t, ResolveSlots(nil, nil))
}

func TestBuild_RankingFallback(t *testing.T) {
	snap := &domain.Snapshot{
		Members: map[string]*domain.MemberRecord{
			"A": member(&domain.StatTotals{DamageDealt: domain.Value(50)}),
			"B": member(&domain.StatTotals{DamageDealt: domain.Value(80)}),
			"C": member(&domain.StatTotals{HealingSelf: domain.Value(10)}),
		},
		MemberOrder: []string{"A", "B", "C"},
		Roster:      []string{"A", "B", "C"},
	}
	layout := []domain.Field{
		{Key: "HealingSelf", Header: "Heal Self"},
		{Key: "DamageDealt", Header: "DMG"},
	}

	rows := Build(snap, domain.ScopeCumulative, layout, nil)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"B", "A", "C"}, rowIDs(rows))
	assert.Equal(t, []float64{80, 50, 10}, []float64{rows[0].SortValue, rows[1].SortValue, rows[2].SortValue})
	assert.Equal(t, map[string]string{"HealingSelf": "10", "DamageDealt": "-"}, rows[2].Metrics)
	assert.Equal(t, map[string]string{"HealingSelf": "-", "DamageDealt": "80"}, rows[0].Metrics)

	again := Build(snap, domain.ScopeCumulative, layout, nil)
	assert.Equal(t, rows, again)
}

func TestBuild_TiesKeepSlotOrder(t *testing.T) {
	snap := &domain.Snapshot{
		Members: map[string]*domain.MemberRecord{
			"w": member(&domain.StatTotals{DamageDealt: domain.Value(5)}),
			"x": member(&domain.StatTotals{DamageDealt: domain.Value(5)}),
			"y": member(nil),
			"z": member(&domain.StatTotals{DamageDealt: domain.Value(5)}),
		},
		Roster: []string{"y", "x", "w", "z"},
	}

	rows := Build(snap, domain.ScopeCurrentCombat, nil, nil)
	assert.Equal(t, []string{"x", "w", "z", "y"}, rowIDs(rows))
}

func TestBuild_PresentZeroIsARankingValue(t *testing.T) {
	layout := []domain.Field{{Key: "HealingSelf"}, {Key: "DamageTaken"}}
	zero := &domain.StatTotals{HealingSelf: domain.Value(0), DamageTaken: domain.Value(30)}

	assert.Zero(t, RankingValue(zero.Metrics(), layout))

	absent := &domain.StatTotals{DamageTaken: domain.Value(30)}
	assert.Equal(t, 30.0, RankingValue(absent.Metrics(), layout))
	assert.Zero(t, RankingValue(domain.Metrics{}, layout))
}

func TestBuild_ScopeSelectsTotals(t *testing.T) {
	snap := &domain.Snapshot{
		Members: map[string]*domain.MemberRecord{
			"p": {
				Cumulative:    &domain.StatTotals{DamageDealt: domain.Value(900)},
				CurrentCombat: &domain.StatTotals{DamageDealt: domain.Value(12.5)},
			},
		},
		MemberOrder: []string{"p"},
	}
	layout := []domain.Field{{Key: "DamageDealt", Header: "DMG"}}

	assert.Equal(t, "12.5", Build(snap, domain.ScopeCurrentCombat, layout, nil)[0].Metrics["DamageDealt"])
	assert.Equal(t, "-", Build(snap, domain.ScopeCurrentLevel, layout, nil)[0].Metrics["DamageDealt"])
	assert.Equal(t, "900", Build(snap, domain.ScopeCustom2, layout, nil)[0].Metrics["DamageDealt"])
}

func TestBuild_MissingRecordStillRenders(t *testing.T) {
	snap := &domain.Snapshot{
		Members: map[string]*domain.MemberRecord{},
		Roster:  []string{"S_Player_Wyll_c774d764-4a17-48dc-b470-32ace9ce447d"},
	}
	overrides := map[string]string{}

	rows := Build(snap, domain.ScopeCumulative, []domain.Field{{Key: "DamageDealt"}}, overrides)
	require.Len(t, rows, 1)
	assert.Equal(t, "Wyll", rows[0].Name)
	assert.Equal(t, "-", rows[0].Metrics["DamageDealt"])
	assert.Zero(t, rows[0].SortValue)

	overrides["S_Player_Wyll_c774d764-4a17-48dc-b470-32ace9ce447d"] = "Blade"
	assert.Equal(t, "Blade", Build(snap, domain.ScopeCumulative, nil, overrides)[0].Name)
}
