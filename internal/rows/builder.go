package rows

import (
	"sort"
	"strings"

	"battle-tracker/internal/constants"
	"battle-tracker/internal/domain"
)

// ResolveSlots picks up to four roster ids: the active roster when it names anyone,
// otherwise the first members in document order.
func ResolveSlots(snap *domain.Snapshot, overrides map[string]string) []domain.Slot {
	if snap == nil {
		return nil
	}

	slots := collectSlots(snap.Roster, overrides)
	if len(slots) == 0 {
		slots = collectSlots(snap.MemberOrder, overrides)
	}
	return slots
}

func collectSlots(ids []string, overrides map[string]string) []domain.Slot {
	var slots []domain.Slot
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			continue
		}
		slots = append(slots, domain.Slot{ID: id, DisplayOverride: overrides[id]})
		if len(slots) == constants.MaxRosterSlots {
			break
		}
	}
	return slots
}

// Build renders one row per resolved slot for scope, ordered by descending ranking value.
// Ties keep slot order.
func Build(snap *domain.Snapshot, scope domain.Scope, layout []domain.Field, overrides map[string]string) []domain.DisplayRow {
	slots := ResolveSlots(snap, overrides)
	rows := make([]domain.DisplayRow, 0, len(slots))
	for _, slot := range slots {
		rows = append(rows, buildRow(snap, slot, scope, layout))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].SortValue > rows[j].SortValue
	})
	return rows
}

func buildRow(snap *domain.Snapshot, slot domain.Slot, scope domain.Scope, layout []domain.Field) domain.DisplayRow {
	metrics := scope.Totals(snap.Member(slot.ID)).Metrics()

	row := domain.DisplayRow{
		ID:        slot.ID,
		Name:      DisplayName(slot.ID, slot.DisplayOverride),
		Metrics:   make(map[string]string, len(layout)),
		SortValue: RankingValue(metrics, layout),
	}
	for _, field := range layout {
		row.Metrics[field.Key] = FormatMetric(metrics, field.Key)
	}
	return row
}

// RankingValue is DamageDealt when present, else the first layout field the record has,
// else zero. A present zero counts as a value.
func RankingValue(m domain.Metrics, layout []domain.Field) float64 {
	if v, ok := m.Get(constants.RankingMetric); ok {
		return v
	}
	for _, field := range layout {
		if v, ok := m.Get(field.Key); ok {
			return v
		}
	}
	return 0
}
