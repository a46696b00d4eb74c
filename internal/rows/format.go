package rows

import (
	"math"
	"strconv"
	"strings"

	"battle-tracker/internal/constants"
	"battle-tracker/internal/domain"
)

const missingValue = "-"

// FormatValue renders near-integers without decimals and everything else with at most two.
func FormatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return missingValue
	}

	rounded := math.Round(v)
	if math.Abs(v-rounded) < constants.IntegerTolerance {
		if rounded == 0 {
			return "0"
		}
		return strconv.FormatFloat(rounded, 'f', 0, 64)
	}

	formatted := strconv.FormatFloat(v, 'f', 2, 64)
	formatted = strings.TrimRight(formatted, "0")
	formatted = strings.TrimSuffix(formatted, ".")
	if formatted == "-0" {
		return "0"
	}
	return formatted
}

// FormatMetric looks key up in m; absent keys render as "-".
func FormatMetric(m domain.Metrics, key string) string {
	v, ok := m.Get(key)
	if !ok {
		return missingValue
	}
	return FormatValue(v)
}
