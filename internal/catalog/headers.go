package catalog

import "strings"

var headerShortNames = map[string]string{
	"damagedealt":               "DMG",
	"damageeffective":           "DMG Eff",
	"damageoverkill":            "Overkill",
	"damageperturneffective":    "DPR Eff",
	"damageperturnparticipated": "DPR Part",
	"damagetaken":               "DMG Taken",
	"healingself":               "Heal Self",
	"healingothers":             "Heal Others",
	"healingperformedtotal":     "Heal Done",
	"healingreceivedself":       "Heal Self Recv",
	"healingreceivedothers":     "Heal Others Recv",
	"healingreceivedtotal":      "Heal Recv",
	"hostilesopposed":           "Hostiles",
	"killingblows":              "Kills",
	"roundseffective":           "Rounds Eff",
	"roundstotal":               "Rounds",
}

// DefaultHeader is the short column label for key, or the key itself when none is registered.
func DefaultHeader(key string) string {
	if header, ok := headerShortNames[strings.ToLower(key)]; ok {
		return header
	}
	return key
}
