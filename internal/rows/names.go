package rows

import (
	"strings"

	"battle-tracker/internal/constants"
)

// partyNameOverrides pins friendly names for roster ids seen in the shipped save.
var partyNameOverrides = map[string]string{
	"Elves_Female_High_Player_a3b3ad94-c0cb-41de-75f1-31a0365cbe24": "Tav",
	"S_Player_Laezel_58a69333-40bf-8358-1d17-fff240d7fb12":          "Lae'zel",
}

var legacyNameMap = map[string]string{
	"Elves_Female_Wood_Player_097e6584-f066-ea2f-f34a-af9cbf42df37": "Anodika",
}

// DisplayName resolves the label for a roster id. The first non-blank rung wins:
// user override, pinned overrides, legacy map, the S_Player_ heuristic, the truncated id.
func DisplayName(id, override string) string {
	if override = strings.TrimSpace(override); override != "" {
		return override
	}
	if strings.TrimSpace(id) == "" {
		return constants.UnusedSlotName
	}
	if name, ok := partyNameOverrides[id]; ok {
		return name
	}
	if name, ok := legacyNameMap[id]; ok {
		return name
	}
	return friendly(id)
}

func friendly(id string) string {
	if ix := indexFold(id, constants.MultiplayerTag); ix >= 0 {
		rest := id[ix+len(constants.MultiplayerTag):]
		if us := strings.IndexByte(rest, '_'); us > 0 {
			return rest[:us]
		}
	}
	if len(id) > constants.FriendlyIDLength {
		return id[:constants.FriendlyIDLength]
	}
	return id
}

func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}
