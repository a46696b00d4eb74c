package domain

import (
	"fmt"
	"strings"
)

type Scope int

const (
	ScopeCurrentCombat Scope = iota
	ScopeCurrentLevel
	ScopeCumulative
	ScopeCustom1
	ScopeCustom2
)

// AllScopes is the fixed scope set in declaration order.
var AllScopes = []Scope{
	ScopeCurrentCombat,
	ScopeCurrentLevel,
	ScopeCumulative,
	ScopeCustom1,
	ScopeCustom2,
}

var scopeNames = map[Scope]string{
	ScopeCurrentCombat: "CurrentCombat",
	ScopeCurrentLevel:  "CurrentLevel",
	ScopeCumulative:    "Cumulative",
	ScopeCustom1:       "Custom1",
	ScopeCustom2:       "Custom2",
}

func (s Scope) String() string {
	if name, ok := scopeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Scope(%d)", int(s))
}

func ParseScope(name string) (Scope, bool) {
	name = strings.TrimSpace(name)
	for _, s := range AllScopes {
		if strings.EqualFold(scopeNames[s], name) {
			return s, true
		}
	}
	return 0, false
}

func (s Scope) Valid() bool {
	_, ok := scopeNames[s]
	return ok
}

func (s Scope) IsCustom() bool {
	return s == ScopeCustom1 || s == ScopeCustom2
}

func (s Scope) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown scope %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Scope) UnmarshalText(text []byte) error {
	parsed, ok := ParseScope(string(text))
	if !ok {
		return fmt.Errorf("unknown scope %q", string(text))
	}
	*s = parsed
	return nil
}

// Totals picks the stat block a scope reads. Custom scopes share the cumulative totals.
func (s Scope) Totals(m *MemberRecord) *StatTotals {
	if m == nil {
		return nil
	}
	switch s {
	case ScopeCurrentCombat:
		return m.CurrentCombat
	case ScopeCurrentLevel:
		return m.CurrentLevel
	default:
		return m.Cumulative
	}
}

func (s Scope) Label(p Preferences) string {
	switch s {
	case ScopeCurrentCombat:
		return "Current Combat"
	case ScopeCurrentLevel:
		return "Current Level"
	case ScopeCumulative:
		return "Cumulative"
	case ScopeCustom1:
		return p.Custom1Name
	case ScopeCustom2:
		return p.Custom2Name
	}
	return s.String()
}
