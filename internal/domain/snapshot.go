package domain

import (
	"encoding/json"
	"fmt"
)

// Snapshot is one decoded read of the live stats file. It is never patched in place;
// every successful read replaces the previous one.
type Snapshot struct {
	Members       map[string]*MemberRecord
	MemberOrder   []string
	Roster        []string
	CurrentBattle *CurrentBattle
	Metadata      *Metadata
}

type MemberRecord struct {
	Cumulative     *StatTotals `json:"cumulative,omitempty"`
	CurrentCombat  *StatTotals `json:"currentCombatTotals,omitempty"`
	CurrentLevel   *StatTotals `json:"currentLevelTotals,omitempty"`
	InCombatActive bool        `json:"inCombatActive"`
	Level          int         `json:"level"`
	Side           string      `json:"side"`
}

type CurrentBattle struct {
	Party    *BattleSide `json:"party,omitempty"`
	Hostiles *BattleSide `json:"hostiles,omitempty"`
}

type BattleSide struct {
	MemberIDs []string `json:"memberIds"`
}

type Metadata struct {
	SchemaVersion         string `json:"schemaVersion"`
	GeneratedAt           string `json:"generatedAt"`
	CurrentSaveSnapshotID string `json:"currentSaveSnapshotId"`
}

type snapshotWire struct {
	PartyMembers  json.RawMessage `json:"partyMembers"`
	Party         *BattleSide     `json:"party"`
	CurrentBattle *CurrentBattle  `json:"currentBattle"`
	Metadata      *Metadata       `json:"metadata"`
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var wire snapshotWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	members := make(map[string]*MemberRecord)
	var order []string
	if len(wire.PartyMembers) > 0 {
		err := decodeObject(wire.PartyMembers, func(key string, raw json.RawMessage) error {
			var member MemberRecord
			if err := json.Unmarshal(raw, &member); err != nil {
				return fmt.Errorf("failed to decode party member %q: %w", key, err)
			}
			if _, seen := members[key]; !seen {
				order = append(order, key)
			}
			members[key] = &member
			return nil
		})
		if err != nil {
			return err
		}
	}

	s.Members = members
	s.MemberOrder = order
	s.Roster = nil
	if wire.Party != nil {
		s.Roster = wire.Party.MemberIDs
	}
	s.CurrentBattle = wire.CurrentBattle
	s.Metadata = wire.Metadata
	return nil
}

func (s *Snapshot) MarshalJSON() ([]byte, error) {
	members := newObjectWriter()
	for _, id := range s.MemberOrder {
		member, ok := s.Members[id]
		if !ok {
			continue
		}
		if err := members.field(id, member); err != nil {
			return nil, err
		}
	}

	roster := s.Roster
	if roster == nil {
		roster = []string{}
	}

	w := newObjectWriter()
	w.raw("partyMembers", members.bytes())
	if err := w.field("party", BattleSide{MemberIDs: roster}); err != nil {
		return nil, err
	}
	if s.CurrentBattle != nil {
		if err := w.field("currentBattle", s.CurrentBattle); err != nil {
			return nil, err
		}
	}
	if s.Metadata != nil {
		if err := w.field("metadata", s.Metadata); err != nil {
			return nil, err
		}
	}
	return w.bytes(), nil
}

// Member returns the record for id, or nil.
func (s *Snapshot) Member(id string) *MemberRecord {
	if s == nil || id == "" {
		return nil
	}
	return s.Members[id]
}

// SchemaVersion is empty when the producer did not send metadata.
func (s *Snapshot) SchemaVersion() string {
	if s == nil || s.Metadata == nil {
		return ""
	}
	return s.Metadata.SchemaVersion
}

type memberWire struct {
	Cumulative     json.RawMessage `json:"cumulative"`
	CurrentCombat  json.RawMessage `json:"currentCombatTotals"`
	CurrentLevel   json.RawMessage `json:"currentLevelTotals"`
	InCombatActive json.RawMessage `json:"inCombatActive"`
	Level          json.RawMessage `json:"level"`
	Side           json.RawMessage `json:"side"`
}

// UnmarshalJSON takes whatever it can from a member entry. Scalars of the wrong type read as
// their zero value and a stat block that is not an object reads as absent.
func (m *MemberRecord) UnmarshalJSON(data []byte) error {
	*m = MemberRecord{}
	if !isObject(data) {
		return nil
	}

	var wire memberWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	var err error
	if m.Cumulative, err = decodeTotals(wire.Cumulative); err != nil {
		return err
	}
	if m.CurrentCombat, err = decodeTotals(wire.CurrentCombat); err != nil {
		return err
	}
	if m.CurrentLevel, err = decodeTotals(wire.CurrentLevel); err != nil {
		return err
	}
	m.InCombatActive = looseBool(wire.InCombatActive)
	m.Level = looseInt(wire.Level)
	m.Side = looseString(wire.Side)
	return nil
}

func decodeTotals(raw json.RawMessage) (*StatTotals, error) {
	if !isObject(raw) {
		return nil, nil
	}
	var totals StatTotals
	if err := json.Unmarshal(raw, &totals); err != nil {
		return nil, err
	}
	return &totals, nil
}

type metadataWire struct {
	SchemaVersion         json.RawMessage `json:"schemaVersion"`
	GeneratedAt           json.RawMessage `json:"generatedAt"`
	CurrentSaveSnapshotID json.RawMessage `json:"currentSaveSnapshotId"`
}

// UnmarshalJSON reads numbers as their literal text, so "schemaVersion": 3 becomes "3".
func (md *Metadata) UnmarshalJSON(data []byte) error {
	*md = Metadata{}
	if !isObject(data) {
		return nil
	}

	var wire metadataWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	md.SchemaVersion = looseString(wire.SchemaVersion)
	md.GeneratedAt = looseString(wire.GeneratedAt)
	md.CurrentSaveSnapshotID = looseString(wire.CurrentSaveSnapshotID)
	return nil
}

// UnmarshalJSON keeps the string and numeric entries of memberIds and ignores the rest.
func (b *BattleSide) UnmarshalJSON(data []byte) error {
	*b = BattleSide{}
	if !isObject(data) {
		return nil
	}

	var wire struct {
		MemberIDs json.RawMessage `json:"memberIds"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	b.MemberIDs = looseStrings(wire.MemberIDs)
	return nil
}

type currentBattleWire CurrentBattle

func (c *CurrentBattle) UnmarshalJSON(data []byte) error {
	*c = CurrentBattle{}
	if !isObject(data) {
		return nil
	}
	return json.Unmarshal(data, (*currentBattleWire)(c))
}
