// Package crew defines the core domain entities for crew members.
// This package is PURE and must NOT import any infrastructure packages
// (network, simlog, platform).
package crew

import "github.com/orbitalworks/longhaul/internal/domain/rules"

// SkillID identifies one of the four trainable skills.
type SkillID string

const (
	SkillPiloting SkillID = "piloting"
	SkillMining   SkillID = "mining"
	SkillCommerce SkillID = "commerce"
	SkillRepairs  SkillID = "repairs"
)

// AllSkills lists every skill in a stable order.
var AllSkills = []SkillID{SkillPiloting, SkillMining, SkillCommerce, SkillRepairs}

// Specialization is an optional focus a crew member may carry.
type Specialization string

const (
	SpecNavigator     Specialization = "Navigator"
	SpecProspector    Specialization = "Prospector"
	SpecQuartermaster Specialization = "Quartermaster"
	SpecWrench        Specialization = "Wrench"
)

// Personality is an optional pair of flavor traits. Absent is distinct from
// a zero value, which is why ships carry it behind a pointer.
type Personality struct {
	Traits [2]string `json:"traits"`
}

// MasteryPool is the shared per-skill XP reservoir.
// Fill percentage unlocks checkpoint bonuses at fixed thresholds.
type MasteryPool struct {
	XP    float64 `json:"xp"`
	MaxXP float64 `json:"max_xp"`
}

// FillPct returns the pool fill percentage.
func (p MasteryPool) FillPct() float64 {
	return rules.PoolFillPct(p.XP, p.MaxXP)
}

// ItemMastery tracks progress against one specific item (an engine model, an
// ore type, a trade route...). Level is always recomputable from XP.
type ItemMastery struct {
	XP    float64 `json:"xp"`
	Level int     `json:"level"`
}

// MasterySkillState groups the pool and the per-item masteries of one skill.
type MasterySkillState struct {
	Pool  MasteryPool             `json:"pool"`
	Items map[string]*ItemMastery `json:"items"`
}

// Member represents one crew member. Owned exclusively by its ship.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"` // role key from the catalog

	// The player avatar cannot die to attrition; a health floor applies.
	IsAvatar bool `json:"is_avatar"`

	Skills map[SkillID]float64 `json:"skills"` // 0-100

	Health float64 `json:"health"` // 0-100
	Morale float64 `json:"morale"` // 0-100

	SalaryMultiplier float64 `json:"salary_multiplier"`
	UnpaidTicks      int     `json:"unpaid_ticks"`

	ZeroGExposureS float64 `json:"zero_g_exposure_s"`
	ZeroGTier      int     `json:"zero_g_tier"`

	Mastery map[SkillID]*MasterySkillState `json:"mastery"`

	Specialization *Specialization `json:"specialization,omitempty"`
	Personality    *Personality    `json:"personality,omitempty"`
}

// NewMember creates a crew member with full vitals and empty mastery state.
func NewMember(id, name, role string) *Member {
	return &Member{
		ID:   id,
		Name: name,
		Role: role,
		Skills: map[SkillID]float64{
			SkillPiloting: 10,
			SkillMining:   10,
			SkillCommerce: 10,
			SkillRepairs:  10,
		},
		Health:           100,
		Morale:           75,
		SalaryMultiplier: 1.0,
		Mastery:          make(map[SkillID]*MasterySkillState),
	}
}

// Skill returns the member's level in a skill, 0 when untracked.
func (m *Member) Skill(id SkillID) float64 {
	return m.Skills[id]
}

// MasteryFor returns the mastery state for a skill, creating it on first use.
func (m *Member) MasteryFor(skill SkillID) *MasterySkillState {
	if m.Mastery == nil {
		m.Mastery = make(map[SkillID]*MasterySkillState)
	}
	ms, ok := m.Mastery[skill]
	if !ok {
		ms = &MasterySkillState{
			Pool:  MasteryPool{MaxXP: 10_000},
			Items: make(map[string]*ItemMastery),
		}
		m.Mastery[skill] = ms
	}
	return ms
}

// ItemMasteryFor returns the item mastery entry, creating it on first use.
func (ms *MasterySkillState) ItemMasteryFor(itemKey string) *ItemMastery {
	if ms.Items == nil {
		ms.Items = make(map[string]*ItemMastery)
	}
	im, ok := ms.Items[itemKey]
	if !ok {
		im = &ItemMastery{}
		ms.Items[itemKey] = im
	}
	return im
}

// Salaried reports whether the member draws any pay.
func (m *Member) Salaried(baseRate float64) bool {
	return baseRate*m.SalaryMultiplier > 0
}
