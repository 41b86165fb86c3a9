package sim

import (
	"fmt"

	"github.com/orbitalworks/longhaul/internal/domain/crew"
	"github.com/orbitalworks/longhaul/internal/domain/rules"
	"github.com/orbitalworks/longhaul/internal/domain/ship"
	"github.com/orbitalworks/longhaul/internal/simlog"
)

// masterySystem routes experience into the dual-track progression: per-item
// mastery levels and the skill-wide pool with its checkpoint rewards.
type masterySystem struct {
	sim *Simulation
}

func newMasterySystem(s *Simulation) *masterySystem {
	return &masterySystem{sim: s}
}

// award grants xp to one member for work with one item. Zero or invalid
// amounts are ignored, so calling with no work done is a no-op. High item
// levels occasionally double the grant.
func (ms *masterySystem) award(sh *ship.Ship, m *crew.Member, skill crew.SkillID, itemKey string, xp float64) {
	xp = rules.Guard(xp)
	if xp <= 0 {
		return
	}

	state := m.MasteryFor(skill)
	im := state.ItemMasteryFor(itemKey)

	// Mastery bonus: 1% doubling chance per item level.
	if im.Level > 0 && ms.sim.rng.Float64() < float64(im.Level)*0.01 {
		xp *= 2
	}

	im.XP += xp
	if lvl := rules.MasteryLevel(im.XP); lvl > im.Level {
		im.Level = lvl
		ms.sim.appendLog(simlog.CategoryCrew, "mastery_level",
			fmt.Sprintf("%s reached %s mastery %d with %s", m.Name, skill, lvl, itemKey), sh.Name,
			map[string]interface{}{"crew_id": m.ID, "skill": string(skill), "item": itemKey, "level": lvl})
	}

	before := state.Pool.FillPct()
	state.Pool.XP = rules.Clamp(state.Pool.XP+xp, 0, state.Pool.MaxXP)
	after := state.Pool.FillPct()

	for _, cp := range rules.CheckpointsCrossed(before, after) {
		ms.sim.appendLog(simlog.CategoryCrew, "pool_checkpoint",
			fmt.Sprintf("%s crossed the %.0f%% %s pool checkpoint", m.Name, cp, skill), sh.Name,
			map[string]interface{}{"crew_id": m.ID, "skill": string(skill), "checkpoint": cp})
		ms.sim.pushToast(simlog.CategoryCrew,
			fmt.Sprintf("%s: %s pool at %.0f%%", m.Name, skill, cp), sh.Name)
	}
}
