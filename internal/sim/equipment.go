package sim

import (
	"github.com/orbitalworks/longhaul/internal/catalog"
	"github.com/orbitalworks/longhaul/internal/domain/ship"
)

// efficiency scales an equipment contribution by its wear: a unit at 100%
// degradation contributes nothing.
func efficiency(eq *ship.Equipment) float64 {
	e := 1 - eq.Degradation/100
	if e < 0 {
		return 0
	}
	return e
}

// poweredOfKind iterates a ship's powered equipment of one kind.
func (s *Simulation) poweredOfKind(sh *ship.Ship, kind catalog.EquipmentKind, fn func(*ship.Equipment, catalog.EquipmentDef)) {
	for _, eq := range sh.Equipment {
		if !eq.Powered {
			continue
		}
		def, ok := s.cat.Equipment(eq.DefKey)
		if !ok || def.Kind != kind {
			continue
		}
		fn(eq, def)
	}
}

// totalShielding sums effective radiation shielding from powered shield
// equipment, degradation applied.
func (s *Simulation) totalShielding(sh *ship.Ship) float64 {
	total := 0.0
	s.poweredOfKind(sh, catalog.KindShielding, func(eq *ship.Equipment, def catalog.EquipmentDef) {
		total += def.ShieldingValue * efficiency(eq)
	})
	return total
}

// totalDissipation sums effective waste heat dissipation from powered
// radiators.
func (s *Simulation) totalDissipation(sh *ship.Ship) float64 {
	total := 0.0
	s.poweredOfKind(sh, catalog.KindRadiator, func(eq *ship.Equipment, def catalog.EquipmentDef) {
		total += def.DissipationValue * efficiency(eq)
	})
	return total
}

// generatorOutputKw sums powered generator output. Medbays and other power
// consumers are inert when this is zero.
func (s *Simulation) generatorOutputKw(sh *ship.Ship) float64 {
	total := 0.0
	s.poweredOfKind(sh, catalog.KindGenerator, func(eq *ship.Equipment, def catalog.EquipmentDef) {
		total += def.PowerOutputKw * efficiency(eq)
	})
	return total
}

// medbayCapacity returns total patient slots across powered medbays.
func (s *Simulation) medbayCapacity(sh *ship.Ship) int {
	slots := 0
	s.poweredOfKind(sh, catalog.KindMedbay, func(eq *ship.Equipment, def catalog.EquipmentDef) {
		if efficiency(eq) > 0 {
			slots += def.PatientSlots
		}
	})
	return slots
}
