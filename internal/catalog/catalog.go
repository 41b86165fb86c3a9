// Package catalog loads the static content definitions for the simulation:
// engines, equipment, ores, ship classes, crew roles, and the balance knobs.
// Everything here is immutable after Load; lookups are pure functions keyed
// by id with no state of their own.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/orbitalworks/longhaul/internal/world"
)

// EngineDef describes a purchasable ship drive.
type EngineDef struct {
	Key              string  `yaml:"key" json:"key"`
	Name             string  `yaml:"name" json:"name"`
	ThrustN          float64 `yaml:"thrust_n" json:"thrust_n"`
	SpecificImpulseS float64 `yaml:"specific_impulse_s" json:"specific_impulse_s"`
	WarmupPerTick    float64 `yaml:"warmup_per_tick" json:"warmup_per_tick"` // warmup % gained per tick
	RadiationOutput  float64 `yaml:"radiation_output" json:"radiation_output"`
	WasteHeatOutput  float64 `yaml:"waste_heat_output" json:"waste_heat_output"`
	MassKg           float64 `yaml:"mass_kg" json:"mass_kg"`
	Cost             float64 `yaml:"cost" json:"cost"`
}

// EquipmentKind discriminates what an equipment definition contributes.
type EquipmentKind string

const (
	KindShielding   EquipmentKind = "shielding"
	KindRadiator    EquipmentKind = "radiator"
	KindMedbay      EquipmentKind = "medbay"
	KindContainment EquipmentKind = "containment"
	KindLifeSupport EquipmentKind = "life_support"
	KindGenerator   EquipmentKind = "generator"
	KindMiningRig   EquipmentKind = "mining_rig"
)

// EquipmentDef describes an installable equipment item.
type EquipmentDef struct {
	Key                string        `yaml:"key" json:"key"`
	Name               string        `yaml:"name" json:"name"`
	Kind               EquipmentKind `yaml:"kind" json:"kind"`
	Degradable         bool          `yaml:"degradable" json:"degradable"`
	PowerDrawKw        float64       `yaml:"power_draw_kw" json:"power_draw_kw"`
	PowerOutputKw      float64       `yaml:"power_output_kw" json:"power_output_kw"`
	ShieldingValue     float64       `yaml:"shielding_value" json:"shielding_value"`
	DissipationValue   float64       `yaml:"dissipation_value" json:"dissipation_value"`
	HealthRegenPerTick float64       `yaml:"health_regen_per_tick" json:"health_regen_per_tick"`
	PatientSlots       int           `yaml:"patient_slots" json:"patient_slots"`
	OxygenGenPerTick   float64       `yaml:"oxygen_gen_per_tick" json:"oxygen_gen_per_tick"`
	MiningYieldPerTick float64       `yaml:"mining_yield_per_tick" json:"mining_yield_per_tick"`
	Cost               float64       `yaml:"cost" json:"cost"`
}

// OreDef describes a minable commodity.
type OreDef struct {
	Key        string  `yaml:"key" json:"key"`
	Name       string  `yaml:"name" json:"name"`
	ValuePerKg float64 `yaml:"value_per_kg" json:"value_per_kg"`
	Rarity     float64 `yaml:"rarity" json:"rarity"` // 0-1, lower = rarer
}

// ShipClassDef holds the per-class constants the engine reads.
type ShipClassDef struct {
	Key            string  `yaml:"key" json:"key"`
	Name           string  `yaml:"name" json:"name"`
	RangeKm        float64 `yaml:"range_km" json:"range_km"`
	CrewCapacity   int     `yaml:"crew_capacity" json:"crew_capacity"`
	FuelCapacityKg float64 `yaml:"fuel_capacity_kg" json:"fuel_capacity_kg"`
	HullMassKg     float64 `yaml:"hull_mass_kg" json:"hull_mass_kg"`
	ProvisionsKg   float64 `yaml:"provisions_kg" json:"provisions_kg"`
}

// RoleDef describes a crew role and its base pay.
type RoleDef struct {
	Key           string  `yaml:"key" json:"key"`
	Name          string  `yaml:"name" json:"name"`
	SalaryPerTick float64 `yaml:"salary_per_tick" json:"salary_per_tick"`
}

// Balance stores the global tuning variables for the tick engine.
type Balance struct {
	TickSeconds            float64 `yaml:"tick_seconds" json:"tick_seconds"`
	StartingCredits        float64 `yaml:"starting_credits" json:"starting_credits"`
	BurnFraction           float64 `yaml:"burn_fraction" json:"burn_fraction"`
	OxygenDepletionPerTick float64 `yaml:"oxygen_depletion_per_tick" json:"oxygen_depletion_per_tick"` // per crew member
	ProvisionsPerCrewTick  float64 `yaml:"provisions_per_crew_tick" json:"provisions_per_crew_tick"`
	EncounterChance        float64 `yaml:"encounter_chance" json:"encounter_chance"` // per in-flight ship per tick
	RepairPerTick          float64 `yaml:"repair_per_tick" json:"repair_per_tick"`
	AssistSamples          int     `yaml:"assist_samples" json:"assist_samples"`
	AssistBaseThresholdKm  float64 `yaml:"assist_base_threshold_km" json:"assist_base_threshold_km"`
	AssistRefundBaseKg     float64 `yaml:"assist_refund_base_kg" json:"assist_refund_base_kg"`
	AssistPenaltyBaseKg    float64 `yaml:"assist_penalty_base_kg" json:"assist_penalty_base_kg"`
	AssistMinBodyMassKg    float64 `yaml:"assist_min_body_mass_kg" json:"assist_min_body_mass_kg"`
	CourseCheckTicks       int     `yaml:"course_check_ticks" json:"course_check_ticks"`
	CourseDriftThreshold   float64 `yaml:"course_drift_threshold" json:"course_drift_threshold"`
	ContainmentDegPerTick  float64 `yaml:"containment_deg_per_tick" json:"containment_deg_per_tick"`
	FuelPricePerKg         float64 `yaml:"fuel_price_per_kg" json:"fuel_price_per_kg"`
}

// File is the root structure of the universe YAML file.
type File struct {
	Balance     Balance        `yaml:"balance"`
	Engines     []EngineDef    `yaml:"engines"`
	Equipment   []EquipmentDef `yaml:"equipment"`
	Ores        []OreDef       `yaml:"ores"`
	ShipClasses []ShipClassDef `yaml:"ship_classes"`
	Roles       []RoleDef      `yaml:"roles"`
	World       world.Config   `yaml:"world"`
}

// Catalog is the resolved, immutable content set.
type Catalog struct {
	Balance  Balance
	WorldCfg world.Config

	engines     map[string]EngineDef
	equipment   map[string]EquipmentDef
	ores        map[string]OreDef
	shipClasses map[string]ShipClassDef
	roles       map[string]RoleDef
}

// Load reads and resolves a universe YAML file.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	return FromFile(f)
}

// FromFile resolves an already-parsed File. Exposed for tests.
func FromFile(f File) (*Catalog, error) {
	c := &Catalog{
		Balance:     f.Balance,
		WorldCfg:    f.World,
		engines:     make(map[string]EngineDef, len(f.Engines)),
		equipment:   make(map[string]EquipmentDef, len(f.Equipment)),
		ores:        make(map[string]OreDef, len(f.Ores)),
		shipClasses: make(map[string]ShipClassDef, len(f.ShipClasses)),
		roles:       make(map[string]RoleDef, len(f.Roles)),
	}
	c.applyDefaults()

	for _, e := range f.Engines {
		if e.Key == "" {
			return nil, fmt.Errorf("engine with empty key")
		}
		c.engines[e.Key] = e
	}
	for _, e := range f.Equipment {
		if e.Key == "" {
			return nil, fmt.Errorf("equipment with empty key")
		}
		c.equipment[e.Key] = e
	}
	for _, o := range f.Ores {
		c.ores[o.Key] = o
	}
	for _, sc := range f.ShipClasses {
		c.shipClasses[sc.Key] = sc
	}
	for _, r := range f.Roles {
		c.roles[r.Key] = r
	}
	return c, nil
}

// applyDefaults fills balance knobs the YAML left at zero.
func (c *Catalog) applyDefaults() {
	b := &c.Balance
	if b.TickSeconds <= 0 {
		b.TickSeconds = 60
	}
	if b.BurnFraction <= 0 || b.BurnFraction > 1 {
		b.BurnFraction = 0.2
	}
	if b.OxygenDepletionPerTick <= 0 {
		b.OxygenDepletionPerTick = 0.01
	}
	if b.ProvisionsPerCrewTick <= 0 {
		b.ProvisionsPerCrewTick = 0.02
	}
	if b.RepairPerTick <= 0 {
		b.RepairPerTick = 0.5
	}
	if b.AssistSamples <= 0 {
		b.AssistSamples = 32
	}
	if b.AssistBaseThresholdKm <= 0 {
		b.AssistBaseThresholdKm = 20_000
	}
	if b.AssistRefundBaseKg <= 0 {
		b.AssistRefundBaseKg = 2
	}
	if b.AssistPenaltyBaseKg <= 0 {
		b.AssistPenaltyBaseKg = 1
	}
	if b.AssistMinBodyMassKg <= 0 {
		b.AssistMinBodyMassKg = 1e22
	}
	if b.CourseCheckTicks <= 0 {
		b.CourseCheckTicks = 30
	}
	if b.CourseDriftThreshold <= 0 {
		b.CourseDriftThreshold = 0.05
	}
	if b.ContainmentDegPerTick <= 0 {
		b.ContainmentDegPerTick = 0.002
	}
	if b.FuelPricePerKg <= 0 {
		b.FuelPricePerKg = 3
	}
}

// Engine returns an engine definition by key.
func (c *Catalog) Engine(key string) (EngineDef, bool) {
	d, ok := c.engines[key]
	return d, ok
}

// Equipment returns an equipment definition by key.
func (c *Catalog) Equipment(key string) (EquipmentDef, bool) {
	d, ok := c.equipment[key]
	return d, ok
}

// Ore returns an ore definition by key.
func (c *Catalog) Ore(key string) (OreDef, bool) {
	d, ok := c.ores[key]
	return d, ok
}

// ShipClass returns a ship class definition by key.
func (c *Catalog) ShipClass(key string) (ShipClassDef, bool) {
	d, ok := c.shipClasses[key]
	return d, ok
}

// Role returns a crew role definition by key.
func (c *Catalog) Role(key string) (RoleDef, bool) {
	d, ok := c.roles[key]
	return d, ok
}

// Ores lists every ore definition.
func (c *Catalog) Ores() []OreDef {
	out := make([]OreDef, 0, len(c.ores))
	for _, o := range c.ores {
		out = append(out, o)
	}
	return out
}
