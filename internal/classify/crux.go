package classify

import "github.com/albapepper/cruxlog/internal/provider"

// Evaluated top to bottom, first match wins.
var angleRules = []rule[provider.CruxAngle]{
	{provider.CruxAngleRoof, words("roof", "ceiling", "horizontal")},
	{provider.CruxAngleOverhang, words("overhang", "overhanging", "steep", "cave")},
	{provider.CruxAngleVertical, words("vertical", "vert", "face")},
	{provider.CruxAngleSlab, words("slab", "slabby", "friction")},
}

var energyRules = []rule[provider.CruxEnergy]{
	{provider.CruxEnergyPowerEndurance, words("power endurance", "power-endurance", "pumpy crux", "sustained crux")},
	{provider.CruxEnergyPower, words("power", "powerful", "dyno", "dynamic", "explosive", "campus", "boulder problem")},
	{provider.CruxEnergyEndurance, words("endurance", "pumpy", "pump", "pumped", "sustained", "enduro")},
	{provider.CruxEnergyTechnique, words("technical", "techy", "technique", "balance", "balancy", "delicate", "footwork")},
}

// PredictCruxAngle scans notes for wall-angle keywords. No keyword means no
// prediction.
func PredictCruxAngle(notes string) provider.CruxAngle {
	a, _ := firstMatch(angleRules, notes)
	return a
}

// PredictCruxEnergy scans notes for energy-system keywords.
func PredictCruxEnergy(notes string) provider.CruxEnergy {
	e, _ := firstMatch(energyRules, notes)
	return e
}
