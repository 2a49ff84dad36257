package client

const (
	FlagProteinLow = "proteinLow"
	FlagFiberLow   = "fiberLow"
	FlagOverKcal   = "overKcal"
	FlagOK         = "ok"

	lowCoverage     = 0.85
	kcalCoverageMin = 0.8
	kcalCoverageMax = 1.2
)

// RiskFlags derives the risk flags of a day from its coverage ratios. Nil
// coverages raise no flag. The result is never empty.
func RiskFlags(kcal, protein, fiber *float64) []string {
	var flags []string
	if protein != nil && *protein < lowCoverage {
		flags = append(flags, FlagProteinLow)
	}
	if fiber != nil && *fiber < lowCoverage {
		flags = append(flags, FlagFiberLow)
	}
	if kcal != nil && (*kcal > kcalCoverageMax || *kcal < kcalCoverageMin) {
		flags = append(flags, FlagOverKcal)
	}
	if len(flags) == 0 {
		flags = append(flags, FlagOK)
	}
	return flags
}

func orOne(v *float64) float64 {
	if v == nil {
		return 1
	}
	return *v
}

// ToSummary builds the list view of a client. Only macro shortfalls are
// flagged here; calorie deviations show up in the stored day flags.
func ToSummary(item ListItem) Summary {
	c := item.Client
	var kcal, protein, fiber *float64
	if item.Latest != nil {
		kcal = item.Latest.KcalCoverage
		protein = item.Latest.ProteinCoverage
		fiber = item.Latest.FiberCoverage
	}
	return Summary{
		ID:              c.ID,
		Name:            c.FullName,
		Status:          c.Status.Label(),
		Goal:            c.Goal,
		ProteinCoverage: orOne(protein),
		FiberCoverage:   orOne(fiber),
		KcalCoverage:    orOne(kcal),
		RiskFlags:       RiskFlags(nil, protein, fiber),
	}
}
