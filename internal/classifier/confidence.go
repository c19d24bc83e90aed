package classifier

// Factor is one confidence-contributing signal. The set is closed;
// weights come from configuration, are summed and clamped to [0, 1].
type Factor string

// Factor values.
const (
	FactorBase           Factor = "base"
	FactorStructuralRule Factor = "structural_rule"
	FactorPatternRule    Factor = "pattern_rule"
	FactorSingleLanguage Factor = "single_language"
	FactorFamilyMatch    Factor = "family_match"
	FactorMultiFamily    Factor = "multi_family"
	FactorNoBlocks       Factor = "no_blocks"
	FactorParseError     Factor = "parse_error"
)

// ConfidenceWeights holds the numeric weight for each factor and the
// floor below which an assignment is flagged for attention.
type ConfidenceWeights struct {
	Base           float64 `yaml:"base"`
	StructuralRule float64 `yaml:"structural_rule"`
	PatternRule    float64 `yaml:"pattern_rule"`
	SingleLanguage float64 `yaml:"single_language"`
	FamilyMatch    float64 `yaml:"family_match"`
	MultiFamily    float64 `yaml:"multi_family"`
	NoBlocks       float64 `yaml:"no_blocks"`
	ParseError     float64 `yaml:"parse_error"`
	Floor          float64 `yaml:"floor"`
}

// DefaultConfidenceWeights returns the production weighting.
func DefaultConfidenceWeights() ConfidenceWeights {
	return ConfidenceWeights{
		Base:           0.5,
		StructuralRule: 0.5,
		PatternRule:    0.35,
		SingleLanguage: 0.45,
		FamilyMatch:    0.35,
		MultiFamily:    0.2,
		NoBlocks:       -0.3,
		ParseError:     -0.4,
		Floor:          defaultConfidenceFloor,
	}
}

// Score sums the weights of the given factors and clamps to [0, 1].
// Pure function of its inputs.
func (w ConfidenceWeights) Score(factors ...Factor) float64 {
	var total float64
	for _, f := range factors {
		switch f {
		case FactorBase:
			total += w.Base
		case FactorStructuralRule:
			total += w.StructuralRule
		case FactorPatternRule:
			total += w.PatternRule
		case FactorSingleLanguage:
			total += w.SingleLanguage
		case FactorFamilyMatch:
			total += w.FamilyMatch
		case FactorMultiFamily:
			total += w.MultiFamily
		case FactorNoBlocks:
			total += w.NoBlocks
		case FactorParseError:
			total += w.ParseError
		}
	}
	if total < 0 {
		return 0
	}
	if total > 1 {
		return 1
	}
	return total
}
