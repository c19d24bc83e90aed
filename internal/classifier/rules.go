package classifier

import (
	"strings"

	"github.com/jonesrussell/spotgrid/internal/airtime"
	"github.com/jonesrussell/spotgrid/internal/domain"
	"github.com/jonesrussell/spotgrid/internal/logger"
)

// Rule names. Rule order is normative: reordering changes revenue
// categorization outcomes and breaks historical reconciliation, so the
// chain is built as an explicit ordered slice, not control flow.
const (
	RuleDirectResponse  = "direct_response"
	RuleROSDuration     = "ros_duration"
	RuleROSTime         = "ros_time"
	RulePaidProgramming = "revenue_type_paid_programming"
	RulePackageSpotType = "spot_type_package"
)

// RuleInput carries the spot attributes a rule may inspect. Duration is
// precomputed by the engine; DurationValid is false when the air times
// could not be parsed, in which case duration-based rules defer.
type RuleInput struct {
	Spot            *domain.Spot
	DurationMinutes int
	DurationValid   bool
}

// RuleOutcome is a terminal classification produced by a rule.
type RuleOutcome struct {
	CampaignType   domain.CampaignType
	CustomerIntent domain.CustomerIntent
}

// Rule is a pure function of (spot, settings) producing an optional
// terminal classification. A rule that cannot evaluate returns nil and
// defers; it never aborts the chain.
type Rule struct {
	Name string
	// Refinement marks rules gated behind overlap analysis: they run
	// only when overlap analysis would otherwise report indifferent
	// intent, and never override a structural match.
	Refinement bool
	Evaluate   func(in RuleInput) *RuleOutcome
}

// Chain is the precedence-ordered rule chain. The first structural
// match is terminal; later rules never run for that spot.
type Chain struct {
	rules   []Rule
	markers *MarkerMatcher
	logger  logger.Logger
}

// NewChain builds the ordered chain from settings.
func NewChain(settings Settings, log logger.Logger) *Chain {
	if log == nil {
		log = logger.NewNop()
	}
	c := &Chain{
		markers: NewMarkerMatcher(settings.DirectResponseMarkers),
		logger:  log,
	}
	c.rules = c.buildRules(settings)

	log.Info("rule chain initialized",
		logger.Int("rules", len(c.rules)),
		logger.Int("markers", c.markers.MarkerCount()),
		logger.String("profile", settings.Profile))
	return c
}

func (c *Chain) buildRules(settings Settings) []Rule {
	rules := []Rule{
		{
			Name: RuleDirectResponse,
			Evaluate: func(in RuleInput) *RuleOutcome {
				if _, ok := c.markers.Match(in.Spot.AgencyName, in.Spot.BillCode); !ok {
					return nil
				}
				// Customer intent stays unset: sender identity says
				// nothing about language targeting.
				return &RuleOutcome{CampaignType: domain.CampaignDirectResponse}
			},
		},
		{
			Name: RuleROSDuration,
			Evaluate: func(in RuleInput) *RuleOutcome {
				if !in.DurationValid {
					return nil
				}
				if in.DurationMinutes <= settings.ROSDurationThreshold() {
					return nil
				}
				return &RuleOutcome{
					CampaignType:   domain.CampaignROS,
					CustomerIntent: domain.IntentIndifferent,
				}
			},
		},
		{
			Name: RuleROSTime,
			Evaluate: func(in RuleInput) *RuleOutcome {
				if !matchesAnyWindow(in.Spot, settings.ROSWindows) &&
					!crossMidnightROS(in.Spot, settings.LateStartHour, settings.EarlyEndHour) {
					return nil
				}
				return &RuleOutcome{
					CampaignType:   domain.CampaignROS,
					CustomerIntent: domain.IntentIndifferent,
				}
			},
		},
		{
			Name: RulePaidProgramming,
			Evaluate: func(in RuleInput) *RuleOutcome {
				if settings.PaidProgrammingTag == "" || in.Spot.RevenueType != settings.PaidProgrammingTag {
					return nil
				}
				return &RuleOutcome{CampaignType: domain.CampaignPaidProgramming}
			},
		},
		{
			Name: RulePackageSpotType,
			Evaluate: func(in RuleInput) *RuleOutcome {
				if settings.PackageSpotType == "" || in.Spot.SpotType != settings.PackageSpotType {
					return nil
				}
				return &RuleOutcome{CampaignType: domain.CampaignPackage}
			},
		},
	}

	for _, p := range settings.PatternRules {
		pattern := p
		rules = append(rules, Rule{
			Name:       pattern.Name,
			Refinement: true,
			Evaluate: func(in RuleInput) *RuleOutcome {
				if !matchesWindow(in.Spot, pattern.Window) {
					return nil
				}
				if !hintMatches(in.Spot.LanguageHint, pattern.Hints) {
					return nil
				}
				return &RuleOutcome{
					CampaignType:   domain.CampaignLanguageSpecific,
					CustomerIntent: domain.IntentLanguageSpecific,
				}
			},
		})
	}

	return rules
}

// Apply runs the structural rules in order and returns the first
// terminal match, or ("", nil) to defer to overlap analysis.
func (c *Chain) Apply(in RuleInput) (string, *RuleOutcome) {
	for _, r := range c.rules {
		if r.Refinement {
			continue
		}
		if outcome := r.Evaluate(in); outcome != nil {
			return r.Name, outcome
		}
	}
	return "", nil
}

// Refine runs the gated pattern rules in order. The engine calls this
// only after overlap analysis reported indifferent intent.
func (c *Chain) Refine(in RuleInput) (string, *RuleOutcome) {
	for _, r := range c.rules {
		if !r.Refinement {
			continue
		}
		if outcome := r.Evaluate(in); outcome != nil {
			return r.Name, outcome
		}
	}
	return "", nil
}

// RuleNames returns the chain order, structural rules first. Exposed so
// precedence is a testable data structure.
func (c *Chain) RuleNames() []string {
	names := make([]string, 0, len(c.rules))
	for _, r := range c.rules {
		names = append(names, r.Name)
	}
	return names
}

func matchesAnyWindow(spot *domain.Spot, windows []Window) bool {
	for _, w := range windows {
		if matchesWindow(spot, w) {
			return true
		}
	}
	return false
}

// matchesWindow compares on parsed minutes so "13:00" and "13:00:00"
// are the same instant.
func matchesWindow(spot *domain.Spot, w Window) bool {
	spotIn, err := airtime.ParseClock(spot.TimeIn)
	if err != nil {
		return false
	}
	spotOut, err := airtime.ParseClock(spot.TimeOut)
	if err != nil {
		return false
	}
	winStart, err := airtime.ParseClock(w.Start)
	if err != nil {
		return false
	}
	winEnd, err := airtime.ParseClock(w.End)
	if err != nil {
		return false
	}
	return spotIn == winStart && spotOut == winEnd
}

// crossMidnightROS reports a late-night start rolling past midnight
// into the early morning.
func crossMidnightROS(spot *domain.Spot, lateStartHour, earlyEndHour int) bool {
	start, err := airtime.ParseClock(spot.TimeIn)
	if err != nil {
		return false
	}
	end, err := airtime.ParseClock(spot.TimeOut)
	if err != nil {
		return false
	}

	crosses := end >= airtime.MinutesPerDay || end < start
	if !crosses {
		return false
	}
	endOfDay := end % airtime.MinutesPerDay
	return start/60 >= lateStartHour && endOfDay/60 <= earlyEndHour
}

func hintMatches(hint string, expected []string) bool {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return false
	}
	for _, e := range expected {
		if strings.EqualFold(hint, e) {
			return true
		}
	}
	return false
}
