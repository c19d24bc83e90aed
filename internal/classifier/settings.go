// Package classifier implements the spot classification engine: the
// precedence-ordered rule chain, the multi-block intent analyzer, and
// the confidence model that together assign every spot exactly one
// campaign type.
package classifier

import (
	"fmt"

	"golang.org/x/text/language"

	"github.com/jonesrussell/spotgrid/internal/airtime"
)

// Deployment profile names. The ROS duration threshold differs between
// operational profiles and the two values are never merged.
const (
	ProfileProduction = "production"
	ProfileAlternate  = "alternate"
)

// Default threshold values.
const (
	defaultROSDurationProduction = 360
	defaultROSDurationAlternate  = 240
	defaultLongDurationMinutes   = 1020
	defaultHighBlockCount        = 15
	defaultLateStartHour         = 23
	defaultEarlyEndHour          = 6
	defaultConfidenceFloor       = 0.5
)

// Settings is the versioned rule configuration passed into the engine
// at call time. Grid changes mean loading a new Settings version, never
// mutating in-process state; old assignments remain valid under the
// Settings active when they were produced.
type Settings struct {
	// Version identifies the configuration revision recorded alongside
	// operational logs.
	Version string `yaml:"version"`

	// Profile selects the active deployment profile.
	Profile string `yaml:"profile"`

	// ROSDurationMinutes maps profile name to the ROS-by-duration
	// threshold: a spot longer than this many minutes is run-of-schedule.
	ROSDurationMinutes map[string]int `yaml:"ros_duration_minutes"`

	// ROSWindows are canonical run-of-schedule time windows matched
	// exactly against the spot's air times.
	ROSWindows []Window `yaml:"ros_windows"`

	// LateStartHour and EarlyEndHour define the cross-midnight ROS
	// pattern: a start at or after LateStartHour that rolls past
	// midnight and ends at or before EarlyEndHour.
	LateStartHour int `yaml:"late_start_hour"`
	EarlyEndHour  int `yaml:"early_end_hour"`

	// DirectResponseMarkers are matched against agency and bill-code
	// text; any hit classifies the spot as direct response.
	DirectResponseMarkers []string `yaml:"direct_response_markers"`

	// PaidProgrammingTag is the revenue-type tag for paid programming.
	PaidProgrammingTag string `yaml:"paid_programming_tag"`

	// PackageSpotType is the spot-type tag for package spots.
	PackageSpotType string `yaml:"package_spot_type"`

	// PatternRules are the gated refinement rules: exact window plus an
	// expected language hint. They fire only when overlap analysis would
	// otherwise report indifferent intent.
	PatternRules []PatternRule `yaml:"pattern_rules"`

	// Languages registers the language codes the grid uses.
	Languages []LanguageDef `yaml:"languages"`

	// Families group related languages; a spot spanning blocks within
	// one family still counts as a single language target.
	Families []Family `yaml:"language_families"`

	// LongDurationMinutes and HighBlockCount promote an indifferent
	// multi-block spot to run-of-schedule.
	LongDurationMinutes int `yaml:"long_duration_minutes"`
	HighBlockCount      int `yaml:"high_block_count"`

	// Confidence holds the factor weights and the attention floor.
	Confidence ConfidenceWeights `yaml:"confidence"`
}

// Window is an exact-match time window in "HH:MM[:SS]" notation.
type Window struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// PatternRule pairs a time window with the language hints expected for
// it. Hint comparison is case-insensitive and exact.
type PatternRule struct {
	Name         string   `yaml:"name"`
	Window       Window   `yaml:"window"`
	Hints        []string `yaml:"hints"`
	LanguageCode string   `yaml:"language_code"`
}

// LanguageDef registers one grid language code with its BCP 47 tag.
type LanguageDef struct {
	Code string `yaml:"code"`
	Tag  string `yaml:"tag"`
	Name string `yaml:"name"`
}

// Family groups language codes treated as one target. Preference is the
// explicit ordered tie-break list: when a family-consistent spot spans
// several languages, the primary block is drawn from the earliest
// preferred language.
type Family struct {
	Name       string   `yaml:"name"`
	Preference []string `yaml:"preference"`
}

// Defaults returns production-profile settings with no markers,
// patterns, or families configured.
func Defaults() Settings {
	return Settings{
		Version: "1",
		Profile: ProfileProduction,
		ROSDurationMinutes: map[string]int{
			ProfileProduction: defaultROSDurationProduction,
			ProfileAlternate:  defaultROSDurationAlternate,
		},
		LateStartHour:       defaultLateStartHour,
		EarlyEndHour:        defaultEarlyEndHour,
		PaidProgrammingTag:  "Paid Programming",
		PackageSpotType:     "PKG",
		LongDurationMinutes: defaultLongDurationMinutes,
		HighBlockCount:      defaultHighBlockCount,
		Confidence:          DefaultConfidenceWeights(),
	}
}

// ROSDurationThreshold returns the duration cutoff for the active
// profile.
func (s *Settings) ROSDurationThreshold() int {
	if v, ok := s.ROSDurationMinutes[s.Profile]; ok {
		return v
	}
	return defaultROSDurationProduction
}

// Validate refuses inconsistent configuration at startup rather than
// silently misclassifying.
func (s *Settings) Validate() error {
	if s.Profile == "" {
		return fmt.Errorf("settings: profile is required")
	}
	if _, ok := s.ROSDurationMinutes[s.Profile]; !ok {
		return fmt.Errorf("settings: profile %q has no ros_duration_minutes entry", s.Profile)
	}

	known := make(map[string]bool, len(s.Languages))
	for _, l := range s.Languages {
		if l.Code == "" {
			return fmt.Errorf("settings: language with empty code")
		}
		if l.Tag != "" {
			if _, err := language.Parse(l.Tag); err != nil {
				return fmt.Errorf("settings: language %q has invalid tag %q: %w", l.Code, l.Tag, err)
			}
		}
		known[l.Code] = true
	}

	for _, f := range s.Families {
		if len(f.Preference) == 0 {
			return fmt.Errorf("settings: family %q has no preference list", f.Name)
		}
		for _, code := range f.Preference {
			if !known[code] {
				return fmt.Errorf("settings: family %q references unknown language %q", f.Name, code)
			}
		}
	}

	for _, w := range s.ROSWindows {
		if err := w.validate("ros_windows"); err != nil {
			return err
		}
	}
	for _, p := range s.PatternRules {
		if p.Name == "" {
			return fmt.Errorf("settings: pattern rule with empty name")
		}
		if len(p.Hints) == 0 {
			return fmt.Errorf("settings: pattern rule %q has no hints", p.Name)
		}
		if p.LanguageCode != "" && !known[p.LanguageCode] {
			return fmt.Errorf("settings: pattern rule %q references unknown language %q", p.Name, p.LanguageCode)
		}
		if err := p.Window.validate(p.Name); err != nil {
			return err
		}
	}

	if s.Confidence.Floor < 0 || s.Confidence.Floor > 1 {
		return fmt.Errorf("settings: confidence floor %.2f out of range", s.Confidence.Floor)
	}

	return nil
}

func (w Window) validate(owner string) error {
	if _, err := airtime.ParseClock(w.Start); err != nil {
		return fmt.Errorf("settings: %s window start: %w", owner, err)
	}
	if _, err := airtime.ParseClock(w.End); err != nil {
		return fmt.Errorf("settings: %s window end: %w", owner, err)
	}
	return nil
}

// FamilyFor returns the configured family containing every code in
// codes, or nil when none does. A single unknown code disqualifies a
// family.
func (s *Settings) FamilyFor(codes []string) *Family {
	for i := range s.Families {
		f := &s.Families[i]
		members := make(map[string]bool, len(f.Preference))
		for _, c := range f.Preference {
			members[c] = true
		}
		all := true
		for _, c := range codes {
			if !members[c] {
				all = false
				break
			}
		}
		if all && len(codes) > 0 {
			return f
		}
	}
	return nil
}
