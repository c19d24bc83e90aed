package classifier

import (
	"sort"

	"github.com/jonesrussell/spotgrid/internal/domain"
	"github.com/jonesrussell/spotgrid/internal/logger"
)

// IntentResult is the outcome of multi-block overlap analysis.
type IntentResult struct {
	Intent          domain.CustomerIntent
	CampaignType    domain.CampaignType
	PrimaryBlockID  *int64
	SpannedBlockIDs []int64
	SpansMultiple   bool
	Languages       []string // distinct language codes, sorted
	FamilyName      string   // set when a configured family covers all languages
}

// IntentAnalyzer derives advertiser intent and campaign type from the
// language blocks a spot overlaps. Invoked only when the rule chain
// defers.
type IntentAnalyzer struct {
	settings Settings
	logger   logger.Logger
}

// NewIntentAnalyzer creates an analyzer for the given settings.
func NewIntentAnalyzer(settings Settings, log logger.Logger) *IntentAnalyzer {
	if log == nil {
		log = logger.NewNop()
	}
	return &IntentAnalyzer{settings: settings, logger: log}
}

// Analyze maps (overlapping blocks, duration) to intent and campaign
// type. Deterministic: block ordering, family preference order and the
// ascending-id residual tie-break are all fixed.
func (a *IntentAnalyzer) Analyze(durationMinutes int, blocks []*domain.LanguageBlock) IntentResult {
	if len(blocks) == 0 {
		// No language context available.
		return IntentResult{
			Intent:       domain.IntentIndifferent,
			CampaignType: domain.CampaignOther,
		}
	}

	spanned := make([]int64, 0, len(blocks))
	langSet := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		spanned = append(spanned, b.ID)
		langSet[b.LanguageCode] = true
	}
	sort.Slice(spanned, func(i, j int) bool { return spanned[i] < spanned[j] })

	languages := make([]string, 0, len(langSet))
	for l := range langSet {
		languages = append(languages, l)
	}
	sort.Strings(languages)

	result := IntentResult{
		SpannedBlockIDs: spanned,
		SpansMultiple:   len(blocks) > 1,
		Languages:       languages,
	}

	switch {
	case len(languages) == 1:
		result.Intent = domain.IntentLanguageSpecific
		result.PrimaryBlockID = lowestBlockID(blocks, languages[0])

	default:
		if family := a.settings.FamilyFor(languages); family != nil {
			// Related dialects count as one language target.
			result.Intent = domain.IntentLanguageSpecific
			result.FamilyName = family.Name
			result.PrimaryBlockID = preferredBlockID(blocks, family.Preference)
		} else {
			result.Intent = domain.IntentIndifferent
		}
	}

	result.CampaignType = a.campaignTypeFor(result.Intent, durationMinutes, len(blocks))
	return result
}

// campaignTypeFor is the closed decision table from intent to campaign
// type. time_specific is reserved for future rules and maps to
// language_specific so the table stays exhaustive.
func (a *IntentAnalyzer) campaignTypeFor(intent domain.CustomerIntent, durationMinutes, blockCount int) domain.CampaignType {
	switch intent {
	case domain.IntentLanguageSpecific, domain.IntentTimeSpecific:
		return domain.CampaignLanguageSpecific
	case domain.IntentIndifferent:
		if durationMinutes >= a.settings.LongDurationMinutes || blockCount >= a.settings.HighBlockCount {
			return domain.CampaignROS
		}
		return domain.CampaignMultiLanguage
	default:
		return domain.CampaignOther
	}
}

// lowestBlockID picks the lowest block id among blocks of the given
// language.
func lowestBlockID(blocks []*domain.LanguageBlock, languageCode string) *int64 {
	var best *int64
	for _, b := range blocks {
		if b.LanguageCode != languageCode {
			continue
		}
		if best == nil || b.ID < *best {
			id := b.ID
			best = &id
		}
	}
	return best
}

// preferredBlockID walks the family's ordered preference list and
// returns the lowest block id of the first language that has an
// overlapping block. The preference affects which block is recorded as
// primary, never the campaign type.
func preferredBlockID(blocks []*domain.LanguageBlock, preference []string) *int64 {
	for _, code := range preference {
		if id := lowestBlockID(blocks, code); id != nil {
			return id
		}
	}
	return nil
}
