package classifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonesrussell/spotgrid/internal/airtime"
	"github.com/jonesrussell/spotgrid/internal/domain"
	"github.com/jonesrussell/spotgrid/internal/logger"
	"github.com/jonesrussell/spotgrid/internal/telemetry"
)

// GridResolver answers which language blocks a spot's air time
// overlaps. scheduleFound is false only when no schedule version
// covers the market and air date; a spot can overlap zero blocks of a
// schedule that does exist.
type GridResolver interface {
	OverlappingBlocks(
		ctx context.Context,
		marketCode string,
		airDate time.Time,
		dayOfWeek, timeIn, timeOut string,
	) (blocks []*domain.LanguageBlock, scheduleFound bool, err error)
}

// Engine produces exactly one Classification per spot. Data problems
// (unparseable times, schedule misses) are recovered locally and
// flagged; only store failures surface as errors.
type Engine struct {
	mu       sync.RWMutex
	settings Settings
	chain    *Chain
	intent   *IntentAnalyzer

	grid      GridResolver
	logger    logger.Logger
	telemetry *telemetry.Provider
	version   string
}

// NewEngine creates a classification engine.
func NewEngine(settings Settings, grid GridResolver, log logger.Logger, tp *telemetry.Provider, version string) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{
		settings:  settings,
		chain:     NewChain(settings, log),
		intent:    NewIntentAnalyzer(settings, log),
		grid:      grid,
		logger:    log,
		telemetry: tp,
		version:   version,
	}
}

// UpdateSettings hot-swaps the rule configuration without restart. The
// chain and analyzer are rebuilt atomically so in-flight spots see a
// consistent version.
func (e *Engine) UpdateSettings(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("reject settings update: %w", err)
	}

	e.mu.Lock()
	e.settings = settings
	e.chain = NewChain(settings, e.logger)
	e.intent = NewIntentAnalyzer(settings, e.logger)
	e.mu.Unlock()

	e.logger.Info("engine settings updated",
		logger.String("version", settings.Version),
		logger.String("profile", settings.Profile))
	return nil
}

// Classify runs the full pipeline for one spot: duration arithmetic,
// the precedence rule chain, and (when the chain defers) grid overlap
// analysis with gated pattern refinement. The returned error is non-nil
// only when the backing store is unavailable.
func (e *Engine) Classify(ctx context.Context, spot *domain.Spot) (*domain.Classification, error) {
	start := time.Now()

	e.mu.RLock()
	settings := e.settings
	chain := e.chain
	intent := e.intent
	e.mu.RUnlock()

	if e.telemetry != nil {
		var span trace.Span
		ctx, span = e.telemetry.StartSpan(ctx, "classify_spot",
			attribute.Int64("spot_id", spot.ID),
			attribute.String("market", spot.MarketCode))
		defer span.End()
	}

	duration, durErr := airtime.DurationMinutes(spot.TimeIn, spot.TimeOut)
	if durErr != nil {
		duration = 0
		e.logger.Warn("unparseable air time, proceeding with duration 0",
			logger.Int64("spot_id", spot.ID),
			logger.String("time_in", spot.TimeIn),
			logger.String("time_out", spot.TimeOut),
			logger.Error(durErr))
	}

	in := RuleInput{
		Spot:            spot,
		DurationMinutes: duration,
		DurationValid:   durErr == nil,
	}

	// Structural rules short-circuit before any grid lookup.
	if ruleName, outcome := chain.Apply(in); outcome != nil {
		c := e.ruleClassification(spot, in, ruleName, outcome, FactorStructuralRule, durErr, settings)
		e.record(c, time.Since(start))
		return c, nil
	}

	blocks, scheduleFound, err := e.grid.OverlappingBlocks(ctx, spot.MarketCode, spot.AirDate, spot.DayOfWeek, spot.TimeIn, spot.TimeOut)
	if err != nil {
		return nil, fmt.Errorf("overlap lookup for spot %d: %w", spot.ID, err)
	}
	if e.telemetry != nil {
		e.telemetry.RecordOverlap(len(blocks), scheduleFound)
	}

	analysis := intent.Analyze(duration, blocks)

	// Pattern rules refine only an otherwise-indifferent outcome.
	if analysis.Intent == domain.IntentIndifferent {
		if ruleName, outcome := chain.Refine(in); outcome != nil {
			c := e.ruleClassification(spot, in, ruleName, outcome, FactorPatternRule, durErr, settings)
			c.SpannedBlockIDs = analysis.SpannedBlockIDs
			c.SpansMultipleBlocks = analysis.SpansMultiple
			e.record(c, time.Since(start))
			return c, nil
		}
	}

	c := e.overlapClassification(spot, analysis, duration, durErr, settings)
	e.record(c, time.Since(start))
	return c, nil
}

// ruleClassification builds the outcome of a terminal rule match.
func (e *Engine) ruleClassification(
	spot *domain.Spot,
	in RuleInput,
	ruleName string,
	outcome *RuleOutcome,
	ruleFactor Factor,
	durErr error,
	settings Settings,
) *domain.Classification {
	factors := []Factor{FactorBase, ruleFactor}
	if durErr != nil {
		factors = append(factors, FactorParseError)
	}

	c := &domain.Classification{
		SpotID:          spot.ID,
		CampaignType:    outcome.CampaignType,
		CustomerIntent:  outcome.CustomerIntent,
		Method:          domain.MethodPrecedenceRule,
		AppliedRule:     ruleName,
		Confidence:      settings.Confidence.Score(factors...),
		DurationMinutes: in.DurationMinutes,
	}
	e.applyAttention(c, durErr, false, settings)
	return c
}

// overlapClassification builds the outcome of overlap analysis.
func (e *Engine) overlapClassification(
	spot *domain.Spot,
	analysis IntentResult,
	duration int,
	durErr error,
	settings Settings,
) *domain.Classification {
	factors := []Factor{FactorBase}
	switch {
	case len(analysis.SpannedBlockIDs) == 0:
		factors = append(factors, FactorNoBlocks)
	case analysis.FamilyName != "":
		factors = append(factors, FactorFamilyMatch)
	case analysis.Intent == domain.IntentLanguageSpecific:
		factors = append(factors, FactorSingleLanguage)
	default:
		factors = append(factors, FactorMultiFamily)
	}
	if durErr != nil {
		factors = append(factors, FactorParseError)
	}

	c := &domain.Classification{
		SpotID:              spot.ID,
		CampaignType:        analysis.CampaignType,
		CustomerIntent:      analysis.Intent,
		Method:              domain.MethodOverlapAnalysis,
		BlockID:             analysis.PrimaryBlockID,
		SpannedBlockIDs:     analysis.SpannedBlockIDs,
		SpansMultipleBlocks: analysis.SpansMultiple,
		Confidence:          settings.Confidence.Score(factors...),
		DurationMinutes:     duration,
	}
	e.applyAttention(c, durErr, len(analysis.SpannedBlockIDs) == 0, settings)
	return c
}

// applyAttention sets requires_attention with a concrete reason. The
// first applicable reason wins; a flagged assignment always carries one.
func (e *Engine) applyAttention(c *domain.Classification, durErr error, zeroBlocks bool, settings Settings) {
	switch {
	case durErr != nil:
		c.RequiresAttention = true
		c.AlertReason = fmt.Sprintf("unparseable air time: %v", durErr)
	case zeroBlocks:
		c.RequiresAttention = true
		c.AlertReason = "no language blocks overlap air time"
	case c.Confidence < settings.Confidence.Floor:
		c.RequiresAttention = true
		c.AlertReason = fmt.Sprintf("confidence %.2f below floor %.2f", c.Confidence, settings.Confidence.Floor)
	}
}

func (e *Engine) record(c *domain.Classification, took time.Duration) {
	if e.telemetry != nil {
		e.telemetry.RecordAssignment(string(c.Method), string(c.CampaignType), c.AppliedRule, c.RequiresAttention, took)
	}
	e.logger.Debug("spot classified",
		logger.Int64("spot_id", c.SpotID),
		logger.String("campaign_type", string(c.CampaignType)),
		logger.String("method", string(c.Method)),
		logger.String("rule", c.AppliedRule),
		logger.Float64("confidence", c.Confidence),
		logger.Bool("requires_attention", c.RequiresAttention))
}

// Version returns the engine version string recorded in logs.
func (e *Engine) Version() string { return e.version }

// Settings returns a copy of the active settings.
func (e *Engine) Settings() Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}
