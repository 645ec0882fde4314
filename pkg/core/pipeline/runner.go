// Package pipeline orchestrates the end-to-end analysis flow: entity
// resolution, filing retrieval, normalization, deterministic scoring, the
// three-topic deliberation, and publication of the finished context.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/phuslu/log"

	"finaudit/pkg/core/agent"
	"finaudit/pkg/core/calc"
	"finaudit/pkg/core/dart"
	"finaudit/pkg/core/deliberation"
	"finaudit/pkg/core/faults"
	"finaudit/pkg/core/normalize"
	"finaudit/pkg/core/store"
	"finaudit/pkg/core/validate"
)

// Runner executes full analysis runs and publishes their results. One Runner
// serves all entities; per-entity run generations guard against a newer run
// being overwritten by a slower, older one.
type Runner struct {
	client  *dart.Client
	manager *agent.Manager
	cache   *store.ContextCache
	archive *store.TranscriptArchive

	roster      []deliberation.Persona
	callTimeout time.Duration
	fiscalYear  string

	mu          sync.Mutex
	generations map[string]uint64
}

// NewRunner wires a runner with the default roster and no archive. The fiscal
// year defaults to the most recent finalized reporting year.
func NewRunner(client *dart.Client, manager *agent.Manager, cache *store.ContextCache) *Runner {
	return &Runner{
		client:      client,
		manager:     manager,
		cache:       cache,
		archive:     store.NewTranscriptArchive(nil),
		roster:      deliberation.DefaultRoster(),
		fiscalYear:  strconv.Itoa(time.Now().Year() - 1),
		generations: make(map[string]uint64),
	}
}

// SetArchive enables transcript archiving.
func (r *Runner) SetArchive(a *store.TranscriptArchive) { r.archive = a }

// SetRoster replaces the deliberation panel.
func (r *Runner) SetRoster(roster []deliberation.Persona) { r.roster = roster }

// SetCallTimeout overrides the per-call deliberation timeout.
func (r *Runner) SetCallTimeout(d time.Duration) { r.callTimeout = d }

// SetFiscalYear pins the reporting year to analyze.
func (r *Runner) SetFiscalYear(year string) { r.fiscalYear = year }

func (r *Runner) beginRun(entity string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generations[entity]++
	return r.generations[entity]
}

func (r *Runner) currentRun(entity string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generations[entity]
}

// RunFullAnalysis performs one complete analysis of the named entity for the
// runner's default fiscal year. The finished context is returned and, when the
// run is still the newest for the entity, published to the cache and archive.
// A rerun started mid-flight supersedes this run; the stale result is then
// returned but not published.
func (r *Runner) RunFullAnalysis(ctx context.Context, entityName string) (*store.AnalysisContext, error) {
	return r.RunFullAnalysisForYear(ctx, entityName, "")
}

// RunFullAnalysisForYear is RunFullAnalysis with the reporting year overridden
// per run. An empty year falls back to the runner default.
func (r *Runner) RunFullAnalysisForYear(ctx context.Context, entityName, year string) (*store.AnalysisContext, error) {
	if year == "" {
		year = r.fiscalYear
	}
	gen := r.beginRun(entityName)
	start := time.Now()
	log.Info().Str("entity", entityName).Uint64("generation", gen).Msg("analysis run started")

	result, err := r.client.Search(ctx, entityName)
	if err != nil {
		return nil, fmt.Errorf("entity resolution failed for %q: %w", entityName, err)
	}
	company := result.Best()
	if company == nil {
		return nil, faults.NotFound("no company matched %q", entityName)
	}
	log.Info().Str("entity", entityName).Str("corp_code", company.CorpCode).Str("resolved", company.Name).Msg("entity resolved")

	items, err := r.client.FetchStatement(ctx, company.CorpCode, year)
	if err != nil {
		return nil, fmt.Errorf("statement fetch failed for %s (%s): %w", company.Name, year, err)
	}

	// The cash-flow statement is best-effort: without it the fraud heuristics
	// run on defaults and flag their inputs low confidence.
	var cf *normalize.CashFlow
	if cfItems, err := r.client.FetchCashFlow(ctx, company.CorpCode, year); err != nil {
		log.Warn().Str("entity", entityName).Err(err).Msg("cash flow unavailable, fraud heuristics degraded")
	} else {
		cf = normalize.CashFlowStatement(cfItems)
	}

	rec := normalize.Statement(items)
	prior := normalize.PriorStatement(items)
	ratios := calc.Ratios(rec, prior)
	fraud := calc.Fraud(rec, cf)
	log.Info().Str("entity", entityName).
		Int("unmatched_fields", len(rec.Unmatched)).
		Int("risk_score", fraud.RiskScore).
		Msg("deterministic scoring complete")

	validation := validate.CheckRecord(rec, prior)
	for _, warning := range validation.Warnings() {
		log.Warn().Str("entity", entityName).Msg(warning)
	}

	opts := []deliberation.Option{}
	if r.callTimeout > 0 {
		opts = append(opts, deliberation.WithCallTimeout(r.callTimeout))
	}
	orch := deliberation.New(r.roster, r.manager, opts...)

	in := &deliberation.TopicInput{
		EntityName: company.Name,
		FiscalYear: year,
		Ratios:     ratios,
		Fraud:      fraud,
	}

	ratioRes, err := orch.RunTopic(ctx, deliberation.TopicRatioGrade, in)
	if err != nil {
		return nil, err
	}
	fraudRes, err := orch.RunTopic(ctx, deliberation.TopicFraudRisk, in)
	if err != nil {
		return nil, err
	}

	in.RatioGrade = ratioRes.Grade
	in.RiskGrade = fraudRes.Grade
	finalRes, err := orch.RunTopic(ctx, deliberation.TopicFinalOpinion, in)
	if err != nil {
		return nil, err
	}

	actx := &store.AnalysisContext{
		EntityName:     entityName,
		Company:        company,
		FiscalYear:     year,
		Record:         rec,
		PriorRecord:    prior,
		CashFlow:       cf,
		Ratios:         ratios,
		Fraud:          fraud,
		Validation:     validation,
		RatioConsensus: ratioRes,
		FraudConsensus: fraudRes,
		FinalConsensus: finalRes,
		Transcript:     orch.Transcript().Snapshot(),
		CreatedAt:      time.Now(),
		Generation:     gen,
	}

	if r.currentRun(entityName) != gen {
		log.Warn().Str("entity", entityName).Uint64("generation", gen).Msg("run superseded, result discarded")
		return actx, nil
	}

	r.cache.Put(actx)
	if err := r.archive.Save(ctx, actx); err != nil {
		log.Error().Str("entity", entityName).Err(err).Msg("archive write failed")
	}

	log.Info().Str("entity", entityName).
		Str("grade", string(finalRes.Grade)).
		Int("confidence", finalRes.Confidence).
		Dur("elapsed", time.Since(start)).
		Msg("analysis run published")
	return actx, nil
}
