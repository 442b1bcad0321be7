package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wonny/macrowatch/internal/catalog"
	"github.com/wonny/macrowatch/internal/export"
	"github.com/wonny/macrowatch/internal/external/openai"
	"github.com/wonny/macrowatch/internal/report"
	"github.com/wonny/macrowatch/internal/series"
	"github.com/wonny/macrowatch/internal/signal"
	"github.com/wonny/macrowatch/pkg/config"
	"github.com/wonny/macrowatch/pkg/logger"
	"github.com/wonny/macrowatch/pkg/redis"
)

// Fetcher retrieves the raw observation history of one provider series.
type Fetcher interface {
	Fetch(ctx context.Context, seriesID string) (series.Observed, error)
}

// Summarizer produces the report's prose summary.
type Summarizer interface {
	Enabled() bool
	Summarize(ctx context.Context, prompt string) (string, error)
}

// Archiver persists a completed run for audit. Write-only: nothing is
// read back into a later run.
type Archiver interface {
	SaveRun(ctx context.Context, rep *report.Report) error
}

// IndicatorResult is one indicator's outcome from the fetch/transform
// stage. Err is set when the indicator is unavailable this run.
type IndicatorResult struct {
	ID          string
	Transformed *series.Transformed
	Err         error
}

// Runner executes one full pipeline run: fetch all catalog indicators
// through a worker pool, align and transform, evaluate the rule table,
// score, assemble the report, summarize and export.
type Runner struct {
	cfg        *config.Config
	logger     *logger.Logger
	catalog    *catalog.Catalog
	fetchers   map[catalog.SourceKind]Fetcher
	summarizer Summarizer
	exporter   *export.Exporter
	archiver   Archiver
	cache      *redis.Cache

	aligner   *series.Aligner
	engine    *series.Engine
	evaluator *signal.Evaluator
	assembler *report.Assembler

	now func() time.Time
}

// Options carries the runner's collaborators. Summarizer, Archiver and
// Cache are optional.
type Options struct {
	Catalog    *catalog.Catalog
	Fetchers   map[catalog.SourceKind]Fetcher
	Summarizer Summarizer
	Exporter   *export.Exporter
	Archiver   Archiver
	Cache      *redis.Cache
}

// NewRunner wires a runner from config and collaborators.
func NewRunner(cfg *config.Config, log *logger.Logger, opts Options) (*Runner, error) {
	for _, src := range opts.Catalog.Sources() {
		if _, ok := opts.Fetchers[src]; !ok {
			return nil, fmt.Errorf("pipeline: no fetcher for source %q", src)
		}
	}

	ev := signal.NewEvaluator(opts.Catalog.Thresholds)
	return &Runner{
		cfg:        cfg,
		logger:     log.WithField("component", "pipeline"),
		catalog:    opts.Catalog,
		fetchers:   opts.Fetchers,
		summarizer: opts.Summarizer,
		exporter:   opts.Exporter,
		archiver:   opts.Archiver,
		cache:      opts.Cache,
		aligner:    series.NewAligner(opts.Catalog.Window.MaxGapMonths),
		engine:     series.NewEngine(opts.Catalog.Window.Months),
		evaluator:  ev,
		assembler:  report.NewAssembler(ev),
		now:        time.Now,
	}, nil
}

// Run executes the pipeline once. Per-indicator failures shrink the
// evaluable rule set but never abort the run; only a failure to write
// any artifact at all is returned as an error alongside the report.
func (r *Runner) Run(ctx context.Context) (*report.Report, error) {
	started := r.now().UTC()
	r.logger.WithFields(map[string]interface{}{
		"indicators": len(r.catalog.Indicators),
		"workers":    r.cfg.Pipeline.Workers,
	}).Info("pipeline run started")

	results := r.collect(ctx)

	transformed := make(map[string]*series.Transformed)
	failures := make(map[string]string)
	for _, res := range results {
		if res.Err != nil {
			r.logger.WithError(res.Err).WithField("indicator", res.ID).Warn("indicator unavailable")
			failures[res.ID] = res.Err.Error()
			continue
		}
		transformed[res.ID] = res.Transformed
	}

	outcomes := r.evaluator.Evaluate(r.catalog.Rules, transformed)
	score := signal.Score(outcomes)

	hash, err := catalog.Hash(r.catalog)
	if err != nil {
		r.logger.WithError(err).Warn("catalog hash failed")
	}

	rep := r.assembler.Assemble(report.Input{
		Catalog:     r.catalog,
		CatalogHash: hash,
		Transformed: transformed,
		Failures:    failures,
		Outcomes:    outcomes,
		Score:       score,
		GeneratedAt: started,
	})
	rep.Summary = r.summarize(ctx, rep)

	written, renderErrs := r.exporter.WriteAll(rep)
	for _, err := range renderErrs {
		r.logger.WithError(err).Error("artifact failed")
	}

	if r.archiver != nil {
		if err := r.archiver.SaveRun(ctx, rep); err != nil {
			r.logger.WithError(err).Error("run archive failed")
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"score":     score.Percentage,
		"tier":      string(score.Tier),
		"artifacts": len(written),
		"elapsed":   r.now().UTC().Sub(started).String(),
	}).Info("pipeline run finished")

	if len(written) == 0 && len(renderErrs) > 0 {
		return rep, fmt.Errorf("pipeline: no artifact written: %w", renderErrs[0])
	}
	return rep, nil
}

// collect fans the catalog's indicators out over the worker pool and
// gathers one result per indicator.
func (r *Runner) collect(ctx context.Context) []IndicatorResult {
	jobs := make(chan catalog.Indicator, len(r.catalog.Indicators))
	resultCh := make(chan IndicatorResult, len(r.catalog.Indicators))

	var wg sync.WaitGroup
	for w := 0; w < r.cfg.Pipeline.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ind := range jobs {
				resultCh <- r.process(ctx, ind)
			}
		}()
	}

	for _, ind := range r.catalog.Indicators {
		jobs <- ind
	}
	close(jobs)

	wg.Wait()
	close(resultCh)

	results := make([]IndicatorResult, 0, len(r.catalog.Indicators))
	for res := range resultCh {
		results = append(results, res)
	}
	return results
}

// process runs fetch → align → transform for one indicator.
func (r *Runner) process(ctx context.Context, ind catalog.Indicator) IndicatorResult {
	res := IndicatorResult{ID: ind.ID}

	obs, err := r.fetch(ctx, ind)
	if err != nil {
		res.Err = &FetchError{IndicatorID: ind.ID, Err: err}
		return res
	}

	aligned, err := r.aligner.Align(obs)
	if err != nil {
		res.Err = fmt.Errorf("indicator %s: %w", ind.ID, err)
		return res
	}

	tr, err := r.engine.Transform(ind, aligned)
	if err != nil {
		res.Err = err
		return res
	}

	res.Transformed = tr
	return res
}

// fetch pulls the raw series, via the observation cache when one is
// wired. A cache hit feeds the same alignment path as a fresh fetch.
func (r *Runner) fetch(ctx context.Context, ind catalog.Indicator) (series.Observed, error) {
	key := redis.SeriesKey(string(ind.Source), ind.SeriesID)

	if r.cache != nil {
		var cached series.Observed
		if found, err := r.cache.Get(ctx, key, &cached); err == nil && found {
			r.logger.WithField("indicator", ind.ID).Debug("observation cache hit")
			return cached, nil
		}
	}

	obs, err := r.fetchers[ind.Source].Fetch(ctx, ind.SeriesID)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, obs, r.cfg.Redis.TTL); err != nil {
			r.logger.WithError(err).Warn("observation cache write failed")
		}
	}
	return obs, nil
}

// summarize returns the AI summary, or the fixed fallback text when
// the summarizer is absent, unconfigured, or failing.
func (r *Runner) summarize(ctx context.Context, rep *report.Report) string {
	if r.summarizer == nil || !r.summarizer.Enabled() {
		return openai.FallbackSummary
	}

	summary, err := r.summarizer.Summarize(ctx, buildPrompt(rep))
	if err != nil {
		r.logger.WithError(err).Warn("summarizer failed, using fallback")
		return openai.FallbackSummary
	}
	return summary
}

// buildPrompt flattens the report rows into a plain-text table for the
// summarizer.
func buildPrompt(rep *report.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Composite alert score: %d%% (%s), %d of %d rules triggered.\n",
		rep.Score.Percentage, rep.Score.Tier, rep.Score.Triggered, rep.Score.Evaluable)
	for _, row := range rep.Rows {
		fmt.Fprintf(&b, "- %s (%s): ", row.Label, row.Bucket)
		if row.Note != "" {
			fmt.Fprintf(&b, "unavailable (%s)\n", row.Note)
			continue
		}
		if row.Level != nil {
			fmt.Fprintf(&b, "level %.2f %s", *row.Level, row.Unit)
		}
		if row.Change != nil {
			fmt.Fprintf(&b, ", 12-month change %+.2f", *row.Change)
		}
		fmt.Fprintf(&b, ", alerts %d/%d\n", row.Triggered, row.Evaluable)
	}
	return b.String()
}
