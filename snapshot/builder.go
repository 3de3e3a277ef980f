// Package snapshot assembles one Snapshot per run from the resort registry
// and persists it.
package snapshot

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/use-agent/skisnap/cleaner"
	"github.com/use-agent/skisnap/config"
	"github.com/use-agent/skisnap/models"
	"github.com/use-agent/skisnap/parser"
	"github.com/use-agent/skisnap/prompt"
	"github.com/use-agent/skisnap/scraper"
	"github.com/use-agent/skisnap/simhash"
)

// layoutDriftThreshold is the layout fingerprint distance above which a page
// is reported as redesigned.
const layoutDriftThreshold = 12

// Fetcher returns page HTML or false. *scraper.Scraper implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string, strategy scraper.Strategy) (string, bool)
}

// Reducer shrinks a page to a prompt excerpt. *cleaner.Reducer implements it.
type Reducer interface {
	Reduce(rawHTML, sourceURL string, opts cleaner.Options) cleaner.Result
}

// Completer returns model text or false. *llm.Extractor implements it.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, bool)
}

// Options controls a Builder.
type Options struct {
	Prompt config.PromptConfig

	// CourtesyDelay is held after each resort before its worker takes the
	// next one. No delay follows the last resort.
	CourtesyDelay time.Duration

	// Concurrency is the number of resorts processed at once. Values below
	// one mean sequential.
	Concurrency int
}

// Builder runs fetch, reduce, prompt, complete and parse for every section
// of every resort. Failures are contained per section.
type Builder struct {
	fetcher   Fetcher
	reducer   Reducer
	completer Completer
	opts      Options
	layouts   *simhash.Tracker
	now       func() time.Time
}

// NewBuilder creates a Builder.
func NewBuilder(fetcher Fetcher, reducer Reducer, completer Completer, opts Options) *Builder {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Builder{
		fetcher:   fetcher,
		reducer:   reducer,
		completer: completer,
		opts:      opts,
		layouts:   simhash.NewTracker(),
		now:       time.Now,
	}
}

// Build returns a Snapshot with exactly one ResortSnapshot per registry
// entry, in registry order. last_updated is the time Build was called.
// Once ctx is done no new section is started; resorts not yet processed
// keep empty lifts and weather.
func (b *Builder) Build(ctx context.Context, registry []models.ResortConfig) models.Snapshot {
	began := time.Now()
	snap := models.Snapshot{
		LastUpdated: models.NewTimestamp(b.now()),
		Resorts:     make([]models.ResortSnapshot, len(registry)),
	}
	for i, rc := range registry {
		snap.Resorts[i] = models.NewResortSnapshot(rc)
	}

	var g errgroup.Group
	g.SetLimit(b.opts.Concurrency)
	for i, rc := range registry {
		if ctx.Err() != nil {
			break
		}
		last := i == len(registry)-1
		g.Go(func() error {
			b.buildResort(ctx, rc, &snap.Resorts[i])
			if !last {
				sleepCtx(ctx, b.opts.CourtesyDelay)
			}
			return nil
		})
	}
	_ = g.Wait()

	lifts, weather := 0, 0
	for _, rs := range snap.Resorts {
		lifts += len(rs.Lifts)
		weather += len(rs.Weather)
	}
	slog.Info("snapshot built",
		"resorts", len(snap.Resorts),
		"lifts", lifts,
		"weather", weather,
		"duration", time.Since(began).Round(time.Millisecond),
	)
	return snap
}

func (b *Builder) buildResort(ctx context.Context, rc models.ResortConfig, out *models.ResortSnapshot) {
	strategy, err := scraper.ParseStrategy(rc.Strategy, "")
	if err != nil {
		slog.Warn("ignoring resort strategy", "resort", rc.Name, "error", err)
	}

	slog.Info("processing resort", "resort", rc.Name, "id", rc.ID)

	if raw, ok := b.extract(ctx, rc, models.SectionLifts, strategy); ok {
		out.Lifts = parser.ParseLifts(raw)
	}
	if raw, ok := b.extract(ctx, rc, models.SectionWeather, strategy); ok {
		out.Weather = parser.ParseWeather(raw)
	}

	slog.Info("resort done",
		"resort", rc.Name,
		"lifts", len(out.Lifts),
		"weather", len(out.Weather),
	)
}

// extract returns the raw model output for one section, or false when the
// section has no URL or any stage failed. Stages log their own failures.
func (b *Builder) extract(ctx context.Context, rc models.ResortConfig, section models.Section, strategy scraper.Strategy) (string, bool) {
	url := rc.URL(section)
	if url == "" || ctx.Err() != nil {
		return "", false
	}

	html, ok := b.fetcher.Fetch(ctx, url, strategy)
	if !ok {
		return "", false
	}
	if d, seen := b.layouts.Observe(url, html); seen && d > layoutDriftThreshold {
		slog.Warn("page layout changed; selector may be stale",
			"resort", rc.Name,
			"section", section,
			"selector", rc.Selector(section),
			"distance", d,
		)
	}

	reduced := b.reducer.Reduce(html, url, cleaner.Options{
		Selector: rc.Selector(section),
		Strip:    b.opts.Prompt.StripSelectors,
		Extract:  b.opts.Prompt.Extract,
		Format:   b.opts.Prompt.Format,
	})
	slog.Debug("page reduced",
		"resort", rc.Name,
		"section", section,
		"original_tokens", reduced.OriginalTokens,
		"reduced_tokens", reduced.ReducedTokens,
	)

	p, err := prompt.Build(section, reduced.Content, b.opts.Prompt.MaxChars)
	if err != nil {
		slog.Error("prompt build failed", "resort", rc.Name, "section", section, "error", err)
		return "", false
	}

	raw, ok := b.completer.Complete(ctx, p)
	if !ok {
		slog.Warn("no extraction", "resort", rc.Name, "section", section)
	}
	return raw, ok
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
