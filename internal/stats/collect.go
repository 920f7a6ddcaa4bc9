package stats

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds each provider fetch so one slow module cannot
// stall the whole dashboard render.
const DefaultTimeout = 5 * time.Second

// Collect fans out over all providers concurrently, joins the results
// and groups the surviving cards into the fixed categories. A provider
// that errors, panics or times out contributes nothing; a category with
// no surviving cards is dropped entirely.
func Collect(ctx context.Context, providers []Provider, timeout time.Duration) []CategoryGroup {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	results := make([]*ModuleStats, len(providers))
	g := new(errgroup.Group)
	for i, p := range providers {
		g.Go(func() error {
			results[i] = tryStats(ctx, p, timeout)
			return nil
		})
	}
	// Branches never return errors; failures are already nil results.
	_ = g.Wait()

	byCategory := make(map[Category][]ModuleStats)
	for i, p := range providers {
		if results[i] == nil {
			continue
		}
		card := *results[i]
		if len(card.Stats) > maxStatsPerCard {
			card.Stats = card.Stats[:maxStatsPerCard]
		}
		byCategory[p.Category()] = append(byCategory[p.Category()], card)
	}

	var groups []CategoryGroup
	for _, cat := range categoryOrder {
		if cards := byCategory[cat]; len(cards) > 0 {
			groups = append(groups, CategoryGroup{Category: cat, Cards: cards})
		}
	}
	return groups
}

// tryStats runs a single provider fetch under its own timeout, turning
// errors and panics into a nil result.
func tryStats(ctx context.Context, p Provider, timeout time.Duration) (result *ModuleStats) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "Stats provider panicked",
				"provider", p.Name(),
				"panic", r)
			result = nil
		}
	}()

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s, err := p.Stats(cctx)
	if err != nil {
		slog.WarnContext(ctx, "Stats provider unavailable",
			"provider", p.Name(),
			"error", err)
		return nil
	}
	return s
}
