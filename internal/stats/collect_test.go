package stats

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubProvider struct {
	name     string
	category Category
	stats    *ModuleStats
	err      error
	panics   bool
	delay    time.Duration
}

func (p stubProvider) Name() string       { return p.name }
func (p stubProvider) Category() Category { return p.category }

func (p stubProvider) Stats(ctx context.Context) (*ModuleStats, error) {
	if p.panics {
		panic("provider exploded")
	}
	if p.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.delay):
		}
	}
	return p.stats, p.err
}

func card(label string) *ModuleStats {
	return &ModuleStats{Label: label, NavTarget: label, Stats: []Stat{{Label: "n", Value: "1"}}}
}

func TestCollect_GroupsByFixedCategoryOrder(t *testing.T) {
	providers := []Provider{
		stubProvider{name: "contacts", category: Social, stats: card("Contacts")},
		stubProvider{name: "habits", category: Wellness, stats: card("Habits")},
		stubProvider{name: "trading", category: Trading, stats: card("Trading")},
		stubProvider{name: "fitness", category: Wellness, stats: card("Fitness")},
	}

	groups := Collect(context.Background(), providers, time.Second)

	wantOrder := []Category{Trading, Wellness, Social}
	if len(groups) != len(wantOrder) {
		t.Fatalf("Collect() returned %d groups, want %d", len(groups), len(wantOrder))
	}
	for i, cat := range wantOrder {
		if groups[i].Category != cat {
			t.Errorf("groups[%d].Category = %s, want %s", i, groups[i].Category, cat)
		}
	}
	if len(groups[1].Cards) != 2 {
		t.Errorf("Wellness cards = %d, want 2", len(groups[1].Cards))
	}
}

func TestCollect_FailSoft(t *testing.T) {
	providers := []Provider{
		stubProvider{name: "habits", category: Wellness, stats: card("Habits")},
		stubProvider{name: "fitness", category: Wellness, err: errors.New("store down")},
		stubProvider{name: "books", category: Media, panics: true},
	}

	groups := Collect(context.Background(), providers, time.Second)

	if len(groups) != 1 {
		t.Fatalf("Collect() returned %d groups, want 1", len(groups))
	}
	if groups[0].Category != Wellness {
		t.Errorf("surviving group = %s, want Wellness", groups[0].Category)
	}
	if len(groups[0].Cards) != 1 || groups[0].Cards[0].Label != "Habits" {
		t.Errorf("surviving cards = %+v, want only Habits", groups[0].Cards)
	}
}

func TestCollect_CategoryDroppedOnlyWhenEmpty(t *testing.T) {
	providers := []Provider{
		stubProvider{name: "habits", category: Wellness, err: errors.New("down")},
		stubProvider{name: "fitness", category: Wellness, stats: card("Fitness")},
	}

	groups := Collect(context.Background(), providers, time.Second)

	if len(groups) != 1 || groups[0].Category != Wellness {
		t.Fatalf("Collect() = %+v, want one Wellness group", groups)
	}
}

func TestCollect_SlowProviderTimesOut(t *testing.T) {
	providers := []Provider{
		stubProvider{name: "habits", category: Wellness, stats: card("Habits")},
		stubProvider{name: "slow", category: Media, stats: card("Slow"), delay: 500 * time.Millisecond},
	}

	start := time.Now()
	groups := Collect(context.Background(), providers, 50*time.Millisecond)
	elapsed := time.Since(start)

	if elapsed > 400*time.Millisecond {
		t.Errorf("Collect() took %v, slow provider was not cut off", elapsed)
	}
	if len(groups) != 1 || groups[0].Category != Wellness {
		t.Errorf("Collect() = %+v, want only Wellness", groups)
	}
}

func TestCollect_TruncatesStats(t *testing.T) {
	wide := &ModuleStats{Label: "Wide", NavTarget: "wide", Stats: []Stat{
		{Label: "a", Value: "1"}, {Label: "b", Value: "2"},
		{Label: "c", Value: "3"}, {Label: "d", Value: "4"},
	}}
	providers := []Provider{stubProvider{name: "wide", category: Home, stats: wide}}

	groups := Collect(context.Background(), providers, time.Second)

	if len(groups) != 1 || len(groups[0].Cards) != 1 {
		t.Fatalf("Collect() = %+v, want one card", groups)
	}
	if got := len(groups[0].Cards[0].Stats); got != 3 {
		t.Errorf("card stats = %d, want 3", got)
	}
}

func TestCollect_Empty(t *testing.T) {
	if groups := Collect(context.Background(), nil, time.Second); len(groups) != 0 {
		t.Errorf("Collect(nil) = %+v, want empty", groups)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(stubProvider{name: "a", category: Home})
	r.Register(stubProvider{name: "b", category: Media})

	got := r.Providers()
	if len(got) != 2 {
		t.Fatalf("Providers() = %d, want 2", len(got))
	}
	if got[0].Name() != "a" || got[1].Name() != "b" {
		t.Errorf("Providers() order = %s,%s want a,b", got[0].Name(), got[1].Name())
	}
}
