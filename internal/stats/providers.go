package stats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"lifedash/internal/core"
)

// Narrow read ports the concrete providers pull from. The storage
// repository implements all of them; tests substitute fakes.
type (
	HabitSource interface {
		ListHabits(ctx context.Context) ([]core.Habit, error)
	}

	GoalSource interface {
		ListGoals(ctx context.Context) ([]core.Goal, error)
	}

	EventSource interface {
		ListEventsFrom(ctx context.Context, fromKey string) ([]core.Event, error)
	}

	WorkoutSource interface {
		WorkoutTotals(ctx context.Context, weekStartKey string) (week int, total int, err error)
	}

	BookSource interface {
		BookTotals(ctx context.Context) (reading int, finished int, err error)
	}

	InventorySource interface {
		InventoryTotals(ctx context.Context) (items int, value core.Money, err error)
	}

	ContactSource interface {
		ContactCount(ctx context.Context) (int, error)
	}

	PositionSource interface {
		PositionTotals(ctx context.Context) (open int, unrealized core.Money, err error)
	}

	VaultSource interface {
		VaultTotals(ctx context.Context) (entries int, weak int, err error)
	}
)

// HabitsProvider summarizes today's habit completion.
type HabitsProvider struct {
	Source HabitSource
	Now    func() time.Time
}

func (p HabitsProvider) Name() string       { return "habits" }
func (p HabitsProvider) Category() Category { return Wellness }

func (p HabitsProvider) Stats(ctx context.Context) (*ModuleStats, error) {
	habits, err := p.Source.ListHabits(ctx)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	rate := core.HabitCompletionRate(habits, core.DateKey(now(p.Now)))
	class := ClassWarning
	if rate >= 50 {
		class = ClassPositive
	}
	return &ModuleStats{
		Label:     "Habits",
		NavTarget: "habits",
		Stats: []Stat{
			{Label: "Tracked", Value: strconv.Itoa(len(habits))},
			{Label: "Today", Value: strconv.Itoa(rate) + "%", Class: class},
		},
	}, nil
}

// GoalsProvider counts active and achieved goals.
type GoalsProvider struct {
	Source GoalSource
}

func (p GoalsProvider) Name() string       { return "goals" }
func (p GoalsProvider) Category() Category { return Productivity }

func (p GoalsProvider) Stats(ctx context.Context) (*ModuleStats, error) {
	goals, err := p.Source.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	active, achieved := 0, 0
	for _, g := range goals {
		switch {
		case g.Achieved:
			achieved++
		case !g.Archived:
			active++
		}
	}
	return &ModuleStats{
		Label:     "Goals",
		NavTarget: "goals",
		Stats: []Stat{
			{Label: "Active", Value: strconv.Itoa(active)},
			{Label: "Achieved", Value: strconv.Itoa(achieved), Class: ClassPositive},
		},
	}, nil
}

// EventsProvider shows how many events are coming up and how close the
// next one is.
type EventsProvider struct {
	Source EventSource
	Now    func() time.Time
}

func (p EventsProvider) Name() string       { return "events" }
func (p EventsProvider) Category() Category { return Productivity }

func (p EventsProvider) Stats(ctx context.Context) (*ModuleStats, error) {
	todayKey := core.DateKey(now(p.Now))
	events, err := p.Source.ListEventsFrom(ctx, todayKey)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	upcoming := core.UpcomingEvents(events, todayKey, 0)
	stats := []Stat{{Label: "Upcoming", Value: strconv.Itoa(len(upcoming))}}
	if len(upcoming) > 0 {
		next, err := time.Parse("2006-01-02", upcoming[0].Date)
		if err != nil {
			return nil, fmt.Errorf("parse event date %q: %w", upcoming[0].Date, err)
		}
		today, _ := time.Parse("2006-01-02", todayKey)
		days := int(next.Sub(today).Hours() / 24)
		class := ""
		if days <= 3 {
			class = ClassWarning
		}
		stats = append(stats, Stat{Label: "Next in", Value: strconv.Itoa(days) + "d", Class: class})
	}
	return &ModuleStats{Label: "Events", NavTarget: "events", Stats: stats}, nil
}

// WorkoutsProvider summarizes training volume.
type WorkoutsProvider struct {
	Source WorkoutSource
	Now    func() time.Time
}

func (p WorkoutsProvider) Name() string       { return "fitness" }
func (p WorkoutsProvider) Category() Category { return Wellness }

func (p WorkoutsProvider) Stats(ctx context.Context) (*ModuleStats, error) {
	t := now(p.Now)
	// Week starts on Monday.
	offset := (int(t.Weekday()) + 6) % 7
	weekStart := core.DateKey(t.AddDate(0, 0, -offset))
	week, total, err := p.Source.WorkoutTotals(ctx, weekStart)
	if err != nil {
		return nil, fmt.Errorf("workout totals: %w", err)
	}
	return &ModuleStats{
		Label:     "Fitness",
		NavTarget: "fitness",
		Stats: []Stat{
			{Label: "This week", Value: strconv.Itoa(week)},
			{Label: "Total", Value: strconv.Itoa(total)},
		},
	}, nil
}

// BooksProvider summarizes the reading list.
type BooksProvider struct {
	Source BookSource
}

func (p BooksProvider) Name() string       { return "books" }
func (p BooksProvider) Category() Category { return Media }

func (p BooksProvider) Stats(ctx context.Context) (*ModuleStats, error) {
	reading, finished, err := p.Source.BookTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("book totals: %w", err)
	}
	return &ModuleStats{
		Label:     "Books",
		NavTarget: "books",
		Stats: []Stat{
			{Label: "Reading", Value: strconv.Itoa(reading)},
			{Label: "Finished", Value: strconv.Itoa(finished), Class: ClassPositive},
		},
	}, nil
}

// InventoryProvider summarizes owned items and their value.
type InventoryProvider struct {
	Source InventorySource
}

func (p InventoryProvider) Name() string       { return "inventory" }
func (p InventoryProvider) Category() Category { return Home }

func (p InventoryProvider) Stats(ctx context.Context) (*ModuleStats, error) {
	items, value, err := p.Source.InventoryTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventory totals: %w", err)
	}
	return &ModuleStats{
		Label:     "Inventory",
		NavTarget: "inventory",
		Stats: []Stat{
			{Label: "Items", Value: strconv.Itoa(items)},
			{Label: "Value", Value: value.String()},
		},
	}, nil
}

// ContactsProvider counts the address book.
type ContactsProvider struct {
	Source ContactSource
}

func (p ContactsProvider) Name() string       { return "contacts" }
func (p ContactsProvider) Category() Category { return Social }

func (p ContactsProvider) Stats(ctx context.Context) (*ModuleStats, error) {
	count, err := p.Source.ContactCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("contact count: %w", err)
	}
	return &ModuleStats{
		Label:     "Contacts",
		NavTarget: "contacts",
		Stats:     []Stat{{Label: "Contacts", Value: strconv.Itoa(count)}},
	}, nil
}

// PositionsProvider summarizes open trading positions.
type PositionsProvider struct {
	Source PositionSource
}

func (p PositionsProvider) Name() string       { return "trading" }
func (p PositionsProvider) Category() Category { return Trading }

func (p PositionsProvider) Stats(ctx context.Context) (*ModuleStats, error) {
	open, unrealized, err := p.Source.PositionTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("position totals: %w", err)
	}
	class := ClassPositive
	if unrealized.Cents < 0 {
		class = ClassNegative
	}
	return &ModuleStats{
		Label:     "Trading",
		NavTarget: "trading",
		Stats: []Stat{
			{Label: "Open", Value: strconv.Itoa(open)},
			{Label: "Unrealized", Value: unrealized.String(), Class: class},
		},
	}, nil
}

// VaultProvider summarizes stored credentials.
type VaultProvider struct {
	Source VaultSource
}

func (p VaultProvider) Name() string       { return "vault" }
func (p VaultProvider) Category() Category { return Security }

func (p VaultProvider) Stats(ctx context.Context) (*ModuleStats, error) {
	entries, weak, err := p.Source.VaultTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("vault totals: %w", err)
	}
	stats := []Stat{{Label: "Entries", Value: strconv.Itoa(entries)}}
	if weak > 0 {
		stats = append(stats, Stat{Label: "Weak", Value: strconv.Itoa(weak), Class: ClassWarning})
	}
	return &ModuleStats{Label: "Vault", NavTarget: "vault", Stats: stats}, nil
}

func now(f func() time.Time) time.Time {
	if f != nil {
		return f()
	}
	return time.Now()
}
