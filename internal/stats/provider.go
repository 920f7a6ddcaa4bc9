// Package stats implements the dashboard overview grid: domain modules
// register a stats provider, and the collector fans out over all of them,
// suppressing per-provider failures so one broken module never blanks the
// whole dashboard.
package stats

import "context"

// Category is one of the fixed dashboard groups. The assignment of
// modules to categories is static, not configurable at runtime.
type Category string

const (
	Trading      Category = "Trading"
	Wellness     Category = "Wellness"
	Productivity Category = "Productivity"
	Media        Category = "Media"
	Home         Category = "Home"
	Social       Category = "Social"
	Security     Category = "Security"
)

// categoryOrder fixes the rendering order of the groups.
var categoryOrder = []Category{Trading, Wellness, Productivity, Media, Home, Social, Security}

const (
	ClassPositive = "positive"
	ClassNegative = "negative"
	ClassWarning  = "warning"
)

// maxStatsPerCard bounds how many labeled values a card shows.
const maxStatsPerCard = 3

type (
	// Stat is one labeled value on a card, optionally carrying a
	// semantic class for presentation.
	Stat struct {
		Label string `json:"label"`
		Value string `json:"value"`
		Class string `json:"class,omitempty"`
	}

	// ModuleStats is the uniform summary every provider returns.
	ModuleStats struct {
		Label     string `json:"label"`
		NavTarget string `json:"nav_target"`
		Stats     []Stat `json:"stats"`
	}

	// CategoryGroup is one rendered group of surviving cards.
	CategoryGroup struct {
		Category Category      `json:"category"`
		Cards    []ModuleStats `json:"cards"`
	}
)

// Provider is the capability a domain module implements to appear on the
// overview grid. Stats may fail or time out; the collector treats any
// error as "module unavailable" and omits the card.
type Provider interface {
	Name() string
	Category() Category
	Stats(ctx context.Context) (*ModuleStats, error)
}

// Registry holds the static list of providers the dashboard iterates.
// Registration happens at wiring time, before any collection runs.
type Registry struct {
	providers []Provider
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(p Provider) {
	r.providers = append(r.providers, p)
}

func (r *Registry) Providers() []Provider {
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}
