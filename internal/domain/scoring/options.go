package scoring

import "github.com/blackultras/flextrack/internal/domain/role"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithRoleWeights replaces the weight vector for a single role.
func WithRoleWeights(r role.Role, w Weights) Option {
	return func(e *Engine) {
		e.roleWeights[r] = w
	}
}

// WithStyleWeights replaces the override vector for a role/style subgroup.
func WithStyleWeights(r role.Role, s Style, w Weights) Option {
	return func(e *Engine) {
		e.styleWeights[styleKey{role: r, style: s}] = w
	}
}

// WithChampionStyle tags a champion with a play style.
func WithChampionStyle(champion string, s Style) Option {
	return func(e *Engine) {
		e.styles[champion] = s
	}
}
