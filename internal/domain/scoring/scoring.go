// Package scoring computes a bounded, role-weighted performance score from
// raw per-match counters. Everything here is pure: no I/O, no clocks.
package scoring

import (
	"math"

	"github.com/blackultras/flextrack/internal/domain/role"
)

// Scoring constants. Counters that accumulate over a game are rescaled to the
// baseline duration before the saturating transform, so a 20-minute stomp and
// a 45-minute grind land on the same scale.
const (
	baselineMinutes = 30.0
	minMinutes      = 1.0

	// Erf divisors: the value of the raw (normalized) counter at which the
	// transform reaches ~0.84 of its bound.
	kdaDivisor    = 10.0
	visionDivisor = 40.0
	csDivisor     = 7.0   // per-minute
	dpmDivisor    = 600.0 // damage per minute

	scorePrecision = 100 // round to 2 decimals
)

// Input carries the raw counters for one participant in one match.
type Input struct {
	Kills       int
	Deaths      int
	Assists     int
	CS          int // minions + neutral minions
	VisionScore int
	TotalDamage int
	Role        role.Role
	Champion    string
}

// Result is the computed score together with the inputs that produced it.
type Result struct {
	Score float64
	Role  role.Role
	Style Style
}

// Weights is the per-counter emphasis applied after the saturating transform.
// Deaths carry a negative weight.
type Weights struct {
	Kills   float64
	Deaths  float64
	Assists float64
	CS      float64
	Vision  float64
	Damage  float64
}

// sumAbs bounds the reachable score: every transformed counter lies in (-1,1),
// so |score| < sum of |weights|.
func (w Weights) sumAbs() float64 {
	return math.Abs(w.Kills) + math.Abs(w.Deaths) + math.Abs(w.Assists) +
		math.Abs(w.CS) + math.Abs(w.Vision) + math.Abs(w.Damage)
}

// Engine resolves weight vectors and computes scores. Zero-value construction
// via New applies the default role vectors and champion style overrides.
type Engine struct {
	roleWeights  map[role.Role]Weights
	styleWeights map[styleKey]Weights
	styles       map[string]Style
}

type styleKey struct {
	role  role.Role
	style Style
}

// New creates an Engine with default weight tables.
func New(opts ...Option) *Engine {
	e := &Engine{
		roleWeights:  defaultRoleWeights(),
		styleWeights: defaultStyleWeights(),
		styles:       defaultChampionStyles(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute scores one participant. durationMinutes below one minute is clamped
// so remakes cannot divide by zero or explode the per-minute rates.
func (e *Engine) Compute(in Input, durationMinutes float64) Result {
	if durationMinutes < minMinutes {
		durationMinutes = minMinutes
	}

	scale := baselineMinutes / durationMinutes

	kills := math.Erf(float64(in.Kills) * scale / kdaDivisor)
	deaths := math.Erf(float64(in.Deaths) * scale / kdaDivisor)
	assists := math.Erf(float64(in.Assists) * scale / kdaDivisor)
	vision := math.Erf(float64(in.VisionScore) * scale / visionDivisor)
	cs := math.Erf(float64(in.CS) / durationMinutes / csDivisor)
	damage := math.Erf(float64(in.TotalDamage) / durationMinutes / dpmDivisor)

	style := e.styles[in.Champion]
	w := e.weightsFor(in.Role, style)

	score := w.Kills*kills + w.Deaths*deaths + w.Assists*assists +
		w.CS*cs + w.Vision*vision + w.Damage*damage

	return Result{
		Score: math.Round(score*scorePrecision) / scorePrecision,
		Role:  in.Role,
		Style: style,
	}
}

// MaxScore returns the exclusive bound on |score| for a role/style pair.
func (e *Engine) MaxScore(r role.Role, style Style) float64 {
	return e.weightsFor(r, style).sumAbs()
}

// weightsFor resolves the weight vector for a role, letting a champion style
// override the role default for that subgroup.
func (e *Engine) weightsFor(r role.Role, style Style) Weights {
	if style != StyleStandard {
		if w, ok := e.styleWeights[styleKey{role: r, style: style}]; ok {
			return w
		}
	}
	if w, ok := e.roleWeights[r]; ok {
		return w
	}
	return e.roleWeights[role.Undefined]
}

func defaultRoleWeights() map[role.Role]Weights {
	return map[role.Role]Weights{
		role.Top:     {Kills: 4, Deaths: -2, Assists: 1.5, CS: 2.5, Vision: 0.5, Damage: 3},
		role.Jungle:  {Kills: 3, Deaths: -2, Assists: 2.5, CS: 2, Vision: 1.5, Damage: 2},
		role.Mid:     {Kills: 4, Deaths: -2, Assists: 2, CS: 2.5, Vision: 0.5, Damage: 3},
		role.ADC:     {Kills: 4.5, Deaths: -2.5, Assists: 1.5, CS: 3, Vision: 0.5, Damage: 3.5},
		role.Support: {Kills: 1, Deaths: -2, Assists: 4, CS: 0.5, Vision: 3.5, Damage: 1},
		// Undefined keeps the original flat vector.
		role.Undefined: {Kills: 4, Deaths: -2, Assists: 2, CS: 2, Vision: 1, Damage: 2},
	}
}

// defaultStyleWeights overrides role vectors for champion subgroups whose
// champions skew the counters: assassins trade everything for kills, and
// enchanter supports barely touch the scoreboard at all.
func defaultStyleWeights() map[styleKey]Weights {
	return map[styleKey]Weights{
		{role.Mid, StyleAggressive}:    {Kills: 5, Deaths: -2, Assists: 1.5, CS: 2, Vision: 0.5, Damage: 3.5},
		{role.Top, StyleAggressive}:    {Kills: 5, Deaths: -2, Assists: 1, CS: 2, Vision: 0.5, Damage: 3.5},
		{role.Jungle, StyleAggressive}: {Kills: 4, Deaths: -2, Assists: 2, CS: 1.5, Vision: 1.5, Damage: 2.5},
		{role.Support, StylePassive}:   {Kills: 0.5, Deaths: -1.5, Assists: 4.5, CS: 0.5, Vision: 4, Damage: 0.5},
	}
}
