// Package role maps Riot positional metadata to a closed role enum.
package role

// Role identifies the position a participant played. The declaration order
// doubles as the fixed priority used to break most-played-role ties.
type Role int

const (
	Top Role = iota
	Jungle
	Mid
	ADC
	Support
	Undefined
)

// All lists the assignable roles in priority order, Undefined excluded.
var All = []Role{Top, Jungle, Mid, ADC, Support}

// FromPosition maps the upstream teamPosition field to a Role. No inference
// is done from behavior; anything unrecognized or empty is Undefined.
func FromPosition(position string) Role {
	switch position {
	case "TOP":
		return Top
	case "JUNGLE":
		return Jungle
	case "MIDDLE", "MID":
		return Mid
	case "BOTTOM":
		return ADC
	case "UTILITY":
		return Support
	default:
		return Undefined
	}
}

// String returns the stable name used in logs and persistence.
func (r Role) String() string {
	switch r {
	case Top:
		return "Top"
	case Jungle:
		return "Jungle"
	case Mid:
		return "Mid"
	case ADC:
		return "ADC"
	case Support:
		return "Support"
	default:
		return "Undefined"
	}
}

// Parse restores a Role from its String form.
func Parse(s string) Role {
	switch s {
	case "Top":
		return Top
	case "Jungle":
		return Jungle
	case "Mid":
		return Mid
	case "ADC":
		return ADC
	case "Support":
		return Support
	default:
		return Undefined
	}
}
