package scoring

// Style is a secondary classification derived from the selected champion.
// It selects a weight-vector override for subgroups whose play pattern the
// role vector misrepresents.
type Style int

const (
	StyleStandard Style = iota
	StyleAggressive
	StylePassive
)

// String returns the stable name used in logs.
func (s Style) String() string {
	switch s {
	case StyleAggressive:
		return "aggressive"
	case StylePassive:
		return "passive"
	default:
		return "standard"
	}
}

// defaultChampionStyles tags champions whose kit forces a play style.
// Unlisted champions are StyleStandard.
func defaultChampionStyles() map[string]Style {
	styles := make(map[string]Style)
	for _, name := range []string{
		"Zed", "Talon", "Katarina", "Akali", "LeBlanc",
		"Rengar", "Khazix", "Qiyana", "Fizz", "Evelynn",
	} {
		styles[name] = StyleAggressive
	}
	for _, name := range []string{
		"Soraka", "Janna", "Lulu", "Sona", "Nami",
		"Yuumi", "Milio", "Seraphine",
	} {
		styles[name] = StylePassive
	}
	return styles
}
