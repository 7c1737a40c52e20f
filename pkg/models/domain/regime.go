package domain

import "strings"

// Regime identifies one of the three federal tax regimes a company can be
// assessed under. RegimeUnknown is the defined fall-through for labels that
// cannot be normalized: every calculator treats it as the cumulative /
// credit-ineligible case rather than failing.
type Regime int

const (
	RegimeUnknown Regime = iota
	RegimeSimplesNacional
	RegimeLucroPresumido
	RegimeLucroReal
)

// ComparedRegimes is the fixed iteration order used by the simulator.
// The recommendation tie-break depends on it; do not reorder.
var ComparedRegimes = []Regime{RegimeSimplesNacional, RegimeLucroPresumido, RegimeLucroReal}

func (r Regime) String() string {
	switch r {
	case RegimeSimplesNacional:
		return "Simples Nacional"
	case RegimeLucroPresumido:
		return "Lucro Presumido"
	case RegimeLucroReal:
		return "Lucro Real"
	default:
		return "Desconhecido"
	}
}

var regimeLabelReplacer = strings.NewReplacer(
	"_", " ", "-", " ", "/", " ",
	"Á", "A", "Â", "A", "Ã", "A", "É", "E", "Í", "I", "Ó", "O", "Õ", "O", "Ú", "U",
)

// ParseRegime normalizes a free-form regime label ("LUCRO_PRESUMIDO",
// "lucro presumido", " Simples ") into the closed enum. It is total:
// unrecognized labels map to RegimeUnknown, never an error.
func ParseRegime(label string) Regime {
	norm := strings.ToUpper(strings.TrimSpace(label))
	norm = regimeLabelReplacer.Replace(norm)
	norm = strings.Join(strings.Fields(norm), " ")

	switch {
	case strings.Contains(norm, "SIMPLES"):
		return RegimeSimplesNacional
	case strings.Contains(norm, "PRESUMIDO"):
		return RegimeLucroPresumido
	case strings.Contains(norm, "REAL"):
		return RegimeLucroReal
	default:
		return RegimeUnknown
	}
}
