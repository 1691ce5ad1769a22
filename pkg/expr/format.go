package expr

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/lemonberrylabs/timecalc/pkg/types"
)

// Verdicts rendered for boolean values.
const (
	VerdictCorrect   = "Correct!"
	VerdictIncorrect = "Incorrect!"
)

// Format renders a value in its human-readable form: H:MM for times, the
// plain number for scalars and a verdict for booleans.
func Format(v types.Value) string {
	switch v.Type() {
	case types.TypeTime:
		return FormatMinutes(v.Minutes())
	case types.TypeScalar:
		return strconv.FormatFloat(v.Number(), 'f', -1, 64)
	case types.TypeBool:
		if v.Bool() {
			return VerdictCorrect
		}
		return VerdictIncorrect
	default:
		// Value has no exported way to carry another tag.
		return v.String()
	}
}

// FormatMinutes renders a number of minutes as H:MM. The total is rounded to
// the nearest minute first so a remainder never reads 60, and negative totals
// render as -H:MM.
func FormatMinutes(minutes float64) string {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return strconv.FormatFloat(minutes, 'f', -1, 64)
	}
	sign := ""
	if math.Round(minutes) < 0 {
		sign = "-"
	}
	abs := math.Abs(minutes)
	if abs >= 1<<63 {
		// Past int64; floats this large are whole numbers, so the split is exact.
		total, _ := new(big.Float).SetFloat64(abs).Int(nil)
		hours, rest := total.QuoRem(total, big.NewInt(60), new(big.Int))
		return fmt.Sprintf("%s%s:%02d", sign, hours.String(), rest.Int64())
	}
	total := int64(math.Round(abs))
	return fmt.Sprintf("%s%d:%02d", sign, total/60, total%60)
}
