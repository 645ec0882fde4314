package assistant

import (
	"fmt"
	"strconv"
)

// FormatCurrency renders a KRW amount at the customary scale: 조원 above a
// trillion, 억원 above a hundred million, 만원 above ten thousand, plain won
// below that.
func FormatCurrency(amount int64) string {
	abs := amount
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1_000_000_000_000:
		return fmt.Sprintf("%.1f조원", float64(amount)/1_000_000_000_000)
	case abs >= 100_000_000:
		return fmt.Sprintf("%.0f억원", float64(amount)/100_000_000)
	case abs >= 10_000:
		return fmt.Sprintf("%.0f만원", float64(amount)/10_000)
	default:
		return groupDigits(amount) + "원"
	}
}

// FormatPercent renders a ratio value with two decimals.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func groupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
