package ingest

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/domain"
)

// moneyRe matches a currency marker followed by an amount, with an optional
// thousands shorthand ("$120K", "R$ 8.500", "€70,000").
var moneyRe = regexp.MustCompile(`(?i)(R\$|US\$|USD|BRL|EUR|GBP|\$|€|£)\s*([0-9][0-9.,]*)\s*(k)?`)

var currencyNames = map[string]string{
	"r$":  "BRL",
	"brl": "BRL",
	"us$": "USD",
	"usd": "USD",
	"$":   "USD",
	"eur": "EUR",
	"€":   "EUR",
	"gbp": "GBP",
	"£":   "GBP",
}

// ParseSalaryText pulls a salary range out of a provider display string such
// as Ashby's compensation tier summary ("$85K – $110K • Equity"). A single
// amount yields min == max.
func ParseSalaryText(s string) (domain.SalaryRange, bool) {
	matches := moneyRe.FindAllStringSubmatch(s, 2)
	if len(matches) == 0 {
		return domain.SalaryRange{}, false
	}

	sr := domain.SalaryRange{
		Currency: currencyNames[strings.ToLower(matches[0][1])],
		Cycle:    cycleFromText(s),
	}
	sr.Min = parseAmount(matches[0][2], matches[0][3] != "")
	sr.Max = sr.Min
	if len(matches) > 1 {
		sr.Max = parseAmount(matches[1][2], matches[1][3] != "")
	}
	if sr.Max < sr.Min {
		sr.Min, sr.Max = sr.Max, sr.Min
	}
	if sr.Min == 0 && sr.Max == 0 {
		return domain.SalaryRange{}, false
	}
	return sr, true
}

func parseAmount(num string, kilo bool) int64 {
	num = strings.TrimSpace(num)
	if kilo {
		// "1.5k" and "1,5k" are decimals; "120k" is not.
		norm := strings.ReplaceAll(num, ",", ".")
		if f, err := strconv.ParseFloat(norm, 64); err == nil {
			return int64(f * 1000)
		}
	}
	var digits strings.Builder
	for _, r := range num {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	v, _ := strconv.ParseInt(digits.String(), 10, 64)
	return v
}

func cycleFromText(s string) string {
	t := strings.ToLower(s)
	switch {
	case strings.Contains(t, "hour") || strings.Contains(t, "/hr") || strings.Contains(t, "hora"):
		return "hour"
	case strings.Contains(t, "month") || strings.Contains(t, "mês") || strings.Contains(t, "/mo"):
		return "month"
	default:
		return "year"
	}
}
