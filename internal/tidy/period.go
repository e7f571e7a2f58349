package tidy

import (
	"regexp"
	"strings"
	"time"

	"t12insight/internal/model"
)

var (
	monthYearRe = regexp.MustCompile(`^([A-Za-z]{3,9})[ \-.]?(\d{2,4})$`)
	isoDateRe   = regexp.MustCompile(`^(\d{4})-(\d{1,2})(?:-(\d{1,2}))?`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ParsePeriod extracts a calendar month from a column label. Supported
// shapes: "Jul 2024", "Jul-24", "July 2024", "2024-07", "2024-07-31"
// and full timestamps excelize renders for date cells.
func ParsePeriod(label string) (model.Period, bool) {
	s := NormalizeLabel(label)
	if s == "" {
		return model.Period{}, false
	}

	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		year := atoi(m[1])
		month := atoi(m[2])
		if month >= 1 && month <= 12 {
			return model.Period{Year: year, Month: time.Month(month)}, true
		}
		return model.Period{}, false
	}

	if m := monthYearRe.FindStringSubmatch(s); m != nil {
		prefix := strings.ToLower(m[1])
		if len(prefix) > 3 {
			prefix = prefix[:3]
		}
		month, ok := monthsByPrefix[prefix]
		if !ok {
			return model.Period{}, false
		}
		year := atoi(m[2])
		if year < 100 {
			year += 2000
		}
		return model.Period{Year: year, Month: month}, true
	}

	// Last resort: formats excelize produces for typed date cells,
	// e.g. "01-02-25" or "1/31/25".
	for _, layout := range []string{"01-02-06", "1/2/06", "1/2/2006", "01/02/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Period{Year: t.Year(), Month: t.Month()}, true
		}
	}

	return model.Period{}, false
}

// IsYTDLabel reports whether a column label marks a year-to-date
// cumulative figure rather than a single month.
func IsYTDLabel(label string) bool {
	s := strings.ToUpper(NormalizeLabel(label))
	return s == "YTD" || strings.HasPrefix(s, "YTD ") || strings.HasSuffix(s, " YTD")
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
