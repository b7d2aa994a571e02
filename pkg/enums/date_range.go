package enums

import "fmt"

// DateRange selects the dashboard time window.
type DateRange string

const (
	DateRangeAll   DateRange = "all"
	DateRangeToday DateRange = "today"
	DateRangeWeek  DateRange = "week"
	DateRangeMonth DateRange = "month"
)

var validDateRanges = []DateRange{
	DateRangeAll,
	DateRangeToday,
	DateRangeWeek,
	DateRangeMonth,
}

// String implements fmt.Stringer.
func (d DateRange) String() string {
	return string(d)
}

// IsValid reports whether the value is known.
func (d DateRange) IsValid() bool {
	for _, candidate := range validDateRanges {
		if candidate == d {
			return true
		}
	}
	return false
}

// DateRangeValues lists the accepted raw values.
func DateRangeValues() []string {
	out := make([]string, 0, len(validDateRanges))
	for _, d := range validDateRanges {
		out = append(out, string(d))
	}
	return out
}

// ParseDateRange converts raw input into a DateRange.
func ParseDateRange(value string) (DateRange, error) {
	for _, candidate := range validDateRanges {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid date range %q", value)
}
