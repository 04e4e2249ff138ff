package models

import "strings"

// ChangeFreq is the <changefreq> value of a sitemap entry
type ChangeFreq string

const (
	ChangeFreqUnset   ChangeFreq = "" // Zero value = field omitted
	ChangeFreqAlways  ChangeFreq = "always"
	ChangeFreqHourly  ChangeFreq = "hourly"
	ChangeFreqDaily   ChangeFreq = "daily"
	ChangeFreqWeekly  ChangeFreq = "weekly"
	ChangeFreqMonthly ChangeFreq = "monthly"
	ChangeFreqYearly  ChangeFreq = "yearly"
	ChangeFreqNever   ChangeFreq = "never"
)

// ChangeFreqValues lists the accepted values in protocol order
var ChangeFreqValues = []ChangeFreq{
	ChangeFreqAlways,
	ChangeFreqHourly,
	ChangeFreqDaily,
	ChangeFreqWeekly,
	ChangeFreqMonthly,
	ChangeFreqYearly,
	ChangeFreqNever,
}

// String implements fmt.Stringer for logging
func (c ChangeFreq) String() string {
	if c == "" {
		return "unset"
	}
	return string(c)
}

// IsValid returns true if the value is one of the seven protocol values
func (c ChangeFreq) IsValid() bool {
	switch c {
	case ChangeFreqAlways, ChangeFreqHourly, ChangeFreqDaily, ChangeFreqWeekly,
		ChangeFreqMonthly, ChangeFreqYearly, ChangeFreqNever:
		return true
	}
	return false
}

// ChangeFreqList renders the accepted values for error messages
func ChangeFreqList() string {
	vals := make([]string, len(ChangeFreqValues))
	for i, v := range ChangeFreqValues {
		vals[i] = string(v)
	}
	return strings.Join(vals, ", ")
}
