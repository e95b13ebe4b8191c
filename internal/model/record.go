// Package model defines the case records, demographic buckets and risk tiers
// shared by the ingestion, classification and reporting packages.
package model

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Gender is the recorded sex of a case.
type Gender string

// Gender values.
const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// ParseGender normalizes a raw gender value. English and Indonesian source
// values are recognized; anything else is GenderUnknown.
func ParseGender(raw string) Gender {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "male", "m", "l", "laki-laki", "laki laki", "pria":
		return GenderMale
	case "female", "f", "p", "perempuan", "wanita":
		return GenderFemale
	default:
		return GenderUnknown
	}
}

// GenderFilter selects which genders are in scope. The zero value selects all.
type GenderFilter struct {
	Gender Gender
}

// AllGenders is the filter that keeps every record.
var AllGenders = GenderFilter{}

// ParseGenderFilter parses "all" (or empty) into AllGenders and anything else
// into a single-gender filter.
func ParseGenderFilter(raw string) GenderFilter {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all", "semua":
		return AllGenders
	}
	return GenderFilter{Gender: ParseGender(raw)}
}

// LookupGenderFilter is ParseGenderFilter for user input: it reports false
// for values that name no gender. "unknown" is accepted and selects records
// without a recorded gender.
func LookupGenderFilter(raw string) (GenderFilter, bool) {
	f := ParseGenderFilter(raw)
	if f.Gender == GenderUnknown && strings.ToLower(strings.TrimSpace(raw)) != string(GenderUnknown) {
		return f, false
	}
	return f, true
}

// All reports whether the filter keeps every gender.
func (f GenderFilter) All() bool {
	return f.Gender == ""
}

// Match reports whether a record gender passes the filter.
func (f GenderFilter) Match(g Gender) bool {
	return f.All() || f.Gender == g
}

// String returns "all" or the selected gender.
func (f GenderFilter) String() string {
	if f.All() {
		return "all"
	}
	return string(f.Gender)
}

// MarshalText encodes the filter as its string form.
func (f GenderFilter) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Record is one row of case data after normalization.
type Record struct {
	Region   string `json:"region"`
	Year     int    `json:"year"`
	Gender   Gender `json:"gender"`
	AgeLabel string `json:"age_label"`
	Bucket   Bucket `json:"bucket"`
	Cases    int64  `json:"cases"`
}

// NormalizeRegion title-cases a region name and collapses whitespace so that
// record and boundary names join on the same key.
func NormalizeRegion(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	// Casers carry state and cannot be shared across goroutines.
	return cases.Title(language.Und).String(strings.Join(fields, " "))
}

// ParseCases coerces a raw case count. Thousands separators are stripped,
// fractions truncate, and anything unparseable or negative becomes 0.
func ParseCases(raw string) int64 {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "_", "")
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return max(n, 0)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	if f > math.MaxInt64 {
		return 0
	}
	return int64(f)
}

// NewRecord builds a normalized record from raw column values.
func NewRecord(region string, year int, gender, ageLabel, cases string) Record {
	return Record{
		Region:   NormalizeRegion(region),
		Year:     year,
		Gender:   ParseGender(gender),
		AgeLabel: strings.TrimSpace(ageLabel),
		Bucket:   BucketFor(ageLabel),
		Cases:    ParseCases(cases),
	}
}
