package model

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Bucket is an age-based demographic category.
type Bucket int

// Demographic buckets in canonical order. The order is used for tie-breaks.
const (
	BucketChild Bucket = iota
	BucketAdolescent
	BucketAdult
	BucketElderly
)

// NumBuckets is the size of the closed bucket set.
const NumBuckets = 4

// Buckets lists every bucket in canonical order.
var Buckets = [NumBuckets]Bucket{BucketChild, BucketAdolescent, BucketAdult, BucketElderly}

// Age boundaries (lower bound, inclusive) for each bucket.
const (
	adolescentMinAge = 15
	adultMinAge      = 25
	elderlyMinAge    = 50
)

// String returns the bucket name.
func (b Bucket) String() string {
	switch b {
	case BucketChild:
		return "Child"
	case BucketAdolescent:
		return "Adolescent"
	case BucketAdult:
		return "Adult"
	case BucketElderly:
		return "Elderly"
	default:
		return "Adult"
	}
}

// MarshalText encodes the bucket as its lowercase name.
func (b Bucket) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(b.String())), nil
}

// bucketNames maps category labels (English and Indonesian source values) to buckets.
var bucketNames = map[string]Bucket{
	"child":      BucketChild,
	"children":   BucketChild,
	"anak":       BucketChild,
	"anak-anak":  BucketChild,
	"balita":     BucketChild,
	"adolescent": BucketAdolescent,
	"teen":       BucketAdolescent,
	"youth":      BucketAdolescent,
	"remaja":     BucketAdolescent,
	"adult":      BucketAdult,
	"dewasa":     BucketAdult,
	"elderly":    BucketElderly,
	"senior":     BucketElderly,
	"lansia":     BucketElderly,
}

var numberRe = regexp.MustCompile(`\d+`)

// BucketForAge maps a numeric age to its bucket.
func BucketForAge(age int) Bucket {
	switch {
	case age < adolescentMinAge:
		return BucketChild
	case age < adultMinAge:
		return BucketAdolescent
	case age < elderlyMinAge:
		return BucketAdult
	default:
		return BucketElderly
	}
}

// BucketFor maps a raw age indicator to a bucket. It accepts bucket names,
// optionally followed by a qualifier ("Anak-anak (<15)"), plain ages ("37")
// and range labels ("15-19 TAHUN", "≤ 4 TAHUN", ">= 50"). Range labels map
// by their lower bound; a number preceded by "≤", "<" or "<=" is an upper
// bound, so the range starts at zero. Anything unrecognized maps to
// BucketAdult.
func BucketFor(label string) Bucket {
	s := strings.ToLower(strings.TrimSpace(label))
	if s == "" {
		return BucketAdult
	}
	if b, ok := leadingBucketName(s); ok {
		return b
	}

	loc := numberRe.FindStringIndex(s)
	if loc == nil {
		return BucketAdult
	}
	before := strings.TrimSpace(s[:loc[0]])
	if strings.HasSuffix(before, "≤") || strings.HasSuffix(before, "<") || strings.HasSuffix(before, "<=") {
		return BucketChild
	}
	age, err := strconv.Atoi(s[loc[0]:loc[1]])
	if err != nil {
		return BucketAdult
	}
	return BucketForAge(age)
}

// leadingBucketName matches the whole label, the text before a "(", or the
// first word against the bucket names.
func leadingBucketName(s string) (Bucket, bool) {
	if b, ok := bucketNames[s]; ok {
		return b, true
	}
	if i := strings.IndexByte(s, '('); i > 0 {
		if b, ok := bucketNames[strings.TrimSpace(s[:i])]; ok {
			return b, true
		}
	}
	if fields := strings.Fields(s); len(fields) > 1 {
		if b, ok := bucketNames[strings.TrimRight(fields[0], ":,")]; ok {
			return b, true
		}
	}
	return 0, false
}

// Breakdown holds case totals per bucket, indexed by Bucket.
type Breakdown [NumBuckets]int64

// Total returns the sum across all buckets.
func (b Breakdown) Total() int64 {
	var n int64
	for _, v := range b {
		n += v
	}
	return n
}

// Add returns the element-wise sum of b and o.
func (b Breakdown) Add(o Breakdown) Breakdown {
	for i := range b {
		b[i] += o[i]
	}
	return b
}

// Dominant returns the bucket with the largest count. Ties resolve to the
// first bucket in canonical order. ok is false when every bucket is zero.
func (b Breakdown) Dominant() (Bucket, bool) {
	best := BucketChild
	for _, k := range Buckets {
		if b[k] > b[best] {
			best = k
		}
	}
	return best, b[best] > 0
}

// Map returns the breakdown keyed by bucket name.
func (b Breakdown) Map() map[string]int64 {
	m := make(map[string]int64, NumBuckets)
	for _, k := range Buckets {
		m[strings.ToLower(k.String())] = b[k]
	}
	return m
}

// MarshalJSON encodes the breakdown as an object keyed by bucket name.
func (b Breakdown) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Map())
}

// MarshalYAML encodes the breakdown as a mapping keyed by bucket name.
func (b Breakdown) MarshalYAML() (any, error) {
	return b.Map(), nil
}
