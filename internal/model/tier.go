package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Tier is a discrete risk classification. The zero value is TierUnknown,
// which callers use for regions with no classification.
type Tier int

// Risk tiers, ordered by severity.
const (
	TierUnknown Tier = iota
	TierLow
	TierMedium
	TierHigh
)

// Tiers lists the classified tiers in ascending severity.
var Tiers = []Tier{TierLow, TierMedium, TierHigh}

// NeutralColor is the fill used for regions without a tier.
const NeutralColor = "#95a5a6"

// String returns the tier label.
func (t Tier) String() string {
	return t.Label()
}

// Label returns the display label.
func (t Tier) Label() string {
	switch t {
	case TierLow:
		return "Low"
	case TierMedium:
		return "Medium"
	case TierHigh:
		return "High"
	default:
		return "Unknown"
	}
}

// Color returns the hex fill color used on the map and report header.
func (t Tier) Color() string {
	switch t {
	case TierLow:
		return "#27ae60"
	case TierMedium:
		return "#f39c12"
	case TierHigh:
		return "#c0392b"
	default:
		return NeutralColor
	}
}

// Description returns a one-line explanation of the tier.
func (t Tier) Description() string {
	switch t {
	case TierLow:
		return "Low transmission, routine surveillance"
	case TierMedium:
		return "Elevated transmission, active monitoring"
	case TierHigh:
		return "High transmission, urgent response"
	default:
		return "No data"
	}
}

// Severity returns the numeric severity score (1/2/3). Unknown is 0.
func (t Tier) Severity() int {
	switch t {
	case TierLow:
		return 1
	case TierMedium:
		return 2
	case TierHigh:
		return 3
	default:
		return 0
	}
}

// Known reports whether the tier is one of Low, Medium or High.
func (t Tier) Known() bool {
	return t >= TierLow && t <= TierHigh
}

// MarshalText encodes the tier as its lowercase label.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(t.Label())), nil
}

// UnmarshalText parses a tier label (case-insensitive).
func (t *Tier) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "low":
		*t = TierLow
	case "medium":
		*t = TierMedium
	case "high":
		*t = TierHigh
	case "unknown", "":
		*t = TierUnknown
	default:
		return eris.Errorf("model: unknown tier %q", string(b))
	}
	return nil
}
