// Package advisory derives policy recommendations from a risk tier, the
// demographic mix of cases and the active gender filter.
package advisory

import (
	"github.com/sells-group/riskmap/internal/model"
)

// Tier advice.
var (
	highAdvice = []string{
		"Declare an outbreak response: run mass screening and testing in high-burden districts.",
		"Escalate medical supply stocks (test kits, antiretrovirals) and pre-position them at referral facilities.",
		"Deploy a rapid response team to trace contacts and link new cases to treatment within 7 days.",
	}
	mediumAdvice = []string{
		"Increase surveillance frequency and review case trends monthly with district health offices.",
		"Expand community outreach and mobile testing in sub-districts with rising case counts.",
	}
	lowAdvice = []string{
		"Maintain routine surveillance and keep prevention programs funded at current levels.",
		"Sustain health promotion campaigns and voluntary counseling and testing services.",
	}
	unknownAdvice = []string{
		"No classified data for this selection: verify reporting completeness with the district health office.",
	}
)

// Dominant-bucket advice. Elderly has no targeted recommendation.
var bucketAdvice = map[model.Bucket]string{
	model.BucketChild:      "Children are the largest group: strengthen prevention of mother-to-child (vertical) transmission in antenatal care.",
	model.BucketAdolescent: "Adolescents are the largest group: run school-based sexual and reproductive health education.",
	model.BucketAdult:      "Adults are the largest group: offer workplace screening and testing programs.",
}

// Gender-filter advice.
var genderAdvice = map[model.Gender]string{
	model.GenderMale:    "Male cases selected: target outreach to men at higher risk through workplaces and community venues.",
	model.GenderFemale:  "Female cases selected: integrate screening into maternal and reproductive health services.",
	model.GenderUnknown: "Cases with unrecorded gender selected: improve gender recording in case reports.",
}

// Generate returns the ordered advice list. Tier advice comes first, then
// advice for the dominant demographic bucket, then advice for the gender
// filter. The list is never empty.
func Generate(tier model.Tier, breakdown model.Breakdown, gender model.GenderFilter) []string {
	out := append([]string(nil), tierAdvice(tier)...)

	if b, ok := breakdown.Dominant(); ok {
		if advice, ok := bucketAdvice[b]; ok {
			out = append(out, advice)
		}
	}

	if !gender.All() {
		advice, ok := genderAdvice[gender.Gender]
		if !ok {
			advice = genderAdvice[model.GenderUnknown]
		}
		out = append(out, advice)
	}

	return out
}

func tierAdvice(tier model.Tier) []string {
	switch tier {
	case model.TierHigh:
		return highAdvice
	case model.TierMedium:
		return mediumAdvice
	case model.TierLow:
		return lowAdvice
	case model.TierUnknown:
		return unknownAdvice
	default:
		return unknownAdvice
	}
}
