package osmtags

// AccessDecision is the interpretation of an OSM access-style tag value.
type AccessDecision uint8

const (
	AccessUnknown AccessDecision = iota
	AccessPositive
	AccessNegative
)

var positiveAccessValues = map[string]struct{}{
	"yes":         {},
	"designated":  {},
	"permissive":  {},
	"destination": {},
	"official":    {},
	"customers":   {},
	"1":           {},
	"true":        {},
}

var negativeAccessValues = map[string]struct{}{
	"no":         {},
	"private":    {},
	"restricted": {},
	"forestry":   {},
	"agricultural": {},
	"delivery":   {},
	"military":   {},
	"emergency":  {},
	"0":          {},
	"false":      {},
	"none":       {},
	"use_sidepath": {},
}

// ClassifyAccessValue maps an access tag value onto a positive or negative
// decision. Unrecognized values stay AccessUnknown and never override a
// default.
func ClassifyAccessValue(value string) AccessDecision {
	if _, ok := positiveAccessValues[value]; ok {
		return AccessPositive
	}
	if _, ok := negativeAccessValues[value]; ok {
		return AccessNegative
	}
	return AccessUnknown
}
