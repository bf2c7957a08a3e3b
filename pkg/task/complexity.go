package task

import "strings"

// Markers that suggest a query carries more than one actionable intent and
// should go through pipeline decomposition instead of a single model call.
var complexMarkers = []string{
	"and then",
	"then ",
	"after that",
	"pick up",
	"put it",
	"place it",
	"move it",
	"and put",
	"and place",
	"and find",
	"and grasp",
	"navigate to",
	"go to the",
}

// IsComplex reports whether a query looks like a multi-step instruction.
// This is only a routing hint: a false negative simply runs the query as a
// single task, and a false positive is resolved by the decomposer returning
// a one-step plan.
func IsComplex(query string) bool {
	q := strings.ToLower(query)
	for _, marker := range complexMarkers {
		if strings.Contains(q, marker) {
			return true
		}
	}
	return false
}

// ClassifyKeywords is the offline fallback classifier used when no language
// model is configured. Mirrors the rule set the model-backed classifier is
// prompted with.
func ClassifyKeywords(query string) Kind {
	q := strings.ToLower(query)
	switch {
	case containsAny(q, "where is", "find the", "locate", "detect the"):
		return KindGrounding
	case containsAny(q, "grasp", "grab", "pick up", "graspable", "affordance", "hold the", "lift"):
		return KindAffordance
	case containsAny(q, "path", "trajectory", "move to", "reach", "navigate", "go to"):
		return KindTrajectory
	case containsAny(q, "point to", "point at", "click", "center of"):
		return KindPointing
	default:
		return KindGeneral
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
