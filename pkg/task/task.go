package task

import (
	"fmt"
	"strings"
)

// Kind identifies one atomic RoboBrain task type.
type Kind string

const (
	KindAuto       Kind = "auto"
	KindGeneral    Kind = "general"
	KindGrounding  Kind = "grounding"
	KindAffordance Kind = "affordance"
	KindTrajectory Kind = "trajectory"
	KindPointing   Kind = "pointing"
)

// Kinds lists the executable task kinds in catalog order. KindAuto is a
// routing pseudo-kind and is never sent to the model server.
var Kinds = []Kind{KindGeneral, KindGrounding, KindAffordance, KindTrajectory, KindPointing}

// Parse normalizes a task string into a Kind.
func Parse(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k == KindAuto {
		return KindAuto, nil
	}
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown task kind: %q", s)
}

// Valid reports whether k is an executable task kind.
func Valid(k Kind) bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Spatial reports whether k produces coordinates that can be drawn.
func (k Kind) Spatial() bool {
	switch k {
	case KindGrounding, KindAffordance, KindTrajectory, KindPointing:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}
