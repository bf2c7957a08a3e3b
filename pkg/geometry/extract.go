package geometry

import (
	"regexp"
	"strconv"

	"github.com/YasiruDEX/Robobrain-2.0/pkg/task"
)

// Half-width of the square box synthesized around a bare point when a box
// task returns points instead of boxes.
const pointBoxRadius = 20

var (
	numPat = `(\d+(?:\.\d+)?)`

	// (x, y)
	parenPairRe = regexp.MustCompile(`\(` + numPat + `\s*,\s*` + numPat + `\)`)
	// [x, y] — the closing bracket directly after the second number keeps
	// this from matching inside four-element boxes.
	bracketPairRe = regexp.MustCompile(`\[` + numPat + `\s*,\s*` + numPat + `\]`)
	// [x1, y1, x2, y2]
	bracketQuadRe = regexp.MustCompile(`\[` + numPat + `\s*,\s*` + numPat + `\s*,\s*` + numPat + `\s*,\s*` + numPat + `\]`)
)

// strategy converts one pattern's matches into Geometry; returns an empty
// Geometry when the pattern found nothing, letting the next strategy run.
type strategy func(text string) Geometry

// strategyTable fixes the fallback priority per task kind.
var strategyTable = map[task.Kind][]strategy{
	task.KindPointing:   {parenPoints, bracketPoints},
	task.KindTrajectory: {parenPath, bracketPath},
	task.KindGrounding:  {quadBoxes, pointBoxes},
	task.KindAffordance: {quadBoxes, pointBoxes},
}

// Extract parses coordinates out of a model answer according to the task
// kind's strategy table. General tasks and unrecognized kinds always yield
// empty Geometry.
func Extract(text string, kind task.Kind) Geometry {
	for _, s := range strategyTable[kind] {
		if g := s(text); !g.Empty() {
			return g
		}
	}
	return Geometry{}
}

func parenPoints(text string) Geometry {
	return Geometry{Points: matchPoints(parenPairRe, text)}
}

func bracketPoints(text string) Geometry {
	return Geometry{Points: matchPoints(bracketPairRe, text)}
}

func parenPath(text string) Geometry {
	return pathFrom(matchPoints(parenPairRe, text))
}

func bracketPath(text string) Geometry {
	return pathFrom(matchPoints(bracketPairRe, text))
}

func pathFrom(pts []Point) Geometry {
	if len(pts) == 0 {
		return Geometry{}
	}
	return Geometry{Paths: []Path{pts}}
}

func quadBoxes(text string) Geometry {
	var boxes []Box
	for _, m := range bracketQuadRe.FindAllStringSubmatch(text, -1) {
		boxes = append(boxes, Box{
			X1: truncate(m[1]),
			Y1: truncate(m[2]),
			X2: truncate(m[3]),
			Y2: truncate(m[4]),
		})
	}
	return Geometry{Boxes: boxes}
}

// pointBoxes synthesizes a fixed-radius box around each bare point. The
// source points ride along for downstream reference.
func pointBoxes(text string) Geometry {
	pts := matchPoints(parenPairRe, text)
	if len(pts) == 0 {
		pts = matchPoints(bracketPairRe, text)
	}
	if len(pts) == 0 {
		return Geometry{}
	}
	boxes := make([]Box, 0, len(pts))
	for _, p := range pts {
		boxes = append(boxes, Box{
			X1: p.X - pointBoxRadius,
			Y1: p.Y - pointBoxRadius,
			X2: p.X + pointBoxRadius,
			Y2: p.Y + pointBoxRadius,
		})
	}
	return Geometry{Points: pts, Boxes: boxes}
}

func matchPoints(re *regexp.Regexp, text string) []Point {
	var pts []Point
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		pts = append(pts, Point{X: truncate(m[1]), Y: truncate(m[2])})
	}
	return pts
}

// truncate drops the fractional part of a decimal token.
func truncate(s string) int {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(f)
}
