package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YasiruDEX/Robobrain-2.0/pkg/task"
)

func TestExtractGrounding(t *testing.T) {
	t.Run("bracket quad", func(t *testing.T) {
		g := Extract("The box is at [10, 20, 110, 220]", task.KindGrounding)
		require.Len(t, g.Boxes, 1)
		assert.Equal(t, Box{X1: 10, Y1: 20, X2: 110, Y2: 220}, g.Boxes[0])
		assert.Empty(t, g.Points)
		assert.Empty(t, g.Paths)
	})

	t.Run("multiple quads", func(t *testing.T) {
		g := Extract("[1,2,3,4] and [5, 6, 7, 8]", task.KindGrounding)
		require.Len(t, g.Boxes, 2)
		assert.Equal(t, Box{X1: 5, Y1: 6, X2: 7, Y2: 8}, g.Boxes[1])
	})

	t.Run("point fallback synthesizes box and keeps point", func(t *testing.T) {
		g := Extract("The handle is at (100, 200)", task.KindAffordance)
		require.Len(t, g.Boxes, 1)
		assert.Equal(t, Box{X1: 80, Y1: 180, X2: 120, Y2: 220}, g.Boxes[0])
		require.Len(t, g.Points, 1)
		assert.Equal(t, Point{X: 100, Y: 200}, g.Points[0])
	})

	t.Run("quads win over points", func(t *testing.T) {
		g := Extract("center (50, 50) inside [0, 0, 100, 100]", task.KindGrounding)
		require.Len(t, g.Boxes, 1)
		assert.Equal(t, Box{X1: 0, Y1: 0, X2: 100, Y2: 100}, g.Boxes[0])
		assert.Empty(t, g.Points)
	})
}

func TestExtractPointing(t *testing.T) {
	t.Run("paren pair", func(t *testing.T) {
		g := Extract("Point to (50, 75)", task.KindPointing)
		require.Len(t, g.Points, 1)
		assert.Equal(t, Point{X: 50, Y: 75}, g.Points[0])
	})

	t.Run("bracket pair fallback", func(t *testing.T) {
		g := Extract("The target is [30, 40]", task.KindPointing)
		require.Len(t, g.Points, 1)
		assert.Equal(t, Point{X: 30, Y: 40}, g.Points[0])
	})

	t.Run("bracket quad is not a point", func(t *testing.T) {
		g := Extract("[10, 20, 30, 40]", task.KindPointing)
		assert.True(t, g.Empty())
	})

	t.Run("decimals truncate", func(t *testing.T) {
		g := Extract("(50.9, 75.1)", task.KindPointing)
		require.Len(t, g.Points, 1)
		assert.Equal(t, Point{X: 50, Y: 75}, g.Points[0])
	})
}

func TestExtractTrajectory(t *testing.T) {
	t.Run("paren pairs in order", func(t *testing.T) {
		g := Extract("Path: (0,0), (10,10), (20,5)", task.KindTrajectory)
		require.Len(t, g.Paths, 1)
		assert.Equal(t, Path{{0, 0}, {10, 10}, {20, 5}}, g.Paths[0])
	})

	t.Run("bracket pair fallback", func(t *testing.T) {
		g := Extract("waypoints [[5, 5], [15, 25]]", task.KindTrajectory)
		require.Len(t, g.Paths, 1)
		assert.Equal(t, Path{{5, 5}, {15, 25}}, g.Paths[0])
	})

	t.Run("paren pairs preferred over bracket pairs", func(t *testing.T) {
		g := Extract("(1,1) then [9, 9]", task.KindTrajectory)
		require.Len(t, g.Paths, 1)
		assert.Equal(t, Path{{1, 1}}, g.Paths[0])
	})
}

func TestExtractGeneral(t *testing.T) {
	g := Extract("I see a red cup", task.KindGeneral)
	assert.True(t, g.Empty())

	// Coordinates in general answers are never extracted.
	g = Extract("maybe at (10, 10)", task.KindGeneral)
	assert.True(t, g.Empty())
}

func TestExtractMalformed(t *testing.T) {
	for _, text := range []string{"", "no coords here", "(x, y)", "[1, 2, 3]", "(1)"} {
		for _, kind := range task.Kinds {
			assert.True(t, Extract(text, kind).Empty(), "text=%q kind=%s", text, kind)
		}
	}
}
