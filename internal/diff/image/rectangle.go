package image

import (
	"fmt"

	"screenshot-assertion/internal/pixel"
)

type Rectangle struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Rectangle) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// regionMergeDistance is how close, in pixels, two regions may be before
// they are reported as one.
const regionMergeDistance = 10

// FindRegions groups the differing pixels of two images into rectangles.
// Pixels are 8-connected; nearby rectangles are merged. The scan covers the
// larger of the two canvases.
func FindRegions(actual *pixel.Buffer, expected *pixel.Buffer) []Rectangle {
	width := max(actual.Width(), expected.Width())
	height := max(actual.Height(), expected.Height())

	diffMap := make([][]bool, height)
	for y := range diffMap {
		diffMap[y] = make([]bool, width)
		for x := range diffMap[y] {
			a, aok := actual.Lookup(x, y)
			e, eok := expected.Lookup(x, y)
			diffMap[y][x] = !aok || !eok || a != e
		}
	}

	visited := make([][]bool, height)
	for i := range visited {
		visited[i] = make([]bool, width)
	}

	var rectangles []Rectangle
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if diffMap[y][x] && !visited[y][x] {
				rectangles = append(rectangles, findBoundingBox(diffMap, visited, x, y, width, height))
			}
		}
	}

	return mergeRectangles(rectangles)
}

type point struct {
	x int
	y int
}

func findBoundingBox(diffMap [][]bool, visited [][]bool, startX int, startY int, width int, height int) Rectangle {
	minX, minY := startX, startY
	maxX, maxY := startX, startY

	queue := []point{{startX, startY}}
	visited[startY][startX] = true

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		minX = min(minX, p.x)
		maxX = max(maxX, p.x)
		minY = min(minY, p.y)
		maxY = max(maxY, p.y)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx := p.x + dx
				ny := p.y + dy
				if nx >= 0 && nx < width && ny >= 0 && ny < height &&
					diffMap[ny][nx] && !visited[ny][nx] {
					visited[ny][nx] = true
					queue = append(queue, point{nx, ny})
				}
			}
		}
	}

	return Rectangle{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX + 1,
		Height: maxY - minY + 1,
	}
}

func mergeRectangles(rects []Rectangle) []Rectangle {
	if len(rects) <= 1 {
		return rects
	}

	merged := make([]Rectangle, 0, len(rects))
	used := make([]bool, len(rects))

	for i := 0; i < len(rects); i++ {
		if used[i] {
			continue
		}

		current := rects[i]
		mergedAny := true
		for mergedAny {
			mergedAny = false
			for j := i + 1; j < len(rects); j++ {
				if used[j] {
					continue
				}
				if rectanglesClose(current, rects[j], regionMergeDistance) {
					current = combineRectangles(current, rects[j])
					used[j] = true
					mergedAny = true
				}
			}
		}

		merged = append(merged, current)
	}

	return merged
}

func rectanglesOverlap(r1 Rectangle, r2 Rectangle) bool {
	return !(r1.X+r1.Width <= r2.X || r2.X+r2.Width <= r1.X ||
		r1.Y+r1.Height <= r2.Y || r2.Y+r2.Height <= r1.Y)
}

func rectanglesClose(r1 Rectangle, r2 Rectangle, threshold int) bool {
	grow := func(r Rectangle) Rectangle {
		return Rectangle{
			X:      r.X - threshold,
			Y:      r.Y - threshold,
			Width:  r.Width + 2*threshold,
			Height: r.Height + 2*threshold,
		}
	}
	return rectanglesOverlap(grow(r1), grow(r2))
}

func combineRectangles(r1 Rectangle, r2 Rectangle) Rectangle {
	minX := min(r1.X, r2.X)
	minY := min(r1.Y, r2.Y)
	maxX := max(r1.X+r1.Width, r2.X+r2.Width)
	maxY := max(r1.Y+r1.Height, r2.Y+r2.Height)

	return Rectangle{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}
