package annotation

import "math"

// PolygonArea computes the area enclosed by a flat x,y polygon using the
// shoelace formula. Orientation does not matter.
func PolygonArea(points []float64) float64 {
	n := len(points) / 2
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += points[2*i]*points[2*j+1] - points[2*j]*points[2*i+1]
	}
	return math.Abs(sum) / 2
}

// PointsBounds returns the axis-aligned bounds of a flat x,y sequence as
// (x, y, width, height).
func PointsBounds(points []float64) (x, y, w, h float64) {
	if len(points) < 2 {
		return 0, 0, 0, 0
	}
	minX, maxX := points[0], points[0]
	minY, maxY := points[1], points[1]
	for i := 2; i+1 < len(points); i += 2 {
		minX = math.Min(minX, points[i])
		maxX = math.Max(maxX, points[i])
		minY = math.Min(minY, points[i+1])
		maxY = math.Max(maxY, points[i+1])
	}
	return minX, minY, maxX - minX, maxY - minY
}

// RectPolygon returns the corners of an (x, y, width, height) rectangle as a
// flat polygon.
func RectPolygon(x, y, w, h float64) []float64 {
	return []float64{
		x, y,
		x + w, y,
		x + w, y + h,
		x, y + h,
	}
}
