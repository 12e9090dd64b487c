package sprouts

import (
	"math"

	"parlor/game"
)

// Tolerances for the planar checks. The sheet is a few tens of units
// wide, so absolute epsilons are safe.
const (
	eps      = 1e-9
	pathTrim = 1e-4
)

// orient is the signed area of triangle abc, positive when c lies left
// of ab.
func orient(a, b, c game.Coord) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// onSegment reports whether p lies on segment ab.
func onSegment(a, b, p game.Coord) bool {
	if math.Abs(orient(a, b, p)) > eps {
		return false
	}
	return p.X >= math.Min(a.X, b.X)-eps && p.X <= math.Max(a.X, b.X)+eps &&
		p.Y >= math.Min(a.Y, b.Y)-eps && p.Y <= math.Max(a.Y, b.Y)+eps
}

// segmentsTouch reports whether segments ab and cd share any point,
// endpoint contact included.
func segmentsTouch(a, b, c, d game.Coord) bool {
	o1 := orient(a, b, c)
	o2 := orient(a, b, d)
	o3 := orient(c, d, a)
	o4 := orient(c, d, b)
	if ((o1 > eps && o2 < -eps) || (o1 < -eps && o2 > eps)) &&
		((o3 > eps && o4 < -eps) || (o3 < -eps && o4 > eps)) {
		return true
	}
	return onSegment(a, b, c) || onSegment(a, b, d) ||
		onSegment(c, d, a) || onSegment(c, d, b)
}

func dist(a, b game.Coord) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// distPointSeg is the distance from p to segment ab.
func distPointSeg(p, a, b game.Coord) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 < eps {
		return dist(p, a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return dist(p, game.Coord{X: a.X + t*dx, Y: a.Y + t*dy})
}

func pathLength(path []game.Coord) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += dist(path[i-1], path[i])
	}
	return total
}

// appendPt extends a polyline, dropping points that duplicate the
// previous one.
func appendPt(path []game.Coord, p game.Coord) []game.Coord {
	if n := len(path); n > 0 && dist(path[n-1], p) < eps {
		return path
	}
	return append(path, p)
}

// pointAlongPath walks distance d along the polyline.
func pointAlongPath(path []game.Coord, d float64) game.Coord {
	for i := 1; i < len(path); i++ {
		seg := dist(path[i-1], path[i])
		if seg < eps {
			continue
		}
		if d <= seg+eps {
			t := math.Max(0, math.Min(1, d/seg))
			return game.Coord{
				X: path[i-1].X + t*(path[i].X-path[i-1].X),
				Y: path[i-1].Y + t*(path[i].Y-path[i-1].Y),
			}
		}
		d -= seg
	}
	return path[len(path)-1]
}

// splitPath cuts the polyline at distance d, returning both halves and
// the cut point. Both halves include the cut point.
func splitPath(path []game.Coord, d float64) ([]game.Coord, []game.Coord, game.Coord) {
	first := []game.Coord{path[0]}
	for i := 1; i < len(path); i++ {
		seg := dist(path[i-1], path[i])
		if d > seg-eps {
			d -= seg
			first = appendPt(first, path[i])
			continue
		}
		t := math.Max(0, d/seg)
		m := game.Coord{
			X: path[i-1].X + t*(path[i].X-path[i-1].X),
			Y: path[i-1].Y + t*(path[i].Y-path[i-1].Y),
		}
		first = appendPt(first, m)
		second := []game.Coord{m}
		for _, p := range path[i:] {
			second = appendPt(second, p)
		}
		return first, second, m
	}
	last := path[len(path)-1]
	return first, []game.Coord{last, last}, last
}

// trimPath shaves t off both ends so curves that share an endpoint no
// longer touch there.
func trimPath(path []game.Coord, t float64) []game.Coord {
	total := pathLength(path)
	if total <= 2*t+eps {
		mid := pointAlongPath(path, total/2)
		return []game.Coord{mid, mid}
	}
	out := []game.Coord{pointAlongPath(path, t)}
	walked := 0.0
	for i := 1; i < len(path); i++ {
		walked += dist(path[i-1], path[i])
		if walked > t+eps && walked < total-t-eps {
			out = appendPt(out, path[i])
		}
	}
	return appendPt(out, pointAlongPath(path, total-t))
}

// pathsTouch reports whether any segments of the two polylines share a
// point.
func pathsTouch(a, b []game.Coord) bool {
	for i := 1; i < len(a); i++ {
		for j := 1; j < len(b); j++ {
			if segmentsTouch(a[i-1], a[i], b[j-1], b[j]) {
				return true
			}
		}
	}
	return false
}

// pathSelfIntersects reports whether the polyline crosses itself.
// Consecutive segments may meet only at their shared vertex; for a
// closed path the first and last segments count as consecutive.
func pathSelfIntersects(path []game.Coord) bool {
	n := len(path) - 1
	if n < 2 {
		return false
	}
	closed := dist(path[0], path[n]) < eps
	for i := 0; i < n; i++ {
		a1, a2 := path[i], path[i+1]
		for j := i + 1; j < n; j++ {
			b1, b2 := path[j], path[j+1]
			wrap := closed && i == 0 && j == n-1
			if j != i+1 && !wrap {
				if segmentsTouch(a1, a2, b1, b2) {
					return true
				}
				continue
			}
			if j == i+1 {
				// Shared vertex is a2 == b1.
				if onSegment(a1, a2, b2) && dist(b2, a2) > eps {
					return true
				}
				if onSegment(b1, b2, a1) && dist(a1, b1) > eps {
					return true
				}
			} else {
				// Shared vertex is a1 == b2.
				if onSegment(a1, a2, b1) && dist(b1, a1) > eps {
					return true
				}
				if onSegment(b1, b2, a2) && dist(a2, b2) > eps {
					return true
				}
			}
		}
	}
	return false
}

// bowPoint offsets the midpoint of ab perpendicularly by f times the
// half-distance. Negative f bows to the other side.
func bowPoint(a, b game.Coord, f float64) game.Coord {
	mx, my := (a.X+b.X)/2, (a.Y+b.Y)/2
	dx, dy := b.X-a.X, b.Y-a.Y
	return game.Coord{X: mx - dy*f/2, Y: my + dx*f/2}
}

// loopDirs are the eight unit directions probed for self-loops.
var loopDirs = [8]game.Coord{
	{X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 0, Y: -1},
	{X: math.Sqrt2 / 2, Y: math.Sqrt2 / 2}, {X: -math.Sqrt2 / 2, Y: math.Sqrt2 / 2},
	{X: -math.Sqrt2 / 2, Y: -math.Sqrt2 / 2}, {X: math.Sqrt2 / 2, Y: -math.Sqrt2 / 2},
}

// loopVia builds the waypoints of a diamond self-loop reaching distance
// r from p in direction d.
func loopVia(p, d game.Coord, r float64) []game.Coord {
	side := game.Coord{X: -d.Y, Y: d.X}
	return []game.Coord{
		{X: p.X + (d.X+side.X)*r/2, Y: p.Y + (d.Y+side.Y)*r/2},
		{X: p.X + d.X*r, Y: p.Y + d.Y*r},
		{X: p.X + (d.X-side.X)*r/2, Y: p.Y + (d.Y-side.Y)*r/2},
	}
}
