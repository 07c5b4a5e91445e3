package geom

import "math"

// AABB represents an axis-aligned bounding box
type AABB struct {
	LowerBound Vec2
	UpperBound Vec2
}

// IsValid checks that the box has non-negative extents and finite bounds
// below HugeNumber.
func (a AABB) IsValid() bool {
	d := a.UpperBound.Sub(a.LowerBound)
	valid := d[0] >= 0 && d[1] >= 0
	valid = valid && IsValidVec2(a.LowerBound) && IsValidVec2(a.UpperBound)
	valid = valid && math.Abs(a.LowerBound[0]) < HugeNumber && math.Abs(a.LowerBound[1]) < HugeNumber
	valid = valid && math.Abs(a.UpperBound[0]) < HugeNumber && math.Abs(a.UpperBound[1]) < HugeNumber
	return valid
}

// Center of the box.
func (a AABB) Center() Vec2 {
	return Vec2{0.5 * (a.LowerBound[0] + a.UpperBound[0]), 0.5 * (a.LowerBound[1] + a.UpperBound[1])}
}

// Extents returns the half widths.
func (a AABB) Extents() Vec2 {
	return Vec2{0.5 * (a.UpperBound[0] - a.LowerBound[0]), 0.5 * (a.UpperBound[1] - a.LowerBound[1])}
}

// Perimeter is the surface-area heuristic metric used by the tree.
func (a AABB) Perimeter() float64 {
	wx := a.UpperBound[0] - a.LowerBound[0]
	wy := a.UpperBound[1] - a.LowerBound[1]
	return 2.0 * (wx + wy)
}

// Union returns the smallest box containing a and b.
func (a AABB) Union(b AABB) AABB {
	return AABB{
		LowerBound: Min(a.LowerBound, b.LowerBound),
		UpperBound: Max(a.UpperBound, b.UpperBound),
	}
}

// Contains reports whether a fully contains b.
func (a AABB) Contains(b AABB) bool {
	return a.LowerBound[0] <= b.LowerBound[0] && a.LowerBound[1] <= b.LowerBound[1] &&
		b.UpperBound[0] <= a.UpperBound[0] && b.UpperBound[1] <= a.UpperBound[1]
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point Vec2) bool {
	return point[0] >= a.LowerBound[0] && point[0] <= a.UpperBound[0] &&
		point[1] >= a.LowerBound[1] && point[1] <= a.UpperBound[1]
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(b AABB) bool {
	return !(b.LowerBound[0] > a.UpperBound[0] || b.LowerBound[1] > a.UpperBound[1] ||
		a.LowerBound[0] > b.UpperBound[0] || a.LowerBound[1] > b.UpperBound[1])
}

// Fatten grows the box by margin on every side.
func (a AABB) Fatten(margin float64) AABB {
	return AABB{
		LowerBound: Vec2{a.LowerBound[0] - margin, a.LowerBound[1] - margin},
		UpperBound: Vec2{a.UpperBound[0] + margin, a.UpperBound[1] + margin},
	}
}

// EnlargeAABB grows a in place to contain b and reports whether it changed.
func EnlargeAABB(a *AABB, b AABB) bool {
	changed := false
	if b.LowerBound[0] < a.LowerBound[0] {
		a.LowerBound[0] = b.LowerBound[0]
		changed = true
	}
	if b.LowerBound[1] < a.LowerBound[1] {
		a.LowerBound[1] = b.LowerBound[1]
		changed = true
	}
	if a.UpperBound[0] < b.UpperBound[0] {
		a.UpperBound[0] = b.UpperBound[0]
		changed = true
	}
	if a.UpperBound[1] < b.UpperBound[1] {
		a.UpperBound[1] = b.UpperBound[1]
		changed = true
	}
	return changed
}

// RayCast clips the ray p1->p2 against the box using the slab method.
// It returns the hit fraction, the outward normal and whether it hit.
func (a AABB) RayCast(p1, p2 Vec2) (fraction float64, normal Vec2, hit bool) {
	tmin := -math.MaxFloat64
	tmax := math.MaxFloat64

	p := p1
	d := p2.Sub(p1)
	absD := Abs(d)

	for axis := 0; axis < 2; axis++ {
		if absD[axis] < epsilon {
			if p[axis] < a.LowerBound[axis] || a.UpperBound[axis] < p[axis] {
				return 0, Vec2{}, false
			}
			continue
		}

		inv := 1.0 / d[axis]
		t1 := (a.LowerBound[axis] - p[axis]) * inv
		t2 := (a.UpperBound[axis] - p[axis]) * inv

		s := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1.0
		}

		if t1 > tmin {
			normal = Vec2{}
			normal[axis] = s
			tmin = t1
		}
		tmax = min(tmax, t2)

		if tmin > tmax {
			return 0, Vec2{}, false
		}
	}

	if tmin < 0 || 1 < tmin {
		return 0, Vec2{}, false
	}
	return tmin, normal, true
}
