package geom

import "math"

// Hull is a convex hull with counter-clockwise points.
type Hull struct {
	Points [MaxPolygonVertices]Vec2
	Count  int
}

// quickhull recursion
func recurseHull(p1, p2 Vec2, ps []Vec2) Hull {
	var hull Hull
	if len(ps) == 0 {
		return hull
	}

	e := Normalize(p2.Sub(p1))

	// discard points left of e and find the point furthest to the right of e
	var rightPoints [MaxPolygonVertices]Vec2
	rightCount := 0

	bestIndex := 0
	bestDistance := Cross(ps[bestIndex].Sub(p1), e)
	if bestDistance > 0 {
		rightPoints[rightCount] = ps[bestIndex]
		rightCount++
	}

	for i := 1; i < len(ps); i++ {
		distance := Cross(ps[i].Sub(p1), e)
		if distance > bestDistance {
			bestIndex = i
			bestDistance = distance
		}
		if distance > 0 {
			rightPoints[rightCount] = ps[i]
			rightCount++
		}
	}

	if bestDistance < 2.0*LinearSlop {
		return hull
	}

	bestPoint := ps[bestIndex]

	// compute hull to the right of p1-bestPoint
	hull1 := recurseHull(p1, bestPoint, rightPoints[:rightCount])

	// compute hull to the right of bestPoint-p2
	hull2 := recurseHull(bestPoint, p2, rightPoints[:rightCount])

	// stitch together hulls with best point
	for i := 0; i < hull1.Count; i++ {
		hull.Points[hull.Count] = hull1.Points[i]
		hull.Count++
	}

	hull.Points[hull.Count] = bestPoint
	hull.Count++

	for i := 0; i < hull2.Count; i++ {
		hull.Points[hull.Count] = hull2.Points[i]
		hull.Count++
	}

	return hull
}

// ComputeHull computes the convex hull of up to MaxPolygonVertices points
// with quickhull. Close points are welded and collinear points removed. The
// returned hull is empty when the input is degenerate.
func ComputeHull(points []Vec2) Hull {
	var hull Hull

	count := len(points)
	if count < 3 || count > MaxPolygonVertices {
		return hull
	}

	// aabb for quick weld rejection
	aabb := AABB{LowerBound: Vec2{math.MaxFloat64, math.MaxFloat64}, UpperBound: Vec2{-math.MaxFloat64, -math.MaxFloat64}}

	var ps [MaxPolygonVertices]Vec2
	n := 0
	const tolSqr = 16.0 * LinearSlop * LinearSlop
	for i := 0; i < count; i++ {
		aabb.LowerBound = Min(aabb.LowerBound, points[i])
		aabb.UpperBound = Max(aabb.UpperBound, points[i])

		vi := points[i]

		unique := true
		for j := 0; j < i; j++ {
			if DistanceSquared(vi, points[j]) < tolSqr {
				unique = false
				break
			}
		}

		if unique {
			ps[n] = vi
			n++
		}
	}

	if n < 3 {
		return hull
	}

	// Find an extreme point as the first point on the hull
	c := aabb.Center()
	f1 := 0
	dsq1 := DistanceSquared(c, ps[f1])
	for i := 1; i < n; i++ {
		dsq := DistanceSquared(c, ps[i])
		if dsq > dsq1 {
			f1 = i
			dsq1 = dsq
		}
	}

	p1 := ps[f1]
	ps[f1] = ps[n-1]
	n--

	f2 := 0
	dsq2 := DistanceSquared(p1, ps[f2])
	for i := 1; i < n; i++ {
		dsq := DistanceSquared(p1, ps[i])
		if dsq > dsq2 {
			f2 = i
			dsq2 = dsq
		}
	}

	p2 := ps[f2]
	ps[f2] = ps[n-1]
	n--

	// split the points into points that are left and right of the line p1-p2.
	var rightPoints, leftPoints [MaxPolygonVertices - 2]Vec2
	rightCount, leftCount := 0, 0

	e := Normalize(p2.Sub(p1))

	for i := 0; i < n; i++ {
		d := Cross(ps[i].Sub(p1), e)

		// slop skips points that are very close to the line p1-p2
		if d >= 2.0*LinearSlop {
			rightPoints[rightCount] = ps[i]
			rightCount++
		} else if d <= -2.0*LinearSlop {
			leftPoints[leftCount] = ps[i]
			leftCount++
		}
	}

	hull1 := recurseHull(p1, p2, rightPoints[:rightCount])
	hull2 := recurseHull(p2, p1, leftPoints[:leftCount])

	if hull1.Count == 0 && hull2.Count == 0 {
		// all points collinear
		return hull
	}

	hull.Points[hull.Count] = p1
	hull.Count++

	for i := 0; i < hull1.Count; i++ {
		hull.Points[hull.Count] = hull1.Points[i]
		hull.Count++
	}

	hull.Points[hull.Count] = p2
	hull.Count++

	for i := 0; i < hull2.Count; i++ {
		hull.Points[hull.Count] = hull2.Points[i]
		hull.Count++
	}

	// merge collinear
	searching := true
	for searching && hull.Count > 2 {
		searching = false

		for i := 0; i < hull.Count; i++ {
			i1 := i
			i2 := (i + 1) % hull.Count
			i3 := (i + 2) % hull.Count

			s1 := hull.Points[i1]
			s2 := hull.Points[i2]
			s3 := hull.Points[i3]

			r := Normalize(s3.Sub(s1))

			distance := Cross(s2.Sub(s1), r)
			if distance <= 2.0*LinearSlop {
				// remove midpoint from hull
				for j := i2; j < hull.Count-1; j++ {
					hull.Points[j] = hull.Points[j+1]
				}
				hull.Count--

				searching = true
				break
			}
		}
	}

	if hull.Count < 3 {
		hull.Count = 0
	}

	return hull
}

// ValidateHull checks that a hull is convex, counter-clockwise and free of
// collinear points.
func ValidateHull(hull Hull) bool {
	if hull.Count < 3 || MaxPolygonVertices < hull.Count {
		return false
	}

	// test that every point is behind every edge
	for i := 0; i < hull.Count; i++ {
		i1 := i
		i2 := 0
		if i < hull.Count-1 {
			i2 = i1 + 1
		}
		p := hull.Points[i1]
		e := Normalize(hull.Points[i2].Sub(p))

		for j := 0; j < hull.Count; j++ {
			if j == i1 || j == i2 {
				continue
			}
			distance := Cross(hull.Points[j].Sub(p), e)
			if distance >= 0 {
				return false
			}
		}
	}

	// test for collinear points
	for i := 0; i < hull.Count; i++ {
		i1 := i
		i2 := (i + 1) % hull.Count
		i3 := (i + 2) % hull.Count

		p1 := hull.Points[i1]
		p2 := hull.Points[i2]
		p3 := hull.Points[i3]

		e := Normalize(p3.Sub(p1))
		distance := Cross(p2.Sub(p1), e)
		if distance <= LinearSlop {
			return false
		}
	}

	return true
}
