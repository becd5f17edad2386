package manifold

import (
	"math"

	"github.com/akmonengine/xpbd/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// intersectionEpsilon is the minimum projection of an edge on a plane normal
// for the edge to be considered crossing the plane
const intersectionEpsilon = 1e-6

// plane keeps the half-space dot(p - Point, Normal) >= 0
type plane struct {
	Point  mgl64.Vec3
	Normal mgl64.Vec3
}

func (p plane) contains(point mgl64.Vec3) bool {
	return point.Sub(p.Point).Dot(p.Normal) >= 0
}

// intersect returns the point where the segment start-end crosses the plane
func (p plane) intersect(start, end mgl64.Vec3) (mgl64.Vec3, bool) {
	segment := end.Sub(start)
	projection := p.Normal.Dot(segment)
	if math.Abs(projection) <= intersectionEpsilon {
		return mgl64.Vec3{}, false
	}

	factor := -p.Normal.Dot(start.Sub(p.Point)) / projection
	factor = math.Max(0, math.Min(1, factor))

	return start.Add(segment.Mul(factor)), true
}

// clipPolygon implements Sutherland-Hodgman against a list of planes.
// With remove set, vertices outside a plane are dropped instead of being
// replaced by the intersection of their edges with the plane.
func clipPolygon(polygon []mgl64.Vec3, planes []plane, remove bool) []mgl64.Vec3 {
	input := append([]mgl64.Vec3(nil), polygon...)
	output := make([]mgl64.Vec3, 0, len(polygon)*2)

	for _, clip := range planes {
		if len(input) == 0 {
			break
		}

		start := input[len(input)-1]
		for _, end := range input {
			startInside := clip.contains(start)
			endInside := clip.contains(end)

			switch {
			case remove:
				if endInside {
					output = append(output, end)
				}
			case startInside && endInside:
				output = append(output, end)
			case startInside:
				// Leaving the half-space
				if point, ok := clip.intersect(start, end); ok {
					output = append(output, point)
				}
			case endInside:
				// Entering the half-space
				if point, ok := clip.intersect(start, end); ok {
					output = append(output, point)
				}
				output = append(output, end)
			}

			start = end
		}

		input, output = output, input[:0]
	}

	return input
}

// boundaryPlanes returns the side planes of a face: one per neighbor face,
// keeping the space behind that neighbor
func boundaryPlanes(hull *actor.ConvexHull, face int) []plane {
	neighbors := hull.FaceNeighbors[face]
	planes := make([]plane, 0, len(neighbors))
	for _, neighbor := range neighbors {
		planes = append(planes, plane{
			Point:  hull.WorldVertex(hull.Faces[neighbor].Vertices[0]),
			Normal: hull.WorldNormal(neighbor).Mul(-1),
		})
	}
	return planes
}

// faceContacts clips the incident face against the reference face.
//
// Algorithm:
//  1. Clip the incident polygon against the reference face's side planes
//  2. Remove the points in front of the reference face
//  3. Pair each remaining point with its projection on the reference face
//
// referenceIsA tells which collider owns the reference face, so that
// PointA always lies on the first collider.
func faceContacts(reference *actor.ConvexHull, referenceFace int, incident *actor.ConvexHull, incidentFace int, normal mgl64.Vec3, referenceIsA bool) []Contact {
	clipped := clipPolygon(incident.WorldPolygon(incidentFace), boundaryPlanes(reference, referenceFace), false)

	outward := reference.WorldNormal(referenceFace)
	referencePoint := reference.WorldVertex(reference.Faces[referenceFace].Vertices[0])
	behind := plane{Point: referencePoint, Normal: outward.Mul(-1)}
	clipped = clipPolygon(clipped, []plane{behind}, true)

	contacts := make([]Contact, 0, len(clipped))
	for _, point := range clipped {
		separation := point.Sub(referencePoint).Dot(outward)
		if separation >= 0 {
			continue
		}

		projected := point.Sub(outward.Mul(separation))
		if referenceIsA {
			contacts = append(contacts, Contact{PointA: projected, PointB: point, Normal: normal})
		} else {
			contacts = append(contacts, Contact{PointA: point, PointB: projected, Normal: normal})
		}
	}

	return contacts
}
