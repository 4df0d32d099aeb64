// Package geom provides spatial value types shared by the pipeline.
package geom

import (
	"fmt"
	"math"
)

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that the coordinate is within valid WGS84 ranges.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", c.Lon)
	}
	return nil
}

// BBox is a rectangular extent in decimal degrees (west, south, east, north).
type BBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// Global returns a bounding box covering the whole globe.
func Global() BBox {
	return BBox{West: -180, South: -90, East: 180, North: 90}
}

// FromPoint builds a bounding box by buffering a point by the given number
// of degrees in each direction, clamped to valid WGS84 ranges.
func FromPoint(lat, lon, buffer float64) BBox {
	return BBox{
		West:  math.Max(lon-buffer, -180),
		South: math.Max(lat-buffer, -90),
		East:  math.Min(lon+buffer, 180),
		North: math.Min(lat+buffer, 90),
	}
}

// Validate checks the bounding box invariants: west < east, south < north,
// and all edges within valid WGS84 ranges.
func (b BBox) Validate() error {
	if b.West < -180 || b.East > 180 {
		return fmt.Errorf("longitude bounds [%f, %f] out of range [-180, 180]", b.West, b.East)
	}
	if b.South < -90 || b.North > 90 {
		return fmt.Errorf("latitude bounds [%f, %f] out of range [-90, 90]", b.South, b.North)
	}
	if b.West >= b.East {
		return fmt.Errorf("west %f must be less than east %f", b.West, b.East)
	}
	if b.South >= b.North {
		return fmt.Errorf("south %f must be less than north %f", b.South, b.North)
	}
	return nil
}

// Center returns the center point of the bounding box.
func (b BBox) Center() Coordinate {
	return Coordinate{
		Lat: (b.South + b.North) / 2,
		Lon: (b.West + b.East) / 2,
	}
}

// Width returns the longitudinal span in degrees.
func (b BBox) Width() float64 {
	return b.East - b.West
}

// Height returns the latitudinal span in degrees.
func (b BBox) Height() float64 {
	return b.North - b.South
}

// Area returns the area in square degrees.
func (b BBox) Area() float64 {
	return b.Width() * b.Height()
}

// Slice returns the bounding box as [west, south, east, north], the wire
// order used by the catalog search contract.
func (b BBox) Slice() []float64 {
	return []float64{b.West, b.South, b.East, b.North}
}

// Intersects reports whether two bounding boxes overlap.
func (b BBox) Intersects(other BBox) bool {
	return b.West < other.East && other.West < b.East &&
		b.South < other.North && other.South < b.North
}

// Intersection returns the overlapping region of two bounding boxes.
// The second return value is false if they do not overlap.
func (b BBox) Intersection(other BBox) (BBox, bool) {
	if !b.Intersects(other) {
		return BBox{}, false
	}
	return BBox{
		West:  math.Max(b.West, other.West),
		South: math.Max(b.South, other.South),
		East:  math.Min(b.East, other.East),
		North: math.Min(b.North, other.North),
	}, true
}

// CoverageOf returns the fraction of target covered by b, in [0, 1].
func (b BBox) CoverageOf(target BBox) float64 {
	overlap, ok := b.Intersection(target)
	if !ok {
		return 0
	}
	area := target.Area()
	if area == 0 {
		return 0
	}
	return overlap.Area() / area
}

// ExpandToSpan grows the bounding box around its center until both spans
// are at least min degrees. Boxes already larger are returned unchanged.
func (b BBox) ExpandToSpan(min float64) BBox {
	out := b
	if out.Width() < min {
		c := out.Center()
		out.West = math.Max(c.Lon-min/2, -180)
		out.East = math.Min(c.Lon+min/2, 180)
	}
	if out.Height() < min {
		c := out.Center()
		out.South = math.Max(c.Lat-min/2, -90)
		out.North = math.Min(c.Lat+min/2, 90)
	}
	return out
}

// ClampToSpan shrinks the bounding box around its center so that neither
// span exceeds max degrees. Degenerate provider responses that cover a
// hemisphere are cut down to a usable map extent this way.
func (b BBox) ClampToSpan(max float64) BBox {
	out := b
	if out.Width() > max {
		c := out.Center()
		out.West = c.Lon - max/2
		out.East = c.Lon + max/2
	}
	if out.Height() > max {
		c := out.Center()
		out.South = c.Lat - max/2
		out.North = c.Lat + max/2
	}
	return out
}
