// Package motion produces humanlike pointer trajectories and drives them onto a render surface.
package motion

// Point is an on-screen coordinate in CSS pixels.
type Point struct {
	X float64
	Y float64
}

// Lerp returns the point at fraction f of the way from p to to.
func (p Point) Lerp(to Point, f float64) Point {
	return Point{
		X: p.X + (to.X-p.X)*f,
		Y: p.Y + (to.Y-p.Y)*f,
	}
}

// Cursor is the last rendered pointer position of a session.
// Only the Simulator writes it, on trajectory completion.
type Cursor struct {
	pos Point
}

// NewCursor places the cursor at p.
func NewCursor(p Point) *Cursor {
	return &Cursor{pos: p}
}

// Position returns the last rendered position.
func (c *Cursor) Position() Point {
	return c.pos
}

func (c *Cursor) complete(p Point) {
	c.pos = p
}
