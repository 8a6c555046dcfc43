package scene

import "math"

// SpriteID uniquely identifies a sprite within a scene
type SpriteID uint64

// Sprite is a positioned, textured rectangle
type Sprite struct {
	ID      SpriteID
	X       float64 // center x
	Y       float64 // center y
	Width   float64
	Height  float64
	Texture *Texture
}

// Bounds returns the sprite's axis-aligned box as left, top, right, bottom
func (s *Sprite) Bounds() (float64, float64, float64, float64) {
	hw, hh := s.Width/2, s.Height/2
	return s.X - hw, s.Y - hh, s.X + hw, s.Y + hh
}

// Intersects reports whether two sprites overlap. Touching edges do not count.
func (s *Sprite) Intersects(o *Sprite) bool {
	l1, t1, r1, b1 := s.Bounds()
	l2, t2, r2, b2 := o.Bounds()
	return l1 < r2 && r1 > l2 && t1 < b2 && b1 > t2
}

// Distance returns the Euclidean distance between two sprite centers
func Distance(a, b *Sprite) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// CheckCollision returns every sprite in list that overlaps s, in list order.
// s itself is never reported.
func CheckCollision(s *Sprite, list *SpriteList) []*Sprite {
	var hits []*Sprite
	for _, other := range list.sprites {
		if other == s {
			continue
		}
		if s.Intersects(other) {
			hits = append(hits, other)
		}
	}
	return hits
}
