package scene

import (
	"fmt"
	"sync/atomic"
)

// Layer names
const (
	LayerWalls          = "walls"
	LayerBackground     = "background"
	LayerPlayer         = "player"
	LayerNumbers        = "numbers"
	LayerNumberHitboxes = "number-hitboxes"
	LayerNumberSymbols  = "number-symbols"
)

// DrawOrder lists layers bottom to top
var DrawOrder = []string{
	LayerBackground,
	LayerWalls,
	LayerNumbers,
	LayerNumberSymbols,
	LayerPlayer,
	LayerNumberHitboxes,
}

// SpriteList is an ordered, mutable collection of sprites
type SpriteList struct {
	name    string
	sprites []*Sprite
}

// Name returns the layer name the list is registered under
func (l *SpriteList) Name() string {
	return l.name
}

// Append adds a sprite at the end of the list. Appending a sprite already in
// the list is a no-op.
func (l *SpriteList) Append(s *Sprite) {
	if l.Contains(s) {
		return
	}
	l.sprites = append(l.sprites, s)
}

// Remove deletes a sprite from the list and reports whether it was present
func (l *SpriteList) Remove(s *Sprite) bool {
	for i, other := range l.sprites {
		if other == s {
			l.sprites = append(l.sprites[:i], l.sprites[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether the sprite is in the list
func (l *SpriteList) Contains(s *Sprite) bool {
	for _, other := range l.sprites {
		if other == s {
			return true
		}
	}
	return false
}

// Len returns the number of sprites in the list
func (l *SpriteList) Len() int {
	return len(l.sprites)
}

// Sprites returns a copy of the list contents
func (l *SpriteList) Sprites() []*Sprite {
	out := make([]*Sprite, len(l.sprites))
	copy(out, l.sprites)
	return out
}

// Scene is the layer-keyed sprite registry
type Scene struct {
	layers   map[string]*SpriteList
	textures *TextureCache
	nextID   atomic.Uint64
}

// New creates a scene with every known layer registered
func New(textures *TextureCache) *Scene {
	s := &Scene{
		layers:   make(map[string]*SpriteList, len(DrawOrder)),
		textures: textures,
	}
	for _, name := range DrawOrder {
		s.layers[name] = &SpriteList{name: name}
	}
	return s
}

// SpriteList returns the list registered for a layer, creating it on first use
func (s *Scene) SpriteList(layer string) *SpriteList {
	list, ok := s.layers[layer]
	if !ok {
		list = &SpriteList{name: layer}
		s.layers[layer] = list
	}
	return list
}

// Textures returns the scene's texture cache
func (s *Scene) Textures() *TextureCache {
	return s.textures
}

// NewSprite allocates a sprite with a fresh id. The sprite is not added to any layer.
func (s *Scene) NewSprite(x, y, width, height float64) *Sprite {
	return &Sprite{
		ID:     SpriteID(s.nextID.Add(1)),
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

// RemoveFromAll removes a sprite from every layer and returns how many lists held it
func (s *Scene) RemoveFromAll(sprite *Sprite) int {
	removed := 0
	for _, list := range s.layers {
		if list.Remove(sprite) {
			removed++
		}
	}
	return removed
}

// LayerOf returns the first layer (in draw order) holding the sprite
func (s *Scene) LayerOf(sprite *Sprite) (string, error) {
	for _, name := range DrawOrder {
		if s.layers[name].Contains(sprite) {
			return name, nil
		}
	}
	return "", fmt.Errorf("sprite %d is not in any layer", sprite.ID)
}
