package blocks

import (
	"log"

	"github.com/wricardo/mcp-training/numberblocks/game/scene"
)

// BlockID identifies a block within its Table
type BlockID uint64

// Holder is whatever carries a grabbed block, typically the actor
type Holder interface {
	Position() (float64, float64)
}

// Placeable is the capability shared by single blocks and groups, letting an
// assembly lay out a lone block and a multi-digit group interchangeably.
type Placeable interface {
	MoveTo(x, y float64)
	SetClassification(c Classification)
	Position() (float64, float64)
	Size() int
}

var (
	_ Placeable = (*DigitBlock)(nil)
	_ Placeable = (*Group)(nil)
)

// DigitBlock is a single crate with a digit or symbol on it
type DigitBlock struct {
	id             BlockID
	table          *Table
	value          Value
	classification Classification
	position       GroupPosition
	removed        bool

	sprite  *scene.Sprite
	hitbox  *scene.Sprite
	overlay *scene.Sprite

	holder Holder
}

func (b *DigitBlock) ID() BlockID                    { return b.id }
func (b *DigitBlock) Value() Value                   { return b.value }
func (b *DigitBlock) Classification() Classification { return b.classification }
func (b *DigitBlock) GroupPosition() GroupPosition   { return b.position }
func (b *DigitBlock) Sprite() *scene.Sprite          { return b.sprite }
func (b *DigitBlock) Hitbox() *scene.Sprite          { return b.hitbox }
func (b *DigitBlock) Overlay() *scene.Sprite         { return b.overlay }
func (b *DigitBlock) Holder() Holder                 { return b.holder }
func (b *DigitBlock) Removed() bool                  { return b.removed }

// Size is always one; it lets a block stand in for a group
func (b *DigitBlock) Size() int { return 1 }

// Position returns the block's center
func (b *DigitBlock) Position() (float64, float64) {
	return b.sprite.X, b.sprite.Y
}

// MoveTo repositions the block together with its hitbox and overlay
func (b *DigitBlock) MoveTo(x, y float64) {
	for _, s := range []*scene.Sprite{b.sprite, b.hitbox, b.overlay} {
		s.X = x
		s.Y = y
	}
}

func (b *DigitBlock) SetClassification(c Classification) {
	b.classification = c
	b.applyTexture()
}

func (b *DigitBlock) SetGroupPosition(p GroupPosition) {
	b.position = p
	b.applyTexture()
}

// Grab records h as the block's holder. It is a no-op, returning false, unless
// the block is Movable or Incorrect.
func (b *DigitBlock) Grab(h Holder) bool {
	if !b.classification.Grabbable() {
		return false
	}
	b.holder = h
	return true
}

// Release clears the holder back-reference
func (b *DigitBlock) Release() {
	b.holder = nil
}

// Group returns the group the block currently belongs to
func (b *DigitBlock) Group() (*Group, bool) {
	if b.table == nil {
		return nil, false
	}
	return b.table.GroupOf(b)
}

func (b *DigitBlock) applyTexture() {
	frame, overlay := TextureKeys(b.value, b.classification, b.position)
	cache := b.table.scene.Textures()

	if tex, err := cache.Load(frame); err != nil {
		log.Printf("blocks: block %d frame: %v", b.id, err)
	} else {
		b.sprite.Texture = tex
	}
	if tex, err := cache.Load(overlay); err != nil {
		log.Printf("blocks: block %d overlay: %v", b.id, err)
	} else {
		b.overlay.Texture = tex
	}
}
