package blocks

import (
	"fmt"
	"sort"

	"github.com/wricardo/mcp-training/numberblocks/game/scene"
)

// Table owns every block and group of a scene. Hitbox sprites refer back to
// their block only through the table's id index, so removing a block can never
// leave a hitbox pointing at it.
type Table struct {
	scene    *scene.Scene
	tileSize float64

	blocks   map[BlockID]*DigitBlock
	hitboxes map[scene.SpriteID]BlockID
	groups   map[GroupID]*Group
	member   map[BlockID]GroupID

	nextBlock BlockID
	nextGroup GroupID
}

// NewTable creates a table for scn. The scene's texture cache must know every
// block texture.
func NewTable(scn *scene.Scene, tileSize float64) (*Table, error) {
	if scn == nil || scn.Textures() == nil {
		return nil, ErrNilScene
	}
	if tileSize <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTileSize, tileSize)
	}
	if err := scn.Textures().Preload(requiredKeys()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestIncomplete, err)
	}

	return &Table{
		scene:    scn,
		tileSize: tileSize,
		blocks:   make(map[BlockID]*DigitBlock),
		hitboxes: make(map[scene.SpriteID]BlockID),
		groups:   make(map[GroupID]*Group),
		member:   make(map[BlockID]GroupID),
	}, nil
}

func (t *Table) Scene() *scene.Scene { return t.scene }
func (t *Table) TileSize() float64   { return t.tileSize }

// Pitch is the horizontal distance between neighbouring blocks of a group
func (t *Table) Pitch() float64 {
	return t.tileSize * BlockTiles
}

// NewBlock creates a Movable, Standalone block at the origin and registers its
// sprites in the numbers, hitbox and symbol layers.
func (t *Table) NewBlock(v Value) (*DigitBlock, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidValue, rune(v))
	}

	t.nextBlock++
	size := t.Pitch()
	b := &DigitBlock{
		id:             t.nextBlock,
		table:          t,
		value:          v,
		classification: Movable,
		position:       Standalone,
		sprite:         t.scene.NewSprite(0, 0, size, size),
		hitbox:         t.scene.NewSprite(0, 0, size*HitboxScale, size*HitboxScale),
		overlay:        t.scene.NewSprite(0, 0, t.tileSize*NumberScale, t.tileSize*NumberScale),
	}

	transparent, err := t.scene.Textures().Load(TransparentKey)
	if err != nil {
		return nil, err
	}
	b.hitbox.Texture = transparent
	b.applyTexture()

	t.blocks[b.id] = b
	t.hitboxes[b.hitbox.ID] = b.id

	t.scene.SpriteList(scene.LayerNumbers).Append(b.sprite)
	t.scene.SpriteList(scene.LayerNumberHitboxes).Append(b.hitbox)
	t.scene.SpriteList(scene.LayerNumberSymbols).Append(b.overlay)
	return b, nil
}

// Block looks a block up by id
func (t *Table) Block(id BlockID) (*DigitBlock, bool) {
	b, ok := t.blocks[id]
	return b, ok
}

// BlockForHitbox resolves a hitbox sprite to its owning block
func (t *Table) BlockForHitbox(s *scene.Sprite) (*DigitBlock, bool) {
	if s == nil {
		return nil, false
	}
	id, ok := t.hitboxes[s.ID]
	if !ok {
		return nil, false
	}
	b, ok := t.blocks[id]
	return b, ok
}

// Blocks returns all live blocks ordered by id
func (t *Table) Blocks() []*DigitBlock {
	out := make([]*DigitBlock, 0, len(t.blocks))
	for _, b := range t.blocks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// RemoveBlock detaches a block from its group and from every scene layer
func (t *Table) RemoveBlock(b *DigitBlock) error {
	if b.table != t {
		return ErrForeignBlock
	}
	if b.removed {
		return ErrBlockRemoved
	}
	if g, ok := t.GroupOf(b); ok {
		if err := g.Remove(b); err != nil {
			return err
		}
	}

	t.scene.RemoveFromAll(b.sprite)
	t.scene.RemoveFromAll(b.hitbox)
	t.scene.RemoveFromAll(b.overlay)
	delete(t.hitboxes, b.hitbox.ID)
	delete(t.blocks, b.id)
	b.holder = nil
	b.removed = true
	return nil
}

// Group looks a group up by id
func (t *Table) Group(id GroupID) (*Group, bool) {
	g, ok := t.groups[id]
	return g, ok
}

// GroupOf returns the group a block belongs to
func (t *Table) GroupOf(b *DigitBlock) (*Group, bool) {
	id, ok := t.member[b.id]
	if !ok {
		return nil, false
	}
	g, ok := t.groups[id]
	return g, ok
}

// Groups returns all non-empty groups ordered by id
func (t *Table) Groups() []*Group {
	out := make([]*Group, 0, len(t.groups))
	for _, g := range t.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (t *Table) checkOwned(b *DigitBlock) error {
	if b == nil || b.table != t {
		return ErrForeignBlock
	}
	if b.removed {
		return fmt.Errorf("%w: block %d", ErrBlockRemoved, b.id)
	}
	return nil
}

// detach pulls b out of whatever group holds it, dropping that group if it empties
func (t *Table) detach(b *DigitBlock) {
	g, ok := t.GroupOf(b)
	if !ok {
		return
	}
	g.removeAt(g.indexOf(b))
}

func (t *Table) dropGroup(g *Group) {
	delete(t.groups, g.id)
}
