// Package actor implements the player-controlled character that walks the map
// and carries number blocks around.
//
// Update runs once per frame and always resolves, in order: movement with wall
// blocking, facing, hitbox collision (only while empty-handed), grab or
// prompt, carrying the held block, and finally release when the interact key
// is no longer held.
package actor

import (
	"errors"
	"fmt"

	"github.com/wricardo/mcp-training/numberblocks/game/blocks"
	"github.com/wricardo/mcp-training/numberblocks/game/scene"
)

var (
	ErrOrphanHitbox = errors.New("hitbox has no owning block")
	ErrNilHost      = errors.New("score host is required")
	ErrNilWorld     = errors.New("scene and block table are required")
)

const (
	DefaultSpeed         = 5
	DefaultRunMultiplier = 1.5
	CharacterScale       = 0.75
	playerBasePath       = "assets/kenney_sokobanpack/PNG/Default size/Player/"
)

var playerFrames = map[Orientation]string{
	FacingUp:    "player_08",
	FacingDown:  "player_05",
	FacingLeft:  "player_20",
	FacingRight: "player_17",
}

func textureKey(o Orientation) scene.AssetKey {
	return scene.AssetKey("player/" + o.String())
}

// Manifest returns the player textures, one per orientation
func Manifest() map[scene.AssetKey]string {
	m := make(map[scene.AssetKey]string, len(playerFrames))
	for o, frame := range playerFrames {
		m[textureKey(o)] = playerBasePath + frame + ".png"
	}
	return m
}

// Host receives progress notifications from the actor
type Host interface {
	// UpdateScore is called after every release
	UpdateScore()
	// SetCaption toggles the "press interact" prompt
	SetCaption(visible bool)
}

// Settler decides where a released block ends up and what it becomes
type Settler interface {
	Settle(b *blocks.DigitBlock) error
}

// Config tunes the actor's movement
type Config struct {
	Speed         float64
	RunMultiplier float64
	Size          float64
	StartX        float64
	StartY        float64
}

// Actor is the player character
type Actor struct {
	cfg     Config
	scene   *scene.Scene
	table   *blocks.Table
	host    Host
	settler Settler
	sprite  *scene.Sprite

	keys        Keys
	orientation Orientation
	vx, vy      float64

	held             *blocks.DigitBlock
	offsetX, offsetY float64
	fromX, fromY     float64
	target           *blocks.DigitBlock

	textures map[Orientation]*scene.Texture
}

// New creates the actor and puts its sprite in the player layer
func New(scn *scene.Scene, table *blocks.Table, host Host, settler Settler, cfg Config) (*Actor, error) {
	if scn == nil || table == nil {
		return nil, ErrNilWorld
	}
	if host == nil {
		return nil, ErrNilHost
	}
	if cfg.Speed <= 0 {
		cfg.Speed = DefaultSpeed
	}
	if cfg.RunMultiplier <= 0 {
		cfg.RunMultiplier = DefaultRunMultiplier
	}
	if cfg.Size <= 0 {
		cfg.Size = table.Pitch() * CharacterScale
	}

	a := &Actor{
		cfg:         cfg,
		scene:       scn,
		table:       table,
		host:        host,
		settler:     settler,
		sprite:      scn.NewSprite(cfg.StartX, cfg.StartY, cfg.Size, cfg.Size),
		orientation: FacingDown,
		textures:    make(map[Orientation]*scene.Texture, len(playerFrames)),
	}
	for o := range playerFrames {
		tex, err := scn.Textures().Load(textureKey(o))
		if err != nil {
			return nil, fmt.Errorf("player texture: %w", err)
		}
		a.textures[o] = tex
	}
	a.applyTexture()
	scn.SpriteList(scene.LayerPlayer).Append(a.sprite)
	return a, nil
}

func (a *Actor) Sprite() *scene.Sprite          { return a.sprite }
func (a *Actor) Keys() Keys                     { return a.keys }
func (a *Actor) Orientation() Orientation       { return a.orientation }
func (a *Actor) Held() *blocks.DigitBlock       { return a.held }
func (a *Actor) Target() *blocks.DigitBlock     { return a.target }
func (a *Actor) Velocity() (float64, float64)   { return a.vx, a.vy }
func (a *Actor) Position() (float64, float64)   { return a.sprite.X, a.sprite.Y }
func (a *Actor) HeldOffset() (float64, float64) { return a.offsetX, a.offsetY }

// HeldFrom returns where the held block was when it was grabbed
func (a *Actor) HeldFrom() (float64, float64) { return a.fromX, a.fromY }

// SetKey records a key press or release for the next Update
func (a *Actor) SetKey(action Action, pressed bool) error {
	return a.keys.Set(action, pressed)
}

// Teleport places the actor without wall checks. Used when restoring state.
func (a *Actor) Teleport(x, y float64, o Orientation) {
	a.sprite.X, a.sprite.Y = x, y
	a.orientation = o
	a.applyTexture()
}

// RestoreHold puts b back in the actor's hands with a previously captured
// offset, as when loading a saved world
func (a *Actor) RestoreHold(b *blocks.DigitBlock, offsetX, offsetY, fromX, fromY float64) error {
	if a.held != nil {
		return fmt.Errorf("actor already holds block %d", a.held.ID())
	}
	if !b.Grab(a) {
		return fmt.Errorf("block %d is %s and cannot be held", b.ID(), b.Classification())
	}
	a.held = b
	a.offsetX, a.offsetY = offsetX, offsetY
	a.fromX, a.fromY = fromX, fromY
	a.scene.RemoveFromAll(b.Sprite())
	a.scene.SpriteList(scene.LayerPlayer).Append(b.Sprite())
	a.carry()
	return nil
}

// Update advances the actor by one frame
func (a *Actor) Update() error {
	a.updateSpeed()
	a.move()
	a.updateFacing()

	if err := a.checkBlockCollisions(); err != nil {
		return err
	}
	a.carry()

	if a.held != nil && !a.keys.Interact {
		return a.release()
	}
	return nil
}

func (a *Actor) updateSpeed() {
	a.vx, a.vy = 0, 0
	speed := a.cfg.Speed
	if a.keys.Run {
		speed *= a.cfg.RunMultiplier
	}

	if a.keys.Up && !a.keys.Down {
		a.vy = -speed
	} else if a.keys.Down && !a.keys.Up {
		a.vy = speed
	}
	if a.keys.Left && !a.keys.Right {
		a.vx = -speed
	} else if a.keys.Right && !a.keys.Left {
		a.vx = speed
	}
}

// move applies velocity one axis at a time, undoing any step that ends inside a wall
func (a *Actor) move() {
	walls := a.scene.SpriteList(scene.LayerWalls)
	if a.vx != 0 {
		a.sprite.X += a.vx
		if len(scene.CheckCollision(a.sprite, walls)) > 0 {
			a.sprite.X -= a.vx
		}
	}
	if a.vy != 0 {
		a.sprite.Y += a.vy
		if len(scene.CheckCollision(a.sprite, walls)) > 0 {
			a.sprite.Y -= a.vy
		}
	}
}

// updateFacing checks Up, Down, Left, Right in that order; the last held key wins
func (a *Actor) updateFacing() {
	if a.keys.Up {
		a.orientation = FacingUp
	}
	if a.keys.Down {
		a.orientation = FacingDown
	}
	if a.keys.Left {
		a.orientation = FacingLeft
	}
	if a.keys.Right {
		a.orientation = FacingRight
	}
	a.applyTexture()
}

func (a *Actor) checkBlockCollisions() error {
	if a.held != nil {
		return nil
	}

	hits := scene.CheckCollision(a.sprite, a.scene.SpriteList(scene.LayerNumberHitboxes))
	if len(hits) == 0 {
		a.target = nil
		a.host.SetCaption(false)
		return nil
	}

	hitbox := nearest(a.sprite, hits)
	block, ok := a.table.BlockForHitbox(hitbox)
	if !ok {
		a.target = nil
		return fmt.Errorf("%w: sprite %d", ErrOrphanHitbox, hitbox.ID)
	}
	a.target = block

	if a.keys.Interact {
		a.grab(block)
		a.host.SetCaption(false)
	} else {
		a.host.SetCaption(block.Classification().Grabbable())
	}
	return nil
}

// nearest picks the candidate whose center is closest; earlier entries win ties
func nearest(s *scene.Sprite, candidates []*scene.Sprite) *scene.Sprite {
	best := candidates[0]
	bestDist := scene.Distance(s, best)
	for _, c := range candidates[1:] {
		if d := scene.Distance(s, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func (a *Actor) grab(b *blocks.DigitBlock) {
	if !b.Grab(a) {
		return
	}
	a.held = b

	bx, by := b.Position()
	a.fromX, a.fromY = bx, by
	ux, uy := a.orientation.unit()
	a.offsetX = bx - a.sprite.X + ux
	a.offsetY = by - a.sprite.Y + uy

	a.scene.RemoveFromAll(b.Sprite())
	a.scene.SpriteList(scene.LayerPlayer).Append(b.Sprite())
}

func (a *Actor) carry() {
	if a.held == nil {
		return
	}
	a.held.MoveTo(a.sprite.X+a.offsetX, a.sprite.Y+a.offsetY)
}

func (a *Actor) release() error {
	b := a.held

	var settleErr error
	if a.settler != nil {
		settleErr = a.settler.Settle(b)
	}
	b.Release()
	a.scene.RemoveFromAll(b.Sprite())
	a.scene.SpriteList(scene.LayerNumbers).Append(b.Sprite())
	a.held = nil
	a.offsetX, a.offsetY = 0, 0
	a.host.UpdateScore()

	if settleErr != nil {
		return fmt.Errorf("settle block %d: %w", b.ID(), settleErr)
	}
	return nil
}

func (a *Actor) applyTexture() {
	a.sprite.Texture = a.textures[a.orientation]
}
