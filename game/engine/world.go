package engine

import (
	"fmt"
	"math/rand"

	"github.com/wricardo/mcp-training/numberblocks/game/actor"
	"github.com/wricardo/mcp-training/numberblocks/game/assembly"
	"github.com/wricardo/mcp-training/numberblocks/game/blocks"
	"github.com/wricardo/mcp-training/numberblocks/game/problem"
	"github.com/wricardo/mcp-training/numberblocks/game/scene"
)

// world is one playable level: scene, blocks, problems and the actor. It is
// the actor's score host and settle policy.
type world struct {
	cfg      *GameConfig
	scene    *scene.Scene
	table    *blocks.Table
	actor    *actor.Actor
	problems []*assembly.VisualProblem
	walls    []Rect
	pitch    float64

	frame      int64
	caption    bool
	score      int
	victory    bool
	message    string
	solved     map[string]bool
	lastSettle string
	events     []Event
}

// newBaseWorld creates the scene, block table and walls without any blocks
func newBaseWorld(cfg *GameConfig) (*world, error) {
	scn := scene.New(scene.NewTextureCache(Manifest()))
	table, err := blocks.NewTable(scn, cfg.TileSize)
	if err != nil {
		return nil, err
	}

	w := &world{
		cfg:     cfg,
		scene:   scn,
		table:   table,
		pitch:   table.Pitch(),
		solved:  make(map[string]bool),
		message: cfg.Messages.Welcome,
	}
	w.walls = append(boundaryWalls(cfg.Width, cfg.Height), cfg.Walls...)

	if err := w.buildStatic(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *world) buildStatic() error {
	textures := w.scene.Textures()
	wallTex, err := textures.Load(WallKey)
	if err != nil {
		return err
	}
	floorTex, err := textures.Load(FloorKey)
	if err != nil {
		return err
	}

	for _, r := range w.walls {
		cx := (float64(r.X) + float64(r.W-1)/2) * w.pitch
		cy := (float64(r.Y) + float64(r.H-1)/2) * w.pitch
		s := w.scene.NewSprite(cx, cy, float64(r.W)*w.pitch, float64(r.H)*w.pitch)
		s.Texture = wallTex
		w.scene.SpriteList(scene.LayerWalls).Append(s)
	}

	cx := float64(w.cfg.Width-1) / 2 * w.pitch
	cy := float64(w.cfg.Height-1) / 2 * w.pitch
	floor := w.scene.NewSprite(cx, cy, float64(w.cfg.Width)*w.pitch, float64(w.cfg.Height)*w.pitch)
	floor.Texture = floorTex
	w.scene.SpriteList(scene.LayerBackground).Append(floor)
	return nil
}

// newWorld builds a fresh level: problems from seed, scattered answers, distractors and the actor
func newWorld(cfg *GameConfig, seed int64) (*world, error) {
	w, err := newBaseWorld(cfg)
	if err != nil {
		return nil, err
	}

	gen := problem.NewGenerator(seed)
	rng := rand.New(rand.NewSource(seed))

	for i, slot := range cfg.Problems {
		ops, err := SlotOperators(slot)
		if err != nil {
			return nil, fmt.Errorf("problem %d: %w", i+1, err)
		}
		gen.Operators = ops
		min, max := slot.SlotRange()
		v, err := assembly.New(w.table, gen, min, max)
		if err != nil {
			return nil, fmt.Errorf("problem %d: %w", i+1, err)
		}
		v.Layout(w.center(slot.Anchor))
		w.problems = append(w.problems, v)
	}

	for _, d := range cfg.LooseDigits {
		g, err := w.table.NewGroupFromToken(d.Value)
		if err != nil {
			return nil, fmt.Errorf("loose digit %q: %w", d.Value, err)
		}
		g.MoveTo(w.center(d.At))
	}

	var loose []*blocks.Group
	for i, v := range w.problems {
		if !cfg.Problems[i].Scrambled() {
			continue
		}
		groups, err := v.Scatter()
		if err != nil {
			return nil, err
		}
		loose = append(loose, groups...)
	}
	for i := 0; i < cfg.Distractors; i++ {
		g, err := w.table.NewGroupFromNumber(rng.Intn(10))
		if err != nil {
			return nil, err
		}
		loose = append(loose, g)
	}
	if err := w.scatter(loose, rng); err != nil {
		return nil, err
	}

	w.actor, err = actor.New(w.scene, w.table, w, w, w.actorConfig(cfg.PlayerStart))
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (w *world) actorConfig(start Cell) actor.Config {
	x, y := w.center(start)
	return actor.Config{
		Speed:         w.cfg.Speed,
		RunMultiplier: w.cfg.RunMultiplier,
		StartX:        x,
		StartY:        y,
	}
}

// scatter moves each group onto a distinct random free cell of the scramble area
func (w *world) scatter(groups []*blocks.Group, rng *rand.Rand) error {
	if len(groups) == 0 {
		return nil
	}
	if w.cfg.ScrambleArea == nil {
		return fmt.Errorf("scramble_area is required to scatter %d blocks", len(groups))
	}

	area := *w.cfg.ScrambleArea
	var free []Cell
	for y := area.Y; y < area.Y+area.H; y++ {
		for x := area.X; x < area.X+area.W; x++ {
			c := Cell{x, y}
			if c == w.cfg.PlayerStart || !w.open(c, nil) {
				continue
			}
			if _, _, ok := w.slotAt(c); ok {
				continue
			}
			free = append(free, c)
		}
	}
	if len(free) < len(groups) {
		return fmt.Errorf("scramble area has %d free cells for %d blocks", len(free), len(groups))
	}

	rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })
	for i, g := range groups {
		g.MoveTo(w.center(free[i]))
	}
	return nil
}

func (w *world) center(c Cell) (float64, float64) {
	return CellCenter(c, w.pitch)
}

func (w *world) cellOf(x, y float64) Cell {
	return CellOf(x, y, w.pitch)
}

func (w *world) blockCell(b *blocks.DigitBlock) Cell {
	return w.cellOf(b.Position())
}

// blockAt returns the block resting on c, ignoring except and any held block
func (w *world) blockAt(c Cell, except *blocks.DigitBlock) *blocks.DigitBlock {
	for _, b := range w.table.Blocks() {
		if b == except || b.Holder() != nil {
			continue
		}
		if w.blockCell(b) == c {
			return b
		}
	}
	return nil
}

// open reports whether c is inside the world, not a wall, and free of blocks
func (w *world) open(c Cell, except *blocks.DigitBlock) bool {
	if c.X < 0 || c.Y < 0 || c.X >= w.cfg.Width || c.Y >= w.cfg.Height {
		return false
	}
	if inWall(w.walls, c) {
		return false
	}
	return w.blockAt(c, except) == nil
}

// slotAt finds the answer slot at c
func (w *world) slotAt(c Cell) (*assembly.VisualProblem, int, bool) {
	x, y := w.center(c)
	for _, v := range w.problems {
		if i, ok := v.SlotAt(x, y); ok {
			return v, i, true
		}
	}
	return nil, -1, false
}

func (w *world) problemOf(b *blocks.DigitBlock) *assembly.VisualProblem {
	for _, v := range w.problems {
		if v.Contains(b) {
			return v
		}
	}
	return nil
}

func (w *world) emit(ev Event) {
	ev.Frame = w.frame
	w.events = append(w.events, ev)
}

func (w *world) drain() []Event {
	out := w.events
	w.events = nil
	return out
}

// SetCaption records whether the interact prompt is showing
func (w *world) SetCaption(visible bool) {
	w.caption = visible
}

// UpdateScore counts problems whose every answer slot holds a Correct block
func (w *world) UpdateScore() {
	score := 0
	for _, v := range w.problems {
		if !w.isSolved(v) {
			continue
		}
		score++
		if !w.solved[v.ID] {
			w.solved[v.ID] = true
			msg := ""
			if w.cfg.Messages.Solved != "" {
				msg = fmt.Sprintf(w.cfg.Messages.Solved, v.Problem.String())
				w.message = msg
			}
			w.emit(Event{Type: EventSolved, ProblemID: v.ID, Message: msg})
		}
	}
	w.score = score

	if !w.victory && len(w.problems) > 0 && score == len(w.problems) {
		w.victory = true
		w.message = fmt.Sprintf(w.cfg.Messages.Victory, len(w.problems))
		w.emit(Event{Type: EventVictory, Message: w.message})
	}
}

func (w *world) isSolved(v *assembly.VisualProblem) bool {
	for _, slot := range v.Slots() {
		b := w.blockAt(w.cellOf(slot.X, slot.Y), nil)
		if b == nil || b.Classification() != blocks.Correct || b.Value() != slot.Expected {
			return false
		}
	}
	return true
}
