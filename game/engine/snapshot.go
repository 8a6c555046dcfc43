package engine

import (
	"fmt"
	"sort"

	"github.com/wricardo/mcp-training/numberblocks/game/actor"
	"github.com/wricardo/mcp-training/numberblocks/game/assembly"
	"github.com/wricardo/mcp-training/numberblocks/game/blocks"
	"github.com/wricardo/mcp-training/numberblocks/game/problem"
)

func (e *GameEngine) snapshot() *GameState {
	w := e.world
	state := &GameState{
		ConfigName:    e.config.Name,
		Seed:          e.seed,
		Resets:        e.resets,
		Frame:         w.frame,
		Width:         e.config.Width,
		Height:        e.config.Height,
		TileSize:      e.config.TileSize,
		Pitch:         w.pitch,
		Walls:         append([]Rect{}, w.walls...),
		Player:        w.playerState(),
		Caption:       w.caption,
		Score:         w.score,
		TotalProblems: len(w.problems),
		Victory:       w.victory,
		Message:       w.message,

		History:                  append([]InteractionEntry{}, e.history...),
		TotalInteractions:        e.total,
		CurrentInteractions:      append([]InteractionEntry{}, e.current...),
		CurrentInteractionsCount: e.currentCount,
	}

	for _, b := range w.table.Blocks() {
		state.Blocks = append(state.Blocks, w.blockState(b))
	}
	for _, g := range w.table.Groups() {
		gs := GroupState{ID: g.ID(), Text: g.String()}
		gs.X, gs.Y = g.Position()
		for _, b := range g.Blocks() {
			gs.Blocks = append(gs.Blocks, b.ID())
		}
		state.Groups = append(state.Groups, gs)
	}
	for _, v := range w.problems {
		state.Problems = append(state.Problems, w.problemState(v))
	}
	return state
}

func (w *world) playerState() PlayerState {
	a := w.actor
	x, y := a.Position()
	ps := PlayerState{
		X:           x,
		Y:           y,
		Cell:        w.cellOf(x, y),
		Orientation: a.Orientation(),
		Keys:        a.Keys(),
	}
	if held := a.Held(); held != nil {
		ps.Held = held.ID()
		ps.HeldOffsetX, ps.HeldOffsetY = a.HeldOffset()
		origin := w.cellOf(a.HeldFrom())
		ps.GrabOrigin = &origin
	}
	if target := a.Target(); target != nil {
		ps.Target = target.ID()
	}
	return ps
}

func (w *world) blockState(b *blocks.DigitBlock) BlockState {
	x, y := b.Position()
	bs := BlockState{
		ID:             b.ID(),
		Value:          b.Value(),
		Classification: b.Classification(),
		GroupPosition:  b.GroupPosition(),
		X:              x,
		Y:              y,
		Cell:           w.cellOf(x, y),
		Held:           b.Holder() != nil,
	}
	if g, ok := b.Group(); ok {
		bs.Group = g.ID()
	}
	if tex := b.Sprite().Texture; tex != nil {
		bs.Frame = tex.Path
	}
	if tex := b.Overlay().Texture; tex != nil {
		bs.Overlay = tex.Path
	}
	return bs
}

func (w *world) problemState(v *assembly.VisualProblem) ProblemState {
	ax, ay := v.Anchor()
	ps := ProblemState{
		ID:        v.ID,
		Text:      v.Problem.String(),
		LHS:       v.Problem.LHS,
		Operator:  v.Problem.Operator.String(),
		RHS:       v.Problem.RHS,
		Answer:    v.Problem.Answer,
		Anchor:    w.cellOf(ax, ay),
		Slots:     v.Slots(),
		Scattered: v.Scattered(),
		Solved:    w.solved[v.ID],
	}
	for _, g := range v.Groups() {
		var id blocks.GroupID
		if g != nil && g.Size() > 0 {
			id = g.ID()
		}
		ps.Groups = append(ps.Groups, id)
	}
	for _, s := range ps.Slots {
		ps.SlotCells = append(ps.SlotCells, w.cellOf(s.X, s.Y))
	}
	return ps
}

// restoreWorld rebuilds a world from a snapshot. Block ids are preserved;
// group ids are reassigned.
func restoreWorld(cfg *GameConfig, state *GameState) (*world, error) {
	w, err := newBaseWorld(cfg)
	if err != nil {
		return nil, err
	}

	saved := append([]BlockState{}, state.Blocks...)
	sort.Slice(saved, func(i, j int) bool { return saved[i].ID < saved[j].ID })

	byID := make(map[blocks.BlockID]*blocks.DigitBlock, len(saved))
	for _, bs := range saved {
		b, err := w.table.NewBlock(bs.Value)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", bs.ID, err)
		}
		b.SetClassification(bs.Classification)
		b.MoveTo(bs.X, bs.Y)
		byID[bs.ID] = b
	}

	groups := make(map[blocks.GroupID]*blocks.Group, len(state.Groups))
	for _, gs := range state.Groups {
		members := make([]*blocks.DigitBlock, 0, len(gs.Blocks))
		for _, id := range gs.Blocks {
			b, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("group %d: unknown block %d", gs.ID, id)
			}
			members = append(members, b)
		}
		g, err := w.table.NewGroup(members...)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", gs.ID, err)
		}
		groups[gs.ID] = g
	}
	for _, b := range byID {
		if _, ok := b.Group(); !ok {
			if _, err := w.table.NewGroup(b); err != nil {
				return nil, err
			}
		}
	}

	for _, ps := range state.Problems {
		op, err := problem.ParseOperator(ps.Operator)
		if err != nil {
			return nil, fmt.Errorf("problem %s: %w", ps.ID, err)
		}
		if len(ps.Groups) != 5 {
			return nil, fmt.Errorf("problem %s: expected 5 groups, got %d", ps.ID, len(ps.Groups))
		}
		parts := make([]*blocks.Group, 5)
		for i, id := range ps.Groups {
			if id != 0 {
				parts[i] = groups[id]
			}
		}
		p := problem.Problem{LHS: ps.LHS, RHS: ps.RHS, Operator: op, Answer: ps.Answer}
		ax, ay := w.center(ps.Anchor)
		v, err := assembly.Restore(w.table, ps.ID, p, parts[0], parts[1], parts[2], parts[3], parts[4], ax, ay, ps.Scattered)
		if err != nil {
			return nil, err
		}
		w.problems = append(w.problems, v)
		if ps.Solved {
			w.solved[v.ID] = true
		}
	}

	w.actor, err = actor.New(w.scene, w.table, w, w, w.actorConfig(cfg.PlayerStart))
	if err != nil {
		return nil, err
	}
	p := state.Player
	w.actor.Teleport(p.X, p.Y, p.Orientation)
	for _, a := range p.Keys.Pressed() {
		if err := w.actor.SetKey(a, true); err != nil {
			return nil, err
		}
	}
	if p.Held != 0 {
		b, ok := byID[p.Held]
		if !ok {
			return nil, fmt.Errorf("held block %d not found", p.Held)
		}
		fromX, fromY := b.Position()
		if p.GrabOrigin != nil {
			fromX, fromY = w.center(*p.GrabOrigin)
		}
		if err := w.actor.RestoreHold(b, p.HeldOffsetX, p.HeldOffsetY, fromX, fromY); err != nil {
			return nil, err
		}
	}

	w.frame = state.Frame
	w.caption = state.Caption
	w.score = state.Score
	w.victory = state.Victory
	w.message = state.Message
	return w, nil
}
