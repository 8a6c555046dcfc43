package actor

import (
	"errors"
	"testing"

	"github.com/wricardo/mcp-training/numberblocks/game/blocks"
	"github.com/wricardo/mcp-training/numberblocks/game/scene"
)

type recordingHost struct {
	scores  int
	caption bool
}

func (h *recordingHost) UpdateScore()            { h.scores++ }
func (h *recordingHost) SetCaption(visible bool) { h.caption = visible }

type countingSettler struct {
	settled []*blocks.DigitBlock
	err     error
}

func (s *countingSettler) Settle(b *blocks.DigitBlock) error {
	s.settled = append(s.settled, b)
	return s.err
}

type world struct {
	scene   *scene.Scene
	table   *blocks.Table
	host    *recordingHost
	settler *countingSettler
	actor   *Actor
}

func newWorld(t *testing.T) *world {
	t.Helper()
	manifest := blocks.Manifest()
	for k, v := range Manifest() {
		manifest[k] = v
	}
	scn := scene.New(scene.NewTextureCache(manifest))
	table, err := blocks.NewTable(scn, 32)
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	w := &world{scene: scn, table: table, host: &recordingHost{}, settler: &countingSettler{}}
	w.actor, err = New(scn, table, w.host, w.settler, Config{})
	if err != nil {
		t.Fatalf("Failed to create actor: %v", err)
	}
	return w
}

func (w *world) block(t *testing.T, v blocks.Value, x, y float64) *blocks.DigitBlock {
	t.Helper()
	b, err := w.table.NewBlock(v)
	if err != nil {
		t.Fatalf("Failed to create block: %v", err)
	}
	b.MoveTo(x, y)
	return b
}

func (w *world) step(t *testing.T) {
	t.Helper()
	if err := w.actor.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
}

func TestNew_Preconditions(t *testing.T) {
	scn := scene.New(scene.NewTextureCache(Manifest()))
	if _, err := New(scn, nil, &recordingHost{}, nil, Config{}); !errors.Is(err, ErrNilWorld) {
		t.Errorf("Expected ErrNilWorld, got %v", err)
	}

	w := newWorld(t)
	if _, err := New(w.scene, w.table, nil, nil, Config{}); !errors.Is(err, ErrNilHost) {
		t.Errorf("Expected ErrNilHost, got %v", err)
	}
	if !w.scene.SpriteList(scene.LayerPlayer).Contains(w.actor.Sprite()) {
		t.Error("Expected actor sprite in player layer")
	}
}

func TestUpdate_Movement(t *testing.T) {
	tests := []struct {
		name   string
		keys   []Action
		vx, vy float64
	}{
		{"idle", nil, 0, 0},
		{"up", []Action{ActionUp}, 0, -DefaultSpeed},
		{"down", []Action{ActionDown}, 0, DefaultSpeed},
		{"left", []Action{ActionLeft}, -DefaultSpeed, 0},
		{"right run", []Action{ActionRight, ActionRun}, DefaultSpeed * DefaultRunMultiplier, 0},
		{"opposites cancel", []Action{ActionUp, ActionDown, ActionLeft, ActionRight}, 0, 0},
		{"diagonal", []Action{ActionUp, ActionLeft}, -DefaultSpeed, -DefaultSpeed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWorld(t)
			for _, k := range tt.keys {
				w.actor.SetKey(k, true)
			}
			w.step(t)
			vx, vy := w.actor.Velocity()
			if vx != tt.vx || vy != tt.vy {
				t.Errorf("Expected velocity (%v,%v), got (%v,%v)", tt.vx, tt.vy, vx, vy)
			}
			x, y := w.actor.Position()
			if x != tt.vx || y != tt.vy {
				t.Errorf("Expected position (%v,%v), got (%v,%v)", tt.vx, tt.vy, x, y)
			}
		})
	}
}

func TestUpdate_FacingLastMatchWins(t *testing.T) {
	tests := []struct {
		keys []Action
		want Orientation
	}{
		{[]Action{ActionUp}, FacingUp},
		{[]Action{ActionUp, ActionDown}, FacingDown},
		{[]Action{ActionUp, ActionLeft}, FacingLeft},
		{[]Action{ActionLeft, ActionRight}, FacingRight},
		{[]Action{ActionDown, ActionLeft, ActionUp}, FacingLeft},
	}

	for _, tt := range tests {
		w := newWorld(t)
		for _, k := range tt.keys {
			w.actor.SetKey(k, true)
		}
		w.step(t)
		if w.actor.Orientation() != tt.want {
			t.Errorf("Keys %v: expected facing %s, got %s", tt.keys, tt.want, w.actor.Orientation())
		}
		if w.actor.Sprite().Texture.Key != textureKey(tt.want) {
			t.Errorf("Keys %v: expected texture %s, got %s", tt.keys, textureKey(tt.want), w.actor.Sprite().Texture.Key)
		}
	}
}

func TestUpdate_WallBlocksMovement(t *testing.T) {
	w := newWorld(t)
	wall := w.scene.NewSprite(50, 0, 32, 200)
	w.scene.SpriteList(scene.LayerWalls).Append(wall)

	w.actor.SetKey(ActionRight, true)
	w.actor.SetKey(ActionDown, true)
	for i := 0; i < 20; i++ {
		w.step(t)
	}
	x, y := w.actor.Position()
	// actor half width 24, wall left edge 34
	if x+24 > 34 {
		t.Errorf("Expected wall to stop the actor, x=%v", x)
	}
	if y != 20*DefaultSpeed {
		t.Errorf("Expected free vertical movement, y=%v", y)
	}
}

func TestUpdate_NearestHitboxIsGrabbed(t *testing.T) {
	w := newWorld(t)
	far := w.block(t, '8', 8, 0)
	near := w.block(t, '5', 0, 5)

	w.actor.SetKey(ActionInteract, true)
	w.step(t)

	if w.actor.Held() != near {
		t.Fatalf("Expected nearest block (distance 5) to be held")
	}
	if far.Holder() != nil {
		t.Error("Expected the farther block to stay free")
	}
	if near.Holder() == nil {
		t.Error("Expected held block to record its holder")
	}
}

func TestUpdate_CaptionPrompt(t *testing.T) {
	w := newWorld(t)
	b := w.block(t, '3', 10, 0)

	w.step(t)
	if !w.host.caption {
		t.Error("Expected caption shown next to a movable block")
	}
	if w.actor.Target() != b {
		t.Error("Expected block to be targeted")
	}

	b.SetClassification(blocks.Immovable)
	w.step(t)
	if w.host.caption {
		t.Error("Expected caption hidden next to an immovable block")
	}

	b.MoveTo(500, 500)
	w.step(t)
	if w.host.caption || w.actor.Target() != nil {
		t.Error("Expected caption hidden with nothing in reach")
	}
}

func TestUpdate_GrabGate(t *testing.T) {
	for _, class := range []blocks.Classification{blocks.Immovable, blocks.Operator, blocks.Correct} {
		w := newWorld(t)
		b := w.block(t, '1', 10, 0)
		b.SetClassification(class)

		w.actor.SetKey(ActionInteract, true)
		w.step(t)
		if w.actor.Held() != nil {
			t.Errorf("Expected %s block not to be grabbed", class)
		}
	}
}

func TestUpdate_GrabCarryRelease(t *testing.T) {
	w := newWorld(t)
	b := w.block(t, '7', 20, 0)
	numbers := w.scene.SpriteList(scene.LayerNumbers)
	player := w.scene.SpriteList(scene.LayerPlayer)

	w.actor.SetKey(ActionRight, true)
	w.actor.SetKey(ActionInteract, true)
	w.step(t)

	if w.actor.Held() != b {
		t.Fatal("Expected block to be grabbed")
	}
	if numbers.Contains(b.Sprite()) || !player.Contains(b.Sprite()) {
		t.Error("Expected grabbed block to move to the player layer")
	}
	ox, oy := w.actor.HeldOffset()
	// actor moved to x=5 before the grab; block at 20; facing right adds one unit
	if ox != 16 || oy != 0 {
		t.Errorf("Expected offset (16,0), got (%v,%v)", ox, oy)
	}

	for i := 0; i < 4; i++ {
		w.step(t)
	}
	ax, ay := w.actor.Position()
	bx, by := b.Position()
	if bx != ax+16 || by != ay {
		t.Errorf("Expected block carried at (%v,%v), got (%v,%v)", ax+16, ay, bx, by)
	}
	if b.Hitbox().X != bx || b.Overlay().X != bx {
		t.Error("Expected hitbox and overlay to follow the carried block")
	}

	w.actor.SetKey(ActionInteract, false)
	w.step(t)

	if w.actor.Held() != nil {
		t.Error("Expected block released")
	}
	if b.Holder() != nil {
		t.Error("Expected holder cleared")
	}
	if !numbers.Contains(b.Sprite()) || player.Contains(b.Sprite()) {
		t.Error("Expected released block back in the numbers layer")
	}
	if w.host.scores != 1 {
		t.Errorf("Expected one score update, got %d", w.host.scores)
	}
	if len(w.settler.settled) != 1 || w.settler.settled[0] != b {
		t.Errorf("Expected block settled once, got %d", len(w.settler.settled))
	}

	// a second cycle transfers again exactly once
	w.actor.SetKey(ActionInteract, true)
	w.step(t)
	w.actor.SetKey(ActionInteract, false)
	w.step(t)
	if w.host.scores != 2 || len(w.settler.settled) != 2 {
		t.Errorf("Expected two cycles, got scores=%d settles=%d", w.host.scores, len(w.settler.settled))
	}
	count := 0
	for _, s := range numbers.Sprites() {
		if s == b.Sprite() {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected block sprite once in numbers layer, got %d", count)
	}
}

func TestUpdate_OrphanHitbox(t *testing.T) {
	w := newWorld(t)
	stray := w.scene.NewSprite(0, 0, 40, 40)
	w.scene.SpriteList(scene.LayerNumberHitboxes).Append(stray)

	err := w.actor.Update()
	if !errors.Is(err, ErrOrphanHitbox) {
		t.Errorf("Expected ErrOrphanHitbox, got %v", err)
	}
}

func TestUpdate_SettleErrorStillReleases(t *testing.T) {
	w := newWorld(t)
	w.settler.err = errors.New("boom")
	w.block(t, '2', 10, 0)

	w.actor.SetKey(ActionInteract, true)
	w.step(t)
	w.actor.SetKey(ActionInteract, false)
	if err := w.actor.Update(); err == nil {
		t.Error("Expected settle error to surface")
	}
	if w.actor.Held() != nil {
		t.Error("Expected block released despite settle error")
	}
}

func TestParseAction(t *testing.T) {
	for in, want := range map[string]Action{"W": ActionUp, "space": ActionInteract, "shift": ActionRun, "left": ActionLeft} {
		got, err := ParseAction(in)
		if err != nil || got != want {
			t.Errorf("ParseAction(%q): expected %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := ParseAction("jump"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("Expected ErrUnknownAction, got %v", err)
	}
}
